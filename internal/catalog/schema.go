package catalog

// JSONSchema renders the parameters as a JSON Schema object, the shape
// function-calling providers expect.
func (d *Definition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Params))
	required := []string{}
	for _, p := range d.Params {
		prop := map[string]any{"description": p.Description}
		switch p.Type {
		case TypeEnum:
			prop["type"] = "string"
			prop["enum"] = p.EnumValues
		default:
			prop["type"] = string(p.Type)
		}
		if p.Min != nil {
			prop["minimum"] = *p.Min
		}
		if p.Max != nil {
			prop["maximum"] = *p.Max
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
