// Package catalog is the static registry of plan operations: their names,
// parameter schemas and typed argument variants.
package catalog

import (
	"sort"

	"alcyxob/plan-engine/internal/nutrition"
)

// Operation names.
const (
	OpInjury             = "modify_routine_injury"
	OpFocus              = "modify_routine_focus"
	OpDifficulty         = "adjust_routine_difficulty"
	OpSubstituteExercise = "substitute_exercise"
	OpEquipment          = "modify_routine_equipment"
	OpMacros             = "recalculate_diet_macros"
	OpSubstituteFood     = "substitute_disliked_food"
	OpMealAlternatives   = "generate_meal_alternatives"
	OpSimplifyDiet       = "simplify_diet_plan"
	OpUndo               = "revert_last_modification"
)

// Family groups operations by the document they act on.
type Family string

const (
	FamilyRoutine Family = "routine"
	FamilyDiet    Family = "diet"
	FamilyMeta    Family = "meta"
)

// ParamType is the declared type of a parameter.
type ParamType string

const (
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeString  ParamType = "string"
	TypeBoolean ParamType = "boolean"
	TypeEnum    ParamType = "enum"
)

// Param declares one operation parameter.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	EnumValues  []string  `json:"enum_values,omitempty"`
	Description string    `json:"description,omitempty"`

	// aliases maps folded spellings to a canonical enum value.
	aliases map[string]string
}

// Definition is one catalog entry.
type Definition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Family      Family  `json:"family"`
	Params      []Param `json:"parameters"`

	bind func(Values) (Args, error)
}

// clone copies d so callers cannot reach the catalog's own entries.
func (d *Definition) clone() *Definition {
	c := *d
	c.Params = make([]Param, len(d.Params))
	for i, p := range d.Params {
		if p.Min != nil {
			v := *p.Min
			p.Min = &v
		}
		if p.Max != nil {
			v := *p.Max
			p.Max = &v
		}
		p.EnumValues = append([]string(nil), p.EnumValues...)
		c.Params[i] = p
	}
	return &c
}

// Catalog is immutable after New and safe for concurrent reads.
type Catalog struct {
	defs   []*Definition
	byName map[string]*Definition
}

// New builds the operation catalog.
func New() *Catalog {
	c := &Catalog{byName: make(map[string]*Definition)}
	for _, d := range definitions() {
		c.defs = append(c.defs, d)
		c.byName[d.Name] = d
	}
	return c
}

// Lookup returns a copy of the definition for name.
func (c *Catalog) Lookup(name string) (*Definition, bool) {
	d, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return d.clone(), true
}

// Definitions returns copies of the entries in declaration order.
func (c *Catalog) Definitions() []*Definition {
	out := make([]*Definition, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.clone()
	}
	return out
}

// Names returns the sorted operation names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for _, d := range c.defs {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// Normalize validates raw arguments for the named operation and binds them to
// their typed variant.
func (c *Catalog) Normalize(name string, raw map[string]any) (Args, error) {
	d, ok := c.Lookup(name)
	if !ok {
		return nil, errUnknownOperation(name)
	}
	vals, err := Validate(d, raw)
	if err != nil {
		return nil, err
	}
	return d.bind(vals)
}

func bound(lo, hi float64) (*float64, *float64) { return &lo, &hi }

func enumParam(name string, required bool, desc string, values []string, aliases map[string]string) Param {
	return Param{Name: name, Type: TypeEnum, Required: required, EnumValues: values, Description: desc, aliases: aliases}
}

var (
	bodyParts = []string{"hombro", "rodilla", "espalda", "cuello", "muñeca", "tobillo", "codo", "cadera",
		"cuadriceps", "piernas", "muslos", "gemelos", "pantorrillas", "pies", "pecho", "brazos",
		"antebrazo", "lumbar", "cervical", "dorsal", "core", "abdomen"}
	injuryTypes = []string{"tendinitis", "esguince", "contractura", "inflamacion", "dolor_cronico",
		"post_cirugia", "desgarro", "distension", "luxacion", "fractura", "bursitis", "artritis", "dolor_muscular"}
	muscleGroups = []string{"brazos", "pecho", "espalda", "piernas", "hombros", "core", "gluteos", "pantorrillas"}
	equipment    = []string{"peso_libre", "maquinas", "cuerpo_libre", "bandas", "kettlebell", "cualquiera"}
	gymEquipment = []string{"press_banca", "sentadilla_rack", "pesas_libres", "maquinas", "cables", "poleas",
		"smith_machine", "rack_multiuso", "barras", "discos", "mancuernas", "kettlebells",
		"bandas_elasticas", "step", "banco", "colchoneta"}
	mealTypes = []string{"desayuno", "almuerzo", "cena", "snack"}
)

var muscleAliases = map[string]string{
	"pectoral":    "pecho",
	"pectorales":  "pecho",
	"chest":       "pecho",
	"cuadriceps":  "piernas",
	"femoral":     "piernas",
	"legs":        "piernas",
	"deltoides":   "hombros",
	"hombro":      "hombros",
	"shoulders":   "hombros",
	"dorsales":    "espalda",
	"dorsal":      "espalda",
	"back":        "espalda",
	"biceps":      "brazos",
	"triceps":     "brazos",
	"arms":        "brazos",
	"gluteo":      "gluteos",
	"glutes":      "gluteos",
	"abdomen":     "core",
	"abdominales": "core",
	"gemelos":     "pantorrillas",
}

var mealAliases = map[string]string{
	"comida":       "almuerzo",
	"lunch":        "almuerzo",
	"breakfast":    "desayuno",
	"dinner":       "cena",
	"merienda":     "snack",
	"media_manana": "snack",
	"tentempie":    "snack",
}

func goalAliases() map[string]string {
	return map[string]string{
		"volume": nutrition.GoalVolume, "bulk": nutrition.GoalVolume, "ganar_masa": nutrition.GoalVolume,
		"definition": nutrition.GoalDefinition, "cut": nutrition.GoalDefinition, "perder_grasa": nutrition.GoalDefinition,
		"maintenance": nutrition.GoalMaintenance, "mantener": nutrition.GoalMaintenance,
		"strength": nutrition.GoalStrength, "endurance": nutrition.GoalEndurance,
	}
}

func definitions() []*Definition {
	return []*Definition{
		{
			Name:        OpInjury,
			Family:      FamilyRoutine,
			Description: "Adapt the routine to an injury or pain: remove exercises that load the injured region and add safe alternatives.",
			Params: []Param{
				enumParam("body_part", true, "Injured body region", bodyParts, map[string]string{
					"hombros": "hombro", "rodillas": "rodilla", "munecas": "muneca", "tobillos": "tobillo",
					"codos": "codo", "caderas": "cadera", "shoulder": "hombro", "knee": "rodilla",
					"back": "espalda", "neck": "cuello", "wrist": "muneca", "ankle": "tobillo", "elbow": "codo",
					"hip": "cadera", "cuadricep": "cuadriceps", "gemelo": "gemelos", "pie": "pies", "brazo": "brazos",
				}),
				enumParam("injury_type", true, "Kind of injury", injuryTypes, map[string]string{
					"dolor": "dolor_muscular", "lesion": "dolor_muscular", "tendinopatia": "tendinitis",
					"rotura": "desgarro", "sprain": "esguince",
				}),
				enumParam("severity", true, "Severity", []string{"mild", "moderate", "severe"}, map[string]string{
					"leve": "mild", "moderada": "moderate", "moderado": "moderate", "grave": "severe", "severa": "severe",
				}),
			},
			bind: bindInjury,
		},
		{
			Name:        OpFocus,
			Family:      FamilyRoutine,
			Description: "Put more emphasis on a muscle group: more volume or frequency while keeping the routine balanced.",
			Params: []Param{
				enumParam("focus_area", true, "Muscle group to emphasise", muscleGroups, muscleAliases),
				{Name: "increase_frequency", Type: TypeBoolean, Description: "Train the group on an extra day"},
				enumParam("volume_change", false, "How much volume to add",
					[]string{"ligero_aumento", "aumento_moderado", "aumento_significativo", "mantener_volumen"}, map[string]string{
						"ligero": "ligero_aumento", "moderado": "aumento_moderado", "significativo": "aumento_significativo",
						"mucho": "aumento_significativo", "mantener": "mantener_volumen",
					}),
			},
			bind: bindFocus,
		},
		{
			Name:        OpDifficulty,
			Family:      FamilyRoutine,
			Description: "Make the whole routine harder or easier.",
			Params: []Param{
				enumParam("direction", true, "increase or decrease", []string{"increase", "decrease"}, map[string]string{
					"aumentar": "increase", "subir": "increase", "mas": "increase", "harder": "increase",
					"disminuir": "decrease", "bajar": "decrease", "menos": "decrease", "easier": "decrease",
				}),
				enumParam("reason", false, "Why the user wants the change",
					[]string{"usuario_se_siente_cansado", "usuario_quiere_mas_desafio", "progreso_estancado",
						"tiempo_disponible_cambiado", "motivacion_baja"}, nil),
			},
			bind: bindDifficulty,
		},
		{
			Name:        OpSubstituteExercise,
			Family:      FamilyRoutine,
			Description: "Replace one named exercise with an alternative that trains the same muscles with available equipment.",
			Params: []Param{
				{Name: "exercise_to_replace", Type: TypeString, Required: true, Description: "Exercise name as written in the routine"},
				enumParam("replacement_reason", false, "Why it is replaced",
					[]string{"no_gusta", "no_tiene_maquina", "muy_dificil", "muy_facil", "incomodo", "no_disponible", "otro"}, nil),
				enumParam("target_muscles", false, "Muscles the replacement must train",
					append(append([]string{}, muscleGroups...), "todo_cuerpo"), muscleAliases),
				enumParam("equipment_available", false, "Equipment the user can use", equipment, map[string]string{
					"mancuernas": "peso_libre", "barra": "peso_libre", "maquina": "maquinas", "peso_corporal": "cuerpo_libre",
					"sin_equipo": "cuerpo_libre", "gomas": "bandas", "kettlebells": "kettlebell", "cualquier": "cualquiera",
				}),
			},
			bind: bindSubstituteExercise,
		},
		{
			Name:        OpEquipment,
			Family:      FamilyRoutine,
			Description: "Adapt the routine when some equipment is not available.",
			Params: []Param{
				enumParam("missing_equipment", true, "Equipment that is not available", gymEquipment, map[string]string{
					"banco_press": "press_banca", "rack": "rack_multiuso", "smith": "smith_machine", "multipower": "smith_machine",
					"polea": "poleas", "cable": "cables", "maquina": "maquinas", "barra": "barras", "mancuerna": "mancuernas",
					"kettlebell": "kettlebells", "bandas": "bandas_elasticas", "gomas": "bandas_elasticas",
				}),
				enumParam("available_equipment", false, "Equipment that can be used", equipment, map[string]string{
					"mancuernas": "peso_libre", "maquina": "maquinas", "peso_corporal": "cuerpo_libre", "sin_equipo": "cuerpo_libre",
				}),
				{Name: "affected_exercises", Type: TypeString, Description: "Comma separated exercises the user mentioned"},
			},
			bind: bindEquipment,
		},
		{
			Name:        OpMacros,
			Family:      FamilyDiet,
			Description: "Recalculate calories and macros after a weight change, a new goal or an explicit calorie request.",
			Params: []Param{
				numberParam("weight_change_kg", TypeNumber, -10, 10, "Weight change in kg, positive when the user gained weight"),
				enumParam("goal", false, "Nutrition goal", nutrition.Goals, goalAliases()),
				numberParam("target_calories", TypeInteger, 1000, 6000, "Exact daily calories requested"),
				numberParam("calorie_adjustment", TypeInteger, -1500, 1500, "Calories to add or remove"),
				{Name: "is_incremental", Type: TypeBoolean, Description: "true when the adjustment applies to the current plan, false when it applies to maintenance"},
				enumParam("adjustment_type", false, "deficit or surplus", []string{"deficit", "surplus"}, map[string]string{
					"deficit_calorico": "deficit", "superavit": "surplus", "superavit_calorico": "surplus",
				}),
			},
			bind: bindMacros,
		},
		{
			Name:        OpSubstituteFood,
			Family:      FamilyDiet,
			Description: "Replace a disliked food in the diet with an equivalent one.",
			Params: []Param{
				{Name: "disliked_food", Type: TypeString, Required: true, Description: "Food to remove"},
				enumParam("meal_type", true, "Meal to change", append(append([]string{}, mealTypes...), "todos"),
					withAlias(mealAliases, map[string]string{"todas": "todos", "all": "todos"})),
				{Name: "replacement_food", Type: TypeString, Description: "Replacement the user asked for"},
			},
			bind: bindSubstituteFood,
		},
		{
			Name:        OpMealAlternatives,
			Family:      FamilyDiet,
			Description: "Suggest alternative options for one meal with the same calories and macros.",
			Params: []Param{
				enumParam("meal_type", true, "Meal to propose options for", mealTypes, mealAliases),
				numberParam("num_alternatives", TypeInteger, 2, 5, "How many options"),
			},
			bind: bindMealAlternatives,
		},
		{
			Name:        OpSimplifyDiet,
			Family:      FamilyDiet,
			Description: "Make the diet easier to prepare with fewer ingredients, keeping its calories and macros.",
			Params: []Param{
				enumParam("complexity_level", true, "Target complexity", []string{"muy_simple", "simple"}, map[string]string{
					"muy_sencillo": "muy_simple", "sencillo": "simple", "facil": "simple", "muy_facil": "muy_simple",
				}),
			},
			bind: bindSimplify,
		},
		{
			Name:        OpUndo,
			Family:      FamilyMeta,
			Description: "Undo the last change made to the plan.",
			bind:        func(Values) (Args, error) { return UndoArgs{}, nil },
		},
	}
}

func numberParam(name string, t ParamType, lo, hi float64, desc string) Param {
	lower, upper := bound(lo, hi)
	return Param{Name: name, Type: t, Min: lower, Max: upper, Description: desc}
}

func withAlias(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
