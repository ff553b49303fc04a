package generation

import (
	"strings"

	"alcyxob/plan-engine/internal/domain"
)

// Meals converts provider meals to the canonical shape. Meals without a name
// or without foods are dropped.
func Meals(p *ProviderPlan) []domain.Meal {
	if p == nil {
		return nil
	}
	var out []domain.Meal
	for _, m := range p.Diet.Meals {
		name := strings.TrimSpace(m.Name)
		items := nonEmpty(m.Foods)
		if name == "" || len(items) == 0 {
			continue
		}
		out = append(out, domain.Meal{
			Name: name,
			Kcal: int(m.Kcal),
			Macros: domain.Macros{
				Protein: int(m.Macros.Protein),
				Carbs:   int(m.Macros.Carbs),
				Fat:     int(m.Macros.Fat),
			},
			Items:        items,
			Alternatives: nonEmpty(m.Alternatives),
		})
	}
	return out
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
