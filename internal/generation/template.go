package generation

import (
	"context"
	"errors"
	"math"

	"alcyxob/plan-engine/internal/foods"
)

type templateGenerator struct{}

// NewTemplate returns the deterministic generator: the default five meal day
// scaled to the requested energy, with allergen and disliked items swapped for
// equivalents.
func NewTemplate() Generator {
	return templateGenerator{}
}

func (templateGenerator) Generate(ctx context.Context, req Request) (*ProviderPlan, error) {
	if req.Targets.Calories <= 0 {
		return nil, errors.New("template generation needs a calorie target")
	}
	factor := float64(req.Targets.Calories) / foods.ReferenceKcal
	m := req.Targets.Macros
	plan := &ProviderPlan{}
	for _, tpl := range foods.DayTemplate {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var items []string
		for _, it := range tpl.Items {
			safe, ok := foods.SafeSwap(it, req.Inputs.Allergies, req.DislikedFoods)
			if !ok {
				continue
			}
			items = append(items, foods.ScaleItem(safe, factor))
		}
		if len(items) == 0 {
			continue
		}
		plan.Diet.Meals = append(plan.Diet.Meals, ProviderMeal{
			Name: tpl.Name,
			Kcal: flexInt(math.Round(float64(req.Targets.Calories) * tpl.Share)),
			Macros: ProviderMacros{
				Protein: flexInt(math.Round(float64(m.Protein) * tpl.Share)),
				Carbs:   flexInt(math.Round(float64(m.Carbs) * tpl.Share)),
				Fat:     flexInt(math.Round(float64(m.Fat) * tpl.Share)),
			},
			Foods: items,
		})
	}
	return plan, nil
}
