package operations

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"alcyxob/plan-engine/internal/catalog"
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/foods"
	"alcyxob/plan-engine/internal/generation"
	"alcyxob/plan-engine/internal/nutrition"
	"alcyxob/plan-engine/internal/textnorm"
)

// MinDailyCalories is the lowest target a recalculation may produce.
const MinDailyCalories = 1000

func statsOf(p *domain.PlanInputs) nutrition.Stats {
	return nutrition.Stats{
		HeightCM:      p.HeightCM,
		WeightKG:      p.WeightKG,
		Age:           p.Age,
		Sex:           p.Sex,
		ActivityLevel: p.ActivityLevel,
	}
}

// currentKcal is the base of an incremental adjustment: the active diet's
// total, else the latest snapshot's, else maintenance.
func currentKcal(in *Input, diet *domain.DietDocument, maintenance int) int {
	if diet.HasMacros() {
		return diet.TotalKcal
	}
	if in.Snapshot != nil && in.Snapshot.Diet.HasMacros() {
		return in.Snapshot.Diet.TotalKcal
	}
	return maintenance
}

// targetParam names the argument that set the calorie target.
func targetParam(a catalog.MacroArgs) string {
	switch {
	case a.TargetCalories != nil:
		return "target_calories"
	case a.CalorieAdjustment != nil:
		return "calorie_adjustment"
	case a.WeightChangeKG != nil:
		return "weight_change_kg"
	}
	return "goal"
}

func (h *Handlers) recalculateMacros(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	a := args.(catalog.MacroArgs)
	inputs, err := inputsOf(in)
	if err != nil {
		return nil, err
	}
	diet, err := dietOf(in)
	if err != nil {
		return nil, err
	}
	beforeKcal, beforeObjective := diet.TotalKcal, diet.Objective

	next := inputs.Clone()
	delta := 0.0
	if a.WeightChangeKG != nil {
		delta = *a.WeightChangeKG
		next.WeightKG = math.Round((next.WeightKG+delta)*10) / 10
	}
	goal := nutrition.GoalMaintenance
	if g, ok := nutrition.NormalizeGoal(a.Goal); ok {
		goal = g
	} else if g, ok := nutrition.NormalizeGoal(next.Goal); ok {
		goal = g
	}
	next.Goal = goal
	stats := statsOf(next)

	var targets nutrition.Targets
	switch {
	case a.TargetCalories != nil:
		targets = nutrition.WithCalories(stats, goal, *a.TargetCalories)
	case a.CalorieAdjustment != nil:
		base := nutrition.MaintenanceEnergy(stats)
		if a.IsIncremental != nil && *a.IsIncremental {
			base = currentKcal(in, diet, base)
		}
		targets = nutrition.WithCalories(stats, goal, base+*a.CalorieAdjustment)
	default:
		targets = nutrition.Compute(stats, goal, delta)
	}
	if targets.Calories < MinDailyCalories {
		return nil, domain.NewValidationError(targetParam(a),
			"the result would be %d kcal, below the minimum of %d", targets.Calories, MinDailyCalories)
	}

	out := generation.Outcome{Strategy: generation.StrategyKeepExisting, Meals: diet.Meals}
	if h.tiers != nil {
		out = h.tiers.Diet(ctx, generation.StrategyFor(in.User.IsPremium()), generation.Request{
			Inputs:           *next,
			Targets:          targets,
			Injuries:         injuryLabels(in.User),
			DislikedFoods:    in.User.DislikedFoods,
			KnowledgeContext: in.Knowledge,
		}, diet.Meals)
	}

	diet.Meals = out.Meals
	diet.TotalKcal = targets.Calories
	diet.Macros = domain.Macros{Protein: targets.Macros.Protein, Carbs: targets.Macros.Carbs, Fat: targets.Macros.Fat}
	diet.Objective = goal
	if out.Regenerated() {
		diet.IsGeneric = out.Strategy != generation.StrategyPersonalized
		if diet.Metadata == nil {
			diet.Metadata = make(map[string]string)
		}
		diet.Metadata["source"] = out.Source
	}

	changes := []domain.Change{
		changed("diet.total_kcal", "updated", beforeKcal, diet.TotalKcal),
		changed("diet.macros", "updated", nil, fmt.Sprintf("%dp/%dc/%dg", diet.Macros.Protein, diet.Macros.Carbs, diet.Macros.Fat)),
	}
	if next.WeightKG != inputs.WeightKG {
		changes = append(changes, changed("inputs.weight_kg", "updated", inputs.WeightKG, next.WeightKG))
	}
	if beforeObjective != goal {
		changes = append(changes, changed("diet.objective", "updated", beforeObjective, goal))
	}
	in.User.Inputs = next

	summary := fmt.Sprintf("He recalculado tu dieta para %s: %d → %d kcal/día (%dp/%dc/%dg).",
		goal, beforeKcal, diet.TotalKcal, diet.Macros.Protein, diet.Macros.Carbs, diet.Macros.Fat)
	res := &Result{Commit: true}
	if out.Regenerated() {
		changes = append(changes, changed("diet.meals", "regenerated", nil, out.Source))
		res.Snapshot = &domain.PlanSnapshot{
			UserID:    in.User.ID,
			Inputs:    *next.Clone(),
			Routine:   in.User.Routine.Clone(),
			Diet:      diet.Clone(),
			Source:    out.Source,
			CreatedAt: in.Now,
		}
	} else {
		summary += " Macros actualizados, contenido sin cambios."
	}
	res.Summary = summary
	res.Changes = changes
	return res, nil
}

func injuryLabels(u *domain.UserProfile) []string {
	var out []string
	for _, i := range u.Injuries {
		out = append(out, fmt.Sprintf("%s (%s, %s)", i.BodyPart, i.InjuryType, i.Severity))
	}
	return out
}

func allergiesOf(u *domain.UserProfile) []string {
	if u.Inputs == nil {
		return nil
	}
	return u.Inputs.Allergies
}

func (h *Handlers) substituteFood(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	a := args.(catalog.FoodSubstitutionArgs)
	diet, err := dietOf(in)
	if err != nil {
		return nil, err
	}
	allergies := allergiesOf(in.User)
	if a.ReplacementFood != "" {
		if allergy, hit := foods.Conflict(a.ReplacementFood, allergies); hit {
			return nil, domain.NewValidationError("replacement_food", "%q contains %s, which you are allergic to", a.ReplacementFood, allergy)
		}
		if textnorm.Contains(a.ReplacementFood, a.DislikedFood) {
			return nil, domain.NewValidationError("replacement_food", "%q is the food being replaced", a.ReplacementFood)
		}
	}
	avoided := append(append([]string{}, in.User.DislikedFoods...), a.DislikedFood)

	var changes []domain.Change
	unavailable := 0
	for i := range diet.Meals {
		m := &diet.Meals[i]
		if a.MealType != "todos" && foods.MealTypeOf(m.Name) != a.MealType {
			continue
		}
		for j, item := range m.Items {
			name := foods.ItemName(item)
			if !textnorm.Contains(name, a.DislikedFood) {
				continue
			}
			replacement := a.ReplacementFood
			if replacement == "" {
				alts := foods.Equivalents(name, allergies, avoided)
				if len(alts) == 0 {
					unavailable++
					continue
				}
				replacement = alts[0]
			}
			m.Items[j] = foods.ReplaceName(item, replacement)
			changes = append(changes, changed("diet.meals."+m.Name+".items", "replaced", item, m.Items[j]))
		}
	}

	if len(changes) == 0 {
		if unavailable > 0 {
			return nil, domain.NewValidationError("disliked_food", "no safe equivalent for %q", a.DislikedFood)
		}
		return nil, domain.NewValidationError("disliked_food", "%q is not in your %s", a.DislikedFood, mealLabel(a.MealType))
	}
	in.User.DislikedFoods = appendUnique(in.User.DislikedFoods, a.DislikedFood)

	return &Result{
		Summary: fmt.Sprintf("He sustituido %s en %d alimentos manteniendo las calorías de cada comida.", a.DislikedFood, len(changes)),
		Changes: changes,
		Commit:  true,
	}, nil
}

func mealLabel(mealType string) string {
	if mealType == "todos" {
		return "diet"
	}
	return mealType
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if textnorm.Fold(v) == textnorm.Fold(s) {
			return list
		}
	}
	return append(list, s)
}

func (h *Handlers) mealAlternatives(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	a := args.(catalog.MealAlternativesArgs)
	diet, err := dietOf(in)
	if err != nil {
		return nil, err
	}
	kcal := 0
	for _, m := range diet.Meals {
		if foods.MealTypeOf(m.Name) == a.MealType {
			kcal = m.Kcal
			break
		}
	}
	if kcal <= 0 {
		kcal = int(math.Round(foods.MealShare(a.MealType) * float64(diet.TotalKcal)))
	}

	options := foods.MealOptions(a.MealType, kcal, a.Count, allergiesOf(in.User), in.User.DislikedFoods)
	if len(options) == 0 {
		return nil, domain.NewValidationError("meal_type", "no %s options are compatible with your allergies", a.MealType)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Te propongo %d alternativas para %s (~%d kcal):", len(options), a.MealType, kcal)
	changes := make([]domain.Change, 0, len(options))
	for i, opt := range options {
		fmt.Fprintf(&b, "\nOpción %d: %s", i+1, strings.Join(opt, ", "))
		changes = append(changes, changed(fmt.Sprintf("alternatives.%s.%d", a.MealType, i+1), "proposed", nil, strings.Join(opt, ", ")))
	}
	return &Result{Summary: b.String(), Changes: changes, Options: options}, nil
}

func (h *Handlers) simplifyDiet(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	a := args.(catalog.SimplifyArgs)
	diet, err := dietOf(in)
	if err != nil {
		return nil, err
	}
	limit := 3
	if a.ComplexityLevel == "muy_simple" {
		limit = 2
	}

	var changes []domain.Change
	for i := range diet.Meals {
		m := &diet.Meals[i]
		if len(m.Items) <= limit {
			continue
		}
		kept := largestItems(m.Items, limit)
		target := m.Kcal
		if target <= 0 {
			target, _ = foods.ItemsKcal(m.Items)
		}
		if total, ok := foods.ItemsKcal(kept); ok && total > 0 && target > 0 {
			kept = foods.ScaleItems(kept, float64(target)/float64(total))
		}
		changes = append(changes, changed("diet.meals."+m.Name+".items", "simplified", len(m.Items), len(kept)))
		m.Items = kept
		if a.ComplexityLevel == "muy_simple" {
			m.Alternatives = nil
		}
	}

	summary := fmt.Sprintf("He simplificado tu dieta a como máximo %d ingredientes por comida, manteniendo calorías y macros.", limit)
	if len(changes) == 0 {
		summary = fmt.Sprintf("Tu dieta ya tiene como máximo %d ingredientes por comida.", limit)
	}
	return &Result{Summary: summary, Changes: changes, Commit: true}, nil
}

// largestItems keeps the n items with the most kcal, in their original order.
func largestItems(items []string, n int) []string {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool {
		kx, _ := foods.ItemKcal(items[idx[x]])
		ky, _ := foods.ItemKcal(items[idx[y]])
		return kx > ky
	})
	idx = idx[:n]
	sort.Ints(idx)
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out
}
