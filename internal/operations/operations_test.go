package operations

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/plan-engine/internal/catalog"
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/foods"
	"alcyxob/plan-engine/internal/generation"
	"alcyxob/plan-engine/internal/logger"
	"alcyxob/plan-engine/internal/nutrition"
	"alcyxob/plan-engine/internal/textnorm"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type countingGenerator struct {
	plan  *generation.ProviderPlan
	err   error
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, req generation.Request) (*generation.ProviderPlan, error) {
	g.calls++
	return g.plan, g.err
}

func ex(name, day, group string, sets int) domain.Exercise {
	return domain.Exercise{Name: name, Sets: sets, Reps: "8-10", Day: day, MuscleGroup: group}
}

func fixtureUser() *domain.UserProfile {
	inputs := &domain.PlanInputs{HeightCM: 180, WeightKG: 75, Age: 30, Sex: "masculino", ActivityLevel: "moderado", Goal: "mantenimiento"}
	targets := nutrition.Compute(nutrition.Stats{HeightCM: 180, WeightKG: 75, Age: 30, Sex: "masculino", ActivityLevel: "moderado"}, "mantenimiento", 0)
	var meals []domain.Meal
	for _, tpl := range foods.DayTemplate {
		meals = append(meals, domain.Meal{Name: tpl.Name, Kcal: int(math.Round(tpl.Share * foods.ReferenceKcal)), Items: append([]string{}, tpl.Items...)})
	}
	return &domain.UserProfile{
		ID:     primitive.NewObjectID(),
		Tier:   domain.TierFree,
		Inputs: inputs,
		Routine: &domain.RoutineDocument{
			Schedule: []string{"Lunes", "Miércoles", "Viernes"},
			Exercises: []domain.Exercise{
				ex("Press banca", "Lunes", "pecho", 4),
				ex("Sentadillas", "Lunes", "piernas", 4),
				ex("Remo con barra", "Lunes", "espalda", 4),
				ex("Press militar", "Miércoles", "hombros", 3),
				ex("Zancadas", "Miércoles", "piernas", 3),
				ex("Curl de bíceps", "Miércoles", "brazos", 3),
				ex("Peso muerto", "Viernes", "espalda", 5),
				ex("Elevaciones laterales", "Viernes", "hombros", 2),
				ex("Plancha", "Viernes", "core", 3),
			},
			Version:   1,
			CreatedAt: testNow.Add(-time.Hour),
			UpdatedAt: testNow.Add(-time.Hour),
		},
		Diet: &domain.DietDocument{
			Meals:     meals,
			TotalKcal: targets.Calories,
			Macros:    domain.Macros{Protein: targets.Macros.Protein, Carbs: targets.Macros.Carbs, Fat: targets.Macros.Fat},
			Objective: "mantenimiento",
			Version:   1,
			CreatedAt: testNow.Add(-time.Hour),
			UpdatedAt: testNow.Add(-time.Hour),
			IsGeneric: true,
		},
	}
}

func newHandlers(t *testing.T, personalized, template generation.Generator) *Handlers {
	t.Helper()
	tiers := generation.NewTiers(personalized, template, time.Second, time.Second, logger.Nop())
	h, err := New(catalog.New(), tiers, logger.Nop())
	if err != nil {
		t.Fatalf("new handlers: %v", err)
	}
	return h
}

func mustArgs(t *testing.T, op string, raw map[string]any) catalog.Args {
	t.Helper()
	a, err := catalog.New().Normalize(op, raw)
	if err != nil {
		t.Fatalf("normalize %s: %v", op, err)
	}
	return a
}

func apply(h *Handlers, u *domain.UserProfile, args catalog.Args) (*Result, error) {
	return h.Apply(context.Background(), &Input{User: u, Now: testNow}, args)
}

func assertNoDuplicates(t *testing.T, r *domain.RoutineDocument) {
	t.Helper()
	seen := make(map[string]bool)
	for _, e := range r.Exercises {
		key := textnorm.Fold(e.Name) + "|" + textnorm.Fold(e.Day)
		if seen[key] {
			t.Fatalf("duplicate exercise %q on %q", e.Name, e.Day)
		}
		seen[key] = true
	}
}

func TestEveryCommittingOperationBumpsVersionOnce(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	cases := []struct {
		op      string
		raw     map[string]any
		routine bool
	}{
		{catalog.OpInjury, map[string]any{"body_part": "rodilla", "injury_type": "esguince", "severity": "leve"}, true},
		{catalog.OpFocus, map[string]any{"focus_area": "brazos"}, true},
		{catalog.OpDifficulty, map[string]any{"direction": "increase"}, true},
		{catalog.OpSubstituteExercise, map[string]any{"exercise_to_replace": "Press banca"}, true},
		{catalog.OpEquipment, map[string]any{"missing_equipment": "barras"}, true},
		{catalog.OpMacros, map[string]any{"weight_change_kg": 2}, false},
		{catalog.OpSubstituteFood, map[string]any{"disliked_food": "pollo", "meal_type": "todos"}, false},
		{catalog.OpSimplifyDiet, map[string]any{"complexity_level": "simple"}, false},
	}
	for _, c := range cases {
		u := fixtureUser()
		res, err := apply(h, u, mustArgs(t, c.op, c.raw))
		if err != nil {
			t.Fatalf("%s: %v", c.op, err)
		}
		if !res.Commit || res.Record == nil {
			t.Fatalf("%s: expected a committed result with a history record", c.op)
		}
		if c.routine {
			if u.Routine.Version != 2 || u.Diet.Version != 1 {
				t.Fatalf("%s: versions routine=%d diet=%d", c.op, u.Routine.Version, u.Diet.Version)
			}
		} else if u.Diet.Version != 2 || u.Routine.Version != 1 {
			t.Fatalf("%s: versions routine=%d diet=%d", c.op, u.Routine.Version, u.Diet.Version)
		}
		if len(u.History) != 1 {
			t.Fatalf("%s: history: want=1 got=%d", c.op, len(u.History))
		}
	}
}

func TestUndoRestoresPreviousState(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	ops := []struct {
		op  string
		raw map[string]any
	}{
		{catalog.OpFocus, map[string]any{"focus_area": "gluteos", "increase_frequency": true}},
		{catalog.OpMacros, map[string]any{"goal": "volumen"}},
		{catalog.OpSimplifyDiet, map[string]any{"complexity_level": "muy_simple"}},
	}
	for _, o := range ops {
		u := fixtureUser()
		before := u.State()
		if _, err := apply(h, u, mustArgs(t, o.op, o.raw)); err != nil {
			t.Fatalf("%s: %v", o.op, err)
		}
		if _, err := apply(h, u, catalog.UndoArgs{}); err != nil {
			t.Fatalf("undo after %s: %v", o.op, err)
		}
		if !reflect.DeepEqual(before, u.State()) {
			t.Fatalf("undo after %s did not restore the previous state", o.op)
		}
		if len(u.History) != 0 {
			t.Fatalf("undo after %s: history: want=0 got=%d", o.op, len(u.History))
		}
	}
}

func TestUndoWithEmptyHistory(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	_, err := apply(h, fixtureUser(), catalog.UndoArgs{})
	if !errors.Is(err, domain.ErrUndoUnavailable) {
		t.Fatalf("want ErrUndoUnavailable, got %v", err)
	}
}

func TestInjuryTwiceNeverDuplicates(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	u := fixtureUser()
	args := mustArgs(t, catalog.OpInjury, map[string]any{"body_part": "Rodilla", "injury_type": "tendinitis", "severity": "grave"})
	for i := 0; i < 2; i++ {
		if _, err := apply(h, u, args); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		assertNoDuplicates(t, u.Routine)
	}
	for _, e := range u.Routine.Exercises {
		if textnorm.ContainsAny(e.Name, "sentadilla", "zancada") {
			t.Fatalf("risky exercise kept: %s", e.Name)
		}
	}
	if !u.Routine.HasExercise("Curl femoral", "Lunes") || !u.Routine.HasExercise("Curl femoral", "Miércoles") {
		t.Fatalf("safe alternatives missing on affected days: %+v", u.Routine.Exercises)
	}
	if len(u.Injuries) != 2 || u.Injuries[0].Severity != "severe" {
		t.Fatalf("injury events: %+v", u.Injuries)
	}
	if u.Routine.Version != 3 {
		t.Fatalf("version: want=3 got=%d", u.Routine.Version)
	}
}

func TestSubstituteExerciseTwiceNeverDuplicates(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	u := fixtureUser()
	args := mustArgs(t, catalog.OpSubstituteExercise, map[string]any{"exercise_to_replace": "press", "equipment_available": "mancuernas"})
	for i := 0; i < 2; i++ {
		if _, err := apply(h, u, args); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		assertNoDuplicates(t, u.Routine)
	}
	if u.Routine.HasExercise("Press banca", "Lunes") {
		t.Fatalf("press banca still planned")
	}
}

func TestSubstituteExerciseNotFound(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	_, err := apply(h, fixtureUser(), mustArgs(t, catalog.OpSubstituteExercise, map[string]any{"exercise_to_replace": "burpees"}))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Param != "exercise_to_replace" {
		t.Fatalf("want validation error on exercise_to_replace, got %v", err)
	}
}

func TestDifficultyClampsSets(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	u := fixtureUser()
	if _, err := apply(h, u, mustArgs(t, catalog.OpDifficulty, map[string]any{"direction": "bajar"})); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	for _, e := range u.Routine.Exercises {
		if e.Sets < minSets {
			t.Fatalf("%s: sets below minimum: %d", e.Name, e.Sets)
		}
	}
	u = fixtureUser()
	if _, err := apply(h, u, mustArgs(t, catalog.OpDifficulty, map[string]any{"direction": "increase"})); err != nil {
		t.Fatalf("increase: %v", err)
	}
	for _, e := range u.Routine.Exercises {
		if e.Sets > maxSets {
			t.Fatalf("%s: sets above maximum: %d", e.Name, e.Sets)
		}
	}
}

func TestFocusAddsFrequency(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	u := fixtureUser()
	args := mustArgs(t, catalog.OpFocus, map[string]any{"focus_area": "pectorales", "increase_frequency": "sí", "volume_change": "significativo"})
	if _, err := apply(h, u, args); err != nil {
		t.Fatalf("focus: %v", err)
	}
	days := 0
	for _, d := range u.Routine.Days() {
		if u.Routine.HasExercise("Aperturas con mancuernas", d) {
			days++
		}
	}
	if days != 2 {
		t.Fatalf("focus exercise on %d days, want 2", days)
	}
	if len(u.FocusAreas) != 1 || u.FocusAreas[0].Area != "pecho" {
		t.Fatalf("focus preference: %+v", u.FocusAreas)
	}
	assertNoDuplicates(t, u.Routine)
}

func TestMacroScenarioWeightGainOnMaintenance(t *testing.T) {
	premium := &countingGenerator{err: errors.New("unused")}
	h := newHandlers(t, premium, generation.NewTemplate())
	u := fixtureUser()
	res, err := apply(h, u, mustArgs(t, catalog.OpMacros, map[string]any{"weight_change_kg": "2", "goal": "mantenimiento"}))
	if err != nil {
		t.Fatalf("macros: %v", err)
	}
	if u.Inputs.WeightKG != 77 {
		t.Fatalf("weight: want=77 got=%v", u.Inputs.WeightKG)
	}
	stats := nutrition.Stats{HeightCM: 180, WeightKG: 77, Age: 30, Sex: "masculino", ActivityLevel: "moderado"}
	want := nutrition.MaintenanceEnergy(stats) + 2*nutrition.MaintenanceKcalPerKg
	if u.Diet.TotalKcal != want {
		t.Fatalf("calories: want=%d got=%d", want, u.Diet.TotalKcal)
	}
	if d := u.Diet.Macros.Energy() - u.Diet.TotalKcal; d > nutrition.EnergyTolerance || d < -nutrition.EnergyTolerance {
		t.Fatalf("macros energy %d vs total %d", u.Diet.Macros.Energy(), u.Diet.TotalKcal)
	}
	if u.Diet.Version != 2 {
		t.Fatalf("diet version: want=2 got=%d", u.Diet.Version)
	}
	if premium.calls != 0 {
		t.Fatalf("free user reached personalized generation %d times", premium.calls)
	}
	if !u.Diet.IsGeneric || res.Snapshot == nil || res.Snapshot.Source != domain.SourceTemplate {
		t.Fatalf("free user must get a generic template diet with a snapshot, got generic=%v snapshot=%+v", u.Diet.IsGeneric, res.Snapshot)
	}
}

func TestMacroAllTiersFailKeepsMeals(t *testing.T) {
	broken := &countingGenerator{err: errors.New("timeout")}
	h := newHandlers(t, broken, broken)
	u := fixtureUser()
	u.Tier = domain.TierPremium
	meals := len(u.Diet.Meals)
	res, err := apply(h, u, mustArgs(t, catalog.OpMacros, map[string]any{"goal": "definicion"}))
	if err != nil {
		t.Fatalf("macros: %v", err)
	}
	if len(u.Diet.Meals) != meals || len(u.Diet.Meals) == 0 {
		t.Fatalf("meals dropped: want=%d got=%d", meals, len(u.Diet.Meals))
	}
	if res.Snapshot != nil {
		t.Fatalf("no snapshot expected when content is unchanged")
	}
	if !strings.Contains(res.Summary, "contenido sin cambios") {
		t.Fatalf("summary must say content is unchanged: %q", res.Summary)
	}
	if broken.calls != 2 {
		t.Fatalf("both tiers should have been tried, calls=%d", broken.calls)
	}
}

func TestMacroCalorieAdjustment(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	u := fixtureUser()
	current := u.Diet.TotalKcal
	args := mustArgs(t, catalog.OpMacros, map[string]any{"calorie_adjustment": 300, "is_incremental": true, "adjustment_type": "deficit"})
	if _, err := apply(h, u, args); err != nil {
		t.Fatalf("macros: %v", err)
	}
	if u.Diet.TotalKcal != current-300 {
		t.Fatalf("calories: want=%d got=%d", current-300, u.Diet.TotalKcal)
	}
}

func TestMacroFallsBackToSnapshot(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	seed := fixtureUser()
	u := fixtureUser()
	u.Diet, u.Inputs = nil, nil
	in := &Input{User: u, Now: testNow, Snapshot: &domain.PlanSnapshot{Inputs: *seed.Inputs, Diet: seed.Diet}}
	if _, err := h.Apply(context.Background(), in, mustArgs(t, catalog.OpMacros, map[string]any{"weight_change_kg": -1})); err != nil {
		t.Fatalf("macros from snapshot: %v", err)
	}
	if u.Inputs == nil || u.Inputs.WeightKG != 74 || u.Diet == nil {
		t.Fatalf("snapshot inputs not used: %+v", u.Inputs)
	}

	bare := fixtureUser()
	bare.Diet, bare.Inputs = nil, nil
	_, err := apply(h, bare, mustArgs(t, catalog.OpMacros, map[string]any{"weight_change_kg": 1}))
	if !errors.Is(err, domain.ErrInsufficientState) {
		t.Fatalf("want ErrInsufficientState, got %v", err)
	}
	if bare.Diet != nil || len(bare.History) != 0 {
		t.Fatalf("failed operation mutated the profile")
	}
}

func TestEmptyDocumentsFallBackToSnapshot(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	seed := fixtureUser()
	u := fixtureUser()
	u.Routine.Exercises = nil
	u.Routine.Version = 3
	in := &Input{User: u, Now: testNow, Snapshot: &domain.PlanSnapshot{Inputs: *seed.Inputs, Routine: seed.Routine, Diet: seed.Diet}}
	if _, err := h.Apply(context.Background(), in, mustArgs(t, catalog.OpDifficulty, map[string]any{"direction": "increase"})); err != nil {
		t.Fatalf("difficulty from snapshot: %v", err)
	}
	if len(u.Routine.Exercises) != len(seed.Routine.Exercises) {
		t.Fatalf("exercises: want=%d got=%d", len(seed.Routine.Exercises), len(u.Routine.Exercises))
	}
	if u.Routine.Version != 4 {
		t.Fatalf("routine version: want=4 got=%d", u.Routine.Version)
	}
	if seed.Routine.Exercises[0].Sets != 4 {
		t.Fatalf("snapshot routine was edited in place")
	}

	u = fixtureUser()
	u.Diet.Meals = []domain.Meal{}
	in = &Input{User: u, Now: testNow, Snapshot: &domain.PlanSnapshot{Inputs: *seed.Inputs, Diet: seed.Diet}}
	if _, err := h.Apply(context.Background(), in, mustArgs(t, catalog.OpSimplifyDiet, map[string]any{"complexity_level": "simple"})); err != nil {
		t.Fatalf("simplify from snapshot: %v", err)
	}
	if len(u.Diet.Meals) != len(seed.Diet.Meals) || u.Diet.Version != 2 {
		t.Fatalf("diet: meals=%d version=%d", len(u.Diet.Meals), u.Diet.Version)
	}
}

func TestIncrementalAdjustmentUsesSnapshotTotal(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	seed := fixtureUser()
	seed.Diet.TotalKcal = 2400
	seed.Diet.Macros = domain.Macros{Protein: 150, Carbs: 270, Fat: 80}
	u := fixtureUser()
	u.Diet.Macros = domain.Macros{}
	in := &Input{User: u, Now: testNow, Snapshot: &domain.PlanSnapshot{Inputs: *seed.Inputs, Diet: seed.Diet}}
	args := mustArgs(t, catalog.OpMacros, map[string]any{"calorie_adjustment": 300, "is_incremental": true, "adjustment_type": "deficit"})
	if _, err := h.Apply(context.Background(), in, args); err != nil {
		t.Fatalf("macros: %v", err)
	}
	if u.Diet.TotalKcal != 2100 {
		t.Fatalf("calories: want=2100 got=%d", u.Diet.TotalKcal)
	}
}

func TestBelowMinimumNamesTheArgumentUsed(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	cases := []struct {
		raw  map[string]any
		want string
	}{
		{map[string]any{"weight_change_kg": -10, "goal": "mantenimiento"}, "weight_change_kg"},
		{map[string]any{"calorie_adjustment": -1500, "is_incremental": true}, "calorie_adjustment"},
	}
	for _, c := range cases {
		u := fixtureUser()
		u.Diet.TotalKcal = 2000
		_, err := apply(h, u, mustArgs(t, catalog.OpMacros, c.raw))
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Param != c.want {
			t.Fatalf("%v: want ValidationError on %s, got %v", c.raw, c.want, err)
		}
		if u.Diet.Version != 1 || len(u.History) != 0 {
			t.Fatalf("%v: rejected operation mutated the diet", c.raw)
		}
	}
}

func TestSubstituteFood(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	u := fixtureUser()
	res, err := apply(h, u, mustArgs(t, catalog.OpSubstituteFood, map[string]any{"disliked_food": "pollo", "meal_type": "comida"}))
	if err != nil {
		t.Fatalf("substitute: %v", err)
	}
	for _, m := range u.Diet.Meals {
		for _, it := range m.Items {
			if textnorm.Contains(it, "pollo") {
				t.Fatalf("pollo still in %s: %q", m.Name, it)
			}
		}
	}
	if len(u.DislikedFoods) != 1 || u.DislikedFoods[0] != "pollo" {
		t.Fatalf("disliked foods: %v", u.DislikedFoods)
	}
	if len(res.Changes) != 1 {
		t.Fatalf("changes: want=1 got=%d", len(res.Changes))
	}
}

func TestSubstituteFoodRejectsAllergen(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	u := fixtureUser()
	u.Inputs.Allergies = []string{"pescado"}
	_, err := apply(h, u, mustArgs(t, catalog.OpSubstituteFood, map[string]any{
		"disliked_food": "pollo", "meal_type": "almuerzo", "replacement_food": "salmón",
	}))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Param != "replacement_food" {
		t.Fatalf("want validation error on replacement_food, got %v", err)
	}
}

func TestMealAlternativesDoNotCommit(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	u := fixtureUser()
	res, err := apply(h, u, mustArgs(t, catalog.OpMealAlternatives, map[string]any{"meal_type": "desayuno"}))
	if err != nil {
		t.Fatalf("alternatives: %v", err)
	}
	if res.Commit || res.Record != nil {
		t.Fatalf("meal alternatives must not commit")
	}
	if len(res.Options) != catalog.DefaultAlternatives {
		t.Fatalf("options: want=%d got=%d", catalog.DefaultAlternatives, len(res.Options))
	}
	if u.Diet.Version != 1 || len(u.History) != 0 {
		t.Fatalf("profile changed: version=%d history=%d", u.Diet.Version, len(u.History))
	}
}

func TestSimplifyKeepsMealEnergy(t *testing.T) {
	h := newHandlers(t, nil, generation.NewTemplate())
	u := fixtureUser()
	if _, err := apply(h, u, mustArgs(t, catalog.OpSimplifyDiet, map[string]any{"complexity_level": "muy sencillo"})); err != nil {
		t.Fatalf("simplify: %v", err)
	}
	for _, m := range u.Diet.Meals {
		if len(m.Items) > 2 {
			t.Fatalf("%s keeps %d items", m.Name, len(m.Items))
		}
		total, ok := foods.ItemsKcal(m.Items)
		if !ok {
			t.Fatalf("%s: items lost their kcal: %v", m.Name, m.Items)
		}
		if d := total - m.Kcal; d > 2 || d < -2 {
			t.Fatalf("%s: items add up to %d kcal, meal is %d", m.Name, total, m.Kcal)
		}
	}
}

func TestGroupOfSharedNamesIsStable(t *testing.T) {
	cases := map[string]string{
		"Peso muerto rumano":   "espalda",
		"Flexiones diamante":   "pecho",
		"Swing con kettlebell": "espalda",
	}
	for i := 0; i < 50; i++ {
		for name, want := range cases {
			if got := groupOf(domain.Exercise{Name: name}); got != want {
				t.Fatalf("%s: want=%s got=%s", name, want, got)
			}
		}
	}
	for g := range byGroupAndEquipment {
		found := false
		for _, o := range groupOrder {
			found = found || o == g
		}
		if !found {
			t.Fatalf("group %s missing from groupOrder", g)
		}
	}
}
