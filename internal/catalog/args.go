package catalog

import (
	"alcyxob/plan-engine/internal/domain"
)

// Args is the typed argument set of one operation.
type Args interface {
	Operation() string
}

type InjuryArgs struct {
	BodyPart   string
	InjuryType string
	Severity   string
}

func (InjuryArgs) Operation() string { return OpInjury }

type FocusArgs struct {
	FocusArea         string
	IncreaseFrequency bool
	VolumeChange      string
}

func (FocusArgs) Operation() string { return OpFocus }

type DifficultyArgs struct {
	Direction string
	Reason    string
}

func (DifficultyArgs) Operation() string { return OpDifficulty }

type SubstituteExerciseArgs struct {
	ExerciseToReplace  string
	Reason             string
	TargetMuscles      string
	EquipmentAvailable string
}

func (SubstituteExerciseArgs) Operation() string { return OpSubstituteExercise }

type EquipmentArgs struct {
	MissingEquipment   string
	AvailableEquipment string
	AffectedExercises  string
}

func (EquipmentArgs) Operation() string { return OpEquipment }

// MacroArgs holds optional fields; nil means the user did not mention it.
type MacroArgs struct {
	WeightChangeKG    *float64
	Goal              string
	TargetCalories    *int
	CalorieAdjustment *int
	IsIncremental     *bool
	AdjustmentType    string
}

func (MacroArgs) Operation() string { return OpMacros }

type FoodSubstitutionArgs struct {
	DislikedFood    string
	MealType        string
	ReplacementFood string
}

func (FoodSubstitutionArgs) Operation() string { return OpSubstituteFood }

// DefaultAlternatives is used when the request does not say how many options.
const DefaultAlternatives = 3

type MealAlternativesArgs struct {
	MealType string
	Count    int
}

func (MealAlternativesArgs) Operation() string { return OpMealAlternatives }

type SimplifyArgs struct {
	ComplexityLevel string
}

func (SimplifyArgs) Operation() string { return OpSimplifyDiet }

type UndoArgs struct{}

func (UndoArgs) Operation() string { return OpUndo }

func bindInjury(v Values) (Args, error) {
	return InjuryArgs{
		BodyPart:   v.String("body_part"),
		InjuryType: v.String("injury_type"),
		Severity:   v.String("severity"),
	}, nil
}

func bindFocus(v Values) (Args, error) {
	a := FocusArgs{FocusArea: v.String("focus_area"), VolumeChange: v.String("volume_change")}
	if b := v.Bool("increase_frequency"); b != nil {
		a.IncreaseFrequency = *b
	}
	if a.VolumeChange == "" {
		a.VolumeChange = "aumento_moderado"
	}
	return a, nil
}

func bindDifficulty(v Values) (Args, error) {
	return DifficultyArgs{Direction: v.String("direction"), Reason: v.String("reason")}, nil
}

func bindSubstituteExercise(v Values) (Args, error) {
	return SubstituteExerciseArgs{
		ExerciseToReplace:  v.String("exercise_to_replace"),
		Reason:             v.String("replacement_reason"),
		TargetMuscles:      v.String("target_muscles"),
		EquipmentAvailable: v.String("equipment_available"),
	}, nil
}

func bindEquipment(v Values) (Args, error) {
	a := EquipmentArgs{
		MissingEquipment:   v.String("missing_equipment"),
		AvailableEquipment: v.String("available_equipment"),
		AffectedExercises:  v.String("affected_exercises"),
	}
	if a.AvailableEquipment == "" {
		a.AvailableEquipment = "cualquiera"
	}
	return a, nil
}

func bindMacros(v Values) (Args, error) {
	a := MacroArgs{
		WeightChangeKG:    v.Float("weight_change_kg"),
		Goal:              v.String("goal"),
		TargetCalories:    v.Int("target_calories"),
		CalorieAdjustment: v.Int("calorie_adjustment"),
		IsIncremental:     v.Bool("is_incremental"),
		AdjustmentType:    v.String("adjustment_type"),
	}
	if a.WeightChangeKG == nil && a.Goal == "" && a.TargetCalories == nil && a.CalorieAdjustment == nil {
		return nil, domain.NewValidationError("weight_change_kg",
			"one of weight_change_kg, goal, target_calories or calorie_adjustment is required")
	}
	if a.CalorieAdjustment != nil {
		if a.IsIncremental == nil && a.TargetCalories == nil {
			return nil, domain.NewValidationError("is_incremental",
				"say whether %d kcal applies to the current plan or to maintenance", *a.CalorieAdjustment)
		}
		adj := *a.CalorieAdjustment
		switch a.AdjustmentType {
		case "deficit":
			if adj > 0 {
				adj = -adj
			}
		case "surplus":
			if adj < 0 {
				adj = -adj
			}
		}
		a.CalorieAdjustment = &adj
	}
	return a, nil
}

func bindSubstituteFood(v Values) (Args, error) {
	return FoodSubstitutionArgs{
		DislikedFood:    v.String("disliked_food"),
		MealType:        v.String("meal_type"),
		ReplacementFood: v.String("replacement_food"),
	}, nil
}

func bindMealAlternatives(v Values) (Args, error) {
	a := MealAlternativesArgs{MealType: v.String("meal_type")}
	a.Count = DefaultAlternatives
	if n := v.Int("num_alternatives"); n != nil {
		a.Count = *n
	}
	return a, nil
}

func bindSimplify(v Values) (Args, error) {
	return SimplifyArgs{ComplexityLevel: v.String("complexity_level")}, nil
}
