// Package nutrition holds the energy and macro formulas. Every function is
// pure and safe for concurrent use.
package nutrition

import (
	"math"

	"alcyxob/plan-engine/internal/textnorm"
)

// Goal labels.
const (
	GoalVolume      = "volumen"
	GoalDefinition  = "definicion"
	GoalMaintenance = "mantenimiento"
	GoalStrength    = "fuerza"
	GoalEndurance   = "resistencia"
)

// Goals lists the canonical goal labels.
var Goals = []string{GoalVolume, GoalDefinition, GoalMaintenance, GoalStrength, GoalEndurance}

// goalSynonyms maps accepted spellings to canonical labels.
var goalSynonyms = map[string]string{
	"volumen":       GoalVolume,
	"volume":        GoalVolume,
	"bulk":          GoalVolume,
	"ganar_masa":    GoalVolume,
	"definicion":    GoalDefinition,
	"definition":    GoalDefinition,
	"cut":           GoalDefinition,
	"perder_grasa":  GoalDefinition,
	"mantenimiento": GoalMaintenance,
	"maintenance":   GoalMaintenance,
	"mantener":      GoalMaintenance,
	"fuerza":        GoalStrength,
	"strength":      GoalStrength,
	"resistencia":   GoalEndurance,
	"endurance":     GoalEndurance,
}

// NormalizeGoal returns the canonical label for a goal spelling.
func NormalizeGoal(label string) (string, bool) {
	g, ok := goalSynonyms[textnorm.Key(label)]
	return g, ok
}

// Fixed offsets in kcal applied over maintenance energy.
const (
	VolumeOffset     = 250
	DefinitionOffset = -250
	StrengthOffset   = 150
	EnduranceOffset  = 100

	// MaintenanceKcalPerKg scales the maintenance offset with the recent weight delta.
	MaintenanceKcalPerKg = 200
)

// EnergyTolerance is the largest difference in kcal between a target and the
// energy implied by its macro split.
const EnergyTolerance = 2

// DefaultActivityLevel is used when the level is missing or unknown.
const DefaultActivityLevel = "moderado"

var activityFactors = map[string]float64{
	"sedentario":  1.2,
	"sedentary":   1.2,
	"ligero":      1.375,
	"light":       1.375,
	"moderado":    1.55,
	"moderate":    1.55,
	"activo":      1.725,
	"active":      1.725,
	"muy_activo":  1.9,
	"very_active": 1.9,
}

var femaleLabels = map[string]bool{"femenino": true, "mujer": true, "female": true, "f": true}

// Stats are the physical inputs of the formulas.
type Stats struct {
	HeightCM      float64
	WeightKG      float64
	Age           int
	Sex           string
	ActivityLevel string
}

// Macros are grams of protein, carbohydrates and fat.
type Macros struct {
	Protein int
	Carbs   int
	Fat     int
}

// Energy returns the kcal implied by the grams.
func (m Macros) Energy() int {
	return 4*m.Protein + 4*m.Carbs + 9*m.Fat
}

// Targets is the full output of one computation.
type Targets struct {
	Basal       int
	Maintenance int
	Offset      int
	Calories    int
	Macros      Macros
}

// BasalEnergy is the Mifflin-St Jeor estimate. Unknown sex labels use the male constant.
func BasalEnergy(s Stats) float64 {
	bmr := 10*s.WeightKG + 6.25*s.HeightCM - 5*float64(s.Age)
	if femaleLabels[textnorm.Key(s.Sex)] {
		return bmr - 161
	}
	return bmr + 5
}

// ActivityFactor returns the multiplier for an activity level label.
func ActivityFactor(level string) float64 {
	if f, ok := activityFactors[textnorm.Key(level)]; ok {
		return f
	}
	return activityFactors[DefaultActivityLevel]
}

// MaintenanceEnergy is basal energy times the activity factor, rounded.
func MaintenanceEnergy(s Stats) int {
	return int(math.Round(BasalEnergy(s) * ActivityFactor(s.ActivityLevel)))
}

// GoalOffset returns the kcal offset for goal. weightDeltaKG only matters for maintenance.
func GoalOffset(goal string, weightDeltaKG float64) int {
	g, _ := NormalizeGoal(goal)
	switch g {
	case GoalVolume:
		return VolumeOffset
	case GoalDefinition:
		return DefinitionOffset
	case GoalStrength:
		return StrengthOffset
	case GoalEndurance:
		return EnduranceOffset
	case GoalMaintenance:
		return int(math.Round(weightDeltaKG * MaintenanceKcalPerKg))
	}
	return 0
}

// SplitMacros distributes targetKcal into grams. Protein is set per kg of body
// weight, fat as a share of energy, carbohydrates take the rest. The result's
// Energy is within EnergyTolerance of targetKcal.
func SplitMacros(targetKcal int, weightKG float64, goal string) Macros {
	if targetKcal <= 0 {
		return Macros{}
	}
	proteinPerKg, fatShare := 1.8, 0.28
	g, _ := NormalizeGoal(goal)
	switch g {
	case GoalVolume, GoalStrength:
		proteinPerKg, fatShare = 2.0, 0.25
	case GoalDefinition:
		proteinPerKg, fatShare = 2.2, 0.30
	}

	fat := int(math.Round(float64(targetKcal) * fatShare / 9))
	protein := int(math.Round(weightKG * proteinPerKg))
	rest := targetKcal - 4*protein - 9*fat
	if rest < 0 {
		// Protein alone would exceed the budget; cap it and leave no carbs.
		protein = int(math.Round(float64(targetKcal-9*fat) / 4))
		if protein < 0 {
			protein = 0
		}
		return Macros{Protein: protein, Fat: fat}
	}
	return Macros{Protein: protein, Carbs: int(math.Round(float64(rest) / 4)), Fat: fat}
}

// Compute runs the whole chain for stats and goal. weightDeltaKG is the recent
// change already applied to stats.WeightKG.
func Compute(s Stats, goal string, weightDeltaKG float64) Targets {
	t := Targets{
		Basal:       int(math.Round(BasalEnergy(s))),
		Maintenance: MaintenanceEnergy(s),
		Offset:      GoalOffset(goal, weightDeltaKG),
	}
	t.Calories = t.Maintenance + t.Offset
	t.Macros = SplitMacros(t.Calories, s.WeightKG, goal)
	return t
}

// WithCalories recomputes the macro split for an explicit calorie target.
func WithCalories(s Stats, goal string, calories int) Targets {
	t := Targets{
		Basal:       int(math.Round(BasalEnergy(s))),
		Maintenance: MaintenanceEnergy(s),
		Calories:    calories,
	}
	t.Offset = calories - t.Maintenance
	t.Macros = SplitMacros(calories, s.WeightKG, goal)
	return t
}
