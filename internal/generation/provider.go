// Package generation produces fresh plan content through a chain of tiers:
// a personalized provider, a deterministic template and, as a last resort,
// the content the user already has.
package generation

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/nutrition"
)

// Request is what both generators receive.
type Request struct {
	Inputs           domain.PlanInputs
	Targets          nutrition.Targets
	Injuries         []string
	DislikedFoods    []string
	KnowledgeContext string
}

// Generator returns a plan in the provider-native shape.
type Generator interface {
	Generate(ctx context.Context, req Request) (*ProviderPlan, error)
}

// ProviderPlan is the shape returned by generation providers.
type ProviderPlan struct {
	Routine ProviderRoutine `json:"rutina"`
	Diet    ProviderDiet    `json:"dieta"`
}

type ProviderRoutine struct {
	Days []ProviderDay `json:"dias"`
}

type ProviderDay struct {
	Day       string             `json:"dia"`
	Exercises []ProviderExercise `json:"ejercicios"`
}

type ProviderExercise struct {
	Name  string     `json:"nombre"`
	Sets  flexInt    `json:"series"`
	Reps  flexString `json:"repeticiones"`
	Rest  flexString `json:"descanso"`
	Group string     `json:"grupo_muscular,omitempty"`
}

type ProviderDiet struct {
	Meals []ProviderMeal `json:"comidas"`
}

type ProviderMeal struct {
	Name         string         `json:"nombre"`
	Kcal         flexInt        `json:"kcal"`
	Macros       ProviderMacros `json:"macros"`
	Foods        []string       `json:"alimentos"`
	Alternatives []string       `json:"alternativas"`
}

type ProviderMacros struct {
	Protein flexInt `json:"proteinas"`
	Carbs   flexInt `json:"hidratos"`
	Fat     flexInt `json:"grasas"`
}

var leadingNumber = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)?`)

// flexInt accepts 30, 30.4 or "30g".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexInt(math.Round(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return err
	}
	*f = flexInt(math.Round(v))
	return nil
}

// flexString accepts "8-10" or 10.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// ParsePlan extracts a ProviderPlan from model text, tolerating code fences
// and prose around the JSON object.
func ParsePlan(text string) (*ProviderPlan, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errMalformed("no JSON object in response")
	}
	var p ProviderPlan
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return nil, errMalformed(err.Error())
	}
	return &p, nil
}
