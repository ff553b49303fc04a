package domain

import (
	"strings"
	"time"
)

// Exercise is one entry of a routine. (Name, Day) identifies it within the routine.
type Exercise struct {
	Name        string `bson:"name" json:"name"`
	Sets        int    `bson:"sets" json:"sets"`
	Reps        string `bson:"reps" json:"reps"`
	LoadHint    string `bson:"load_hint,omitempty" json:"load_hint,omitempty"`
	Day         string `bson:"day" json:"day"`
	MuscleGroup string `bson:"muscle_group,omitempty" json:"muscle_group,omitempty"`
	Rest        string `bson:"rest,omitempty" json:"rest,omitempty"`
}

// RoutineDocument is the active training routine of a user.
type RoutineDocument struct {
	Exercises []Exercise        `bson:"exercises" json:"exercises"`
	Schedule  []string          `bson:"schedule" json:"schedule"`
	Version   int               `bson:"version" json:"version"`
	Metadata  map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updated_at"`
	IsGeneric bool              `bson:"is_generic" json:"is_generic"`
}

// HasExercise reports whether an exercise with the same name is already planned on day.
func (r *RoutineDocument) HasExercise(name, day string) bool {
	for _, e := range r.Exercises {
		if sameKey(e.Name, name) && sameKey(e.Day, day) {
			return true
		}
	}
	return false
}

// AddExercise appends e unless its (name, day) pair is already present.
func (r *RoutineDocument) AddExercise(e Exercise) bool {
	if r.HasExercise(e.Name, e.Day) {
		return false
	}
	r.Exercises = append(r.Exercises, e)
	return true
}

// Days returns the training days in schedule order, followed by any day that
// only appears on exercises.
func (r *RoutineDocument) Days() []string {
	seen := make(map[string]bool)
	var days []string
	for _, d := range r.Schedule {
		if !seen[strings.ToLower(d)] {
			seen[strings.ToLower(d)] = true
			days = append(days, d)
		}
	}
	for _, e := range r.Exercises {
		if !seen[strings.ToLower(e.Day)] {
			seen[strings.ToLower(e.Day)] = true
			days = append(days, e.Day)
		}
	}
	return days
}

// HasContent reports whether the routine has exercises to edit.
func (r *RoutineDocument) HasContent() bool {
	return r != nil && len(r.Exercises) > 0
}

// Bump marks a successful mutation.
func (r *RoutineDocument) Bump(now time.Time) {
	r.Version++
	r.UpdatedAt = now
}

func (r *RoutineDocument) Clone() *RoutineDocument {
	if r == nil {
		return nil
	}
	c := *r
	if r.Exercises != nil {
		c.Exercises = append([]Exercise(nil), r.Exercises...)
	}
	c.Schedule = cloneStrings(r.Schedule)
	c.Metadata = cloneMetadata(r.Metadata)
	return &c
}

// Macros are grams of each macronutrient.
type Macros struct {
	Protein int `bson:"protein" json:"protein"`
	Carbs   int `bson:"carbs" json:"carbs"`
	Fat     int `bson:"fat" json:"fat"`
}

// Energy returns the kcal implied by the macro grams (4/4/9).
func (m Macros) Energy() int {
	return m.Protein*4 + m.Carbs*4 + m.Fat*9
}

// Meal is one entry of a diet document. Items are free text such as
// "40g avena - 150kcal".
type Meal struct {
	Name         string   `bson:"name" json:"name"`
	Kcal         int      `bson:"kcal" json:"kcal"`
	Macros       Macros   `bson:"macros" json:"macros"`
	Items        []string `bson:"items" json:"items"`
	Alternatives []string `bson:"alternatives,omitempty" json:"alternatives,omitempty"`
}

func (m Meal) Clone() Meal {
	m.Items = cloneStrings(m.Items)
	m.Alternatives = cloneStrings(m.Alternatives)
	return m
}

// DietDocument is the active nutrition plan of a user.
type DietDocument struct {
	Meals     []Meal            `bson:"meals" json:"meals"`
	TotalKcal int               `bson:"total_kcal" json:"total_kcal"`
	Macros    Macros            `bson:"macros" json:"macros"`
	Objective string            `bson:"objective" json:"objective"`
	Version   int               `bson:"version" json:"version"`
	Metadata  map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updated_at"`
	IsGeneric bool              `bson:"is_generic" json:"is_generic"`
}

// HasContent reports whether the diet has meals to edit.
func (d *DietDocument) HasContent() bool {
	return d != nil && len(d.Meals) > 0
}

// HasMacros reports whether the document carries a usable macro split.
func (d *DietDocument) HasMacros() bool {
	return d != nil && d.TotalKcal > 0 && d.Macros.Energy() > 0
}

// Bump marks a successful mutation.
func (d *DietDocument) Bump(now time.Time) {
	d.Version++
	d.UpdatedAt = now
}

func (d *DietDocument) Clone() *DietDocument {
	if d == nil {
		return nil
	}
	c := *d
	if d.Meals != nil {
		c.Meals = make([]Meal, len(d.Meals))
		for i, m := range d.Meals {
			c.Meals[i] = m.Clone()
		}
	}
	c.Metadata = cloneMetadata(d.Metadata)
	return &c
}

func sameKey(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
