package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tier is the entitlement level of an account, owned by the billing system.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// PlanInputs are the physical and goal inputs a plan is generated from.
type PlanInputs struct {
	HeightCM      float64  `bson:"height_cm" json:"height_cm"`
	WeightKG      float64  `bson:"weight_kg" json:"weight_kg"`
	Age           int      `bson:"age" json:"age"`
	Sex           string   `bson:"sex" json:"sex"`
	ActivityLevel string   `bson:"activity_level,omitempty" json:"activity_level,omitempty"`
	Experience    string   `bson:"experience,omitempty" json:"experience,omitempty"`
	Goal          string   `bson:"goal" json:"goal"`
	TrainingGoal  string   `bson:"training_goal,omitempty" json:"training_goal,omitempty"`
	Equipment     string   `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Restrictions  string   `bson:"restrictions,omitempty" json:"restrictions,omitempty"`
	Allergies     []string `bson:"allergies,omitempty" json:"allergies,omitempty"`
}

// Complete reports whether the inputs are enough to run the nutrition formulas.
func (p *PlanInputs) Complete() bool {
	return p != nil && p.HeightCM > 0 && p.WeightKG > 0 && p.Age > 0
}

func (p *PlanInputs) Clone() *PlanInputs {
	if p == nil {
		return nil
	}
	c := *p
	c.Allergies = cloneStrings(p.Allergies)
	return &c
}

// InjuryEvent records a reported injury.
type InjuryEvent struct {
	BodyPart   string    `bson:"body_part" json:"body_part"`
	InjuryType string    `bson:"injury_type" json:"injury_type"`
	Severity   string    `bson:"severity" json:"severity"`
	ReportedAt time.Time `bson:"reported_at" json:"reported_at"`
}

// FocusPreference records a requested emphasis on a muscle group.
type FocusPreference struct {
	Area         string    `bson:"area" json:"area"`
	VolumeChange string    `bson:"volume_change,omitempty" json:"volume_change,omitempty"`
	RequestedAt  time.Time `bson:"requested_at" json:"requested_at"`
}

// UserProfile is the user record: identity, entitlement, the active
// routine/diet pair and the append-only preference and history lists.
type UserProfile struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Tier  Tier               `bson:"tier" json:"tier"`

	Inputs  *PlanInputs      `bson:"inputs,omitempty" json:"inputs,omitempty"`
	Routine *RoutineDocument `bson:"routine,omitempty" json:"routine,omitempty"`
	Diet    *DietDocument    `bson:"diet,omitempty" json:"diet,omitempty"`

	Injuries      []InjuryEvent        `bson:"injuries,omitempty" json:"injuries,omitempty"`
	FocusAreas    []FocusPreference    `bson:"focus_areas,omitempty" json:"focus_areas,omitempty"`
	DislikedFoods []string             `bson:"disliked_foods,omitempty" json:"disliked_foods,omitempty"`
	History       []ModificationRecord `bson:"history,omitempty" json:"history,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsPremium reports the stored entitlement fact.
func (u *UserProfile) IsPremium() bool {
	return u.Tier == TierPremium
}

// Versions returns the versions of the active documents, 0 when absent.
func (u *UserProfile) Versions() (routine, diet int) {
	if u.Routine != nil {
		routine = u.Routine.Version
	}
	if u.Diet != nil {
		diet = u.Diet.Version
	}
	return routine, diet
}

// State returns a copy of the active document pair and inputs.
func (u *UserProfile) State() PlanState {
	return PlanState{
		Routine: u.Routine.Clone(),
		Diet:    u.Diet.Clone(),
		Inputs:  u.Inputs.Clone(),
	}
}

// Clone returns a deep copy so handlers can mutate freely.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	c.Inputs = u.Inputs.Clone()
	c.Routine = u.Routine.Clone()
	c.Diet = u.Diet.Clone()
	if u.Injuries != nil {
		c.Injuries = append([]InjuryEvent{}, u.Injuries...)
	}
	if u.FocusAreas != nil {
		c.FocusAreas = append([]FocusPreference{}, u.FocusAreas...)
	}
	c.DislikedFoods = cloneStrings(u.DislikedFoods)
	if u.History != nil {
		c.History = make([]ModificationRecord, len(u.History))
		for i, r := range u.History {
			c.History[i] = r.Clone()
		}
	}
	return &c
}
