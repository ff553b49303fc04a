// internal/domain/snapshot.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content sources of a generated plan.
const (
	SourcePersonalized = "personalized"
	SourceTemplate     = "template"
)

// PlanSnapshot is an immutable copy of one fully generated plan together with
// the inputs that produced it. New generations append a new snapshot.
type PlanSnapshot struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Inputs    PlanInputs         `bson:"inputs" json:"inputs"`
	Routine   *RoutineDocument   `bson:"routine,omitempty" json:"routine,omitempty"`
	Diet      *DietDocument      `bson:"diet,omitempty" json:"diet,omitempty"`
	Source    string             `bson:"source" json:"source"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
