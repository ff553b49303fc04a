package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/plan-engine/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound        = RepositoryError("not found")
	ErrUpdateFailed    = RepositoryError("update failed")
	ErrVersionConflict = RepositoryError("active documents changed since they were read")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository reads and creates user records. The active routine/diet pair
// and the history log live on the record.
type UserRepository interface {
	Create(ctx context.Context, user *domain.UserProfile) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserProfile, error)
}

// SnapshotRepository stores full plan generations, newest last.
type SnapshotRepository interface {
	Create(ctx context.Context, snap *domain.PlanSnapshot) (primitive.ObjectID, error)
	// Latest returns ErrNotFound when the user has no snapshot.
	Latest(ctx context.Context, userID primitive.ObjectID) (*domain.PlanSnapshot, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.PlanSnapshot, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CommitRequest is one modification ready to persist. Expected versions are
// those of the active documents when they were read; 0 means absent.
type CommitRequest struct {
	User                   *domain.UserProfile
	ExpectedRoutineVersion int
	ExpectedDietVersion    int
	// Snapshot is appended when the operation regenerated content. May be nil.
	Snapshot *domain.PlanSnapshot
}

// PlanStore persists a modification as one unit: active documents, inputs,
// preference lists and history are written together with the optional
// snapshot, or nothing changes. ErrVersionConflict means the stored documents
// no longer match the expected versions.
type PlanStore interface {
	Commit(ctx context.Context, req CommitRequest) error
}

