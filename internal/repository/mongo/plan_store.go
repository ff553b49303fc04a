package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"alcyxob/plan-engine/internal/logger"
	"alcyxob/plan-engine/internal/repository"
)

// mongoPlanStore commits a modification. The user record is written with one
// conditional UpdateOne, which MongoDB applies atomically. A snapshot is
// inserted first and removed again if the user update does not happen.
type mongoPlanStore struct {
	users     *mongo.Collection
	snapshots repository.SnapshotRepository
	log       *logger.Logger
}

// NewMongoPlanStore creates the commit side of the plan state store.
func NewMongoPlanStore(db *mongo.Database, log *logger.Logger) repository.PlanStore {
	return &mongoPlanStore{
		users:     db.Collection(userCollectionName),
		snapshots: NewMongoSnapshotRepository(db),
		log:       log.With("component", "MongoPlanStore"),
	}
}

func (s *mongoPlanStore) Commit(ctx context.Context, req repository.CommitRequest) error {
	u := req.User
	if u == nil || u.ID.IsZero() {
		return fmt.Errorf("%w: commit without user", repository.ErrUpdateFailed)
	}

	if req.Snapshot != nil {
		if _, err := s.snapshots.Create(ctx, req.Snapshot); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	filter := bson.M{
		"_id":             u.ID,
		"routine.version": expectedVersion(req.ExpectedRoutineVersion),
		"diet.version":    expectedVersion(req.ExpectedDietVersion),
	}
	set := bson.M{
		"injuries":       u.Injuries,
		"focus_areas":    u.FocusAreas,
		"disliked_foods": u.DislikedFoods,
		"history":        u.History,
		"updated_at":     u.UpdatedAt,
	}
	unset := bson.M{}
	setOrUnset(set, unset, "routine", u.Routine == nil, u.Routine)
	setOrUnset(set, unset, "diet", u.Diet == nil, u.Diet)
	setOrUnset(set, unset, "inputs", u.Inputs == nil, u.Inputs)
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := s.users.UpdateOne(ctx, filter, update)
	if err == nil && result.MatchedCount == 0 {
		err = s.missOrConflict(ctx, u.ID)
	}
	if err != nil {
		s.rollbackSnapshot(req)
		return err
	}
	return nil
}

// expectedVersion matches a document at version v. Version 0 also matches a
// missing document.
func expectedVersion(v int) any {
	if v == 0 {
		return bson.M{"$in": bson.A{0, nil}}
	}
	return v
}

func setOrUnset(set, unset bson.M, field string, missing bool, value any) {
	if missing {
		unset[field] = ""
		return
	}
	set[field] = value
}

func (s *mongoPlanStore) missOrConflict(ctx context.Context, id any) error {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrVersionConflict
}

func (s *mongoPlanStore) rollbackSnapshot(req repository.CommitRequest) {
	if req.Snapshot == nil || req.Snapshot.ID.IsZero() {
		return
	}
	// The request context may be what failed the update.
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := s.snapshots.Delete(ctx, req.Snapshot.ID); err != nil {
		s.log.Error("failed to remove snapshot of a rolled back commit",
			"snapshot_id", req.Snapshot.ID.Hex(), "user_id", req.User.ID.Hex(), "error", err)
		return
	}
	s.log.Warn("commit rolled back", "user_id", req.User.ID.Hex(), "snapshot_id", req.Snapshot.ID.Hex())
}
