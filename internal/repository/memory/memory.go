// Package memory is an in-process plan state store for tests and local runs.
// It keeps the same contract as the MongoDB store: records are copied on the
// way in and out, and a commit is all or nothing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/repository"
)

type Store struct {
	mu        sync.RWMutex
	users     map[primitive.ObjectID]*domain.UserProfile
	snapshots []domain.PlanSnapshot
}

func New() *Store {
	return &Store{users: make(map[primitive.ObjectID]*domain.UserProfile)}
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Snapshots returns the snapshot repository view of the store.
func (s *Store) Snapshots() repository.SnapshotRepository { return snapshotRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *domain.UserProfile) (primitive.ObjectID, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Tier == "" {
		user.Tier = domain.TierFree
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.users[user.ID]; exists {
		return primitive.NilObjectID, errors.New("user already exists")
	}
	r.s.users[user.ID] = user.Clone()
	return user.ID, nil
}

func (r userRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

type snapshotRepo struct{ s *Store }

func (r snapshotRepo) Create(ctx context.Context, snap *domain.PlanSnapshot) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertSnapshot(snap), nil
}

func (s *Store) insertSnapshot(snap *domain.PlanSnapshot) primitive.ObjectID {
	if snap.ID.IsZero() {
		snap.ID = primitive.NewObjectID()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	s.snapshots = append(s.snapshots, cloneSnapshot(*snap))
	return snap.ID
}

func (r snapshotRepo) Latest(ctx context.Context, userID primitive.ObjectID) (*domain.PlanSnapshot, error) {
	list, _ := r.ListByUser(ctx, userID, 1)
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

func (r snapshotRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.PlanSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.PlanSnapshot
	for i := len(r.s.snapshots) - 1; i >= 0; i-- {
		if r.s.snapshots[i].UserID == userID {
			out = append(out, cloneSnapshot(r.s.snapshots[i]))
		}
	}
	// Newest first; insertion order breaks ties.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r snapshotRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, snap := range r.s.snapshots {
		if snap.ID == id {
			r.s.snapshots = append(r.s.snapshots[:i], r.s.snapshots[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// Commit implements repository.PlanStore.
func (s *Store) Commit(ctx context.Context, req repository.CommitRequest) error {
	if req.User == nil {
		return repository.ErrUpdateFailed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[req.User.ID]
	if !ok {
		return repository.ErrNotFound
	}
	routine, diet := current.Versions()
	if routine != req.ExpectedRoutineVersion || diet != req.ExpectedDietVersion {
		return repository.ErrVersionConflict
	}
	if req.Snapshot != nil {
		s.insertSnapshot(req.Snapshot)
	}
	s.users[req.User.ID] = req.User.Clone()
	return nil
}

func cloneSnapshot(s domain.PlanSnapshot) domain.PlanSnapshot {
	s.Inputs = *s.Inputs.Clone()
	s.Routine = s.Routine.Clone()
	s.Diet = s.Diet.Clone()
	return s
}
