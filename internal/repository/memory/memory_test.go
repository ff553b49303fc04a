package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/repository"
)

func seed(t *testing.T, s *Store) *domain.UserProfile {
	t.Helper()
	u := &domain.UserProfile{
		Name:    "Ana",
		Routine: &domain.RoutineDocument{Exercises: []domain.Exercise{{Name: "Plancha", Day: "Lunes", Sets: 3}}, Version: 1},
		Diet:    &domain.DietDocument{Meals: []domain.Meal{{Name: "Cena", Kcal: 500}}, TotalKcal: 2000, Version: 4},
	}
	if _, err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create: %v", err)
	}
	return u
}

func TestGetReturnsCopies(t *testing.T) {
	s := New()
	u := seed(t, s)
	got, err := s.Users().GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Routine.Exercises[0].Name = "changed"
	again, _ := s.Users().GetByID(context.Background(), u.ID)
	if again.Routine.Exercises[0].Name != "Plancha" {
		t.Fatalf("stored record was mutated through a returned copy")
	}
	if got.Tier != domain.TierFree {
		t.Fatalf("tier: want=%s got=%s", domain.TierFree, got.Tier)
	}
}

func TestCommitChecksVersions(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seed(t, s)

	next := u.Clone()
	next.Diet.Version = 5
	snap := &domain.PlanSnapshot{UserID: u.ID, Diet: next.Diet.Clone(), Source: domain.SourceTemplate}

	err := s.Commit(ctx, repository.CommitRequest{User: next, ExpectedRoutineVersion: 1, ExpectedDietVersion: 3, Snapshot: snap})
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("want ErrVersionConflict, got %v", err)
	}
	if _, err := s.Snapshots().Latest(ctx, u.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("snapshot of a rejected commit was stored: %v", err)
	}

	if err := s.Commit(ctx, repository.CommitRequest{User: next, ExpectedRoutineVersion: 1, ExpectedDietVersion: 4, Snapshot: snap}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	stored, _ := s.Users().GetByID(ctx, u.ID)
	if stored.Diet.Version != 5 {
		t.Fatalf("diet version: want=5 got=%d", stored.Diet.Version)
	}
	latest, err := s.Snapshots().Latest(ctx, u.ID)
	if err != nil || latest.Source != domain.SourceTemplate {
		t.Fatalf("latest snapshot: %+v, %v", latest, err)
	}
}

func TestCommitUnknownUser(t *testing.T) {
	s := New()
	err := s.Commit(context.Background(), repository.CommitRequest{User: &domain.UserProfile{}})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSnapshotsNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seed(t, s)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		snap := &domain.PlanSnapshot{UserID: u.ID, Source: domain.SourceTemplate, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if _, err := s.Snapshots().Create(ctx, snap); err != nil {
			t.Fatalf("create snapshot: %v", err)
		}
	}
	list, _ := s.Snapshots().ListByUser(ctx, u.ID, 2)
	if len(list) != 2 || !list[0].CreatedAt.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("list: %+v", list)
	}
	if err := s.Snapshots().Delete(ctx, list[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	latest, _ := s.Snapshots().Latest(ctx, u.ID)
	if !latest.CreatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("latest after delete: %v", latest.CreatedAt)
	}
}
