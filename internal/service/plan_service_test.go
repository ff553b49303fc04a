package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/plan-engine/internal/catalog"
	"alcyxob/plan-engine/internal/classifier"
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/generation"
	"alcyxob/plan-engine/internal/lock"
	"alcyxob/plan-engine/internal/logger"
	"alcyxob/plan-engine/internal/operations"
	"alcyxob/plan-engine/internal/repository"
	"alcyxob/plan-engine/internal/repository/memory"
	"alcyxob/plan-engine/internal/storage"
)

type fakeClassifier struct {
	result *classifier.Result
	err    error
	got    classifier.Request
	during func()
}

func (f *fakeClassifier) Classify(ctx context.Context, req classifier.Request) (*classifier.Result, error) {
	f.got = req
	if f.during != nil {
		f.during()
	}
	return f.result, f.err
}

type failingStore struct{ err error }

func (f failingStore) Commit(context.Context, repository.CommitRequest) error { return f.err }

type fakeFiles struct{ objects map[string][]byte }

func (f *fakeFiles) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	f.objects[key] = body
	return nil
}

func (f *fakeFiles) GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://files.example/" + key, nil
}

func (f *fakeFiles) DeleteObject(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type harness struct {
	svc        PlanService
	mem        *memory.Store
	guard      lock.Guard
	classifier *fakeClassifier
	files      *fakeFiles
	userID     primitive.ObjectID
}

var fixedNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func seedUser() *domain.UserProfile {
	return &domain.UserProfile{
		Name:   "Luis",
		Email:  "luis@example.com",
		Inputs: &domain.PlanInputs{HeightCM: 180, WeightKG: 75, Age: 30, Sex: "masculino", ActivityLevel: "moderado", Goal: "mantenimiento"},
		Routine: &domain.RoutineDocument{
			Schedule: []string{"Lunes", "Jueves"},
			Exercises: []domain.Exercise{
				{Name: "Press banca", Sets: 4, Reps: "8-10", Day: "Lunes", MuscleGroup: "pecho"},
				{Name: "Sentadillas", Sets: 4, Reps: "8-10", Day: "Lunes", MuscleGroup: "piernas"},
				{Name: "Remo con barra", Sets: 3, Reps: "10", Day: "Jueves", MuscleGroup: "espalda"},
			},
			Version: 1,
		},
		Diet: &domain.DietDocument{
			Meals: []domain.Meal{
				{Name: "Desayuno", Kcal: 500, Items: []string{"60g avena - 225kcal", "250ml leche semidesnatada - 115kcal", "1 plátano - 100kcal", "10g nueces - 60kcal"}},
				{Name: "Comida", Kcal: 700, Items: []string{"150g pechuga de pollo - 165kcal", "90g arroz integral - 315kcal", "200g brócoli - 70kcal", "15ml aceite de oliva - 150kcal"}},
			},
			TotalKcal: 2700,
			Objective: "mantenimiento",
			Version:   1,
		},
	}
}

func newHarness(t *testing.T, store repository.PlanStore) *harness {
	t.Helper()
	mem := memory.New()
	u := seedUser()
	if _, err := mem.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if store == nil {
		store = mem
	}
	cat := catalog.New()
	tiers := generation.NewTiers(nil, generation.NewTemplate(), time.Second, time.Second, logger.Nop())
	handlers, err := operations.New(cat, tiers, logger.Nop())
	if err != nil {
		t.Fatalf("handlers: %v", err)
	}
	h := &harness{
		mem:        mem,
		guard:      lock.NewLocal(),
		classifier: &fakeClassifier{},
		files:      &fakeFiles{objects: map[string][]byte{}},
		userID:     u.ID,
	}
	h.svc = NewPlanService(Deps{
		Users:      mem.Users(),
		Snapshots:  mem.Snapshots(),
		Store:      store,
		Guard:      h.guard,
		Catalog:    cat,
		Classifier: h.classifier,
		Handlers:   handlers,
		Exporter:   storage.NewExporter(h.files, time.Minute, logger.Nop()),
		Log:        logger.Nop(),
		Now:        func() time.Time { return fixedNow },
	})
	return h
}

func (h *harness) stored(t *testing.T) *domain.UserProfile {
	t.Helper()
	u, err := h.mem.Users().GetByID(context.Background(), h.userID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return u
}

func TestExecuteCommitsAndRecordsSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	res, err := h.svc.Execute(context.Background(), h.userID, catalog.OpMacros, map[string]any{"weight_change_kg": 2}, "")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Success || res.FunctionUsed == nil || *res.FunctionUsed != catalog.OpMacros {
		t.Fatalf("result: %+v", res)
	}
	u := h.stored(t)
	if u.Diet.Version != 2 || res.Changes.DietVersion != 2 {
		t.Fatalf("diet version: stored=%d reported=%d", u.Diet.Version, res.Changes.DietVersion)
	}
	if u.Inputs.WeightKG != 77 || len(u.History) != 1 {
		t.Fatalf("stored user: weight=%v history=%d", u.Inputs.WeightKG, len(u.History))
	}
	snap, err := h.mem.Snapshots().Latest(context.Background(), h.userID)
	if err != nil || snap.UserID != h.userID || snap.Source != domain.SourceTemplate {
		t.Fatalf("snapshot: %+v, %v", snap, err)
	}
}

func TestModifyUsesClassifier(t *testing.T) {
	h := newHarness(t, nil)
	h.classifier.result = &classifier.Result{
		Operation: catalog.OpInjury,
		Arguments: map[string]any{"body_part": "rodilla", "injury_type": "dolor", "severity": "leve"},
	}
	res, err := h.svc.Modify(context.Background(), h.userID, ModifyRequest{Message: "me duele la rodilla", KnowledgeContext: "kb"})
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if !res.Success || res.Changes.RoutineVersion != 2 {
		t.Fatalf("result: %+v", res)
	}
	if h.classifier.got.Summary.Exercises != 3 || h.classifier.got.Summary.TotalKcal != 2700 || h.classifier.got.KnowledgeContext != "kb" {
		t.Fatalf("classifier request: %+v", h.classifier.got)
	}
	if h.stored(t).Routine.HasExercise("Sentadillas", "Lunes") {
		t.Fatalf("risky exercise still stored")
	}
}

func TestModifyFailures(t *testing.T) {
	cases := []struct {
		name    string
		result  *classifier.Result
		err     error
		want    error
		message string
	}{
		{"no match", &classifier.Result{Reply: "¿Te refieres a la dieta?"}, nil, domain.ErrNoOperationMatched, "¿Te refieres a la dieta?"},
		{"unavailable", nil, domain.ErrClassificationUnavailable, domain.ErrClassificationUnavailable, "reformularla"},
		{"bad arguments", &classifier.Result{Operation: catalog.OpInjury, Arguments: map[string]any{"body_part": "oreja"}}, nil, nil, "body_part"},
	}
	for _, c := range cases {
		h := newHarness(t, nil)
		h.classifier.result, h.classifier.err = c.result, c.err
		res, err := h.svc.Modify(context.Background(), h.userID, ModifyRequest{Message: "hola"})
		if err == nil || res == nil || res.Success {
			t.Fatalf("%s: want failure, got %+v, %v", c.name, res, err)
		}
		if c.want != nil && !errors.Is(err, c.want) {
			t.Fatalf("%s: want %v got %v", c.name, c.want, err)
		}
		if !strings.Contains(res.Message, c.message) {
			t.Fatalf("%s: message %q does not mention %q", c.name, res.Message, c.message)
		}
		if h.stored(t).Routine.Version != 1 {
			t.Fatalf("%s: failed request changed the plan", c.name)
		}
	}
}

func TestSecondRequestIsRejectedWhileOneIsInFlight(t *testing.T) {
	h := newHarness(t, nil)
	release, err := h.guard.Acquire(context.Background(), h.userID.Hex())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	res, err := h.svc.Execute(context.Background(), h.userID, catalog.OpDifficulty, map[string]any{"direction": "increase"}, "")
	if !errors.Is(err, domain.ErrPersistenceConflict) || res.Success {
		t.Fatalf("want ErrPersistenceConflict, got %v", err)
	}
	release()
	if _, err := h.svc.Execute(context.Background(), h.userID, catalog.OpDifficulty, map[string]any{"direction": "increase"}, ""); err != nil {
		t.Fatalf("after release: %v", err)
	}
}

func TestCancelledCallerDiscardsResultAndReleasesLock(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	h.classifier.result = &classifier.Result{Operation: catalog.OpDifficulty, Arguments: map[string]any{"direction": "decrease"}}
	h.classifier.during = cancel

	if _, err := h.svc.Modify(ctx, h.userID, ModifyRequest{Message: "más fácil"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if u := h.stored(t); u.Routine.Version != 1 || len(u.History) != 0 {
		t.Fatalf("discarded result was persisted: version=%d history=%d", u.Routine.Version, len(u.History))
	}
	h.classifier.during = nil
	if _, err := h.svc.Modify(context.Background(), h.userID, ModifyRequest{Message: "más fácil"}); err != nil {
		t.Fatalf("lock not released: %v", err)
	}
}

func TestFailedCommitLeavesPlanUntouched(t *testing.T) {
	for _, storeErr := range []error{errors.New("write timeout"), repository.ErrVersionConflict} {
		h := newHarness(t, failingStore{err: storeErr})
		before := h.stored(t)
		res, err := h.svc.Execute(context.Background(), h.userID, catalog.OpFocus, map[string]any{"focus_area": "core"}, "")
		if err == nil || res.Success {
			t.Fatalf("%v: want failure", storeErr)
		}
		if errors.Is(storeErr, repository.ErrVersionConflict) && !errors.Is(err, domain.ErrPersistenceConflict) {
			t.Fatalf("version conflict must surface as ErrPersistenceConflict, got %v", err)
		}
		after := h.stored(t)
		if after.Routine.Version != before.Routine.Version || len(after.FocusAreas) != 0 {
			t.Fatalf("%v: plan changed after failed commit", storeErr)
		}
	}
}

func TestEmptyRoutineIsRestoredFromSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	full := seedUser()
	empty := seedUser()
	empty.Email = "vacio@example.com"
	empty.Routine.Exercises = nil
	empty.Routine.Version = 2
	id, err := h.mem.Users().Create(ctx, empty)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := h.mem.Snapshots().Create(ctx, &domain.PlanSnapshot{
		UserID:    id,
		Inputs:    *full.Inputs,
		Routine:   full.Routine,
		Diet:      full.Diet,
		Source:    domain.SourceTemplate,
		CreatedAt: fixedNow.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	res, err := h.svc.Execute(ctx, id, catalog.OpDifficulty, map[string]any{"direction": "increase"}, "")
	if err != nil || !res.Success {
		t.Fatalf("execute: %+v, %v", res, err)
	}
	u, err := h.mem.Users().GetByID(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(u.Routine.Exercises) != len(full.Routine.Exercises) || u.Routine.Version != 3 {
		t.Fatalf("routine: exercises=%d version=%d", len(u.Routine.Exercises), u.Routine.Version)
	}
}

func TestUndoRoundTrip(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	if _, err := h.svc.Undo(ctx, h.userID); !errors.Is(err, domain.ErrUndoUnavailable) {
		t.Fatalf("want ErrUndoUnavailable, got %v", err)
	}
	if _, err := h.svc.Execute(ctx, h.userID, catalog.OpSimplifyDiet, map[string]any{"complexity_level": "muy_simple"}, ""); err != nil {
		t.Fatalf("simplify: %v", err)
	}
	res, err := h.svc.Undo(ctx, h.userID)
	if err != nil || !res.Success || *res.FunctionUsed != catalog.OpUndo {
		t.Fatalf("undo: %+v, %v", res, err)
	}
	u := h.stored(t)
	if u.Diet.Version != 1 || len(u.Diet.Meals[0].Items) != 4 || len(u.History) != 0 {
		t.Fatalf("undo did not restore the diet: version=%d items=%d history=%d", u.Diet.Version, len(u.Diet.Meals[0].Items), len(u.History))
	}
}

func TestMealAlternativesAreNotPersisted(t *testing.T) {
	h := newHarness(t, nil)
	res, err := h.svc.Execute(context.Background(), h.userID, catalog.OpMealAlternatives, map[string]any{"meal_type": "cena", "num_alternatives": 2}, "")
	if err != nil {
		t.Fatalf("alternatives: %v", err)
	}
	if len(res.Changes.Options) != 2 {
		t.Fatalf("options: want=2 got=%d", len(res.Changes.Options))
	}
	if u := h.stored(t); u.Diet.Version != 1 || len(u.History) != 0 {
		t.Fatalf("alternatives changed the stored plan")
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	for _, dir := range []string{"increase", "decrease"} {
		if _, err := h.svc.Execute(ctx, h.userID, catalog.OpDifficulty, map[string]any{"direction": dir}, ""); err != nil {
			t.Fatalf("%s: %v", dir, err)
		}
	}
	hist, err := h.svc.History(ctx, h.userID)
	if err != nil || len(hist) != 2 {
		t.Fatalf("history: %d, %v", len(hist), err)
	}
	if !strings.Contains(hist[0].Summary, "reducido") {
		t.Fatalf("newest entry first, got %q", hist[0].Summary)
	}
}

func TestGetPlanAndExport(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	view, err := h.svc.GetPlan(ctx, h.userID)
	if err != nil || view.Routine == nil || view.Diet == nil {
		t.Fatalf("plan: %+v, %v", view, err)
	}
	exp, err := h.svc.Export(ctx, h.userID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	body := string(h.files.objects[exp.Key])
	if !strings.Contains(body, "Press banca") || !strings.Contains(body, "exported_at") {
		t.Fatalf("export body: %s", body)
	}

	if _, err := h.svc.GetPlan(ctx, primitive.NewObjectID()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestUnknownUser(t *testing.T) {
	h := newHarness(t, nil)
	res, err := h.svc.Execute(context.Background(), primitive.NewObjectID(), catalog.OpUndo, nil, "")
	if !errors.Is(err, ErrUserNotFound) || res.Success {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}
