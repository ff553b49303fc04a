package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/plan-engine/internal/catalog"
	"alcyxob/plan-engine/internal/classifier"
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/lock"
	"alcyxob/plan-engine/internal/logger"
	"alcyxob/plan-engine/internal/operations"
	"alcyxob/plan-engine/internal/repository"
	"alcyxob/plan-engine/internal/storage"
)

// --- Error Definitions ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrExportUnavailable  = errors.New("plan export is not configured")
	ErrClassifierDisabled = errors.New("free-text modification is not configured")
)

// ModifyRequest is one free-text modification request.
type ModifyRequest struct {
	Message          string
	RecentContext    []classifier.Turn
	KnowledgeContext string
}

// ChangeSet is the structured diff of one modification.
type ChangeSet struct {
	Items          []domain.Change `json:"items"`
	Options        [][]string      `json:"options,omitempty"`
	RoutineVersion int             `json:"routine_version"`
	DietVersion    int             `json:"diet_version"`
}

// ModificationResult is returned to the chat collaborator for every request,
// successful or not.
type ModificationResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	Changes      ChangeSet `json:"changes"`
	FunctionUsed *string   `json:"function_used"`
}

// PlanView is the active plan as shown to the user.
type PlanView struct {
	UserID    string                   `json:"user_id"`
	Tier      domain.Tier              `json:"tier"`
	Inputs    *domain.PlanInputs       `json:"inputs,omitempty"`
	Routine   *domain.RoutineDocument  `json:"routine,omitempty"`
	Diet      *domain.DietDocument     `json:"diet,omitempty"`
	Injuries  []domain.InjuryEvent     `json:"injuries,omitempty"`
	Focus     []domain.FocusPreference `json:"focus_areas,omitempty"`
	Disliked  []string                 `json:"disliked_foods,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// --- Service Interface ---
type PlanService interface {
	// Modify classifies a free-text request and applies the selected operation.
	Modify(ctx context.Context, userID primitive.ObjectID, req ModifyRequest) (*ModificationResult, error)
	// Execute applies a named operation with raw arguments, skipping classification.
	Execute(ctx context.Context, userID primitive.ObjectID, operation string, args map[string]any, knowledge string) (*ModificationResult, error)
	Undo(ctx context.Context, userID primitive.ObjectID) (*ModificationResult, error)

	GetPlan(ctx context.Context, userID primitive.ObjectID) (*PlanView, error)
	// History returns the modification log, newest first.
	History(ctx context.Context, userID primitive.ObjectID) ([]domain.ModificationRecord, error)
	Export(ctx context.Context, userID primitive.ObjectID) (*storage.ExportResult, error)
	Operations() []*catalog.Definition
}

// --- Service Implementation ---

type planService struct {
	users      repository.UserRepository
	snapshots  repository.SnapshotRepository
	store      repository.PlanStore
	guard      lock.Guard
	catalog    *catalog.Catalog
	classifier classifier.Classifier
	handlers   *operations.Handlers
	exporter   *storage.Exporter
	log        *logger.Logger
	now        func() time.Time
}

// Deps are the collaborators of the plan service. Classifier and Exporter may
// be nil; the matching features then report they are not configured.
type Deps struct {
	Users      repository.UserRepository
	Snapshots  repository.SnapshotRepository
	Store      repository.PlanStore
	Guard      lock.Guard
	Catalog    *catalog.Catalog
	Classifier classifier.Classifier
	Handlers   *operations.Handlers
	Exporter   *storage.Exporter
	Log        *logger.Logger
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// NewPlanService creates a new instance of planService.
func NewPlanService(d Deps) PlanService {
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	guard := d.Guard
	if guard == nil {
		guard = lock.NewLocal()
	}
	return &planService{
		users:      d.Users,
		snapshots:  d.Snapshots,
		store:      d.Store,
		guard:      guard,
		catalog:    d.Catalog,
		classifier: d.Classifier,
		handlers:   d.Handlers,
		exporter:   d.Exporter,
		log:        d.Log.With("service", "PlanService"),
		now:        now,
	}
}

// resolver picks the operation to run for a loaded user. reply is a text
// answer to use when no operation matched.
type resolver func(ctx context.Context, user *domain.UserProfile) (args catalog.Args, reply string, err error)

func (s *planService) Modify(ctx context.Context, userID primitive.ObjectID, req ModifyRequest) (*ModificationResult, error) {
	if s.classifier == nil {
		return s.fail(userID, nil, ErrClassifierDisabled, "")
	}
	return s.run(ctx, userID, req.KnowledgeContext, func(ctx context.Context, user *domain.UserProfile) (catalog.Args, string, error) {
		res, err := s.classifier.Classify(ctx, classifier.Request{
			Message:          req.Message,
			RecentContext:    req.RecentContext,
			Summary:          summarize(user),
			KnowledgeContext: req.KnowledgeContext,
		})
		if err != nil {
			return nil, "", err
		}
		if !res.Matched() {
			return nil, res.Reply, domain.ErrNoOperationMatched
		}
		args, err := s.catalog.Normalize(res.Operation, res.Arguments)
		return args, "", err
	})
}

func (s *planService) Execute(ctx context.Context, userID primitive.ObjectID, operation string, raw map[string]any, knowledge string) (*ModificationResult, error) {
	return s.run(ctx, userID, knowledge, func(context.Context, *domain.UserProfile) (catalog.Args, string, error) {
		args, err := s.catalog.Normalize(operation, raw)
		return args, "", err
	})
}

func (s *planService) Undo(ctx context.Context, userID primitive.ObjectID) (*ModificationResult, error) {
	return s.run(ctx, userID, "", func(context.Context, *domain.UserProfile) (catalog.Args, string, error) {
		return catalog.UndoArgs{}, "", nil
	})
}

// run executes one modification under the per-user guard. Once the guard is
// held the work continues on a context detached from the caller; if the
// caller goes away before the commit the result is dropped.
func (s *planService) run(ctx context.Context, userID primitive.ObjectID, knowledge string, resolve resolver) (*ModificationResult, error) {
	release, err := s.guard.Acquire(ctx, userID.Hex())
	if err != nil {
		return s.fail(userID, nil, err, "")
	}
	defer release()

	work := context.WithoutCancel(ctx)
	user, err := s.loadUser(work, userID)
	if err != nil {
		return s.fail(userID, nil, err, "")
	}

	args, reply, err := resolve(work, user)
	if err != nil {
		return s.fail(userID, nil, err, reply)
	}
	op := args.Operation()
	log := s.log.With("user_id", userID.Hex(), "operation", op)

	snapshot, err := s.fallbackSnapshot(work, user)
	if err != nil {
		return s.fail(userID, &op, err, "")
	}

	working := user.Clone()
	expectedRoutine, expectedDiet := user.Versions()
	res, err := s.handlers.Apply(work, &operations.Input{
		User:      working,
		Snapshot:  snapshot,
		Knowledge: knowledge,
		Now:       s.now(),
	}, args)
	if err != nil {
		return s.fail(userID, &op, err, "")
	}

	if res.Commit {
		if ctx.Err() != nil {
			log.Warn("caller went away before commit, result discarded", "error", ctx.Err())
			return nil, ctx.Err()
		}
		if res.Snapshot != nil {
			res.Snapshot.UserID = userID
		}
		err = s.store.Commit(work, repository.CommitRequest{
			User:                   working,
			ExpectedRoutineVersion: expectedRoutine,
			ExpectedDietVersion:    expectedDiet,
			Snapshot:               res.Snapshot,
		})
		if errors.Is(err, repository.ErrVersionConflict) {
			err = fmt.Errorf("%w: %v", domain.ErrPersistenceConflict, err)
		}
		if err != nil {
			return s.fail(userID, &op, err, "")
		}
		log.Info("plan modified", "changes", len(res.Changes), "regenerated", res.Snapshot != nil)
	}

	routineVersion, dietVersion := working.Versions()
	return &ModificationResult{
		Success: true,
		Message: res.Summary,
		Changes: ChangeSet{
			Items:          res.Changes,
			Options:        res.Options,
			RoutineVersion: routineVersion,
			DietVersion:    dietVersion,
		},
		FunctionUsed: &op,
	}, nil
}

func (s *planService) loadUser(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// fallbackSnapshot loads the latest snapshot when a document the handlers may
// need is missing or empty in the active view.
func (s *planService) fallbackSnapshot(ctx context.Context, user *domain.UserProfile) (*domain.PlanSnapshot, error) {
	if user.Routine.HasContent() && user.Diet.HasContent() && user.Diet.HasMacros() && user.Inputs.Complete() {
		return nil, nil
	}
	if s.snapshots == nil {
		return nil, nil
	}
	snap, err := s.snapshots.Latest(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// fail turns err into the result shown to the user and logs what the user
// does not see. The error is returned as well so transports can pick a status.
func (s *planService) fail(userID primitive.ObjectID, op *string, err error, reply string) (*ModificationResult, error) {
	msg := userMessage(err, reply)
	if !domain.IsUserVisible(err) {
		s.log.Error("modification failed", "user_id", userID.Hex(), "operation", deref(op), "error", err)
	}
	return &ModificationResult{Success: false, Message: msg, FunctionUsed: op}, err
}

func userMessage(err error, reply string) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return fmt.Sprintf("No he podido aplicar el cambio: el dato %q no es válido (%s).", ve.Param, ve.Reason)
	case errors.Is(err, domain.ErrNoOperationMatched):
		if reply != "" {
			return reply
		}
		return "No he identificado qué quieres cambiar. ¿Puedes concretar si es la rutina o la dieta?"
	case errors.Is(err, domain.ErrClassificationUnavailable):
		return "No he podido entender tu petición ahora mismo. ¿Puedes reformularla?"
	case errors.Is(err, domain.ErrInsufficientState):
		return "No tienes un plan que modificar todavía."
	case errors.Is(err, domain.ErrPersistenceConflict):
		return "Ya estoy aplicando otro cambio a tu plan. Inténtalo de nuevo en unos segundos."
	case errors.Is(err, domain.ErrUndoUnavailable):
		return "No hay cambios que deshacer."
	case errors.Is(err, ErrUserNotFound):
		return "No encuentro tu perfil."
	}
	return "No he podido modificar tu plan en este momento. Inténtalo más tarde."
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// summarize builds the plan description the classifier prompt starts from.
func summarize(u *domain.UserProfile) classifier.Summary {
	sum := classifier.Summary{Injuries: len(u.Injuries)}
	if u.Inputs != nil {
		sum.Sex = u.Inputs.Sex
		sum.Goal = u.Inputs.Goal
		sum.Allergies = u.Inputs.Allergies
	}
	if u.Routine != nil {
		sum.Exercises = len(u.Routine.Exercises)
	}
	if u.Diet != nil {
		sum.Meals = len(u.Diet.Meals)
		sum.TotalKcal = u.Diet.TotalKcal
		if sum.Goal == "" {
			sum.Goal = u.Diet.Objective
		}
	}
	return sum
}

func (s *planService) GetPlan(ctx context.Context, userID primitive.ObjectID) (*PlanView, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &PlanView{
		UserID:    userID.Hex(),
		Tier:      user.Tier,
		Inputs:    user.Inputs,
		Routine:   user.Routine,
		Diet:      user.Diet,
		Injuries:  user.Injuries,
		Focus:     user.FocusAreas,
		Disliked:  user.DislikedFoods,
		UpdatedAt: user.UpdatedAt,
	}
	snap, err := s.fallbackSnapshot(ctx, user)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		if view.Routine == nil {
			view.Routine = snap.Routine
		}
		if view.Diet == nil {
			view.Diet = snap.Diet
		}
		if !view.Inputs.Complete() {
			view.Inputs = &snap.Inputs
		}
	}
	if view.Routine == nil && view.Diet == nil {
		return nil, domain.ErrInsufficientState
	}
	return view, nil
}

func (s *planService) History(ctx context.Context, userID primitive.ObjectID) ([]domain.ModificationRecord, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ModificationRecord, 0, len(user.History))
	for i := len(user.History) - 1; i >= 0; i-- {
		out = append(out, user.History[i])
	}
	return out, nil
}

// planExport is the document written by Export.
type planExport struct {
	ExportedAt time.Time `json:"exported_at"`
	*PlanView
}

func (s *planService) Export(ctx context.Context, userID primitive.ObjectID) (*storage.ExportResult, error) {
	if s.exporter == nil {
		return nil, ErrExportUnavailable
	}
	view, err := s.GetPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, userID.Hex(), planExport{ExportedAt: s.now(), PlanView: view})
}

func (s *planService) Operations() []*catalog.Definition {
	return s.catalog.Definitions()
}
