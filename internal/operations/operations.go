// Package operations holds one handler per catalog operation. Handlers edit a
// private copy of the user record; Apply then bumps the touched document and
// appends the history record so the caller only has to persist the result.
package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alcyxob/plan-engine/internal/catalog"
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/generation"
	"alcyxob/plan-engine/internal/logger"
)

// Input is what a handler works on. User is a deep copy owned by the request;
// handlers mutate it in place.
type Input struct {
	User *domain.UserProfile
	// Snapshot is the latest full generation, used when the active documents
	// are missing. May be nil.
	Snapshot  *domain.PlanSnapshot
	Knowledge string
	Now       time.Time
}

// Result describes what a handler did.
type Result struct {
	Summary string
	Changes []domain.Change
	// Commit is false for operations that only return information.
	Commit bool
	// Snapshot is set when the diet was fully regenerated.
	Snapshot *domain.PlanSnapshot
	// Options carries proposals that are not part of the plan.
	Options [][]string
	// Record is the history entry appended by Apply.
	Record *domain.ModificationRecord
}

type handlerFunc func(ctx context.Context, in *Input, args catalog.Args) (*Result, error)

// Handlers dispatches typed arguments to their handler.
type Handlers struct {
	catalog  *catalog.Catalog
	tiers    *generation.Tiers
	log      *logger.Logger
	handlers map[string]handlerFunc
}

// New binds every catalog entry to its handler and fails if one is missing.
func New(cat *catalog.Catalog, tiers *generation.Tiers, log *logger.Logger) (*Handlers, error) {
	h := &Handlers{catalog: cat, tiers: tiers, log: log}
	h.handlers = map[string]handlerFunc{
		catalog.OpInjury:             h.adaptToInjury,
		catalog.OpFocus:              h.shiftFocus,
		catalog.OpDifficulty:         h.adjustDifficulty,
		catalog.OpSubstituteExercise: h.substituteExercise,
		catalog.OpEquipment:          h.adaptToEquipment,
		catalog.OpMacros:             h.recalculateMacros,
		catalog.OpSubstituteFood:     h.substituteFood,
		catalog.OpMealAlternatives:   h.mealAlternatives,
		catalog.OpSimplifyDiet:       h.simplifyDiet,
		catalog.OpUndo:               h.undo,
	}
	for _, name := range cat.Names() {
		if _, ok := h.handlers[name]; !ok {
			return nil, fmt.Errorf("no handler for operation %q", name)
		}
	}
	return h, nil
}

// Apply runs the handler for args against in.User. On a committing result the
// touched document is bumped once and a history record holding the state from
// before the call is appended. Undo restores instead of recording.
func (h *Handlers) Apply(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	name := args.Operation()
	def, ok := h.catalog.Lookup(name)
	fn := h.handlers[name]
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: unknown operation %q", domain.ErrNoOperationMatched, name)
	}
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}
	previous := in.User.State()

	res, err := fn(ctx, in, args)
	if err != nil {
		return nil, err
	}
	if !res.Commit {
		return res, nil
	}

	switch def.Family {
	case catalog.FamilyRoutine:
		in.User.Routine.Bump(in.Now)
	case catalog.FamilyDiet:
		in.User.Diet.Bump(in.Now)
	}
	in.User.UpdatedAt = in.Now
	if def.Family == catalog.FamilyMeta {
		return res, nil
	}

	rec := domain.ModificationRecord{
		ID:            uuid.NewString(),
		OperationType: name,
		Timestamp:     in.Now,
		Summary:       res.Summary,
		Changes:       res.Changes,
		PreviousState: previous,
	}
	in.User.History = domain.AppendHistory(in.User.History, rec)
	res.Record = &rec
	return res, nil
}

// routineOf returns the routine to edit, installing the snapshot routine when
// the active one is missing or empty. An empty active document keeps its
// version so the next bump still moves forward.
func routineOf(in *Input) (*domain.RoutineDocument, error) {
	if r := in.User.Routine; r.HasContent() {
		return r, nil
	}
	if in.Snapshot != nil && in.Snapshot.Routine.HasContent() {
		r := in.Snapshot.Routine.Clone()
		if in.User.Routine != nil {
			r.Version = in.User.Routine.Version
		}
		in.User.Routine = r
		return r, nil
	}
	return nil, fmt.Errorf("%w: routine", domain.ErrInsufficientState)
}

// dietOf is routineOf for the diet document.
func dietOf(in *Input) (*domain.DietDocument, error) {
	if d := in.User.Diet; d.HasContent() {
		return d, nil
	}
	if in.Snapshot != nil && in.Snapshot.Diet.HasContent() {
		d := in.Snapshot.Diet.Clone()
		if in.User.Diet != nil {
			d.Version = in.User.Diet.Version
		}
		in.User.Diet = d
		return d, nil
	}
	return nil, fmt.Errorf("%w: diet", domain.ErrInsufficientState)
}

// inputsOf returns the inputs the nutrition formulas can run on.
func inputsOf(in *Input) (*domain.PlanInputs, error) {
	if in.User.Inputs.Complete() {
		return in.User.Inputs, nil
	}
	if in.Snapshot != nil && in.Snapshot.Inputs.Complete() {
		in.User.Inputs = in.Snapshot.Inputs.Clone()
		return in.User.Inputs, nil
	}
	return nil, fmt.Errorf("%w: physical inputs", domain.ErrInsufficientState)
}

func (h *Handlers) undo(ctx context.Context, in *Input, _ catalog.Args) (*Result, error) {
	last, rest, ok := domain.PopHistory(in.User.History)
	if !ok {
		return nil, domain.ErrUndoUnavailable
	}
	prev := last.PreviousState.Clone()
	in.User.Routine = prev.Routine
	in.User.Diet = prev.Diet
	in.User.Inputs = prev.Inputs
	in.User.History = rest
	return &Result{
		Summary: fmt.Sprintf("He deshecho el último cambio: %s", last.Summary),
		Changes: []domain.Change{{Field: "history", Action: "reverted", Before: last.OperationType}},
		Commit:  true,
		Record:  &last,
	}, nil
}

func changed(field, action string, before, after any) domain.Change {
	return domain.Change{Field: field, Action: action, Before: before, After: after}
}
