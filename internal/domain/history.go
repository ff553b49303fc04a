package domain

import "time"

// HistoryCapacity is the number of modification records kept per user.
const HistoryCapacity = 50

// PlanState is the active document pair plus the inputs it was derived from.
type PlanState struct {
	Routine *RoutineDocument `bson:"routine,omitempty" json:"routine,omitempty"`
	Diet    *DietDocument    `bson:"diet,omitempty" json:"diet,omitempty"`
	Inputs  *PlanInputs      `bson:"inputs,omitempty" json:"inputs,omitempty"`
}

func (s PlanState) Clone() PlanState {
	return PlanState{
		Routine: s.Routine.Clone(),
		Diet:    s.Diet.Clone(),
		Inputs:  s.Inputs.Clone(),
	}
}

// Change is one entry of a structured diff. Before/After hold scalars or strings.
type Change struct {
	Field  string `bson:"field" json:"field"`
	Action string `bson:"action" json:"action"`
	Before any    `bson:"before,omitempty" json:"before,omitempty"`
	After  any    `bson:"after,omitempty" json:"after,omitempty"`
}

// ModificationRecord is one reversible entry of the history log.
type ModificationRecord struct {
	ID            string    `bson:"id" json:"id"`
	OperationType string    `bson:"operation_type" json:"operation_type"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
	Summary       string    `bson:"summary" json:"summary"`
	Changes       []Change  `bson:"changes" json:"changes"`
	PreviousState PlanState `bson:"previous_state_snapshot" json:"previous_state_snapshot"`
}

func (r ModificationRecord) Clone() ModificationRecord {
	if r.Changes != nil {
		r.Changes = append([]Change{}, r.Changes...)
	}
	r.PreviousState = r.PreviousState.Clone()
	return r
}

// AppendHistory appends rec, evicting the oldest entries beyond HistoryCapacity.
// The input slice is not modified.
func AppendHistory(history []ModificationRecord, rec ModificationRecord) []ModificationRecord {
	out := make([]ModificationRecord, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, rec)
	if over := len(out) - HistoryCapacity; over > 0 {
		out = out[over:]
	}
	return out
}

// PopHistory removes the most recent record.
func PopHistory(history []ModificationRecord) (ModificationRecord, []ModificationRecord, bool) {
	if len(history) == 0 {
		return ModificationRecord{}, history, false
	}
	last := history[len(history)-1]
	rest := append([]ModificationRecord{}, history[:len(history)-1]...)
	return last, rest, true
}
