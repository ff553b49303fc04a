package operations

import (
	"context"
	"fmt"
	"strings"

	"alcyxob/plan-engine/internal/catalog"
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/textnorm"
)

const (
	// MaxInjuryAlternatives is the number of safe exercises added per affected day.
	MaxInjuryAlternatives = 3
	// MaxExercisesPerDay caps focus additions.
	MaxExercisesPerDay = 8

	minSets   = 2
	maxSets   = 5
	focusSets = 6
)

var severityLoad = map[string]string{
	"mild":     "peso moderado",
	"moderate": "peso ligero",
	"severe":   "sin carga, rango controlado",
}

func (h *Handlers) adaptToInjury(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	a := args.(catalog.InjuryArgs)
	r, err := routineOf(in)
	if err != nil {
		return nil, err
	}

	var changes []domain.Change
	var affectedDays []string
	removed := 0
	kept := r.Exercises[:0:0]
	for _, e := range r.Exercises {
		if textnorm.ContainsAny(e.Name, riskyByRegion[a.BodyPart]...) {
			changes = append(changes, changed("routine.exercises", "removed", exerciseLabel(e), nil))
			affectedDays = appendDay(affectedDays, e.Day)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.Exercises = kept

	added := 0
	for _, day := range affectedDays {
		n := 0
		for _, m := range safeByRegion[a.BodyPart] {
			if n == MaxInjuryAlternatives {
				break
			}
			e := m.on(day, severityLoad[a.Severity])
			if r.AddExercise(e) {
				n++
				changes = append(changes, changed("routine.exercises", "added", nil, exerciseLabel(e)))
			}
		}
		added += n
	}

	in.User.Injuries = append(in.User.Injuries, domain.InjuryEvent{
		BodyPart:   a.BodyPart,
		InjuryType: a.InjuryType,
		Severity:   a.Severity,
		ReportedAt: in.Now,
	})

	summary := fmt.Sprintf("He adaptado tu rutina para proteger tu %s: eliminé %d ejercicios de riesgo y añadí %d alternativas seguras.",
		a.BodyPart, removed, added)
	if removed == 0 {
		summary = fmt.Sprintf("Tu rutina no tenía ejercicios que carguen la zona (%s); he registrado la lesión.", a.BodyPart)
	}
	return &Result{Summary: summary, Changes: changes, Commit: true}, nil
}

func appendDay(days []string, day string) []string {
	for _, d := range days {
		if strings.EqualFold(d, day) {
			return days
		}
	}
	return append(days, day)
}

var volumeExtraSets = map[string]int{
	"ligero_aumento":        0,
	"aumento_moderado":      1,
	"aumento_significativo": 2,
	"mantener_volumen":      0,
}

func (h *Handlers) shiftFocus(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	a := args.(catalog.FocusArgs)
	r, err := routineOf(in)
	if err != nil {
		return nil, err
	}
	extra := volumeExtraSets[a.VolumeChange]

	targets := leastLoadedDays(r, 1)
	if a.IncreaseFrequency {
		targets = leastLoadedDays(r, 2)
		if len(targets) < 2 {
			day := fmt.Sprintf("Día %d", len(r.Days())+1)
			r.Schedule = append(r.Schedule, day)
			targets = append(targets, day)
		}
	}

	var changes []domain.Change
	for _, day := range targets {
		for _, m := range focusByGroup[a.FocusArea] {
			if i := indexOf(r, m.name, day); i >= 0 {
				e := &r.Exercises[i]
				if extra == 0 || e.Sets >= focusSets {
					continue
				}
				before := e.Sets
				e.Sets = min(e.Sets+extra, focusSets)
				changes = append(changes, changed("routine.exercises."+e.Name+".sets", "updated", before, e.Sets))
				continue
			}
			if countOn(r, day) >= MaxExercisesPerDay {
				break
			}
			e := m.on(day, "peso progresivo")
			e.Sets = min(m.sets+extra, focusSets)
			r.AddExercise(e)
			changes = append(changes, changed("routine.exercises", "added", nil, exerciseLabel(e)))
		}
	}

	in.User.FocusAreas = append(in.User.FocusAreas, domain.FocusPreference{
		Area:         a.FocusArea,
		VolumeChange: a.VolumeChange,
		RequestedAt:  in.Now,
	})

	summary := fmt.Sprintf("He aumentado el enfoque en %s (%s).", a.FocusArea, strings.Join(targets, ", "))
	if len(changes) == 0 {
		summary = fmt.Sprintf("Tu rutina ya tiene el máximo enfoque en %s; he registrado tu preferencia.", a.FocusArea)
	}
	return &Result{Summary: summary, Changes: changes, Commit: true}, nil
}

// leastLoadedDays returns up to n days ordered by exercise count, ties in
// schedule order.
func leastLoadedDays(r *domain.RoutineDocument, n int) []string {
	days := r.Days()
	picked := make([]string, 0, n)
	used := make(map[string]bool)
	for len(picked) < n && len(picked) < len(days) {
		best := ""
		bestCount := -1
		for _, d := range days {
			if used[d] {
				continue
			}
			if c := countOn(r, d); bestCount < 0 || c < bestCount {
				best, bestCount = d, c
			}
		}
		used[best] = true
		picked = append(picked, best)
	}
	return picked
}

func countOn(r *domain.RoutineDocument, day string) int {
	n := 0
	for _, e := range r.Exercises {
		if strings.EqualFold(strings.TrimSpace(e.Day), strings.TrimSpace(day)) {
			n++
		}
	}
	return n
}

func indexOf(r *domain.RoutineDocument, name, day string) int {
	for i, e := range r.Exercises {
		if textnorm.Fold(e.Name) == textnorm.Fold(name) && strings.EqualFold(strings.TrimSpace(e.Day), strings.TrimSpace(day)) {
			return i
		}
	}
	return -1
}

func (h *Handlers) adjustDifficulty(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	a := args.(catalog.DifficultyArgs)
	r, err := routineOf(in)
	if err != nil {
		return nil, err
	}
	step, hint, verb := 1, "aumentar carga progresivamente", "aumentado"
	if a.Direction == "decrease" {
		step, hint, verb = -1, "reducir carga", "reducido"
	}

	var changes []domain.Change
	for i := range r.Exercises {
		e := &r.Exercises[i]
		sets := e.Sets
		if sets <= 0 {
			sets = 3
		}
		next := max(minSets, min(maxSets, sets+step))
		if next != e.Sets {
			changes = append(changes, changed("routine.exercises."+e.Name+".sets", "updated", e.Sets, next))
			e.Sets = next
		}
		if e.LoadHint != hint {
			changes = append(changes, changed("routine.exercises."+e.Name+".load_hint", "updated", e.LoadHint, hint))
			e.LoadHint = hint
		}
	}

	summary := fmt.Sprintf("He %s la dificultad de tu rutina.", verb)
	if a.Reason != "" {
		summary = fmt.Sprintf("He %s la dificultad de tu rutina (%s).", verb, strings.ReplaceAll(a.Reason, "_", " "))
	}
	return &Result{Summary: summary, Changes: changes, Commit: true}, nil
}

func (h *Handlers) substituteExercise(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	a := args.(catalog.SubstituteExerciseArgs)
	r, err := routineOf(in)
	if err != nil {
		return nil, err
	}

	var changes []domain.Change
	found := false
	for i := range r.Exercises {
		old := r.Exercises[i]
		if !textnorm.Contains(old.Name, a.ExerciseToReplace) {
			continue
		}
		found = true
		group := a.TargetMuscles
		if group == "" || group == "todo_cuerpo" {
			group = groupOf(old)
		}
		name, ok := pickReplacement(r, old, replacementsFor(group, a.EquipmentAvailable), "")
		if !ok {
			continue
		}
		r.Exercises[i].Name = name
		r.Exercises[i].MuscleGroup = group
		changes = append(changes, changed("routine.exercises", "replaced", exerciseLabel(old), exerciseLabel(r.Exercises[i])))
	}

	if !found {
		return nil, domain.NewValidationError("exercise_to_replace", "%q is not in your routine", a.ExerciseToReplace)
	}
	if len(changes) == 0 {
		return nil, domain.NewValidationError("target_muscles", "no alternative available for %q", a.ExerciseToReplace)
	}
	return &Result{
		Summary: fmt.Sprintf("He sustituido %s por %v.", a.ExerciseToReplace, changes[0].After),
		Changes: changes,
		Commit:  true,
	}, nil
}

// replacementsFor widens the search to every group when the group is unknown.
func replacementsFor(group, equipment string) []string {
	if names := replacements(group, equipment); len(names) > 0 {
		return names
	}
	var out []string
	for _, g := range []string{"pecho", "espalda", "piernas", "hombros", "brazos", "core", "gluteos", "pantorrillas"} {
		out = append(out, replacements(g, equipment)...)
	}
	return out
}

// pickReplacement returns the first candidate that differs from old, is not
// already planned on old's day and does not need the excluded equipment.
func pickReplacement(r *domain.RoutineDocument, old domain.Exercise, candidates []string, excluded string) (string, bool) {
	for _, c := range candidates {
		if textnorm.Fold(c) == textnorm.Fold(old.Name) || r.HasExercise(c, old.Day) {
			continue
		}
		if excluded != "" && needsEquipment(c, excluded) {
			continue
		}
		return c, true
	}
	return "", false
}

func (h *Handlers) adaptToEquipment(ctx context.Context, in *Input, args catalog.Args) (*Result, error) {
	a := args.(catalog.EquipmentArgs)
	r, err := routineOf(in)
	if err != nil {
		return nil, err
	}
	mentioned := splitList(a.AffectedExercises)

	var changes []domain.Change
	skipped := 0
	for i := range r.Exercises {
		old := r.Exercises[i]
		if !needsEquipment(old.Name, a.MissingEquipment) && !textnorm.ContainsAny(old.Name, mentioned...) {
			continue
		}
		group := groupOf(old)
		name, ok := pickReplacement(r, old, replacementsFor(group, a.AvailableEquipment), a.MissingEquipment)
		if !ok {
			skipped++
			continue
		}
		r.Exercises[i].Name = name
		if group != "" {
			r.Exercises[i].MuscleGroup = group
		}
		changes = append(changes, changed("routine.exercises", "replaced", exerciseLabel(old), exerciseLabel(r.Exercises[i])))
	}

	label := strings.ReplaceAll(a.MissingEquipment, "_", " ")
	var summary string
	switch {
	case len(changes) == 0 && skipped == 0:
		summary = fmt.Sprintf("Ningún ejercicio de tu rutina necesita %s.", label)
	case skipped > 0:
		summary = fmt.Sprintf("He adaptado %d ejercicios sin %s; %d no tienen alternativa con tu equipamiento.", len(changes), label, skipped)
	default:
		summary = fmt.Sprintf("He adaptado %d ejercicios para entrenar sin %s.", len(changes), label)
	}
	return &Result{Summary: summary, Changes: changes, Commit: true}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func exerciseLabel(e domain.Exercise) string {
	if e.Day == "" {
		return e.Name
	}
	return fmt.Sprintf("%s (%s)", e.Name, e.Day)
}
