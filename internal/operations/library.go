package operations

import (
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/textnorm"
)

// movement is a library exercise before it is placed on a day.
type movement struct {
	name  string
	sets  int
	reps  string
	group string
}

func (m movement) on(day, loadHint string) domain.Exercise {
	return domain.Exercise{Name: m.name, Sets: m.sets, Reps: m.reps, LoadHint: loadHint, Day: day, MuscleGroup: m.group}
}

// riskyByRegion lists name fragments of exercises that load an injured region.
var riskyByRegion = map[string][]string{
	"hombro":       {"press banca", "press militar", "remo al cuello", "elevaciones laterales", "fondos", "dips"},
	"rodilla":      {"sentadilla", "zancada", "prensa", "salto", "sissy"},
	"espalda":      {"peso muerto", "remo con barra", "pull ups", "dominadas", "extension lumbar", "buenos dias"},
	"cuello":       {"press militar", "elevaciones frontales", "encogimientos"},
	"muñeca":       {"flexiones", "press banca", "curl de biceps", "fondos"},
	"tobillo":      {"sentadilla", "zancada", "prensa", "salto", "comba"},
	"codo":         {"curl de biceps", "press frances", "fondos", "flexiones", "extensiones de triceps"},
	"cadera":       {"sentadilla", "prensa", "peso muerto", "zancada"},
	"cuadriceps":   {"sentadilla", "zancada", "prensa", "salto", "extensiones de cuadriceps", "hack squat", "sissy"},
	"piernas":      {"sentadilla", "zancada", "prensa", "salto", "extensiones de cuadriceps", "hack squat", "sissy", "peso muerto"},
	"muslos":       {"sentadilla", "zancada", "prensa", "salto", "extensiones de cuadriceps", "hack squat", "sissy"},
	"gemelos":      {"elevaciones de talon", "salto", "comba"},
	"pantorrillas": {"elevaciones de talon", "salto", "comba"},
	"pies":         {"salto", "comba", "zancada", "carrera"},
	"pecho":        {"press banca", "aperturas", "fondos", "flexiones", "press inclinado"},
	"brazos":       {"curl", "press frances", "extensiones de triceps", "fondos"},
	"antebrazo":    {"curl", "dominadas", "peso muerto", "remo con barra"},
	"lumbar":       {"peso muerto", "remo con barra", "buenos dias", "extension lumbar", "sentadilla"},
	"cervical":     {"press militar", "encogimientos", "elevaciones frontales"},
	"dorsal":       {"dominadas", "jalon", "pull ups", "remo con barra"},
	"core":         {"crunch", "russian twist", "elevaciones de piernas"},
	"abdomen":      {"crunch", "russian twist", "elevaciones de piernas"},
}

// safeByRegion lists exercises that train around an injured region.
var safeByRegion = map[string][]movement{
	"hombro": {
		{"Press de pecho en máquina", 3, "10-12", "pecho"},
		{"Facepulls", 3, "15-20", "hombros"},
		{"Remo con mancuernas", 3, "10-12", "espalda"},
	},
	"rodilla": {
		{"Curl femoral", 3, "12-15", "piernas"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
		{"Hip thrust", 3, "12-15", "gluteos"},
	},
	"espalda": {
		{"Remo con mancuernas apoyado", 4, "8-10", "espalda"},
		{"Jalón al pecho", 3, "10-12", "espalda"},
		{"Facepulls", 3, "15-20", "hombros"},
	},
	"cuello": {
		{"Movilidad cervical", 3, "10", "core"},
		{"Estiramientos cervicales", 2, "30s", "core"},
	},
	"muñeca": {
		{"Curl con barra EZ", 3, "12-15", "brazos"},
		{"Press de pecho en máquina", 3, "10-12", "pecho"},
	},
	"tobillo": {
		{"Curl femoral", 3, "12-15", "piernas"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
	},
	"codo": {
		{"Curl martillo ligero", 3, "12-15", "brazos"},
		{"Press de pecho en máquina", 3, "10-12", "pecho"},
	},
	"cadera": {
		{"Puente de glúteos", 3, "15-20", "gluteos"},
		{"Clamshells", 3, "15", "gluteos"},
	},
	"cuadriceps": {
		{"Curl femoral", 3, "12-15", "piernas"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
		{"Hip thrust", 3, "12-15", "gluteos"},
	},
	"piernas": {
		{"Curl femoral", 3, "12-15", "piernas"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
		{"Clamshells", 3, "15", "gluteos"},
	},
	"muslos": {
		{"Curl femoral", 3, "12-15", "piernas"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
	},
	"gemelos": {
		{"Curl femoral", 3, "12-15", "piernas"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
	},
	"pantorrillas": {
		{"Curl femoral", 3, "12-15", "piernas"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
	},
	"pies": {
		{"Press de piernas sentado", 3, "12-15", "piernas"},
		{"Curl femoral", 3, "12-15", "piernas"},
	},
	"pecho": {
		{"Remo con mancuernas", 3, "10-12", "espalda"},
		{"Facepulls", 3, "15-20", "hombros"},
	},
	"brazos": {
		{"Plancha", 3, "30s", "core"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
	},
	"antebrazo": {
		{"Jalón con agarre neutro", 3, "10-12", "espalda"},
		{"Press de pecho en máquina", 3, "10-12", "pecho"},
	},
	"lumbar": {
		{"Jalón al pecho", 3, "10-12", "espalda"},
		{"Bird dog", 3, "10", "core"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
	},
	"cervical": {
		{"Movilidad cervical", 3, "10", "core"},
		{"Elevaciones laterales con banda", 3, "15", "hombros"},
	},
	"dorsal": {
		{"Remo con mancuernas apoyado", 3, "10-12", "espalda"},
		{"Facepulls", 3, "15-20", "hombros"},
	},
	"core": {
		{"Plancha", 3, "30s", "core"},
		{"Bird dog", 3, "10", "core"},
	},
	"abdomen": {
		{"Plancha", 3, "30s", "core"},
		{"Bird dog", 3, "10", "core"},
	},
}

// focusByGroup lists the exercises added when a muscle group gets more emphasis.
var focusByGroup = map[string][]movement{
	"brazos": {
		{"Curl de bíceps", 3, "10-12", "brazos"},
		{"Extensiones de tríceps", 3, "10-12", "brazos"},
		{"Curl martillo", 3, "12-15", "brazos"},
	},
	"pecho": {
		{"Press banca", 3, "8-10", "pecho"},
		{"Press inclinado con mancuernas", 3, "10-12", "pecho"},
		{"Aperturas con mancuernas", 3, "12-15", "pecho"},
	},
	"espalda": {
		{"Remo con barra", 3, "8-10", "espalda"},
		{"Dominadas", 3, "8-12", "espalda"},
		{"Jalón al pecho", 3, "10-12", "espalda"},
	},
	"piernas": {
		{"Sentadillas", 3, "10-12", "piernas"},
		{"Zancadas", 3, "10-12", "piernas"},
		{"Prensa de piernas", 3, "12-15", "piernas"},
	},
	"hombros": {
		{"Press militar", 3, "8-10", "hombros"},
		{"Elevaciones laterales", 3, "12-15", "hombros"},
		{"Facepulls", 3, "15-20", "hombros"},
	},
	"core": {
		{"Plancha", 3, "30-45s", "core"},
		{"Crunch", 3, "15-20", "core"},
		{"Russian twists", 3, "20", "core"},
	},
	"gluteos": {
		{"Hip thrust", 3, "10-12", "gluteos"},
		{"Puente de glúteos", 3, "15-20", "gluteos"},
		{"Patada de glúteo en polea", 3, "12-15", "gluteos"},
	},
	"pantorrillas": {
		{"Elevaciones de talón de pie", 3, "15-20", "pantorrillas"},
		{"Elevaciones de talón sentado", 3, "15-20", "pantorrillas"},
	},
}

// byGroupAndEquipment lists replacements per muscle group and equipment kind.
var byGroupAndEquipment = map[string]map[string][]string{
	"pecho": {
		"peso_libre":   {"Press de pecho con mancuernas", "Aperturas con mancuernas", "Press inclinado con mancuernas"},
		"cuerpo_libre": {"Flexiones", "Flexiones inclinadas", "Flexiones diamante"},
		"maquinas":     {"Press de pecho en máquina", "Aperturas en máquina"},
		"bandas":       {"Press de pecho con bandas", "Cruces con bandas"},
		"kettlebell":   {"Press en suelo con kettlebell"},
	},
	"espalda": {
		"peso_libre":   {"Remo con mancuerna", "Peso muerto rumano", "Remo con barra"},
		"cuerpo_libre": {"Dominadas", "Remo invertido", "Superman"},
		"maquinas":     {"Remo en máquina", "Jalón al pecho"},
		"bandas":       {"Remo con bandas", "Jalón con bandas"},
		"kettlebell":   {"Remo con kettlebell", "Swing con kettlebell"},
	},
	"hombros": {
		"peso_libre":   {"Press militar con mancuernas", "Elevaciones laterales"},
		"cuerpo_libre": {"Flexiones pike", "Flexiones en pino asistidas"},
		"maquinas":     {"Press de hombros en máquina", "Elevaciones laterales en máquina"},
		"bandas":       {"Elevaciones laterales con banda", "Press de hombros con banda"},
		"kettlebell":   {"Press de hombro con kettlebell"},
	},
	"piernas": {
		"peso_libre":   {"Sentadillas con mancuernas", "Zancadas con mancuernas", "Peso muerto rumano"},
		"cuerpo_libre": {"Sentadillas", "Zancadas", "Sentadilla búlgara"},
		"maquinas":     {"Prensa de piernas", "Extensiones de cuádriceps", "Curl femoral"},
		"bandas":       {"Sentadillas con bandas", "Curl femoral con banda"},
		"kettlebell":   {"Sentadilla goblet", "Swing con kettlebell"},
	},
	"brazos": {
		"peso_libre":   {"Curl de bíceps", "Extensiones de tríceps", "Curl martillo"},
		"cuerpo_libre": {"Flexiones diamante", "Fondos en banco"},
		"maquinas":     {"Curl en máquina", "Extensiones en polea"},
		"bandas":       {"Curl con bandas", "Extensiones con banda"},
		"kettlebell":   {"Curl con kettlebell"},
	},
	"core": {
		"peso_libre":   {"Crunch con disco", "Rueda abdominal"},
		"cuerpo_libre": {"Plancha", "Crunch", "Mountain climbers"},
		"maquinas":     {"Crunch en máquina", "Pallof press en polea"},
		"bandas":       {"Pallof press con banda"},
		"kettlebell":   {"Russian twists con kettlebell"},
	},
	"gluteos": {
		"peso_libre":   {"Hip thrust con barra", "Peso muerto rumano"},
		"cuerpo_libre": {"Puente de glúteos", "Patada de glúteo"},
		"maquinas":     {"Patada de glúteo en polea", "Abductores en máquina"},
		"bandas":       {"Paseo lateral con banda", "Clamshells"},
		"kettlebell":   {"Swing con kettlebell"},
	},
	"pantorrillas": {
		"peso_libre":   {"Elevaciones de talón con mancuernas"},
		"cuerpo_libre": {"Elevaciones de talón de pie", "Saltos a la comba"},
		"maquinas":     {"Elevaciones de talón sentado"},
		"bandas":       {"Extensión de tobillo con banda"},
		"kettlebell":   {"Elevaciones de talón con kettlebell"},
	},
}

// equipmentOrder fixes the search order when any equipment is allowed.
var equipmentOrder = []string{"peso_libre", "cuerpo_libre", "maquinas", "bandas", "kettlebell"}

var groupOrder = []string{"pecho", "espalda", "piernas", "hombros", "brazos", "core", "gluteos", "pantorrillas"}

// equipmentKeywords are name fragments of exercises that need a piece of equipment.
var equipmentKeywords = map[string][]string{
	"press_banca":      {"press banca", "bench press"},
	"sentadilla_rack":  {"sentadilla con barra", "sentadillas con barra", "squat", "hack squat"},
	"pesas_libres":     {"mancuerna", "barra", "disco"},
	"maquinas":         {"maquina", "machine", "prensa", "jalon", "polea", "extensiones de cuadriceps", "curl femoral"},
	"cables":           {"cable", "polea", "facepull", "cruces"},
	"poleas":           {"polea", "jalon", "facepull", "cruces"},
	"smith_machine":    {"smith", "multipower"},
	"rack_multiuso":    {"rack", "sentadilla con barra", "press militar con barra", "dominadas"},
	"barras":           {"barra", "dominadas", "bar"},
	"discos":           {"disco"},
	"mancuernas":       {"mancuerna", "dumbbell"},
	"kettlebells":      {"kettlebell"},
	"bandas_elasticas": {"banda", "bandas"},
	"step":             {"step", "subida al cajon"},
	"banco":            {"banco", "press banca", "press inclinado"},
	"colchoneta":       {"plancha", "crunch", "bird dog"},
}

// groupOf infers the muscle group of an exercise by its name.
func groupOf(e domain.Exercise) string {
	if e.MuscleGroup != "" {
		return textnorm.Fold(e.MuscleGroup)
	}
	name := textnorm.Fold(e.Name)
	// Some names are listed under several groups; the first in groupOrder wins.
	for _, g := range groupOrder {
		for _, m := range focusByGroup[g] {
			if textnorm.Fold(m.name) == name {
				return g
			}
		}
	}
	for _, g := range groupOrder {
		for _, eq := range equipmentOrder {
			for _, n := range byGroupAndEquipment[g][eq] {
				if textnorm.Fold(n) == name {
					return g
				}
			}
		}
	}
	for _, hint := range groupHints {
		if textnorm.ContainsAny(name, hint.words...) {
			return hint.group
		}
	}
	return ""
}

var groupHints = []struct {
	group string
	words []string
}{
	{"pecho", []string{"press banca", "pecho", "aperturas", "flexiones", "inclinado"}},
	{"espalda", []string{"remo", "dominada", "jalon", "pull", "peso muerto"}},
	{"hombros", []string{"militar", "hombro", "elevaciones laterales", "elevaciones frontales", "facepull"}},
	{"brazos", []string{"curl", "triceps", "biceps", "frances", "fondos"}},
	{"gluteos", []string{"gluteo", "hip thrust"}},
	{"pantorrillas", []string{"talon", "gemelo"}},
	{"piernas", []string{"sentadilla", "zancada", "prensa", "femoral", "cuadriceps", "pierna"}},
	{"core", []string{"plancha", "crunch", "abdominal", "twist"}},
}

// replacements returns candidate names for group using equipment, or every
// equipment kind when equipment is empty or "cualquiera".
func replacements(group, equipment string) []string {
	byEq := byGroupAndEquipment[group]
	if byEq == nil {
		return nil
	}
	if equipment != "" && equipment != "cualquiera" {
		if names := byEq[equipment]; len(names) > 0 {
			return names
		}
	}
	var out []string
	for _, eq := range equipmentOrder {
		out = append(out, byEq[eq]...)
	}
	return out
}

func needsEquipment(name, equipment string) bool {
	return textnorm.ContainsAny(name, equipmentKeywords[equipment]...)
}
