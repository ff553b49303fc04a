package foods

import "alcyxob/plan-engine/internal/textnorm"

// groups lists foods that can replace each other at equal energy.
var groups = map[string][]string{
	"proteina": {"pechuga de pollo", "pechuga de pavo", "ternera magra", "lomo de cerdo", "salmón", "merluza",
		"atún al natural", "huevos", "tofu", "seitán", "lentejas cocidas", "garbanzos cocidos"},
	"cereal": {"arroz", "arroz integral", "pasta integral", "quinoa", "patata", "boniato", "avena",
		"pan integral", "cuscús", "tortitas de arroz"},
	"lacteo": {"leche semidesnatada", "yogur natural", "queso fresco batido", "kéfir", "bebida de soja",
		"bebida de avena", "bebida de almendras", "yogur de coco"},
	"grasa": {"aceite de oliva", "aguacate", "nueces", "almendras", "mantequilla de cacahuete",
		"semillas de girasol", "aceitunas"},
	"fruta": {"plátano", "manzana", "pera", "naranja", "fresas", "arándanos", "kiwi", "melocotón", "uvas"},
	"verdura": {"brócoli", "espinacas", "calabacín", "judías verdes", "ensalada mixta", "pimiento",
		"espárragos", "coliflor", "tomate"},
}

// Group returns the equivalence group food belongs to.
func Group(food string) (string, bool) {
	f := textnorm.Fold(food)
	best, bestLen := "", 0
	for g, members := range groups {
		for _, m := range members {
			fm := textnorm.Fold(m)
			if (f == fm || textnorm.Contains(f, fm) || textnorm.Contains(fm, f)) && len(fm) > bestLen {
				best, bestLen = g, len(fm)
			}
		}
	}
	return best, best != ""
}

// Equivalents returns foods of the same group as food, in table order,
// excluding food itself and anything unsafe for allergies or avoided.
func Equivalents(food string, allergies, avoided []string) []string {
	g, ok := Group(food)
	if !ok {
		return nil
	}
	var out []string
	for _, m := range groups[g] {
		if textnorm.Contains(m, food) || textnorm.Contains(food, m) {
			continue
		}
		if Safe(m, allergies, avoided) {
			out = append(out, m)
		}
	}
	return out
}
