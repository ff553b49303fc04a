// Package foods holds the food knowledge shared by diet generation and diet
// editing: allergen variations, equivalence groups and item text rescaling.
package foods

import (
	"alcyxob/plan-engine/internal/textnorm"
)

// allergens maps an allergy to the food names that contain it.
var allergens = map[string][]string{
	"nueces":       {"nueces", "nuez", "pistachos", "almendras", "almendra", "avellanas", "anacardos", "castañas"},
	"cacahuetes":   {"cacahuetes", "cacahuete", "maní", "mantequilla de cacahuete"},
	"lacteos":      {"leche", "lácteos", "queso", "yogur", "yoghurt", "mantequilla", "nata", "kefir"},
	"huevos":       {"huevos", "huevo", "clara de huevo", "claras", "yema", "tortilla francesa"},
	"soja":         {"soja", "soya", "tofu", "tempeh", "miso", "edamame"},
	"gluten":       {"gluten", "trigo", "cebada", "centeno", "avena", "pan", "pasta", "harina", "cuscús"},
	"mariscos":     {"mariscos", "gambas", "camarones", "langostinos", "cangrejo", "mejillones"},
	"pescado":      {"pescado", "atún", "salmón", "merluza", "bacalao", "anchoas", "sardinas"},
	"frutos secos": {"frutos secos", "nueces", "almendras", "avellanas", "pistachos", "anacardos"},
	"semillas":     {"semillas", "sésamo", "chía", "lino", "girasol"},
}

// CanonicalAllergy maps a free-text allergy ("Nuez", "lácteos") to its key.
func CanonicalAllergy(text string) (string, bool) {
	f := textnorm.Fold(text)
	for key, variations := range allergens {
		if textnorm.Fold(key) == f {
			return key, true
		}
		for _, v := range variations {
			if textnorm.Fold(v) == f {
				return key, true
			}
		}
	}
	return "", false
}

// Conflict returns the first allergy from allergies that food contains.
// Unknown allergy labels are matched literally.
func Conflict(food string, allergies []string) (string, bool) {
	for _, a := range allergies {
		key, ok := CanonicalAllergy(a)
		if !ok {
			if textnorm.Contains(food, a) {
				return a, true
			}
			continue
		}
		if textnorm.ContainsAny(food, allergens[key]...) {
			return key, true
		}
	}
	return "", false
}

// Safe reports whether food contains none of allergies and none of avoided.
func Safe(food string, allergies, avoided []string) bool {
	if _, hit := Conflict(food, allergies); hit {
		return false
	}
	return !textnorm.ContainsAny(food, avoided...)
}
