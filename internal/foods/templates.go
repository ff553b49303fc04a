package foods

import "alcyxob/plan-engine/internal/textnorm"

// MealTemplate is a reference meal written for ReferenceKcal.
type MealTemplate struct {
	Name  string
	Share float64
	Items []string
}

// ReferenceKcal is the daily energy the templates are written for.
const ReferenceKcal = 2000

// DayTemplate is the default five meal day. Shares add up to 1.
var DayTemplate = []MealTemplate{
	{Name: "Desayuno", Share: 0.25, Items: []string{"250ml leche semidesnatada - 115kcal", "60g avena - 225kcal", "1 plátano - 100kcal", "10g nueces - 60kcal"}},
	{Name: "Media mañana", Share: 0.10, Items: []string{"125g yogur natural - 80kcal", "1 manzana - 80kcal", "10g almendras - 40kcal"}},
	{Name: "Comida", Share: 0.35, Items: []string{"150g pechuga de pollo - 165kcal", "90g arroz integral - 315kcal", "200g brócoli - 70kcal", "15ml aceite de oliva - 150kcal"}},
	{Name: "Merienda", Share: 0.10, Items: []string{"40g pan integral - 100kcal", "50g pechuga de pavo - 55kcal", "1 kiwi - 45kcal"}},
	{Name: "Cena", Share: 0.20, Items: []string{"150g merluza - 120kcal", "200g patata - 150kcal", "150g ensalada mixta - 30kcal", "10ml aceite de oliva - 100kcal"}},
}

// mealOptions are alternative reference meals per meal type, written for the
// share of ReferenceKcal of the matching DayTemplate meal.
var mealOptions = map[string][][]string{
	"desayuno": {
		{"2 tostadas de pan integral - 160kcal", "2 huevos revueltos - 150kcal", "1 naranja - 60kcal", "10ml aceite de oliva - 90kcal", "40g queso fresco batido - 40kcal"},
		{"200g yogur natural - 130kcal", "50g avena - 190kcal", "100g fresas - 35kcal", "20g mantequilla de cacahuete - 120kcal", "1 kiwi - 25kcal"},
		{"250ml bebida de soja - 100kcal", "60g tortitas de arroz - 230kcal", "1 plátano - 100kcal", "20g almendras - 70kcal"},
		{"2 tostadas de pan integral - 160kcal", "60g aguacate - 100kcal", "60g pechuga de pavo - 65kcal", "1 manzana - 80kcal", "10g semillas de girasol - 95kcal"},
		{"200ml kéfir - 110kcal", "40g avena - 150kcal", "100g arándanos - 60kcal", "30g nueces - 180kcal"},
	},
	"almuerzo": {
		{"150g salmón - 300kcal", "80g quinoa - 290kcal", "200g espárragos - 40kcal", "10ml aceite de oliva - 70kcal"},
		{"150g ternera magra - 200kcal", "250g patata - 190kcal", "200g judías verdes - 60kcal", "15ml aceite de oliva - 150kcal", "1 pera - 100kcal"},
		{"250g lentejas cocidas - 290kcal", "50g arroz - 175kcal", "150g pimiento - 40kcal", "15ml aceite de oliva - 135kcal", "1 naranja - 60kcal"},
		{"150g tofu - 180kcal", "80g pasta integral - 280kcal", "200g calabacín - 35kcal", "15ml aceite de oliva - 135kcal", "1 manzana - 70kcal"},
		{"150g lomo de cerdo - 220kcal", "200g boniato - 180kcal", "200g coliflor - 50kcal", "15ml aceite de oliva - 135kcal", "100g uvas - 115kcal"},
	},
	"cena": {
		{"2 huevos - 150kcal", "150g espinacas - 35kcal", "150g patata - 115kcal", "10ml aceite de oliva - 90kcal"},
		{"150g pechuga de pavo - 160kcal", "150g calabacín - 25kcal", "40g cuscús - 140kcal", "10ml aceite de oliva - 75kcal"},
		{"120g atún al natural - 130kcal", "200g ensalada mixta - 40kcal", "150g garbanzos cocidos - 180kcal", "5ml aceite de oliva - 50kcal"},
		{"150g merluza - 120kcal", "200g brócoli - 70kcal", "60g arroz integral - 210kcal"},
		{"120g seitán - 170kcal", "200g pimiento - 55kcal", "40g pan integral - 100kcal", "80g aguacate - 75kcal"},
	},
	"snack": {
		{"125g yogur natural - 80kcal", "15g nueces - 100kcal", "1 kiwi - 20kcal"},
		{"2 tortitas de arroz - 70kcal", "20g mantequilla de cacahuete - 120kcal", "1 mandarina - 10kcal"},
		{"1 manzana - 80kcal", "40g queso fresco batido - 40kcal", "20g almendras - 80kcal"},
		{"200ml bebida de soja - 80kcal", "1 plátano - 100kcal", "5g semillas de girasol - 20kcal"},
		{"40g pan integral - 100kcal", "40g pechuga de pavo - 45kcal", "5ml aceite de oliva - 45kcal", "1 pera - 10kcal"},
	},
}

// mealShares maps a meal type to its share of daily energy in DayTemplate.
var mealShares = map[string]float64{"desayuno": 0.25, "almuerzo": 0.35, "cena": 0.20, "snack": 0.10}

// MealShare returns the share of daily energy DayTemplate gives mealType.
func MealShare(mealType string) float64 {
	return mealShares[mealType]
}

// MealOptions returns up to n option item lists for mealType scaled to kcal.
// Options containing allergies or avoided foods are skipped.
func MealOptions(mealType string, kcal, n int, allergies, avoided []string) [][]string {
	ref := mealShares[mealType] * ReferenceKcal
	if ref == 0 || kcal <= 0 {
		return nil
	}
	var out [][]string
	for _, opt := range mealOptions[mealType] {
		if len(out) == n {
			break
		}
		if !allSafe(opt, allergies, avoided) {
			continue
		}
		total, ok := ItemsKcal(opt)
		if !ok || total == 0 {
			total = int(ref)
		}
		out = append(out, ScaleItems(opt, float64(kcal)/float64(total)))
	}
	return out
}

// SafeSwap replaces an unsafe item with the first safe food of its group,
// keeping quantity and kcal. ok is false when nothing safe is available.
func SafeSwap(item string, allergies, avoided []string) (string, bool) {
	if Safe(item, allergies, avoided) {
		return item, true
	}
	alts := Equivalents(ItemName(item), allergies, avoided)
	if len(alts) == 0 {
		return "", false
	}
	return ReplaceName(item, alts[0]), true
}

// MealTypeOf classifies a meal name ("Media mañana" -> "snack").
func MealTypeOf(name string) string {
	f := textnorm.Fold(name)
	switch {
	case textnorm.Contains(f, "desayuno"):
		return "desayuno"
	case textnorm.Contains(f, "almuerzo"), textnorm.Contains(f, "comida"):
		return "almuerzo"
	case textnorm.Contains(f, "cena"):
		return "cena"
	case textnorm.Contains(f, "merienda"), textnorm.Contains(f, "media manana"), textnorm.Contains(f, "snack"),
		textnorm.Contains(f, "tentempie"), textnorm.Contains(f, "entreno"):
		return "snack"
	}
	return ""
}

func allSafe(items []string, allergies, avoided []string) bool {
	for _, it := range items {
		if !Safe(it, allergies, avoided) {
			return false
		}
	}
	return true
}
