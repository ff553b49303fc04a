package foods

import "testing"

func TestScaleItem(t *testing.T) {
	cases := []struct {
		in     string
		factor float64
		want   string
	}{
		{"40g avena - 150kcal", 1.2, "48g avena - 180kcal"},
		{"300ml leche semidesnatada - 150kcal", 1.2, "360ml leche semidesnatada - 180kcal"},
		{"1 plátano - 100kcal", 1.2, "1 plátano - 120kcal"},
		{"150g brócoli", 0.5, "75g brócoli"},
		{"al gusto", 2, "al gusto"},
	}
	for _, c := range cases {
		if got := ScaleItem(c.in, c.factor); got != c.want {
			t.Fatalf("ScaleItem(%q, %v): want=%q got=%q", c.in, c.factor, c.want, got)
		}
	}
}

func TestItemHelpers(t *testing.T) {
	if got := ItemName("40g avena - 150kcal"); got != "avena" {
		t.Fatalf("ItemName: want=avena got=%q", got)
	}
	if got := ItemName("1 plátano - 100kcal"); got != "plátano" {
		t.Fatalf("ItemName: want=plátano got=%q", got)
	}
	if got := ReplaceName("150g merluza - 120kcal", "salmón"); got != "150g salmón - 120kcal" {
		t.Fatalf("ReplaceName: got=%q", got)
	}
	total, ok := ItemsKcal([]string{"40g avena - 150kcal", "1 plátano - 100kcal"})
	if !ok || total != 250 {
		t.Fatalf("ItemsKcal: want=250 got=%d ok=%v", total, ok)
	}
}

func TestConflict(t *testing.T) {
	if a, hit := Conflict("20g almendras - 80kcal", []string{"nuez"}); !hit || a != "nueces" {
		t.Fatalf("almendras vs nuez: got %q %v", a, hit)
	}
	if _, hit := Conflict("150g pechuga de pollo", []string{"Lácteos"}); hit {
		t.Fatalf("pollo should not conflict with lacteos")
	}
	if _, hit := Conflict("250ml leche semidesnatada", []string{"lacteos"}); !hit {
		t.Fatalf("leche should conflict with lacteos")
	}
}

func TestEquivalentsRespectAllergies(t *testing.T) {
	alts := Equivalents("merluza", []string{"pescado"}, nil)
	if len(alts) == 0 {
		t.Fatalf("expected alternatives for merluza")
	}
	for _, a := range alts {
		if _, hit := Conflict(a, []string{"pescado"}); hit {
			t.Fatalf("unsafe alternative %q", a)
		}
	}
}

func TestMealOptions(t *testing.T) {
	opts := MealOptions("cena", 400, 3, []string{"huevos"}, nil)
	if len(opts) != 3 {
		t.Fatalf("options: want=3 got=%d", len(opts))
	}
	for _, o := range opts {
		total, ok := ItemsKcal(o)
		if !ok || total < 395 || total > 405 {
			t.Fatalf("option kcal: want≈400 got=%d (%v)", total, o)
		}
		if !allSafe(o, []string{"huevos"}, nil) {
			t.Fatalf("option contains allergen: %v", o)
		}
	}
}

func TestMealTypeOf(t *testing.T) {
	cases := map[string]string{"Desayuno": "desayuno", "Media mañana": "snack", "Comida": "almuerzo", "Cena ligera": "cena"}
	for in, want := range cases {
		if got := MealTypeOf(in); got != want {
			t.Fatalf("MealTypeOf(%q): want=%q got=%q", in, want, got)
		}
	}
}
