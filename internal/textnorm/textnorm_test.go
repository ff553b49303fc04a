package textnorm

import "testing"

func TestFold(t *testing.T) {
	cases := map[string]string{
		"  Definición ":     "definicion",
		"MUÑECA":            "muneca",
		"Press   Banca":     "press banca",
		"Elevación lateral": "elevacion lateral",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestKeyAndContains(t *testing.T) {
	if got := Key("Muy Activo"); got != "muy_activo" {
		t.Fatalf("Key: want=muy_activo got=%q", got)
	}
	if !Contains("Press Militar con barra", "press militar") {
		t.Fatalf("Contains should match ignoring case")
	}
	if Contains("anything", "") {
		t.Fatalf("empty needle should not match")
	}
	if !ContainsAny("Leche de almendras", "nuez", "almendra") {
		t.Fatalf("ContainsAny should match almendra")
	}
}
