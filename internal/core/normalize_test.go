package core

import "testing"

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Étang", "etang", true},
		{"  Mésange bleue ", "MESANGE BLEUE", true},
		{"Œdicnème", "œdicneme", true},
		{"Pic vert", "Pic-vert", false},
		{"Grèbe", "Grebes", false},
	}
	for _, tt := range tests {
		got := NormalizeKey(tt.a) == NormalizeKey(tt.b)
		if got != tt.same {
			t.Errorf("NormalizeKey(%q) == NormalizeKey(%q) is %v, want %v (%q vs %q)",
				tt.a, tt.b, got, tt.same, NormalizeKey(tt.a), NormalizeKey(tt.b))
		}
	}
}

func TestKeySet(t *testing.T) {
	set := make(KeySet)
	set.Add("Forêt de feuillus")

	if !set.Has("foret de FEUILLUS") {
		t.Error("Has should match regardless of case and accents")
	}
	if set.Has("Forêt de conifères") {
		t.Error("Has matched a different value")
	}
}
