package subtitles

import "testing"

func TestAbbreviationsContains(t *testing.T) {
	abbrevs := NewAbbreviations([]string{"Mr.", " e.g. ", "", "Straße."})
	if abbrevs.Len() != 3 {
		t.Fatalf("Len = %d, want 3", abbrevs.Len())
	}
	for _, token := range []string{"mr.", "MR.", "E.G.", "STRASSE."} {
		if !abbrevs.Contains(token) {
			t.Fatalf("expected %q to be protected", token)
		}
	}
	if abbrevs.Contains("mrs.") {
		t.Fatal("mrs. should not be protected")
	}
	var zero Abbreviations
	if zero.Contains("mr.") || zero.Protects("Mr.", 2) {
		t.Fatal("zero value must protect nothing")
	}
}

func TestAbbreviationsProtects(t *testing.T) {
	abbrevs := NewAbbreviations(DefaultAbbreviations)
	tests := []struct {
		text string
		idx  int
		want bool
	}{
		{"I saw Mr. Smith", 8, true},
		{"say e.g. this", 5, true},
		{"say e.g. this", 7, true},
		{"(etc.) and", 4, true},
		{"etc., and", 3, true},
		{"Stop. Go", 4, false},
		{"Mr.", 1, false},
		{"no? really", 2, false},
		{"I saw\u00a0Mr. Smith", 9, true},
		{"I saw\u3000Mr. Smith", 10, true},
		{"\u00a0e.g. this", 3, true},
		{"\u3000Stop. Go", 7, false},
	}
	for _, tc := range tests {
		if got := abbrevs.Protects(tc.text, tc.idx); got != tc.want {
			t.Fatalf("Protects(%q, %d) = %v, want %v", tc.text, tc.idx, got, tc.want)
		}
	}
}
