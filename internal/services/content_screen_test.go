package services

import "testing"

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello world"},
		{"wh@ts@pp", "whatsap"},           // obfuscation plus repeat collapse
		{"WHAAATSAAAPP", "whatsap"},       // repeats collapse
		{"gift-card", "gift card"},        // punctuation becomes separator
		{"w i r e   transfer", "w i r e transfer"},
		{"t3l3gr4m", "telegram"},
		{"", ""},
	}
	for _, c := range cases {
		if got := CleanText(c.in); got != c.want {
			t.Errorf("CleanText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCollapseRepeats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"whaaatsaaapp", "whatsap"},
		{"abc", "abc"},
		{"aa bb aa", "a b a"},
		{"", ""},
	}
	for _, c := range cases {
		if got := collapseRepeats(c.in); got != c.want {
			t.Errorf("collapseRepeats(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestScreenContent_Scam(t *testing.T) {
	res := ScreenContent("Pay the advance fee via Western Union before we start")
	if !res.HasScam {
		t.Error("expected scam flag for advance fee + western union")
	}
	if !res.Flagged() {
		t.Error("Flagged() should be true when scam detected")
	}
}

func TestScreenContent_OffPlatform(t *testing.T) {
	res := ScreenContent("message me on wh4ts4pp so we can deal outside")
	if !res.HasOffPlatform {
		t.Errorf("expected off-platform flag, matched=%v", res.Matched)
	}
}

func TestScreenContent_Clean(t *testing.T) {
	res := ScreenContent("Looking for a Go developer to build a REST API, budget is flexible")
	if res.Flagged() {
		t.Errorf("clean job post flagged: %+v", res)
	}
}

// Substrings must not confirm single-word phrases on their own.
func TestScreenContent_WordBoundary(t *testing.T) {
	res := ScreenContent("I built a telegraph simulator once")
	for _, m := range res.Matched {
		if m == "telegram" {
			t.Error("telegraph must not confirm telegram")
		}
	}
}
