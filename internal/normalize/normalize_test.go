package normalize

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Submit  Order  ": "submit order",
		"Submit":            "submit",
		"":                  "",
		"ALREADY lower":      "already lower",
		"Tabs\tand\nnewlines": "tabs and newlines",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"  Submit  Order  ", "already lower", "", "MiXeD\tCase\n\nText"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
