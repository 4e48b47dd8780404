package util

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"ana@example.edu":         "a…@e….edu",
		"Bruno.Diaz@Example.edu ": "b…@e….edu",
		"x@y.z":                   "x@y.z",
		"sinarroba":               "s…a",
		"ab":                      "***",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
