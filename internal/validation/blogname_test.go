package validation

import "testing"

func TestValidBlogName_Valid(t *testing.T) {
	valids := []string{
		"a",
		"ab",
		"physics",
		"fall2024",
		"my-course-blog",
		"0numeric9",
		// 63 chars (start/end alnum)
		mkLen("a", 62) + "b",
	}
	for _, v := range valids {
		if !ValidBlogName(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidBlogName_Invalid(t *testing.T) {
	invalids := []string{
		"",            // empty
		"-lead",       // starts with hyphen
		"trail-",      // ends with hyphen
		"bad name",    // space
		"UPPER",       // uppercase
		"dot.ted",     // dot
		"under_score", // underscore
		mkLen("a", 64),
		mkLen("a", 100),
	}
	for _, v := range invalids {
		if ValidBlogName(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

// mkLen builds a string of exactly n characters starting with prefix.
func mkLen(prefix string, total int) string {
	if total <= len(prefix) {
		return prefix[:total]
	}
	out := make([]byte, total)
	copy(out, prefix)
	for i := len(prefix); i < total; i++ {
		out[i] = 'a'
	}
	return string(out)
}
