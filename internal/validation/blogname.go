package validation

import "regexp"

// Blog name rules:
// - Lowercase letters and digits, hyphen allowed in the middle.
// - Start and end with [a-z0-9].
// - Length 1..63 (DNS label limit, names may become subdomains).
// - Excludes dots, underscores and whitespace explicitly.
//
// Examples valid: physics, fall2024, my-course-blog
// Examples invalid: -lead, trail-, UPPER, two..dots, "", 64+ chars.
var blogNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidBlogName returns true if the provided name matches the allowed pattern.
func ValidBlogName(name string) bool {
	return blogNameRe.MatchString(name)
}
