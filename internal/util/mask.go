// Package util reúne helpers chicos que no tienen un paquete mejor.
package util

import "strings"

// MaskEmail reduce un email para logs: deja la inicial del usuario y del
// dominio ("ana@example.edu" → "a…@e….edu"), suficiente para correlacionar
// sin registrar el dato completo.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	user, dom, ok := strings.Cut(s, "@")
	if !ok || user == "" {
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	parts := strings.Split(dom, ".")
	parts[0] = maskWord(parts[0])
	return maskWord(user) + "@" + strings.Join(parts, ".")
}

func maskWord(w string) string {
	if len(w) <= 1 {
		return w
	}
	return w[:1] + "…"
}
