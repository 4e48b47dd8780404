package auth

import core "github.com/dropDatabas3/multiblog/internal/store/core"

// Actor es la identidad efectiva de una llamada ya resuelta.
type Actor struct {
	User *core.User
	// ServiceLogin es la cuenta de servicio que autenticó la llamada,
	// vacío en la variante directa (ticket de sesión).
	ServiceLogin string
	// Impersonated indica que la cuenta de servicio actúa por un usuario
	// distinto de sí misma.
	Impersonated bool
}

func (a *Actor) Login() string {
	if a == nil || a.User == nil {
		return ""
	}
	return a.User.Login
}
