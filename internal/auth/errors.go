package auth

import "errors"

var (
	// ErrAuthRequired: no llegó credencial utilizable o el IdP no pudo
	// autenticar el ticket.
	ErrAuthRequired = errors.New("auth: authentication required")
	// ErrInvalidCredentials: secreto de la cuenta de servicio rechazado.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrRateLimited: demasiados intentos fallidos desde el mismo origen.
	ErrRateLimited = errors.New("auth: too many failed attempts")
	// ErrNotAuthorizedToImpersonate: a la cuenta de servicio le falta alguna
	// de las capabilities de red requeridas para actuar por otro usuario.
	ErrNotAuthorizedToImpersonate = errors.New("auth: not authorized to impersonate")
	// ErrUserResolutionFailed: el usuario objetivo no aparece en el
	// directorio (o el lookup falló).
	ErrUserResolutionFailed = errors.New("auth: user lookup failed in directory")
	// ErrTargetResolutionFailed: la identidad resolvió pero no se pudo
	// materializar una cuenta local utilizable.
	ErrTargetResolutionFailed = errors.New("auth: could not provision local account")
)
