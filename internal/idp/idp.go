// Package idp abstrae el proveedor de identidad (SSO) de la variante directa.
package idp

import (
	"context"
	"errors"
)

type Provider interface {
	// ValidateTicket valida un ticket de sesión contra el IdP y retorna el
	// login de la identidad autenticada. ErrAuthFailed si el IdP lo rechaza.
	ValidateTicket(ctx context.Context, ticket string) (login string, err error)
}

var (
	ErrAuthFailed  = errors.New("idp: authentication failed")
	ErrUnavailable = errors.New("idp: unavailable")
)
