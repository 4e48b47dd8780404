// Package directory abstrae el directorio institucional (usuarios y grupos).
package directory

import (
	"context"
	"errors"
)

// UserInfo son los atributos mínimos para provisionar una cuenta local.
type UserInfo struct {
	Login       string
	Email       string
	DisplayName string
}

type Directory interface {
	// LookupUser busca un usuario por login. ErrUserNotFound si no existe.
	LookupUser(ctx context.Context, login string) (*UserInfo, error)
	// GroupMembers retorna los miembros de un grupo por DN.
	// ErrGroupNotFound si el grupo no existe.
	GroupMembers(ctx context.Context, groupDN string) ([]UserInfo, error)
}

var (
	ErrUserNotFound  = errors.New("directory: user not found")
	ErrGroupNotFound = errors.New("directory: group not found")
	ErrUnavailable   = errors.New("directory: unavailable")
)
