package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/multiblog/internal/audit"
	"github.com/dropDatabas3/multiblog/internal/authz"
	"github.com/dropDatabas3/multiblog/internal/directory"
	"github.com/dropDatabas3/multiblog/internal/idp"
	"github.com/dropDatabas3/multiblog/internal/observability/logger"
	"github.com/dropDatabas3/multiblog/internal/security/password"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
)

// Credential es lo que llegó en la llamada para identificar al actor.
type Credential interface{ credential() }

// SessionTicket: variante directa. Ticket de SSO de un solo uso y/o el token
// de sesión de una cookie emitida antes.
type SessionTicket struct {
	Ticket       string
	SessionToken string
}

func (SessionTicket) credential() {}

// ServicePassword: variante de integración. La cuenta de servicio autentica
// con su secreto y actúa por ActAs.
type ServicePassword struct {
	ServiceLogin string
	Secret       string
	ActAs        string
}

func (ServicePassword) credential() {}

// FailureLimiter acota intentos fallidos por origen. Implementado en rate.
type FailureLimiter interface {
	Allow(ctx context.Context, key string) bool
	RecordFailure(ctx context.Context, key string)
}

// Resolver resuelve credenciales a un Actor. UNA instancia por request HTTP:
// el latch anti fuerza bruta vive en la instancia y cubre todos los
// sub-llamados de un multicall, nunca se comparte entre conexiones.
type Resolver struct {
	IdP      idp.Provider
	Dir      directory.Directory
	Store    core.Store
	Policy   *authz.Policy
	Sessions *Sessions
	Limiter  FailureLimiter // nil = sin límite
	ClientIP string

	// authFailed es el latch: tras el primer rechazo de credenciales todo
	// intento posterior sobre esta instancia falla sin reverificar.
	authFailed bool

	// PendingCookie queda seteada cuando la resolución emitió un token de
	// sesión nuevo; la capa HTTP la escribe en la respuesta.
	PendingCookie *http.Cookie
}

// Resolve autentica la credencial y materializa el actor efectivo.
func (r *Resolver) Resolve(ctx context.Context, cred Credential) (*Actor, error) {
	if r.authFailed {
		return nil, ErrInvalidCredentials
	}
	switch c := cred.(type) {
	case SessionTicket:
		return r.resolveSession(ctx, c)
	case ServicePassword:
		return r.resolveService(ctx, c)
	default:
		return nil, ErrAuthRequired
	}
}

// fail baja el latch y devuelve err.
func (r *Resolver) fail(ctx context.Context, err error) (*Actor, error) {
	r.authFailed = true
	if r.Limiter != nil && r.ClientIP != "" {
		r.Limiter.RecordFailure(ctx, r.ClientIP)
	}
	return nil, err
}

func (r *Resolver) resolveSession(ctx context.Context, c SessionTicket) (*Actor, error) {
	log := logger.From(ctx).With(logger.Component("auth"))

	// Cookie de sesión vigente: sin viaje al IdP.
	if c.SessionToken != "" {
		if login, err := r.Sessions.Parse(c.SessionToken); err == nil {
			u, err := r.provision(ctx, login)
			if err != nil {
				return nil, err
			}
			return &Actor{User: u}, nil
		}
		// cookie vencida o ajena: sigue por ticket si hay
	}

	if c.Ticket == "" {
		return nil, ErrAuthRequired
	}
	if r.Limiter != nil && r.ClientIP != "" && !r.Limiter.Allow(ctx, r.ClientIP) {
		r.authFailed = true
		return nil, ErrRateLimited
	}

	login, err := r.IdP.ValidateTicket(ctx, c.Ticket)
	if err != nil {
		if errors.Is(err, idp.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrTargetResolutionFailed, err)
		}
		log.Info("sso ticket rejected", logger.ClientIP(r.ClientIP))
		return r.fail(ctx, ErrAuthRequired)
	}

	u, err := r.provision(ctx, login)
	if err != nil {
		return nil, err
	}

	// Sesión nueva para los llamados siguientes del mismo cliente.
	token, exp, err := r.Sessions.Issue(login)
	if err == nil {
		r.PendingCookie = r.Sessions.Cookie(token, exp)
	} else {
		log.Warn("could not issue session token", logger.Err(err))
	}
	return &Actor{User: u}, nil
}

func (r *Resolver) resolveService(ctx context.Context, c ServicePassword) (*Actor, error) {
	log := logger.From(ctx).With(logger.Component("auth"), logger.ServiceLogin(c.ServiceLogin))

	if r.Limiter != nil && r.ClientIP != "" && !r.Limiter.Allow(ctx, r.ClientIP) {
		r.authFailed = true
		return nil, ErrRateLimited
	}

	sa, err := r.Store.GetServiceAccount(ctx, c.ServiceLogin)
	if err != nil {
		if core.IsNotFound(err) {
			log.Info("unknown service account", logger.ClientIP(r.ClientIP))
			return r.fail(ctx, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%w: %v", ErrTargetResolutionFailed, err)
	}
	if sa.Disabled || !password.Verify(c.Secret, sa.SecretHash) {
		log.Info("service credentials rejected", logger.ClientIP(r.ClientIP))
		return r.fail(ctx, ErrInvalidCredentials)
	}

	// Actuar por sí misma no requiere capacidad de impersonación.
	if c.ActAs == c.ServiceLogin {
		u, err := r.provisionLocal(ctx, c.ServiceLogin)
		if err != nil {
			return nil, err
		}
		return &Actor{User: u, ServiceLogin: c.ServiceLogin}, nil
	}

	ok, err := r.Policy.ServiceHasNetworkCaps(ctx, c.ServiceLogin,
		authz.CapManageSites, authz.CapManageNetworkUsers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTargetResolutionFailed, err)
	}
	if !ok {
		log.Info("impersonation denied", logger.ActorLogin(c.ActAs))
		return r.fail(ctx, ErrNotAuthorizedToImpersonate)
	}

	u, err := r.provision(ctx, c.ActAs)
	if err != nil {
		return nil, err
	}
	audit.Log(ctx, audit.EventImpersonation, c.ActAs, logger.ServiceLogin(c.ServiceLogin))
	return &Actor{User: u, ServiceLogin: c.ServiceLogin, Impersonated: true}, nil
}

// provision resuelve login contra el directorio y materializa la cuenta
// local de forma idempotente.
func (r *Resolver) provision(ctx context.Context, login string) (*core.User, error) {
	info, err := r.Dir.LookupUser(ctx, login)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserResolutionFailed, login)
		}
		return nil, fmt.Errorf("%w: %v", ErrUserResolutionFailed, err)
	}
	u, err := r.Store.UpsertUserByLogin(ctx, &core.User{
		Login:       info.Login,
		Email:       info.Email,
		DisplayName: info.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTargetResolutionFailed, err)
	}
	return u, nil
}

// provisionLocal materializa una cuenta local sin pasar por el directorio
// (las cuentas de servicio no viven en el directorio institucional).
func (r *Resolver) provisionLocal(ctx context.Context, login string) (*core.User, error) {
	if u, err := r.Store.GetUserByLogin(ctx, login); err == nil {
		return u, nil
	} else if !core.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %v", ErrTargetResolutionFailed, err)
	}
	u, err := r.Store.UpsertUserByLogin(ctx, &core.User{Login: login})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTargetResolutionFailed, err)
	}
	return u, nil
}
