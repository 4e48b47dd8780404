// Package rpc expone las operaciones de la plataforma como métodos XML-RPC,
// en dos variantes: blogs.* (llamador autenticado por CAS) y svc.* (cuenta
// de servicio actuando por un usuario).
package rpc

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/dropDatabas3/multiblog/internal/auth"
	"github.com/dropDatabas3/multiblog/internal/authz"
	"github.com/dropDatabas3/multiblog/internal/cache"
	"github.com/dropDatabas3/multiblog/internal/directory"
	"github.com/dropDatabas3/multiblog/internal/email"
	"github.com/dropDatabas3/multiblog/internal/groupsync"
	"github.com/dropDatabas3/multiblog/internal/idp"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
	"github.com/dropDatabas3/multiblog/internal/xmlrpc"
)

// Service junta los colaboradores que las operaciones necesitan. Una
// instancia para todo el proceso; el estado por request (actor, blog activo,
// latch) viaja en cada llamada.
type Service struct {
	Store    core.Store
	Dir      directory.Directory
	IdP      idp.Provider
	Policy   *authz.Policy
	Engine   *groupsync.Engine
	Sessions *auth.Sessions
	Limiter  auth.FailureLimiter // nil = sin límite
	Cache    cache.Cache         // nombre→id de blogs
	Mailer   email.Sender        // nil = sin avisos

	// Armado de URLs públicas de blogs.
	Domain           string
	PathBase         string
	SubdomainInstall bool
}

// call es el contexto de una operación ya autenticada.
type call struct {
	actor *auth.Actor
	bc    *authz.BlogContext
}

type opHandler func(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault)

// RegisterAll registra las once operaciones en sus dos variantes.
func (s *Service) RegisterAll(srv *xmlrpc.Server) {
	ops := []struct {
		name string
		h    opHandler
	}{
		{"blogExists", s.blogExists},
		{"getUsersBlogs", s.getUsersBlogs},
		{"searchBlogs", s.searchBlogs},
		{"getBlog", s.getBlog},
		{"createBlog", s.createBlog},
		{"addUser", s.addUser},
		{"removeUser", s.removeUser},
		{"getUserRoles", s.getUserRoles},
		{"addSyncedGroup", s.addSyncedGroup},
		{"getSyncedGroups", s.getSyncedGroups},
		{"removeSyncedGroup", s.removeSyncedGroup},
	}
	for _, op := range ops {
		srv.Register("blogs."+op.name, s.direct(op.h))
		srv.Register("svc."+op.name, s.impersonated(op.h))
	}
}

// resolverFor devuelve el resolver de la request, creándolo la primera vez.
// Vive en la sesión de la request para que el latch cubra todos los
// sub-llamados de un multicall.
func (s *Service) resolverFor(req *xmlrpc.Request) *auth.Resolver {
	if v := req.SessionGet("resolver"); v != nil {
		return v.(*auth.Resolver)
	}
	r := &auth.Resolver{
		IdP:      s.IdP,
		Dir:      s.Dir,
		Store:    s.Store,
		Policy:   s.Policy,
		Sessions: s.Sessions,
		Limiter:  s.Limiter,
		ClientIP: clientIP(req.HTTP),
	}
	req.SessionSet("resolver", r)
	return r
}

// direct: variante blogs.*. La credencial es ambiente: cookie de sesión
// emitida antes, o ticket CAS en la query string (?ticket=).
func (s *Service) direct(h opHandler) xmlrpc.Handler {
	return func(ctx context.Context, req *xmlrpc.Request) (any, *xmlrpc.Fault) {
		r := s.resolverFor(req)
		cred := auth.SessionTicket{
			SessionToken: s.Sessions.TokenFromRequest(req.HTTP),
		}
		if req.HTTP != nil {
			cred.Ticket = req.HTTP.URL.Query().Get("ticket")
		}
		actor, err := r.Resolve(ctx, cred)
		if err != nil {
			return nil, authFault(err)
		}
		if r.PendingCookie != nil && req.RespHdr != nil {
			req.RespHdr.Add("Set-Cookie", r.PendingCookie.String())
			r.PendingCookie = nil
		}
		return h(ctx, &call{actor: actor, bc: &authz.BlogContext{}}, req.Args)
	}
}

// impersonated: variante svc.*. Los tres primeros argumentos son
// (service_username, service_password, act_as_username).
func (s *Service) impersonated(h opHandler) xmlrpc.Handler {
	return func(ctx context.Context, req *xmlrpc.Request) (any, *xmlrpc.Fault) {
		if len(req.Args) < 3 {
			return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest,
				"service_username, service_password and act_as_username are required")
		}
		svcUser, ok1 := asNonEmptyString(req.Args[0])
		svcPass, ok2 := asNonEmptyString(req.Args[1])
		actAs, ok3 := asNonEmptyString(req.Args[2])
		if !ok1 || !ok2 || !ok3 {
			return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest,
				"service_username, service_password and act_as_username must be non-empty strings")
		}
		r := s.resolverFor(req)
		actor, err := r.Resolve(ctx, auth.ServicePassword{
			ServiceLogin: svcUser,
			Secret:       svcPass,
			ActAs:        actAs,
		})
		if err != nil {
			return nil, authFault(err)
		}
		return h(ctx, &call{actor: actor, bc: &authz.BlogContext{}}, req.Args[3:])
	}
}

// authFault mapea errores de resolución a faults del wire.
func authFault(err error) *xmlrpc.Fault {
	switch {
	case errors.Is(err, auth.ErrUserResolutionFailed):
		return xmlrpc.NewFault(xmlrpc.CodeBadRequest, "could not resolve user in directory")
	case errors.Is(err, auth.ErrTargetResolutionFailed):
		return xmlrpc.NewFault(xmlrpc.CodeServerError, "could not resolve user account")
	case errors.Is(err, auth.ErrNotAuthorizedToImpersonate):
		return xmlrpc.NewFault(xmlrpc.CodeForbidden, "service account is not allowed to act as another user")
	case errors.Is(err, auth.ErrRateLimited):
		return xmlrpc.NewFault(xmlrpc.CodeForbidden, "too many failed authentication attempts")
	default:
		return xmlrpc.NewFault(xmlrpc.CodeForbidden, "authentication failed")
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
