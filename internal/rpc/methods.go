package rpc

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dropDatabas3/multiblog/internal/audit"
	"github.com/dropDatabas3/multiblog/internal/authz"
	"github.com/dropDatabas3/multiblog/internal/directory"
	"github.com/dropDatabas3/multiblog/internal/email"
	"github.com/dropDatabas3/multiblog/internal/groupsync"
	"github.com/dropDatabas3/multiblog/internal/metrics"
	"github.com/dropDatabas3/multiblog/internal/observability/logger"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
	"github.com/dropDatabas3/multiblog/internal/util"
	"github.com/dropDatabas3/multiblog/internal/validation"
	"github.com/dropDatabas3/multiblog/internal/xmlrpc"
)

// authorize evalúa capability para el actor dentro del blog y lo traduce a
// fault si corresponde.
func (s *Service) authorize(ctx context.Context, c *call, blogID int64, capability string) *xmlrpc.Fault {
	ok, err := s.Policy.Authorize(ctx, c.bc, blogID, c.actor.User.ID, capability)
	if err != nil {
		return xmlrpc.NewFault(xmlrpc.CodeServerError, "could not evaluate permissions")
	}
	if !ok {
		return xmlrpc.NewFault(xmlrpc.CodeForbidden, "you are not allowed to %s on this blog", capability)
	}
	return nil
}

// ─── Consultas ───

func (s *Service) blogExists(ctx context.Context, _ *call, args []any) (any, *xmlrpc.Fault) {
	name, f := stringArg(args, 0, "blogname")
	if f != nil {
		return nil, f
	}
	_, err := s.blogIDByName(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case core.IsNotFound(err):
		return false, nil
	default:
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not resolve blog")
	}
}

func (s *Service) getUsersBlogs(ctx context.Context, c *call, _ []any) (any, *xmlrpc.Fault) {
	ids, err := s.Store.BlogsOfUser(ctx, c.actor.User.ID)
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not list blogs")
	}
	return s.blogInfoList(ctx, c, ids, false)
}

func (s *Service) searchBlogs(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault) {
	query, f := stringArg(args, 0, "query")
	if f != nil {
		return nil, f
	}
	// El llamador manda el nombre; el prefijo de búsqueda se completa con el
	// path base de la red ("aula" -> "/aula").
	ids, err := s.Store.SearchBlogs(ctx, s.PathBase+query)
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "search failed")
	}
	return s.blogInfoList(ctx, c, ids, true)
}

// blogInfoList arma la lista de structs de info. Con readableOnly los blogs
// que el actor no puede leer se omiten del resultado (búsquedas); la lista
// de blogs propios no filtra porque la membresía ya implica lectura.
func (s *Service) blogInfoList(ctx context.Context, c *call, ids []int64, readableOnly bool) (any, *xmlrpc.Fault) {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		b, err := s.Store.GetBlog(ctx, id)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not load blog")
		}
		if readableOnly {
			ok, err := s.Policy.CanReadBlog(ctx, c.bc, c.actor.User.ID, b)
			if err != nil {
				return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not evaluate permissions")
			}
			if !ok {
				continue
			}
		}
		info, err := s.blogInfo(ctx, c, b)
		if err != nil {
			return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not build blog info")
		}
		out = append(out, info)
	}
	return out, nil
}

// getBlog devuelve el blogInfo, o false si el nombre no resuelve (eso no es
// un fault: el llamador pregunta, no exige).
func (s *Service) getBlog(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault) {
	if len(args) < 1 {
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "missing blog argument")
	}
	b, err := s.resolveBlogRef(ctx, args[0])
	switch {
	case err == nil:
	case core.IsNotFound(err):
		return false, nil
	case errors.Is(err, core.ErrInvalid):
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "blog must be referenced by id or name")
	default:
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not resolve blog")
	}

	canRead, err := s.Policy.CanReadBlog(ctx, c.bc, c.actor.User.ID, b)
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not evaluate permissions")
	}
	if !canRead {
		return nil, xmlrpc.NewFault(xmlrpc.CodeForbidden, "you are not allowed to read this blog")
	}
	info, err := s.blogInfo(ctx, c, b)
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not build blog info")
	}
	return info, nil
}

// ─── Creación de blogs ───

func (s *Service) createBlog(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault) {
	// Validación completa antes de cualquier efecto.
	name, f := stringArg(args, 0, "blogname")
	if f != nil {
		return nil, f
	}
	if !validation.ValidBlogName(name) {
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "invalid blog name")
	}
	title, f := stringArg(args, 1, "title")
	if f != nil {
		return nil, f
	}
	if len(args) < 3 {
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "missing argument: public")
	}
	public, ok := asInt(args[2])
	if !ok {
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "public must be an integer")
	}

	privileged := false
	if c.actor.ServiceLogin != "" {
		var err error
		privileged, err = s.Policy.ServiceHasNetworkCaps(ctx, c.actor.ServiceLogin, authz.CapManageSites)
		if err != nil {
			return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not evaluate permissions")
		}
	}
	allowed, err := s.Policy.CanRegisterBlog(ctx, c.actor.Login(), privileged)
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not evaluate signup policy")
	}
	if !allowed {
		return nil, xmlrpc.NewFault(xmlrpc.CodeForbidden, "blog registration is not allowed")
	}

	b := &core.Blog{Name: name, Title: title, Public: public}
	if s.SubdomainInstall {
		b.Domain, b.Path = name+"."+s.Domain, "/"
	} else {
		b.Domain, b.Path = s.Domain, s.PathBase+name+"/"
	}
	if err := s.Store.CreateBlog(ctx, b); err != nil {
		if core.IsConflict(err) {
			return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "blog name is already taken")
		}
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not create blog")
	}
	if err := s.Store.AddMembership(ctx, b.ID, c.actor.User.ID, authz.RoleAdministrator); err != nil && !core.IsConflict(err) {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "blog created but owner assignment failed")
	}

	audit.Log(ctx, audit.EventBlogCreated, c.actor.Login(),
		logger.BlogID(b.ID), logger.BlogName(b.Name))

	if s.Mailer != nil && c.actor.User.Email != "" {
		if err := email.SendWelcomeBlog(s.Mailer, c.actor.User.Email, email.WelcomeBlogVars{
			BlogTitle: b.Title,
			BlogURL:   s.blogURL(b),
			UserLogin: c.actor.Login(),
		}); err != nil {
			logger.From(ctx).Warn("welcome notice not sent",
				logger.Err(err), zap.String("to", util.MaskEmail(c.actor.User.Email)))
		}
	}

	info, err := s.blogInfo(ctx, c, b)
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not build blog info")
	}
	return info, nil
}

// ─── Membresías ───

func (s *Service) addUser(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault) {
	b, f := s.blogArg(ctx, args, 0)
	if f != nil {
		return nil, f
	}
	login, f := stringArg(args, 1, "username")
	if f != nil {
		return nil, f
	}
	role, f := stringArg(args, 2, "role")
	if f != nil {
		return nil, f
	}
	if !authz.ValidRole(role) {
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "unknown role: %s", role)
	}
	if f := s.authorize(ctx, c, b.ID, authz.CapPromoteUsers); f != nil {
		return nil, f
	}

	info, err := s.Dir.LookupUser(ctx, login)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "unknown user: %s", login)
		}
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "directory lookup failed")
	}
	u, err := s.Store.UpsertUserByLogin(ctx, &core.User{
		Login:       info.Login,
		Email:       info.Email,
		DisplayName: info.DisplayName,
	})
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not provision user")
	}

	switch err := s.Store.AddMembership(ctx, b.ID, u.ID, role); {
	case err == nil:
		audit.Log(ctx, audit.EventUserAdded, c.actor.Login(),
			logger.BlogID(b.ID), zap.String("subject", login), logger.Role(role))
		return true, nil
	case core.IsConflict(err):
		// no fatal: ya estaba, no hay nada que hacer
		return nil, xmlrpc.NewFault(xmlrpc.CodeSoftConflict, "%s is already a member of this blog", login)
	default:
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not add membership")
	}
}

func (s *Service) removeUser(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault) {
	b, f := s.blogArg(ctx, args, 0)
	if f != nil {
		return nil, f
	}
	login, f := stringArg(args, 1, "username")
	if f != nil {
		return nil, f
	}
	if f := s.authorize(ctx, c, b.ID, authz.CapRemoveUsers); f != nil {
		return nil, f
	}

	u, err := s.Store.GetUserByLogin(ctx, login)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "unknown user: %s", login)
		}
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not resolve user")
	}
	if err := s.Store.RemoveMembership(ctx, b.ID, u.ID); err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not remove membership")
	}
	audit.Log(ctx, audit.EventUserRemoved, c.actor.Login(),
		logger.BlogID(b.ID), zap.String("subject", login))
	return true, nil
}

func (s *Service) getUserRoles(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault) {
	b, f := s.blogArg(ctx, args, 0)
	if f != nil {
		return nil, f
	}
	login, f := stringArg(args, 1, "username")
	if f != nil {
		return nil, f
	}
	if f := s.authorize(ctx, c, b.ID, authz.CapListUsers); f != nil {
		return nil, f
	}

	u, err := s.Store.GetUserByLogin(ctx, login)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "unknown user: %s", login)
		}
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not resolve user")
	}
	roles, err := s.Store.MembershipRoles(ctx, b.ID, u.ID)
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not list roles")
	}
	return roles, nil
}

// ─── Grupos sincronizados ───

func (s *Service) addSyncedGroup(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault) {
	b, f := s.blogArg(ctx, args, 0)
	if f != nil {
		return nil, f
	}
	groupDN, f := stringArg(args, 1, "group_dn")
	if f != nil {
		return nil, f
	}
	role, f := stringArg(args, 2, "role")
	if f != nil {
		return nil, f
	}
	if !authz.ValidRole(role) {
		return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "unknown role: %s", role)
	}
	if f := s.authorize(ctx, c, b.ID, authz.CapPromoteUsers); f != nil {
		return nil, f
	}

	granted, err := s.Engine.AddRule(ctx, b.ID, groupDN, role)
	if err != nil {
		if errors.Is(err, groupsync.ErrGroupNotFound) {
			return nil, xmlrpc.NewFault(xmlrpc.CodeBadRequest, "group not found or empty: %s", groupDN)
		}
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "group sync failed")
	}
	metrics.GroupSyncGrants.Add(float64(granted))
	audit.Log(ctx, audit.EventSyncedGroupAdded, c.actor.Login(),
		logger.BlogID(b.ID), logger.GroupDN(groupDN), logger.Role(role))
	return true, nil
}

func (s *Service) getSyncedGroups(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault) {
	b, f := s.blogArg(ctx, args, 0)
	if f != nil {
		return nil, f
	}
	if f := s.authorize(ctx, c, b.ID, authz.CapListUsers); f != nil {
		return nil, f
	}

	rules, err := s.Engine.ListRules(ctx, b.ID)
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not list synced groups")
	}
	out := make([]any, 0, len(rules))
	for _, g := range rules {
		entry := map[string]any{
			"group_dn": g.GroupDN,
			"role":     g.Role,
		}
		if g.LastSyncedAt != nil {
			entry["last_synced"] = g.LastSyncedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Service) removeSyncedGroup(ctx context.Context, c *call, args []any) (any, *xmlrpc.Fault) {
	b, f := s.blogArg(ctx, args, 0)
	if f != nil {
		return nil, f
	}
	groupDN, f := stringArg(args, 1, "group_dn")
	if f != nil {
		return nil, f
	}
	if f := s.authorize(ctx, c, b.ID, authz.CapRemoveUsers); f != nil {
		return nil, f
	}

	removed, err := s.Engine.RemoveRule(ctx, b.ID, groupDN)
	if err != nil {
		return nil, xmlrpc.NewFault(xmlrpc.CodeServerError, "could not remove synced group")
	}
	metrics.GroupSyncRemovals.Add(float64(removed))
	audit.Log(ctx, audit.EventSyncedGroupRemoved, c.actor.Login(),
		logger.BlogID(b.ID), logger.GroupDN(groupDN))
	return true, nil
}
