package rpc

import (
	"context"

	"github.com/dropDatabas3/multiblog/internal/authz"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
)

// blogURL arma la URL pública de un blog según el modo de instalación.
func (s *Service) blogURL(b *core.Blog) string {
	if b.Domain != "" && b.Path != "" {
		return "https://" + b.Domain + b.Path
	}
	if s.SubdomainInstall {
		return "https://" + b.Name + "." + s.Domain + "/"
	}
	return "https://" + s.Domain + s.PathBase + b.Name + "/"
}

// blogInfo arma el struct que devuelven los métodos de consulta: identidad
// del blog, banderas de estado y la relación del actor con él. Si el actor
// puede listar usuarios, incluye también las reglas de grupos sincronizados.
func (s *Service) blogInfo(ctx context.Context, c *call, b *core.Blog) (map[string]any, error) {
	var roles []string
	err := s.Policy.InBlog(c.bc, b.ID, func() error {
		var err error
		roles, err = s.Store.MembershipRoles(ctx, b.ID, c.actor.User.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	isAdmin, isSubscriber, canList := false, false, false
	canRead := b.CanBeReadPublicly()
	for _, r := range roles {
		switch r {
		case authz.RoleAdministrator:
			isAdmin = true
		case authz.RoleSubscriber:
			isSubscriber = true
		}
		if authz.RoleGrants(r, authz.CapRead) {
			canRead = true
		}
		if authz.RoleGrants(r, authz.CapListUsers) {
			canList = true
		}
	}

	url := s.blogURL(b)
	info := map[string]any{
		"blogid":       b.ID,
		"name":         b.Name,
		"title":        b.Title,
		"isAdmin":      isAdmin,
		"isSubscriber": isSubscriber,
		"canRead":      canRead,
		"public":       b.Public,
		"archived":     b.Archived,
		"deleted":      b.Deleted,
		"url":          url,
		"xmlrpc":       url + "xmlrpc",
	}

	if canList {
		rules, err := s.Engine.ListRules(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		groups := make([]any, 0, len(rules))
		for _, g := range rules {
			groups = append(groups, map[string]any{
				"group_dn": g.GroupDN,
				"role":     g.Role,
			})
		}
		info["synced_groups"] = groups
	}
	return info, nil
}
