// Package groupsync mantiene membresías de blog alineadas con grupos del
// directorio institucional según reglas declarativas {blog, grupo, rol}.
package groupsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/multiblog/internal/directory"
	"github.com/dropDatabas3/multiblog/internal/observability/logger"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
)

var (
	// ErrGroupNotFound: el DN no resuelve a un grupo con miembros.
	ErrGroupNotFound = errors.New("groupsync: group not found or empty")
)

type Engine struct {
	Store core.Store
	Dir   directory.Directory
}

// AddRule registra (o reemplaza) la regla blog/grupo→rol y reconcilia de
// inmediato: otorga el rol a cada miembro del grupo que no lo tenga.
// El grupo debe resolver a una lista de miembros no vacía.
func (e *Engine) AddRule(ctx context.Context, blogID int64, groupDN, role string) (granted int, err error) {
	members, err := e.Dir.GroupMembers(ctx, groupDN)
	if err != nil {
		if errors.Is(err, directory.ErrGroupNotFound) {
			return 0, ErrGroupNotFound
		}
		return 0, fmt.Errorf("groupsync: directory: %w", err)
	}
	if len(members) == 0 {
		return 0, ErrGroupNotFound
	}

	now := time.Now().UTC()
	rule := &core.SyncedGroup{BlogID: blogID, GroupDN: groupDN, Role: role, LastSyncedAt: &now}
	if err := e.Store.UpsertSyncedGroup(ctx, rule); err != nil {
		return 0, fmt.Errorf("groupsync: upsert rule: %w", err)
	}
	return e.grant(ctx, blogID, role, members)
}

// ListRules retorna las reglas del blog ordenadas por grupo.
func (e *Engine) ListRules(ctx context.Context, blogID int64) ([]core.SyncedGroup, error) {
	return e.Store.ListSyncedGroups(ctx, blogID)
}

// RemoveRule quita del blog a los miembros actuales del grupo y borra la
// regla. La remoción es total: se eliminan todos los roles de esos usuarios
// en el blog, tengan o no otro origen.
func (e *Engine) RemoveRule(ctx context.Context, blogID int64, groupDN string) (removed int, err error) {
	members, err := e.Dir.GroupMembers(ctx, groupDN)
	switch {
	case err == nil:
		for _, m := range members {
			u, uerr := e.Store.GetUserByLogin(ctx, m.Login)
			if uerr != nil {
				continue // nunca tuvo cuenta local
			}
			if rerr := e.Store.RemoveMembership(ctx, blogID, u.ID); rerr != nil {
				return removed, fmt.Errorf("groupsync: remove membership: %w", rerr)
			}
			removed++
		}
	case errors.Is(err, directory.ErrGroupNotFound):
		// el grupo ya no existe en el directorio: no hay a quién quitar,
		// pero la regla se borra igual
	default:
		return 0, fmt.Errorf("groupsync: directory: %w", err)
	}

	if err := e.Store.DeleteSyncedGroup(ctx, blogID, groupDN); err != nil {
		return removed, fmt.Errorf("groupsync: delete rule: %w", err)
	}
	return removed, nil
}

// SyncAll re-reconcilia todas las reglas de la red. Lo dispara el barrido
// programado; los errores por regla se loguean y no cortan el barrido.
func (e *Engine) SyncAll(ctx context.Context) {
	log := logger.From(ctx).With(logger.Component("groupsync"))
	rules, err := e.Store.AllSyncedGroups(ctx)
	if err != nil {
		log.Error("could not list sync rules", logger.Err(err))
		return
	}
	for _, rule := range rules {
		members, err := e.Dir.GroupMembers(ctx, rule.GroupDN)
		if err != nil {
			log.Warn("skipping rule, group unresolvable",
				logger.BlogID(rule.BlogID), logger.GroupDN(rule.GroupDN), logger.Err(err))
			continue
		}
		granted, err := e.grant(ctx, rule.BlogID, rule.Role, members)
		if err != nil {
			log.Warn("partial sync",
				logger.BlogID(rule.BlogID), logger.GroupDN(rule.GroupDN), logger.Err(err))
			continue
		}
		now := time.Now().UTC()
		rule.LastSyncedAt = &now
		if err := e.Store.UpsertSyncedGroup(ctx, &rule); err != nil {
			log.Warn("could not stamp sync time", logger.GroupDN(rule.GroupDN), logger.Err(err))
		}
		if granted > 0 {
			log.Info("group synced",
				logger.BlogID(rule.BlogID), logger.GroupDN(rule.GroupDN), logger.Role(rule.Role))
		}
	}
}

// grant provisiona cada miembro y le otorga role si aún no lo tiene.
func (e *Engine) grant(ctx context.Context, blogID int64, role string, members []directory.UserInfo) (granted int, err error) {
	for _, m := range members {
		u, err := e.Store.UpsertUserByLogin(ctx, &core.User{
			Login:       m.Login,
			Email:       m.Email,
			DisplayName: m.DisplayName,
		})
		if err != nil {
			return granted, fmt.Errorf("groupsync: provision %s: %w", m.Login, err)
		}
		switch err := e.Store.AddMembership(ctx, blogID, u.ID, role); {
		case err == nil:
			granted++
		case core.IsConflict(err):
			// ya tenía el rol
		default:
			return granted, fmt.Errorf("groupsync: grant %s: %w", m.Login, err)
		}
	}
	return granted, nil
}
