// Package ldapdir implementa directory.Directory sobre LDAP.
package ldapdir

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/dropDatabas3/multiblog/internal/directory"
	"github.com/dropDatabas3/multiblog/internal/observability/logger"
)

type Config struct {
	URL          string // ldaps://ldap.example.edu:636
	BindDN       string
	BindPassword string
	UserBaseDN   string
	UserFilter   string // con %s para el login, p.ej. "(uid=%s)"
	LoginAttr    string
	EmailAttr    string
	DisplayAttr  string
	MemberAttr   string // atributo de membresía del grupo, p.ej. "member"
	Timeout      time.Duration
}

type Dir struct {
	cfg Config
}

func New(cfg Config) *Dir {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dir{cfg: cfg}
}

// connect abre y autentica una conexión nueva. El volumen de llamadas de este
// servicio no justifica un pool.
func (d *Dir) connect(ctx context.Context) (*ldap.Conn, error) {
	conn, err := ldap.DialURL(d.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", directory.ErrUnavailable, err)
	}
	conn.SetTimeout(d.cfg.Timeout)
	if d.cfg.BindDN != "" {
		if err := conn.Bind(d.cfg.BindDN, d.cfg.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: bind: %v", directory.ErrUnavailable, err)
		}
	}
	return conn, nil
}

func (d *Dir) LookupUser(ctx context.Context, login string) (*directory.UserInfo, error) {
	conn, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := ldap.NewSearchRequest(
		d.cfg.UserBaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf(d.cfg.UserFilter, ldap.EscapeFilter(login)),
		[]string{d.cfg.LoginAttr, d.cfg.EmailAttr, d.cfg.DisplayAttr},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: search: %v", directory.ErrUnavailable, err)
	}
	if len(res.Entries) == 0 {
		return nil, directory.ErrUserNotFound
	}
	return d.entryToUser(res.Entries[0]), nil
}

func (d *Dir) GroupMembers(ctx context.Context, groupDN string) ([]directory.UserInfo, error) {
	conn, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// 1. DNs de los miembros del grupo
	req := ldap.NewSearchRequest(
		groupDN,
		ldap.ScopeBaseObject, ldap.NeverDerefAliases, 1, 0, false,
		"(objectClass=*)",
		[]string{d.cfg.MemberAttr},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, directory.ErrGroupNotFound
		}
		return nil, fmt.Errorf("%w: group search: %v", directory.ErrUnavailable, err)
	}
	if len(res.Entries) == 0 {
		return nil, directory.ErrGroupNotFound
	}
	memberDNs := res.Entries[0].GetAttributeValues(d.cfg.MemberAttr)

	// 2. Atributos de cada miembro
	log := logger.From(ctx).With(logger.Component("directory.ldap"))
	out := make([]directory.UserInfo, 0, len(memberDNs))
	for _, dn := range memberDNs {
		mreq := ldap.NewSearchRequest(
			dn,
			ldap.ScopeBaseObject, ldap.NeverDerefAliases, 1, 0, false,
			"(objectClass=*)",
			[]string{d.cfg.LoginAttr, d.cfg.EmailAttr, d.cfg.DisplayAttr},
			nil,
		)
		mres, err := conn.Search(mreq)
		if err != nil || len(mres.Entries) == 0 {
			// miembros huérfanos (DNs que ya no resuelven) se omiten
			log.Warn("skipping unresolvable group member", logger.GroupDN(groupDN), logger.Err(err))
			continue
		}
		u := d.entryToUser(mres.Entries[0])
		if u.Login == "" {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (d *Dir) entryToUser(e *ldap.Entry) *directory.UserInfo {
	return &directory.UserInfo{
		Login:       e.GetAttributeValue(d.cfg.LoginAttr),
		Email:       e.GetAttributeValue(d.cfg.EmailAttr),
		DisplayName: e.GetAttributeValue(d.cfg.DisplayAttr),
	}
}
