// Package memory implementa core.Store en memoria. Lo usan los tests y el
// modo de desarrollo; no persiste nada.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	core "github.com/dropDatabas3/multiblog/internal/store/core"
)

type Store struct {
	mu sync.RWMutex

	nextBlogID int64
	blogs      map[int64]*core.Blog
	byName     map[string]int64
	options    map[string]string

	usersByLogin map[string]*core.User

	serviceAccounts map[string]*core.ServiceAccount
	netCaps         map[string][]string

	// blogID -> userID -> roles
	memberships map[int64]map[string]map[string]time.Time

	// blogID -> groupDN -> regla
	synced map[int64]map[string]*core.SyncedGroup
}

func New() *Store {
	return &Store{
		nextBlogID:      1,
		blogs:           map[int64]*core.Blog{},
		byName:          map[string]int64{},
		options:         map[string]string{},
		usersByLogin:    map[string]*core.User{},
		serviceAccounts: map[string]*core.ServiceAccount{},
		netCaps:         map[string][]string{},
		memberships:     map[int64]map[string]map[string]time.Time{},
		synced:          map[int64]map[string]*core.SyncedGroup{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

// ─── Blogs ───

func (s *Store) GetBlog(_ context.Context, id int64) (*core.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blogs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) GetBlogIDByName(_ context.Context, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return 0, core.ErrNotFound
	}
	return id, nil
}

func (s *Store) SearchBlogs(_ context.Context, prefix string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type row struct {
		path string
		id   int64
	}
	var rows []row
	for id, b := range s.blogs {
		if strings.HasPrefix(b.Path, prefix) {
			rows = append(rows, row{b.Path, id})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].path < rows[j].path })
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out, nil
}

func (s *Store) CreateBlog(_ context.Context, b *core.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[b.Name]; ok {
		return core.ErrConflict
	}
	b.ID = s.nextBlogID
	s.nextBlogID++
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	cp := *b
	s.blogs[b.ID] = &cp
	s.byName[b.Name] = b.ID
	return nil
}

func (s *Store) BlogsOfUser(_ context.Context, userID string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int64
	for blogID, users := range s.memberships {
		if roles, ok := users[userID]; ok && len(roles) > 0 {
			out = append(out, blogID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ─── Opciones de sitio ───

func (s *Store) GetSiteOption(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.options[key]
	if !ok {
		return "", core.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetSiteOption(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[key] = value
	return nil
}

// ─── Usuarios ───

func (s *Store) GetUserByLogin(_ context.Context, login string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByLogin[login]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UpsertUserByLogin(_ context.Context, u *core.User) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.usersByLogin[u.Login]; ok {
		cp := *existing
		return &cp, nil
	}
	nu := *u
	nu.ID = uuid.NewString()
	nu.CreatedAt = time.Now().UTC()
	s.usersByLogin[u.Login] = &nu
	cp := nu
	return &cp, nil
}

// ─── Cuentas de servicio ───

func (s *Store) GetServiceAccount(_ context.Context, login string) (*core.ServiceAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sa, ok := s.serviceAccounts[login]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *sa
	return &cp, nil
}

func (s *Store) NetworkCapabilities(_ context.Context, login string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.netCaps[login]...), nil
}

// ─── Membresías ───

func (s *Store) AddMembership(_ context.Context, blogID int64, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[blogID]; !ok {
		return core.ErrNotFound
	}
	users, ok := s.memberships[blogID]
	if !ok {
		users = map[string]map[string]time.Time{}
		s.memberships[blogID] = users
	}
	roles, ok := users[userID]
	if !ok {
		roles = map[string]time.Time{}
		users[userID] = roles
	}
	if _, ok := roles[role]; ok {
		return core.ErrConflict
	}
	roles[role] = time.Now().UTC()
	return nil
}

func (s *Store) RemoveMembership(_ context.Context, blogID int64, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if users, ok := s.memberships[blogID]; ok {
		delete(users, userID)
	}
	return nil
}

func (s *Store) MembershipRoles(_ context.Context, blogID int64, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	if users, ok := s.memberships[blogID]; ok {
		for r := range users[userID] {
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) IsMember(_ context.Context, blogID int64, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users, ok := s.memberships[blogID]
	if !ok {
		return false, nil
	}
	roles, ok := users[userID]
	return ok && len(roles) > 0, nil
}

// ─── Grupos sincronizados ───

func (s *Store) UpsertSyncedGroup(_ context.Context, g *core.SyncedGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, ok := s.synced[g.BlogID]
	if !ok {
		groups = map[string]*core.SyncedGroup{}
		s.synced[g.BlogID] = groups
	}
	cp := *g
	if prev, ok := groups[g.GroupDN]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	groups[g.GroupDN] = &cp
	return nil
}

func (s *Store) ListSyncedGroups(_ context.Context, blogID int64) ([]core.SyncedGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.SyncedGroup
	for _, g := range s.synced[blogID] {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupDN < out[j].GroupDN })
	return out, nil
}

func (s *Store) DeleteSyncedGroup(_ context.Context, blogID int64, groupDN string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if groups, ok := s.synced[blogID]; ok {
		delete(groups, groupDN)
	}
	return nil
}

func (s *Store) AllSyncedGroups(_ context.Context) ([]core.SyncedGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.SyncedGroup
	for _, groups := range s.synced {
		for _, g := range groups {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BlogID != out[j].BlogID {
			return out[i].BlogID < out[j].BlogID
		}
		return out[i].GroupDN < out[j].GroupDN
	})
	return out, nil
}

// ─── Seeds para dev y tests ───

// SeedServiceAccount registra una cuenta de servicio con sus capacidades de
// red.
func (s *Store) SeedServiceAccount(login, secretHash string, caps ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceAccounts[login] = &core.ServiceAccount{
		Login:      login,
		SecretHash: secretHash,
		CreatedAt:  time.Now().UTC(),
	}
	s.netCaps[login] = append([]string(nil), caps...)
}

// DisableServiceAccount marca la cuenta como deshabilitada.
func (s *Store) DisableServiceAccount(login string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sa, ok := s.serviceAccounts[login]; ok {
		sa.Disabled = true
	}
}
