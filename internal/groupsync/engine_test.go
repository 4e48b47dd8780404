package groupsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/multiblog/internal/authz"
	"github.com/dropDatabas3/multiblog/internal/directory"
	"github.com/dropDatabas3/multiblog/internal/directory/static"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
	"github.com/dropDatabas3/multiblog/internal/store/memory"
)

const grupoDocentes = "cn=docentes,ou=groups,dc=example,dc=edu"

func testDir() directory.Directory {
	return static.New([]directory.UserInfo{
		{Login: "ana", Email: "ana@example.edu", DisplayName: "Ana García"},
		{Login: "bruno", Email: "bruno@example.edu", DisplayName: "Bruno Díaz"},
		{Login: "carla", Email: "carla@example.edu", DisplayName: "Carla Ruiz"},
	}, map[string][]string{
		grupoDocentes: {"ana", "bruno"},
		"cn=vacio,ou=groups,dc=example,dc=edu": {},
	})
}

func newEngine(t *testing.T) (*Engine, *memory.Store, int64) {
	t.Helper()
	st := memory.New()
	b := &core.Blog{Name: "aula", Path: "/aula/", Title: "Aula"}
	require.NoError(t, st.CreateBlog(context.Background(), b))
	return &Engine{Store: st, Dir: testDir()}, st, b.ID
}

func TestAddRuleGrantsMembers(t *testing.T) {
	ctx := context.Background()
	e, st, blogID := newEngine(t)

	granted, err := e.AddRule(ctx, blogID, grupoDocentes, authz.RoleAuthor)
	require.NoError(t, err)
	require.Equal(t, 2, granted)

	for _, login := range []string{"ana", "bruno"} {
		u, err := st.GetUserByLogin(ctx, login)
		require.NoError(t, err, "member %s must be provisioned", login)
		roles, err := st.MembershipRoles(ctx, blogID, u.ID)
		require.NoError(t, err)
		require.Contains(t, roles, authz.RoleAuthor)
	}

	rules, err := e.ListRules(ctx, blogID)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, grupoDocentes, rules[0].GroupDN)
	require.Equal(t, authz.RoleAuthor, rules[0].Role)
	require.NotNil(t, rules[0].LastSyncedAt)
}

func TestAddRuleIsIdempotentOnMembers(t *testing.T) {
	ctx := context.Background()
	e, _, blogID := newEngine(t)

	_, err := e.AddRule(ctx, blogID, grupoDocentes, authz.RoleAuthor)
	require.NoError(t, err)

	// re-aplicar la misma regla no vuelve a otorgar nada
	granted, err := e.AddRule(ctx, blogID, grupoDocentes, authz.RoleAuthor)
	require.NoError(t, err)
	require.Equal(t, 0, granted)

	rules, err := e.ListRules(ctx, blogID)
	require.NoError(t, err)
	require.Len(t, rules, 1)
}

func TestAddRuleReplacesRole(t *testing.T) {
	ctx := context.Background()
	e, _, blogID := newEngine(t)

	_, err := e.AddRule(ctx, blogID, grupoDocentes, authz.RoleAuthor)
	require.NoError(t, err)
	_, err = e.AddRule(ctx, blogID, grupoDocentes, authz.RoleEditor)
	require.NoError(t, err)

	rules, err := e.ListRules(ctx, blogID)
	require.NoError(t, err)
	require.Len(t, rules, 1, "one active rule per (blog, group)")
	require.Equal(t, authz.RoleEditor, rules[0].Role)
}

func TestAddRuleUnknownOrEmptyGroup(t *testing.T) {
	ctx := context.Background()
	e, _, blogID := newEngine(t)

	_, err := e.AddRule(ctx, blogID, "cn=nadie,ou=groups,dc=example,dc=edu", authz.RoleAuthor)
	require.ErrorIs(t, err, ErrGroupNotFound)

	_, err = e.AddRule(ctx, blogID, "cn=vacio,ou=groups,dc=example,dc=edu", authz.RoleAuthor)
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestRemoveRuleRemovesMembershipsAndRule(t *testing.T) {
	ctx := context.Background()
	e, st, blogID := newEngine(t)

	_, err := e.AddRule(ctx, blogID, grupoDocentes, authz.RoleAuthor)
	require.NoError(t, err)

	removed, err := e.RemoveRule(ctx, blogID, grupoDocentes)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	u, err := st.GetUserByLogin(ctx, "ana")
	require.NoError(t, err)
	ok, err := st.IsMember(ctx, blogID, u.ID)
	require.NoError(t, err)
	require.False(t, ok)

	rules, err := e.ListRules(ctx, blogID)
	require.NoError(t, err)
	require.Empty(t, rules)
}

func TestRemoveRuleIsBlanket(t *testing.T) {
	ctx := context.Background()
	e, st, blogID := newEngine(t)

	_, err := e.AddRule(ctx, blogID, grupoDocentes, authz.RoleAuthor)
	require.NoError(t, err)

	// ana además tiene un rol otorgado a mano
	u, err := st.GetUserByLogin(ctx, "ana")
	require.NoError(t, err)
	require.NoError(t, st.AddMembership(ctx, blogID, u.ID, authz.RoleAdministrator))

	_, err = e.RemoveRule(ctx, blogID, grupoDocentes)
	require.NoError(t, err)

	// la remoción no distingue origen: se va con todos sus roles
	roles, err := st.MembershipRoles(ctx, blogID, u.ID)
	require.NoError(t, err)
	require.Empty(t, roles)
}

func TestRemoveRuleGroupGoneStillDeletesRule(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	b := &core.Blog{Name: "aula", Path: "/aula/", Title: "Aula"}
	require.NoError(t, st.CreateBlog(ctx, b))

	// la regla quedó en el store pero el grupo desapareció del directorio
	require.NoError(t, st.UpsertSyncedGroup(ctx, &core.SyncedGroup{
		BlogID: b.ID, GroupDN: "cn=extinto,ou=groups,dc=example,dc=edu", Role: authz.RoleAuthor,
	}))
	e := &Engine{Store: st, Dir: testDir()}

	removed, err := e.RemoveRule(ctx, b.ID, "cn=extinto,ou=groups,dc=example,dc=edu")
	require.NoError(t, err)
	require.Equal(t, 0, removed)

	rules, err := st.ListSyncedGroups(ctx, b.ID)
	require.NoError(t, err)
	require.Empty(t, rules)
}

func TestSyncAllPicksUpNewMembers(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	b := &core.Blog{Name: "aula", Path: "/aula/", Title: "Aula"}
	require.NoError(t, st.CreateBlog(ctx, b))

	grupos := map[string][]string{grupoDocentes: {"ana"}}
	dir := static.New([]directory.UserInfo{
		{Login: "ana", Email: "ana@example.edu"},
		{Login: "bruno", Email: "bruno@example.edu"},
	}, grupos)
	e := &Engine{Store: st, Dir: dir}

	_, err := e.AddRule(ctx, b.ID, grupoDocentes, authz.RoleAuthor)
	require.NoError(t, err)

	// bruno entra al grupo después de creada la regla
	grupos[grupoDocentes] = []string{"ana", "bruno"}
	e.SyncAll(ctx)

	u, err := st.GetUserByLogin(ctx, "bruno")
	require.NoError(t, err)
	roles, err := st.MembershipRoles(ctx, b.ID, u.ID)
	require.NoError(t, err)
	require.Contains(t, roles, authz.RoleAuthor)
}
