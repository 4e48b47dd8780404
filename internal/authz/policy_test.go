package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/multiblog/internal/authz"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
	"github.com/dropDatabas3/multiblog/internal/store/memory"
)

func seedBlogWithAdmin(t *testing.T, st *memory.Store) (int64, string) {
	t.Helper()
	ctx := context.Background()
	b := &core.Blog{Name: "aula", Path: "/aula/", Title: "Aula", Public: core.VisibilityPublic}
	require.NoError(t, st.CreateBlog(ctx, b))
	u, err := st.UpsertUserByLogin(ctx, &core.User{Login: "ana"})
	require.NoError(t, err)
	require.NoError(t, st.AddMembership(ctx, b.ID, u.ID, authz.RoleAdministrator))
	return b.ID, u.ID
}

func TestCanUserByRole(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	blogID, adminID := seedBlogWithAdmin(t, st)

	sub, err := st.UpsertUserByLogin(ctx, &core.User{Login: "bruno"})
	require.NoError(t, err)
	require.NoError(t, st.AddMembership(ctx, blogID, sub.ID, authz.RoleSubscriber))

	p := &authz.Policy{Store: st}
	bc := &authz.BlogContext{}

	ok, err := p.Authorize(ctx, bc, blogID, adminID, authz.CapPromoteUsers)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.Authorize(ctx, bc, blogID, sub.ID, authz.CapPromoteUsers)
	require.NoError(t, err)
	require.False(t, ok, "subscriber must not manage users")

	ok, err = p.Authorize(ctx, bc, blogID, sub.ID, authz.CapRead)
	require.NoError(t, err)
	require.True(t, ok)

	// sin membresía no hay capacidad alguna
	ok, err = p.Authorize(ctx, bc, blogID, "no-such-user", authz.CapRead)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCanUserWithoutActiveBlog(t *testing.T) {
	p := &authz.Policy{Store: memory.New()}
	_, err := p.CanUser(context.Background(), &authz.BlogContext{}, "u1", authz.CapRead)
	require.ErrorIs(t, err, authz.ErrNoActiveBlog)
}

func TestBlogContextNesting(t *testing.T) {
	bc := &authz.BlogContext{}

	leave1 := bc.Enter(1)
	leave2 := bc.Enter(2)
	id, ok := bc.Current()
	require.True(t, ok)
	require.Equal(t, int64(2), id)

	leave2()
	id, ok = bc.Current()
	require.True(t, ok)
	require.Equal(t, int64(1), id)

	// leave repetido es no-op, no desapila de más
	leave2()
	id, ok = bc.Current()
	require.True(t, ok)
	require.Equal(t, int64(1), id)

	leave1()
	_, ok = bc.Current()
	require.False(t, ok)
	require.Equal(t, 0, bc.Depth())
}

func TestInBlogRestoresOnPanic(t *testing.T) {
	p := &authz.Policy{Store: memory.New()}
	bc := &authz.BlogContext{}

	require.Panics(t, func() {
		_ = p.InBlog(bc, 7, func() error { panic("boom") })
	})
	require.Equal(t, 0, bc.Depth(), "panic inside the body must still restore the previous blog")
}

func TestCanRegisterBlog(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name      string
		policy    string
		option    string // opción de sitio "registration"; vacío = sin opción
		login     string
		privleged bool
		want      bool
	}{
		{"all allows anonymous", authz.SignupAll, "", "", false, true},
		{"blog requires identity", authz.SignupBlog, "", "", false, false},
		{"blog allows identified", authz.SignupBlog, "", "ana", false, true},
		{"none denies identified", authz.SignupNone, "", "ana", false, false},
		{"unknown value denies", "banana", "", "ana", false, false},
		{"site option overrides config", authz.SignupNone, authz.SignupAll, "", false, true},
		{"privileged bypasses gate", authz.SignupNone, "", "", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := memory.New()
			if tc.option != "" {
				require.NoError(t, st.SetSiteOption(ctx, authz.OptionRegistration, tc.option))
			}
			p := &authz.Policy{Store: st, SignupPolicy: tc.policy}
			got, err := p.CanRegisterBlog(ctx, tc.login, tc.privleged)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSignupFilterSeesEffectivePolicy(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.SetSiteOption(ctx, authz.OptionRegistration, authz.SignupAll))

	var seen string
	p := &authz.Policy{
		Store:        st,
		SignupPolicy: authz.SignupNone,
		SignupFilter: func(policy string) string {
			seen = policy
			return authz.SignupNone // el filtro puede cerrar la puerta
		},
	}
	ok, err := p.CanRegisterBlog(ctx, "ana", false)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, authz.SignupAll, seen, "filter must see the option-overridden value")
}

func TestCanReadBlog(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	blogID, adminID := seedBlogWithAdmin(t, st)
	p := &authz.Policy{Store: st}

	priv := &core.Blog{ID: blogID, Public: core.VisibilityPrivate}

	// visitante anónimo: solo blogs al menos semi-públicos
	ok, err := p.CanReadBlog(ctx, &authz.BlogContext{}, "", &core.Blog{Public: core.VisibilitySemiPublic})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.CanReadBlog(ctx, &authz.BlogContext{}, "", priv)
	require.NoError(t, err)
	require.False(t, ok)

	// miembro con capacidad de lectura entra aunque sea privado
	ok, err = p.CanReadBlog(ctx, &authz.BlogContext{}, adminID, priv)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.CanReadBlog(ctx, &authz.BlogContext{}, "extrano", priv)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidRole(t *testing.T) {
	require.True(t, authz.ValidRole(authz.RoleAdministrator))
	require.True(t, authz.ValidRole(authz.RoleSubscriber))
	require.False(t, authz.ValidRole("superuser"))
	require.False(t, authz.ValidRole(""))
}
