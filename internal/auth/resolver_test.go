package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/multiblog/internal/authz"
	"github.com/dropDatabas3/multiblog/internal/directory"
	"github.com/dropDatabas3/multiblog/internal/directory/static"
	"github.com/dropDatabas3/multiblog/internal/idp"
	"github.com/dropDatabas3/multiblog/internal/security/password"
	"github.com/dropDatabas3/multiblog/internal/store/memory"
)

type fakeIdP struct {
	calls int
	login string
	err   error
}

func (f *fakeIdP) ValidateTicket(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.login, nil
}

// Parámetros livianos: los tests no necesitan resistencia a GPUs.
var testParams = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func testSessions() *Sessions {
	return &Sessions{CookieName: "mbsess", Secret: []byte("test-secret"), TTL: time.Hour}
}

func newResolver(t *testing.T, st *memory.Store, provider idp.Provider) *Resolver {
	t.Helper()
	dir := static.New([]directory.UserInfo{
		{Login: "ana", Email: "ana@example.edu", DisplayName: "Ana García"},
		{Login: "bruno", Email: "bruno@example.edu", DisplayName: "Bruno Díaz"},
	}, nil)
	return &Resolver{
		IdP:      provider,
		Dir:      dir,
		Store:    st,
		Policy:   &authz.Policy{Store: st},
		Sessions: testSessions(),
	}
}

func seedService(t *testing.T, st *memory.Store, login, secret string, caps ...string) {
	t.Helper()
	phc, err := password.Hash(testParams, secret)
	require.NoError(t, err)
	st.SeedServiceAccount(login, phc, caps...)
}

func TestResolveTicketProvisionsIdempotently(t *testing.T) {
	st := memory.New()
	r := newResolver(t, st, &fakeIdP{login: "ana"})

	a1, err := r.Resolve(context.Background(), SessionTicket{Ticket: "ST-1"})
	require.NoError(t, err)
	require.Equal(t, "ana", a1.Login())
	require.NotNil(t, r.PendingCookie)

	r2 := newResolver(t, st, &fakeIdP{login: "ana"})
	a2, err := r2.Resolve(context.Background(), SessionTicket{Ticket: "ST-2"})
	require.NoError(t, err)
	require.Equal(t, a1.User.ID, a2.User.ID, "same directory identity must map to one local account")
}

func TestResolveSessionTokenSkipsIdP(t *testing.T) {
	st := memory.New()
	provider := &fakeIdP{login: "ana"}
	r := newResolver(t, st, provider)

	_, err := r.Resolve(context.Background(), SessionTicket{Ticket: "ST-1"})
	require.NoError(t, err)
	require.Equal(t, 1, provider.calls)

	token, _, err := r.Sessions.Issue("ana")
	require.NoError(t, err)

	r2 := newResolver(t, st, provider)
	a, err := r2.Resolve(context.Background(), SessionTicket{SessionToken: token})
	require.NoError(t, err)
	require.Equal(t, "ana", a.Login())
	require.Equal(t, 1, provider.calls, "valid session token must not hit the IdP")
}

func TestLatchAfterTicketRejection(t *testing.T) {
	st := memory.New()
	provider := &fakeIdP{err: idp.ErrAuthFailed}
	r := newResolver(t, st, provider)

	_, err := r.Resolve(context.Background(), SessionTicket{Ticket: "ST-bad"})
	require.ErrorIs(t, err, ErrAuthRequired)
	require.Equal(t, 1, provider.calls)

	// El segundo intento sobre la misma instancia falla sin volver al IdP,
	// aunque la credencial sea distinta.
	provider.err = nil
	provider.login = "ana"
	_, err = r.Resolve(context.Background(), SessionTicket{Ticket: "ST-good"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, 1, provider.calls)
}

func TestLatchAfterServicePasswordRejection(t *testing.T) {
	st := memory.New()
	seedService(t, st, "svc", "right-secret")
	r := newResolver(t, st, &fakeIdP{})

	_, err := r.Resolve(context.Background(), ServicePassword{
		ServiceLogin: "svc", Secret: "wrong", ActAs: "svc",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// incluso con el secreto correcto
	_, err = r.Resolve(context.Background(), ServicePassword{
		ServiceLogin: "svc", Secret: "right-secret", ActAs: "svc",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLatchDoesNotCrossInstances(t *testing.T) {
	st := memory.New()
	seedService(t, st, "svc", "right-secret")

	r1 := newResolver(t, st, &fakeIdP{})
	_, err := r1.Resolve(context.Background(), ServicePassword{ServiceLogin: "svc", Secret: "wrong", ActAs: "svc"})
	require.Error(t, err)

	r2 := newResolver(t, st, &fakeIdP{})
	a, err := r2.Resolve(context.Background(), ServicePassword{ServiceLogin: "svc", Secret: "right-secret", ActAs: "svc"})
	require.NoError(t, err)
	require.Equal(t, "svc", a.Login())
}

func TestActAsSelfNeedsNoCapabilities(t *testing.T) {
	st := memory.New()
	seedService(t, st, "svc", "s3cret") // sin capacidades de red

	r := newResolver(t, st, &fakeIdP{})
	a, err := r.Resolve(context.Background(), ServicePassword{ServiceLogin: "svc", Secret: "s3cret", ActAs: "svc"})
	require.NoError(t, err)
	require.Equal(t, "svc", a.Login())
	require.False(t, a.Impersonated)
	require.Equal(t, "svc", a.ServiceLogin)
}

func TestImpersonationRequiresBothCapabilities(t *testing.T) {
	cases := []struct {
		name string
		caps []string
	}{
		{"none", nil},
		{"only manage_sites", []string{authz.CapManageSites}},
		{"only manage_network_users", []string{authz.CapManageNetworkUsers}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := memory.New()
			seedService(t, st, "svc", "s3cret", tc.caps...)
			r := newResolver(t, st, &fakeIdP{})

			_, err := r.Resolve(context.Background(), ServicePassword{
				ServiceLogin: "svc", Secret: "s3cret", ActAs: "ana",
			})
			require.ErrorIs(t, err, ErrNotAuthorizedToImpersonate)
		})
	}
}

func TestImpersonationResolvesTarget(t *testing.T) {
	st := memory.New()
	seedService(t, st, "svc", "s3cret", authz.CapManageSites, authz.CapManageNetworkUsers)
	r := newResolver(t, st, &fakeIdP{})

	a, err := r.Resolve(context.Background(), ServicePassword{
		ServiceLogin: "svc", Secret: "s3cret", ActAs: "ana",
	})
	require.NoError(t, err)
	require.Equal(t, "ana", a.Login())
	require.True(t, a.Impersonated)
	require.Equal(t, "svc", a.ServiceLogin)
}

func TestImpersonationUnknownTarget(t *testing.T) {
	st := memory.New()
	seedService(t, st, "svc", "s3cret", authz.CapManageSites, authz.CapManageNetworkUsers)
	r := newResolver(t, st, &fakeIdP{})

	_, err := r.Resolve(context.Background(), ServicePassword{
		ServiceLogin: "svc", Secret: "s3cret", ActAs: "nadie",
	})
	require.ErrorIs(t, err, ErrUserResolutionFailed)
}

func TestUnknownServiceAccount(t *testing.T) {
	st := memory.New()
	r := newResolver(t, st, &fakeIdP{})
	_, err := r.Resolve(context.Background(), ServicePassword{ServiceLogin: "ghost", Secret: "x", ActAs: "ghost"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDisabledServiceAccount(t *testing.T) {
	st := memory.New()
	seedService(t, st, "svc", "s3cret")
	st.DisableServiceAccount("svc")

	r := newResolver(t, st, &fakeIdP{})
	_, err := r.Resolve(context.Background(), ServicePassword{ServiceLogin: "svc", Secret: "s3cret", ActAs: "svc"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNoCredential(t *testing.T) {
	st := memory.New()
	r := newResolver(t, st, &fakeIdP{})
	_, err := r.Resolve(context.Background(), SessionTicket{})
	require.ErrorIs(t, err, ErrAuthRequired)
}

func TestIdPOutageIsNotLatch(t *testing.T) {
	st := memory.New()
	provider := &fakeIdP{err: errors.Join(idp.ErrUnavailable, errors.New("timeout"))}
	r := newResolver(t, st, provider)

	_, err := r.Resolve(context.Background(), SessionTicket{Ticket: "ST-1"})
	require.ErrorIs(t, err, ErrTargetResolutionFailed)

	// una caída del IdP no debe trabar la instancia
	provider.err = nil
	provider.login = "ana"
	a, err := r.Resolve(context.Background(), SessionTicket{Ticket: "ST-2"})
	require.NoError(t, err)
	require.Equal(t, "ana", a.Login())
}
