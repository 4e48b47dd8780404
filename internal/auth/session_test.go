package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	s := testSessions()
	token, exp, err := s.Issue("ana")
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	login, err := s.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "ana", login)
}

func TestSessionWrongKey(t *testing.T) {
	token, _, err := testSessions().Issue("ana")
	require.NoError(t, err)

	other := &Sessions{CookieName: "mbsess", Secret: []byte("otra-clave"), TTL: time.Hour}
	_, err = other.Parse(token)
	require.Error(t, err)
}

func TestSessionExpired(t *testing.T) {
	s := &Sessions{CookieName: "mbsess", Secret: []byte("test-secret"), TTL: -time.Minute}
	token, _, err := s.Issue("ana")
	require.NoError(t, err)

	_, err = s.Parse(token)
	require.Error(t, err)
}

func TestSessionGarbageToken(t *testing.T) {
	s := testSessions()
	_, err := s.Parse("no-es-un-jwt")
	require.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	s := testSessions()
	token, exp, err := s.Issue("ana")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/xmlrpc", nil)
	require.Empty(t, s.TokenFromRequest(req))

	ck := s.Cookie(token, exp)
	require.True(t, ck.HttpOnly)
	req.AddCookie(ck)
	require.Equal(t, token, s.TokenFromRequest(req))
}
