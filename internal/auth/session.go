package auth

import (
	"errors"
	"net/http"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Sessions emite y valida el token de sesión que reemplaza la cookie de auth
// clásica: un JWT HS256 firmado con el secreto de configuración. El token va
// en una cookie para que los siguientes llamados del mismo cliente no tengan
// que gastar un ticket de SSO por request.
type Sessions struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	Domain     string
	Secure     bool
	SameSite   http.SameSite
}

func ParseSameSite(s string) http.SameSite {
	switch s {
	case "Strict", "strict":
		return http.SameSiteStrictMode
	case "None", "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Issue firma un token de sesión para login.
func (s *Sessions) Issue(login string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.TTL)
	claims := jwtv5.MapClaims{
		"sub": login,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse valida firma y vigencia, y devuelve el login (claim sub).
func (s *Sessions) Parse(token string) (string, error) {
	tok, err := jwtv5.Parse(token, func(t *jwtv5.Token) (any, error) {
		return s.Secret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}), jwtv5.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return "", errors.New("invalid session token")
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return "", errors.New("invalid session claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("session without subject")
	}
	return sub, nil
}

// Cookie arma la cookie de sesión lista para Set-Cookie.
func (s *Sessions) Cookie(token string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     s.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.Domain,
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	}
}

// TokenFromRequest extrae el token de la cookie, "" si no hay.
func (s *Sessions) TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(s.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
