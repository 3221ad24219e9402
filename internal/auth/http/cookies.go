package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
)

const (
	DefaultSessionCookie   = "rodney_session"
	DefaultChallengeCookie = "rodney_challenge"
)

// CookieConfig names the cookies the service sets. Both are HttpOnly and
// scoped to the whole site.
type CookieConfig struct {
	SessionName   string
	ChallengeName string

	// Secure should be on everywhere except plain-http development.
	Secure bool
}

func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		SessionName:   DefaultSessionCookie,
		ChallengeName: DefaultChallengeCookie,
	}
}

func (c CookieConfig) cookie(name, value string, expires time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if expires.IsZero() {
		ck.MaxAge = -1
	} else {
		ck.Expires = expires
	}
	return ck
}

func (c CookieConfig) setSession(w http.ResponseWriter, s *service.IssuedSession) {
	http.SetCookie(w, c.cookie(c.SessionName, s.Token, s.ExpiresAt))
}

func (c CookieConfig) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(c.SessionName, "", time.Time{}))
}

func (c CookieConfig) setChallenge(w http.ResponseWriter, ch *service.Challenge) {
	http.SetCookie(w, c.cookie(c.ChallengeName, ch.Ticket, ch.ExpiresAt))
}

func (c CookieConfig) clearChallenge(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(c.ChallengeName, "", time.Time{}))
}

func (c CookieConfig) sessionToken(r *http.Request) string {
	return cookieValue(r, c.SessionName)
}

func (c CookieConfig) challengeTicket(r *http.Request) string {
	return cookieValue(r, c.ChallengeName)
}

func cookieValue(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
