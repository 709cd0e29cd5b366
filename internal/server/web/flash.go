package web

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const flashCookieName = "yelpcamp_flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

type flash struct {
	Kind    string
	Message string
}

// setFlash stores a one-shot message shown by the next rendered page.
func (s *Server) setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    kind + ":" + base64.RawURLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the pending message, if any.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	kind, encoded, ok := strings.Cut(c.Value, ":")
	if !ok || (kind != flashSuccess && kind != flashError) {
		return nil
	}
	msg, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(msg) == 0 {
		return nil
	}
	return &flash{Kind: kind, Message: string(msg)}
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to, kind, message string) {
	if message != "" {
		s.setFlash(w, kind, message)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
