// Package session implements stateless cookie sessions. Nothing is
// stored server-side: the cookie value is "<user id>|<hmac>" and a
// request is authenticated purely by re-verifying the signature.
package session

import (
	"net/http"

	"pathwiki/internal/credential"
)

// Manager reads and writes the signed session cookie.
type Manager struct {
	signer     *credential.Signer
	cookieName string
}

// NewManager creates a Manager that signs cookies with the given signer.
func NewManager(signer *credential.Signer, cookieName string) *Manager {
	return &Manager{signer: signer, cookieName: cookieName}
}

// SetUser writes the signed session cookie identifying the user.
func (m *Manager) SetUser(w http.ResponseWriter, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    m.signer.Sign(userID),
		Path:     "/",
		HttpOnly: true,
	})
}

// UserID extracts and verifies the user id from the request's session
// cookie. ok is false when the cookie is absent, malformed, or carries
// a bad signature.
func (m *Manager) UserID(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	return m.signer.Verify(c.Value)
}

// Clear overwrites the session cookie with an empty value.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
