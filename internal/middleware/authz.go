package middleware

import (
	"net/http"
	"strconv"

	"pathwiki/internal/service"
	"pathwiki/internal/session"

	"github.com/casbin/casbin/v2"
)

// CurrentUser resolves the logged-in user from the signed session
// cookie and stores it in the request context. A missing cookie, a bad
// signature, or an id that no longer resolves all leave the request
// anonymous; none of them is an error.
func CurrentUser(sessions *session.Manager, users service.UserServicer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if value, ok := sessions.UserID(r); ok {
				if id, err := strconv.ParseInt(value, 10, 64); err == nil {
					if user, err := users.FindByID(r.Context(), id); err == nil && user != nil {
						r = r.WithContext(SetUser(r.Context(), user))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorizer creates a middleware that enforces Casbin policy over the
// routes it wraps. A denied GET is bounced to the login form so the
// user can authenticate and come back; a denied POST has no form to
// re-render and fails with 400.
func Authorizer(e casbin.IEnforcer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := Subject(r.Context())

			allowed, err := e.Enforce(subject, r.URL.Path, r.Method)
			if err != nil {
				http.Error(w, "Authorization error", http.StatusInternalServerError)
				return
			}

			if !allowed {
				if r.Method == http.MethodGet {
					http.Redirect(w, r, "/login", http.StatusFound)
				} else {
					http.Error(w, "Bad Request", http.StatusBadRequest)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
