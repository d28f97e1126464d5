package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"pathwiki/internal/logger"
	"pathwiki/internal/middleware"
	"pathwiki/internal/service"
	"pathwiki/internal/session"
	"pathwiki/internal/view"
)

var (
	usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
	passwordRE = regexp.MustCompile(`^.{3,20}$`)
	emailRE    = regexp.MustCompile(`^[\S]+@[\S]+\.[\S]+$`)
)

func validUsername(username string) bool {
	return usernameRE.MatchString(username)
}

func validPassword(password string) bool {
	return passwordRE.MatchString(password)
}

// validEmail accepts the empty string: email is optional.
func validEmail(email string) bool {
	return email == "" || emailRE.MatchString(email)
}

// AuthHandler holds the dependencies for the account handlers.
type AuthHandler struct {
	userService service.UserServicer
	sessions    *session.Manager
	view        *view.View
	log         logger.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(us service.UserServicer, sessions *session.Manager, v *view.View, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		userService: us,
		sessions:    sessions,
		view:        v,
		log:         log,
	}
}

// signupFormHandler renders an empty registration form.
func (h *AuthHandler) signupFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	data := map[string]interface{}{
		"User":     middleware.GetUser(r.Context()),
		"Username": "",
		"Email":    "",
	}
	if err := h.view.Render(w, "signup.html", data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render signup form", Code: http.StatusInternalServerError}
	}
	return nil
}

// signupHandler validates the submitted registration form and creates
// the account. Validation failures re-render the form with per-field
// messages, keeping the entered username and email but never the
// passwords.
func (h *AuthHandler) signupHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	username := r.FormValue("username")
	password := r.FormValue("password")
	verify := r.FormValue("verify")
	email := r.FormValue("email")

	params := map[string]interface{}{
		"User":     middleware.GetUser(r.Context()),
		"Username": username,
		"Email":    email,
	}

	haveError := false
	if !validUsername(username) {
		params["ErrorUsername"] = "That's not a valid username."
		haveError = true
	}
	if !validPassword(password) {
		params["ErrorPassword"] = "That wasn't a valid password."
		haveError = true
	} else if password != verify {
		params["ErrorVerify"] = "Your passwords didn't match."
		haveError = true
	}
	if !validEmail(email) {
		params["ErrorEmail"] = "That's not a valid email."
		haveError = true
	}

	if haveError {
		if err := h.view.Render(w, "signup.html", params); err != nil {
			return &middleware.AppError{Error: err, Message: "Failed to render signup form", Code: http.StatusInternalServerError}
		}
		return nil
	}

	// The existence check and the insert below are two separate
	// statements, so two concurrent signups with the same name can both
	// get past the check. Known race, inherited behavior.
	existing, err := h.userService.FindByName(r.Context(), username)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to look up username", Code: http.StatusInternalServerError}
	}
	if existing != nil {
		params["ErrorUsername"] = "That user already exists."
		if err := h.view.Render(w, "signup.html", params); err != nil {
			return &middleware.AppError{Error: err, Message: "Failed to render signup form", Code: http.StatusInternalServerError}
		}
		return nil
	}

	user, err := h.userService.Register(r.Context(), username, password, email)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to register user", Code: http.StatusInternalServerError}
	}

	h.sessions.SetUser(w, strconv.FormatInt(user.ID, 10))
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// loginFormHandler renders the login form. The referring page is
// carried in a hidden field so a successful login can return there.
func (h *AuthHandler) loginFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	data := map[string]interface{}{
		"User":    middleware.GetUser(r.Context()),
		"NextURL": r.Referer(),
	}
	if err := h.view.Render(w, "login-form.html", data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render login form", Code: http.StatusInternalServerError}
	}
	return nil
}

// loginHandler authenticates the submitted credentials. Success sets
// the session cookie and redirects to the next URL; failure re-renders
// the form with one generic message so nothing leaks about which field
// was wrong.
func (h *AuthHandler) loginHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	username := r.FormValue("username")
	password := r.FormValue("password")

	nextURL := r.FormValue("next_url")
	if nextURL == "" || strings.HasPrefix(nextURL, "/login") {
		nextURL = "/"
	}

	user, err := h.userService.Authenticate(r.Context(), username, password)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to authenticate", Code: http.StatusInternalServerError}
	}
	if user == nil {
		data := map[string]interface{}{
			"User":    middleware.GetUser(r.Context()),
			"NextURL": nextURL,
			"Error":   "Invalid login",
		}
		if err := h.view.Render(w, "login-form.html", data); err != nil {
			return &middleware.AppError{Error: err, Message: "Failed to render login form", Code: http.StatusInternalServerError}
		}
		return nil
	}

	h.sessions.SetUser(w, strconv.FormatInt(user.ID, 10))
	http.Redirect(w, r, nextURL, http.StatusFound)
	return nil
}

// logoutHandler clears the session cookie and sends the user back to
// the page they came from.
func (h *AuthHandler) logoutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	h.sessions.Clear(w)

	nextURL := r.Referer()
	if nextURL == "" {
		nextURL = "/"
	}
	http.Redirect(w, r, nextURL, http.StatusFound)
	return nil
}
