package handler

import (
	"net/http"

	appmw "pathwiki/internal/middleware"
	"pathwiki/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new chi router. The catch-all wiki
// route is registered last; chi still matches the explicit account,
// history, and edit routes first.
func NewRouter(
	pageHandler *PageHandler,
	authHandler *AuthHandler,
	seoHandler *SeoHandler,
	currentUser func(http.Handler) http.Handler,
	authz func(http.Handler) http.Handler,
	errorMw func(appmw.AppHandler) http.Handler,
) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(currentUser)

	// Account routes
	r.Method(http.MethodGet, "/signup", errorMw(authHandler.signupFormHandler))
	r.Method(http.MethodPost, "/signup", errorMw(authHandler.signupHandler))
	r.Method(http.MethodGet, "/login", errorMw(authHandler.loginFormHandler))
	r.Method(http.MethodPost, "/login", errorMw(authHandler.loginHandler))
	r.Method(http.MethodGet, "/logout", errorMw(authHandler.logoutHandler))

	// SEO and static assets
	r.Get("/robots.txt", seoHandler.robotsHandler)
	r.Get("/sitemap.xml", seoHandler.sitemapHandler)
	r.Handle("/static/*", http.FileServer(http.FS(web.StaticFS)))

	// History is public
	r.Method(http.MethodGet, "/_history/*", errorMw(pageHandler.historyHandler))

	// Editing requires a logged-in user
	r.Route("/_edit", func(r chi.Router) {
		r.Use(authz)
		r.Method(http.MethodGet, "/*", errorMw(pageHandler.editFormHandler))
		r.Method(http.MethodPost, "/*", errorMw(pageHandler.saveHandler))
	})

	// Everything else is a wiki page path, including "/"
	r.Method(http.MethodGet, "/*", errorMw(pageHandler.wikiHandler))

	return r
}
