//go:build integration

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"

	"pathwiki/internal/auth"
	"pathwiki/internal/config"
	"pathwiki/internal/credential"
	"pathwiki/internal/data"
	"pathwiki/internal/logger"
	"pathwiki/internal/middleware"
	"pathwiki/internal/service"
	"pathwiki/internal/session"
	"pathwiki/internal/view"
	"pathwiki/web"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type testApp struct {
	Router   *chi.Mux
	PageRepo service.PageRepository
	UserRepo service.UserRepository
}

// setupIntegrationTest initializes a full application stack backed by a
// shared in-memory SQLite database.
func setupIntegrationTest(t *testing.T) (*testApp, func()) {
	t.Helper()
	dsn := "file:integration?mode=memory&cache=shared"
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// Manually apply migrations.
	schema1, err := os.ReadFile("../../migrations/000001_initial_schema.up.sql")
	if err != nil {
		t.Fatalf("Failed to read schema migration: %v", err)
	}
	db.MustExec(string(schema1))
	schema2, err := os.ReadFile("../../migrations/000002_create_casbin_rule_table.up.sql")
	if err != nil {
		t.Fatalf("Failed to read casbin migration: %v", err)
	}
	db.MustExec(string(schema2))

	// Init layers.
	log := logger.New(config.LogConfig{Level: "error", Format: "console"}, &strings.Builder{})
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}
	userRepository := data.NewSQLUserRepository(db)
	pageRepository := data.NewSQLPageRepository(db)
	userService := service.NewUserService(userRepository)
	pageService := service.NewPageService(pageRepository, nil)

	signer := credential.NewSigner("integration-test-secret")
	sessionManager := session.NewManager(signer, "user_id")

	pageHandler := NewPageHandler(pageService, viewService, log)
	authHandler := NewAuthHandler(userService, sessionManager, viewService, log)
	seoHandler := NewSeoHandler(pageService)

	enforcer, err := auth.NewEnforcer("sqlite", dsn, "../../auth_model.conf")
	if err != nil {
		t.Fatalf("Failed to initialize enforcer: %v", err)
	}
	auth.SeedDefaultPolicies(enforcer, log)

	currentUser := middleware.CurrentUser(sessionManager, userService)
	authz := middleware.Authorizer(enforcer)
	errorMw := middleware.Error(log, viewService, false)

	router := NewRouter(pageHandler, authHandler, seoHandler, currentUser, authz, errorMw)

	app := &testApp{
		Router:   router,
		PageRepo: pageRepository,
		UserRepo: userRepository,
	}

	teardown := func() {
		db.Close()
	}
	return app, teardown
}

// postForm runs a form POST through the router, attaching the given
// session cookie when present.
func postForm(t *testing.T, app *testApp, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "user_id" && c.Value != "" {
			return c
		}
	}
	t.Fatal("expected a user_id session cookie")
	return nil
}

func TestEndToEnd(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	// Register alice and capture her session cookie.
	signupForm := url.Values{}
	signupForm.Set("username", "alice")
	signupForm.Set("password", "secret1")
	signupForm.Set("verify", "secret1")
	rr := postForm(t, app, "/signup", signupForm, nil)
	if rr.Code != http.StatusFound {
		t.Fatalf("signup: want redirect, got %d: %s", rr.Code, rr.Body.String())
	}
	cookie := sessionCookie(t, rr)

	// Logging in with the wrong password shows one generic message.
	loginForm := url.Values{}
	loginForm.Set("username", "alice")
	loginForm.Set("password", "wrong")
	rr = postForm(t, app, "/login", loginForm, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("bad login: want 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Invalid login") {
		t.Error("bad login: expected generic 'Invalid login' message")
	}

	// Logging in with the right password succeeds.
	loginForm.Set("password", "secret1")
	rr = postForm(t, app, "/login", loginForm, nil)
	if rr.Code != http.StatusFound {
		t.Fatalf("login: want redirect, got %d", rr.Code)
	}

	// Editing while logged out is rejected with 400.
	editForm := url.Values{}
	editForm.Set("content", "Hello")
	rr = postForm(t, app, "/_edit/home", editForm, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("anonymous edit: want 400, got %d", rr.Code)
	}

	// The edit form itself bounces anonymous users to the login page.
	req := httptest.NewRequest("GET", "/_edit/home", nil)
	anon := httptest.NewRecorder()
	app.Router.ServeHTTP(anon, req)
	if anon.Code != http.StatusFound {
		t.Fatalf("anonymous edit form: want redirect, got %d", anon.Code)
	}
	if loc, _ := anon.Result().Location(); loc.Path != "/login" {
		t.Errorf("anonymous edit form: want redirect to /login, got %q", loc.Path)
	}

	// Editing while logged in creates a revision and redirects to the page.
	rr = postForm(t, app, "/_edit/home", editForm, cookie)
	if rr.Code != http.StatusFound {
		t.Fatalf("edit: want redirect, got %d: %s", rr.Code, rr.Body.String())
	}
	if loc, _ := rr.Result().Location(); loc.Path != "/home" {
		t.Errorf("edit: want redirect to /home, got %q", loc.Path)
	}

	// Saving the identical content again must not create a second revision.
	rr = postForm(t, app, "/_edit/home", editForm, cookie)
	if rr.Code != http.StatusFound {
		t.Fatalf("repeat edit: want redirect, got %d", rr.Code)
	}
	revs, err := app.PageRepo.GetRevisionHistory(context.Background(), "/home", 100)
	if err != nil {
		t.Fatalf("GetRevisionHistory: %v", err)
	}
	if len(revs) != 1 {
		t.Fatalf("expected exactly 1 revision after identical saves, got %d", len(revs))
	}

	// Viewing the page renders the saved content.
	req = httptest.NewRequest("GET", "/home", nil)
	viewRR := httptest.NewRecorder()
	app.Router.ServeHTTP(viewRR, req)
	if viewRR.Code != http.StatusOK {
		t.Fatalf("view: want 200, got %d", viewRR.Code)
	}
	if !strings.Contains(viewRR.Body.String(), "Hello") {
		t.Error("view: expected page content in response")
	}

	// A trailing slash redirects to the canonical path.
	req = httptest.NewRequest("GET", "/home/", nil)
	slashRR := httptest.NewRecorder()
	app.Router.ServeHTTP(slashRR, req)
	if slashRR.Code != http.StatusFound {
		t.Fatalf("trailing slash: want redirect, got %d", slashRR.Code)
	}
	if loc, _ := slashRR.Result().Location(); loc.Path != "/home" {
		t.Errorf("trailing slash: want redirect to /home, got %q", loc.Path)
	}
}

func TestRevisionHistoryFlow(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	signupForm := url.Values{}
	signupForm.Set("username", "bob")
	signupForm.Set("password", "secret1")
	signupForm.Set("verify", "secret1")
	cookie := sessionCookie(t, postForm(t, app, "/signup", signupForm, nil))

	for _, content := range []string{"v1", "v2"} {
		form := url.Values{}
		form.Set("content", content)
		if rr := postForm(t, app, "/_edit/notes", form, cookie); rr.Code != http.StatusFound {
			t.Fatalf("edit %q: want redirect, got %d", content, rr.Code)
		}
	}

	// History lists both revisions, newest first.
	req := httptest.NewRequest("GET", "/_history/notes", nil)
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("history: want 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "v1") || !strings.Contains(body, "v2") {
		t.Fatal("history: expected both revisions listed")
	}
	if strings.Index(body, "v2") > strings.Index(body, "v1") {
		t.Error("history: expected v2 listed before v1")
	}

	// The older revision stays reachable by id.
	revs, err := app.PageRepo.GetRevisionHistory(context.Background(), "/notes", 100)
	if err != nil {
		t.Fatalf("GetRevisionHistory: %v", err)
	}
	oldest := revs[len(revs)-1]
	req = httptest.NewRequest("GET", "/notes?v="+strconv.FormatInt(oldest.ID, 10), nil)
	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("versioned view: want 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "v1") {
		t.Error("versioned view: expected the old content")
	}

	// A bogus version number is a 404 with the fixed message.
	req = httptest.NewRequest("GET", "/notes?v=bogus", nil)
	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("bogus version: want 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "that page does not exist") {
		t.Error("bogus version: expected the fixed not-found message")
	}

	// The sitemap lists the page path.
	req = httptest.NewRequest("GET", "/sitemap.xml", nil)
	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("sitemap: want 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "/notes") {
		t.Error("sitemap: expected /notes to be listed")
	}
}
