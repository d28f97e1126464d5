package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"pathwiki/internal/data"
	"pathwiki/internal/logger"
	"pathwiki/internal/middleware"
	"pathwiki/internal/service"
	"pathwiki/internal/view"
)

// historyLimit caps how many revisions the history page fetches.
const historyLimit = 100

// pagePathRE matches a well-formed page path: the root, or one or more
// slash-delimited segments of word characters, hyphen, or underscore.
var pagePathRE = regexp.MustCompile(`^/$|^(?:/[a-zA-Z0-9_-]+)+$`)

// PageHandler holds the dependencies for the page handlers.
type PageHandler struct {
	pageService service.PageServicer
	view        *view.View
	log         logger.Logger
}

// NewPageHandler creates a new PageHandler with the given dependencies.
func NewPageHandler(ps service.PageServicer, v *view.View, log logger.Logger) *PageHandler {
	return &PageHandler{
		pageService: ps,
		view:        v,
		log:         log,
	}
}

func pageNotFound() *middleware.AppError {
	return &middleware.AppError{
		Message: "Sorry, my friend, but that page does not exist.",
		Code:    http.StatusNotFound,
	}
}

// findRevision resolves the revision a request asks for: the one named
// by a numeric ?v parameter (scoped to the path), or the current
// revision when ?v is absent. A ?v that is non-numeric or names no
// revision under this path yields a 404; a path with no current
// revision yields (nil, nil) and the caller decides what that means.
func (h *PageHandler) findRevision(r *http.Request, path string) (*data.Revision, *middleware.AppError) {
	if v := r.URL.Query().Get("v"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, pageNotFound()
		}
		rev, err := h.pageService.PageVersion(r.Context(), id, path)
		if err != nil {
			return nil, &middleware.AppError{Error: err, Message: "Failed to load revision", Code: http.StatusInternalServerError}
		}
		if rev == nil {
			return nil, pageNotFound()
		}
		return rev, nil
	}

	rev, err := h.pageService.CurrentPage(r.Context(), path)
	if err != nil {
		return nil, &middleware.AppError{Error: err, Message: "Failed to load page", Code: http.StatusInternalServerError}
	}
	return rev, nil
}

// wikiHandler renders the page at the requested path. Paths with
// trailing slashes are redirected to the stripped form; a path with no
// page yet goes straight to its edit form.
func (h *PageHandler) wikiHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	path := r.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		http.Redirect(w, r, strings.TrimRight(path, "/"), http.StatusFound)
		return nil
	}
	if !pagePathRE.MatchString(path) {
		return pageNotFound()
	}

	rev, appErr := h.findRevision(r, path)
	if appErr != nil {
		return appErr
	}
	if rev == nil {
		http.Redirect(w, r, "/_edit"+path, http.StatusFound)
		return nil
	}

	if err := h.pageService.Render(r.Context(), rev); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render page content", Code: http.StatusInternalServerError}
	}

	data := map[string]interface{}{
		"User": middleware.GetUser(r.Context()),
		"Path": path,
		"Page": rev,
	}
	if err := h.view.Render(w, "wiki-page.html", data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render view", Code: http.StatusInternalServerError}
	}
	return nil
}

// editFormHandler displays the edit form for a path, pre-filled with
// the requested revision's content (or blank for a new page). The
// authorizer guarantees only logged-in users get here.
func (h *PageHandler) editFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	path, ok := editablePath(r, "/_edit")
	if !ok {
		return pageNotFound()
	}

	rev, appErr := h.findRevision(r, path)
	if appErr != nil {
		return appErr
	}

	content := ""
	if rev != nil {
		content = rev.Content
	}
	data := map[string]interface{}{
		"User":    middleware.GetUser(r.Context()),
		"Path":    path,
		"Content": content,
	}
	if err := h.view.Render(w, "edit-wiki.html", data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render edit page", Code: http.StatusInternalServerError}
	}
	return nil
}

// saveHandler persists the submitted content as a new revision and
// redirects back to the page view. The redirect happens whether or not
// a revision was actually created: submitting unchanged content, or an
// empty body for a page that never existed, is a silent no-op.
func (h *PageHandler) saveHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	path, ok := editablePath(r, "/_edit")
	if !ok {
		return pageNotFound()
	}

	content := r.FormValue("content")
	if _, err := h.pageService.SavePage(r.Context(), path, content); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to save page", Code: http.StatusInternalServerError}
	}

	http.Redirect(w, r, path, http.StatusFound)
	return nil
}

// historyHandler lists up to historyLimit revisions for a path, most
// recent first. A path with no revisions at all redirects to its edit
// form instead.
func (h *PageHandler) historyHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	path, ok := editablePath(r, "/_history")
	if !ok {
		return pageNotFound()
	}

	revs, err := h.pageService.History(r.Context(), path, historyLimit)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load history", Code: http.StatusInternalServerError}
	}
	if len(revs) == 0 {
		http.Redirect(w, r, "/_edit"+path, http.StatusFound)
		return nil
	}

	data := map[string]interface{}{
		"User":      middleware.GetUser(r.Context()),
		"Path":      path,
		"Revisions": revs,
	}
	if err := h.view.Render(w, "history.html", data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render history", Code: http.StatusInternalServerError}
	}
	return nil
}

// editablePath extracts and validates the page path from a prefixed
// route like /_edit/some/page. Trailing slashes are tolerated here
// rather than redirected; the canonical redirect only matters on the
// public view URLs.
func editablePath(r *http.Request, prefix string) (string, bool) {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if !pagePathRE.MatchString(path) {
		return "", false
	}
	return path, true
}
