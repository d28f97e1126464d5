package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"pathwiki/internal/cache"
	"pathwiki/internal/data"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// renderTTL bounds how long rendered HTML stays cached. Revisions are
// immutable, so the TTL exists only to keep the cache from growing
// without bound.
const renderTTL = 24 * time.Hour

// PageRepository defines the interface for database operations on page revisions.
type PageRepository interface {
	CreateRevision(ctx context.Context, rev *data.Revision) error
	GetCurrentRevision(ctx context.Context, path string) (*data.Revision, error)
	GetRevisionByID(ctx context.Context, id int64, path string) (*data.Revision, error)
	GetRevisionHistory(ctx context.Context, path string, limit int) ([]*data.Revision, error)
	GetAllPaths(ctx context.Context) ([]*data.PageRef, error)
}

// PageServicer defines the interface for interacting with pages.
type PageServicer interface {
	CurrentPage(ctx context.Context, path string) (*data.Revision, error)
	PageVersion(ctx context.Context, id int64, path string) (*data.Revision, error)
	History(ctx context.Context, path string, limit int) ([]*data.Revision, error)
	SavePage(ctx context.Context, path, content string) (*data.Revision, error)
	AllPaths(ctx context.Context) ([]*data.PageRef, error)
	Render(ctx context.Context, rev *data.Revision) error
}

// PageService provides business logic for managing page revisions.
type PageService struct {
	repo      PageRepository
	cache     *cache.Cache
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewPageService creates a new PageService with the given repository
// and render cache.
func NewPageService(repo PageRepository, c *cache.Cache) *PageService {
	// UGCPolicy allows basic formatting like links, lists, and bold
	// while stripping out dangerous HTML.
	return &PageService{
		repo:      repo,
		cache:     c,
		markdown:  goldmark.New(),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// CurrentPage retrieves the most recent revision for a path, or nil if
// the path has never been written.
func (s *PageService) CurrentPage(ctx context.Context, path string) (*data.Revision, error) {
	return s.repo.GetCurrentRevision(ctx, path)
}

// PageVersion retrieves a specific historical revision, scoped to the
// path. Returns nil when the id does not exist under that path.
func (s *PageService) PageVersion(ctx context.Context, id int64, path string) (*data.Revision, error) {
	return s.repo.GetRevisionByID(ctx, id, path)
}

// History retrieves up to limit revisions for a path, most recent first.
func (s *PageService) History(ctx context.Context, path string, limit int) ([]*data.Revision, error) {
	return s.repo.GetRevisionHistory(ctx, path, limit)
}

// SavePage appends a new revision for a path. It is a no-op returning
// (nil, nil) in two cases: the submitted content equals the current
// content, or the path has no revisions yet and the content is empty.
func (s *PageService) SavePage(ctx context.Context, path, content string) (*data.Revision, error) {
	current, err := s.repo.GetCurrentRevision(ctx, path)
	if err != nil {
		return nil, err
	}
	if current == nil && content == "" {
		return nil, nil
	}
	if current != nil && current.Content == content {
		return nil, nil
	}

	rev := &data.Revision{Path: path, Content: content}
	if err := s.repo.CreateRevision(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// AllPaths retrieves every distinct page path with its latest
// modification time.
func (s *PageService) AllPaths(ctx context.Context) ([]*data.PageRef, error) {
	return s.repo.GetAllPaths(ctx)
}

// Render converts the revision's Markdown content to sanitized HTML and
// stores it on the revision. Rendered output is cached keyed by the
// revision id, which is safe because revisions never change.
func (s *PageService) Render(ctx context.Context, rev *data.Revision) error {
	key := fmt.Sprintf("render:%d", rev.ID)

	if s.cache != nil {
		cached, err := s.cache.Get(key)
		if err == nil && cached != nil {
			rev.HTMLContent = template.HTML(cached)
			return nil
		}
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(rev.Content), &buf); err != nil {
		return fmt.Errorf("failed to render page content: %w", err)
	}
	html := s.sanitizer.SanitizeBytes(buf.Bytes())
	rev.HTMLContent = template.HTML(html)

	if s.cache != nil {
		// Best effort: a failed cache write only costs a re-render.
		_ = s.cache.Set(key, html, renderTTL)
	}
	return nil
}
