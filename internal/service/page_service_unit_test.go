//go:build unit

package service

import (
	"context"
	"strings"
	"testing"

	"pathwiki/internal/cache"
	"pathwiki/internal/config"
	"pathwiki/internal/data"
)

// newTestCache creates a new in-memory cache for testing.
func newTestCache(t *testing.T) (*cache.Cache, func()) {
	t.Helper()
	cfg := config.CacheConfig{
		FilePath: "file::memory:",
	}
	c, err := cache.New(cfg)
	if err != nil {
		t.Fatalf("failed to create test cache: %v", err)
	}
	teardown := func() {
		c.Close()
	}
	return c, teardown
}

// mockPageRepository is an in-memory implementation of the
// PageRepository interface.
type mockPageRepository struct {
	revisions []*data.Revision
	nextID    int64

	errToReturn          error
	createRevisionCalled int
}

var _ PageRepository = (*mockPageRepository)(nil)

func (m *mockPageRepository) CreateRevision(ctx context.Context, rev *data.Revision) error {
	m.createRevisionCalled++
	if m.errToReturn != nil {
		return m.errToReturn
	}
	m.nextID++
	rev.ID = m.nextID
	m.revisions = append(m.revisions, rev)
	return nil
}

func (m *mockPageRepository) GetCurrentRevision(ctx context.Context, path string) (*data.Revision, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	// Insertion order stands in for created_at ordering.
	for i := len(m.revisions) - 1; i >= 0; i-- {
		if m.revisions[i].Path == path {
			return m.revisions[i], nil
		}
	}
	return nil, nil
}

func (m *mockPageRepository) GetRevisionByID(ctx context.Context, id int64, path string) (*data.Revision, error) {
	for _, rev := range m.revisions {
		if rev.ID == id && rev.Path == path {
			return rev, nil
		}
	}
	return nil, nil
}

func (m *mockPageRepository) GetRevisionHistory(ctx context.Context, path string, limit int) ([]*data.Revision, error) {
	var out []*data.Revision
	for i := len(m.revisions) - 1; i >= 0 && len(out) < limit; i-- {
		if m.revisions[i].Path == path {
			out = append(out, m.revisions[i])
		}
	}
	return out, nil
}

func (m *mockPageRepository) GetAllPaths(ctx context.Context) ([]*data.PageRef, error) {
	seen := map[string]bool{}
	var out []*data.PageRef
	for _, rev := range m.revisions {
		if !seen[rev.Path] {
			seen[rev.Path] = true
			out = append(out, &data.PageRef{Path: rev.Path, UpdatedAt: rev.CreatedAt})
		}
	}
	return out, nil
}

func TestPageService_SavePage(t *testing.T) {
	t.Run("creates a revision for new content", func(t *testing.T) {
		repo := &mockPageRepository{}
		s := NewPageService(repo, nil)

		rev, err := s.SavePage(context.Background(), "/home", "Hello")
		if err != nil {
			t.Fatalf("SavePage: %v", err)
		}
		if rev == nil {
			t.Fatal("expected a new revision, got nil")
		}
		if repo.createRevisionCalled != 1 {
			t.Errorf("expected 1 insert, got %d", repo.createRevisionCalled)
		}
	})

	t.Run("identical content is a no-op", func(t *testing.T) {
		repo := &mockPageRepository{}
		s := NewPageService(repo, nil)
		ctx := context.Background()

		if _, err := s.SavePage(ctx, "/home", "Hello"); err != nil {
			t.Fatalf("first SavePage: %v", err)
		}
		rev, err := s.SavePage(ctx, "/home", "Hello")
		if err != nil {
			t.Fatalf("second SavePage: %v", err)
		}
		if rev != nil {
			t.Errorf("expected no-op for identical content, got %+v", rev)
		}
		if repo.createRevisionCalled != 1 {
			t.Errorf("expected exactly 1 insert, got %d", repo.createRevisionCalled)
		}
	})

	t.Run("empty first save creates nothing", func(t *testing.T) {
		repo := &mockPageRepository{}
		s := NewPageService(repo, nil)

		rev, err := s.SavePage(context.Background(), "/blank", "")
		if err != nil {
			t.Fatalf("SavePage: %v", err)
		}
		if rev != nil {
			t.Errorf("expected no revision for empty first save, got %+v", rev)
		}
		if repo.createRevisionCalled != 0 {
			t.Errorf("expected 0 inserts, got %d", repo.createRevisionCalled)
		}
	})

	t.Run("clearing an existing page creates a revision", func(t *testing.T) {
		repo := &mockPageRepository{}
		s := NewPageService(repo, nil)
		ctx := context.Background()

		if _, err := s.SavePage(ctx, "/home", "Hello"); err != nil {
			t.Fatalf("first SavePage: %v", err)
		}
		rev, err := s.SavePage(ctx, "/home", "")
		if err != nil {
			t.Fatalf("second SavePage: %v", err)
		}
		if rev == nil {
			t.Error("emptying an existing page should append a revision")
		}
	})
}

func TestPageService_HistoryOrdering(t *testing.T) {
	repo := &mockPageRepository{}
	s := NewPageService(repo, nil)
	ctx := context.Background()

	for _, content := range []string{"v1", "v2"} {
		if _, err := s.SavePage(ctx, "/home", content); err != nil {
			t.Fatalf("SavePage(%q): %v", content, err)
		}
	}

	revs, err := s.History(ctx, "/home", 100)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(revs) != 2 || revs[0].Content != "v2" || revs[1].Content != "v1" {
		t.Errorf("expected history [v2 v1], got %d revisions", len(revs))
	}
}

func TestPageService_Render(t *testing.T) {
	t.Run("renders markdown and strips dangerous html", func(t *testing.T) {
		s := NewPageService(&mockPageRepository{}, nil)

		rev := &data.Revision{ID: 1, Content: "**bold** <script>alert(1)</script>"}
		if err := s.Render(context.Background(), rev); err != nil {
			t.Fatalf("Render: %v", err)
		}
		html := string(rev.HTMLContent)
		if !strings.Contains(html, "<strong>bold</strong>") {
			t.Errorf("expected markdown emphasis in output, got %q", html)
		}
		if strings.Contains(html, "<script>") {
			t.Errorf("script tag survived sanitization: %q", html)
		}
	})

	t.Run("serves from cache on the second render", func(t *testing.T) {
		testCache, teardown := newTestCache(t)
		defer teardown()
		s := NewPageService(&mockPageRepository{}, testCache)
		ctx := context.Background()

		first := &data.Revision{ID: 7, Content: "hello"}
		if err := s.Render(ctx, first); err != nil {
			t.Fatalf("first Render: %v", err)
		}

		// Same id, different content: the cached output must win,
		// proving the second render never re-converted.
		second := &data.Revision{ID: 7, Content: "changed"}
		if err := s.Render(ctx, second); err != nil {
			t.Fatalf("second Render: %v", err)
		}
		if second.HTMLContent != first.HTMLContent {
			t.Errorf("expected cached HTML %q, got %q", first.HTMLContent, second.HTMLContent)
		}
	})
}
