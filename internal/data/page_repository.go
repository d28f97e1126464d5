package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLPageRepository stores page revisions using sqlx. Revisions are
// append-only: there is no update or delete path, and the current page
// for a path is simply its newest revision.
type SQLPageRepository struct {
	db *sqlx.DB
}

// NewSQLPageRepository creates a new SQLPageRepository.
func NewSQLPageRepository(db *sqlx.DB) *SQLPageRepository {
	return &SQLPageRepository{db: db}
}

// CreateRevision inserts a new revision for a path and fills in the
// generated ID and timestamp.
func (r *SQLPageRepository) CreateRevision(ctx context.Context, rev *Revision) error {
	rev.CreatedAt = time.Now().UTC()

	query := `INSERT INTO revisions (path, content, created_at) VALUES (:path, :content, :created_at)`
	res, err := r.db.NamedExecContext(ctx, query, rev)
	if err != nil {
		return fmt.Errorf("failed to execute create revision query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted revision id: %w", err)
	}
	rev.ID = id
	return nil
}

// GetCurrentRevision retrieves the most recent revision for a path, or
// (nil, nil) if the path has no revisions yet. Ties on created_at are
// broken by the higher id.
func (r *SQLPageRepository) GetCurrentRevision(ctx context.Context, path string) (*Revision, error) {
	var rev Revision
	query := `SELECT id, path, content, created_at FROM revisions
	          WHERE path = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &rev, query, path); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current revision: %w", err)
	}
	return &rev, nil
}

// GetRevisionByID retrieves a specific revision scoped to a path, so an
// id belonging to another path cannot be fetched under the wrong one.
// Returns (nil, nil) when no such revision exists.
func (r *SQLPageRepository) GetRevisionByID(ctx context.Context, id int64, path string) (*Revision, error) {
	var rev Revision
	query := `SELECT id, path, content, created_at FROM revisions WHERE id = ? AND path = ?`
	if err := r.db.GetContext(ctx, &rev, query, id, path); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get revision by id: %w", err)
	}
	return &rev, nil
}

// GetRevisionHistory retrieves up to limit revisions for a path, most
// recent first.
func (r *SQLPageRepository) GetRevisionHistory(ctx context.Context, path string, limit int) ([]*Revision, error) {
	var revs []*Revision
	query := `SELECT id, path, content, created_at FROM revisions
	          WHERE path = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &revs, query, path, limit); err != nil {
		return nil, fmt.Errorf("failed to get revision history: %w", err)
	}
	return revs, nil
}

// GetAllPaths retrieves every distinct page path with the timestamp of
// its newest revision.
func (r *SQLPageRepository) GetAllPaths(ctx context.Context) ([]*PageRef, error) {
	var refs []*PageRef
	query := `SELECT path, MAX(created_at) AS updated_at FROM revisions GROUP BY path ORDER BY path`
	if err := r.db.SelectContext(ctx, &refs, query); err != nil {
		return nil, fmt.Errorf("failed to get page paths: %w", err)
	}
	return refs, nil
}
