package data

import (
	"html/template"
	"time"
)

// User represents a registered account.
type User struct {
	ID             int64     `db:"id"`
	Username       string    `db:"username"`
	PasswordDigest string    `db:"password_digest"`
	Email          string    `db:"email"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Revision is one immutable stored version of a page's content at a
// path. Edits never mutate a revision; they insert a new one, and the
// newest revision for a path is the current page.
type Revision struct {
	ID          int64         `db:"id"`
	Path        string        `db:"path"`
	Content     string        `db:"content"`
	HTMLContent template.HTML `db:"-"`
	CreatedAt   time.Time     `db:"created_at"`
}

// PageRef is a distinct page path together with the timestamp of its
// newest revision. Used for the sitemap.
type PageRef struct {
	Path      string    `db:"path"`
	UpdatedAt time.Time `db:"updated_at"`
}
