package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Blog is a post by an authenticated author. Comments is only populated when
// the caller embeds them.
type Blog struct {
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Excerpt    string    `db:"excerpt" json:"excerpt"`
	Content    string    `db:"content" json:"content"`
	Date       time.Time `db:"date" json:"date"`
	AuthorID   int64     `db:"author_id" json:"authorId"`
	AuthorName string    `db:"author_name" json:"authorName"`
	Comments   []Comment `db:"-" json:"comments"`
}

type BlogStore struct {
	db *sqlx.DB
}

func NewBlogStore(db *sqlx.DB) *BlogStore {
	return &BlogStore{db: db}
}

func (s *BlogStore) q(query string) string { return s.db.Rebind(query) }

const blogColumns = `id, title, excerpt, content, date, author_id, author_name`

// ListAll returns every blog ordered by id.
func (s *BlogStore) ListAll(ctx context.Context) ([]*Blog, error) {
	blogs := []*Blog{}
	err := s.db.SelectContext(ctx, &blogs, `SELECT `+blogColumns+` FROM blogs ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	for _, b := range blogs {
		b.Comments = []Comment{}
	}
	return blogs, nil
}

// GetByID returns the blog matching id, or ErrNotFound.
func (s *BlogStore) GetByID(ctx context.Context, id int64) (*Blog, error) {
	var b Blog
	err := s.db.GetContext(ctx, &b, s.q(`SELECT `+blogColumns+` FROM blogs WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Comments = []Comment{}
	return &b, nil
}

// Create inserts b under the next free id and returns the stored record.
// A zero Date is stamped with the current time.
func (s *BlogStore) Create(ctx context.Context, b *Blog) (*Blog, error) {
	date := b.Date.UTC()
	if b.Date.IsZero() {
		date = time.Now().UTC()
	}
	id, err := insertWithNextID(ctx, s.db, "blogs", func(tx *sqlx.Tx, id int64) error {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO blogs (`+blogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		`), id, b.Title, b.Excerpt, b.Content, date, b.AuthorID, b.AuthorName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Insert stores a seed blog with its given id.
func (s *BlogStore) Insert(ctx context.Context, b *Blog) error {
	return insertBlog(ctx, s.db, b)
}

func insertBlog(ctx context.Context, ex sqlx.ExtContext, b *Blog) error {
	_, err := ex.ExecContext(ctx, ex.Rebind(`
		INSERT INTO blogs (`+blogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	`), b.ID, b.Title, b.Excerpt, b.Content, b.Date.UTC(), b.AuthorID, b.AuthorName)
	return err
}

// Update replaces the editable fields of blog id. AuthorID is set once at
// creation and never reassigned here. A zero Date keeps the stored date.
func (s *BlogStore) Update(ctx context.Context, id int64, b *Blog) (*Blog, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	date := existing.Date
	if !b.Date.IsZero() {
		date = b.Date.UTC()
	}

	_, err = s.db.ExecContext(ctx, s.q(`
		UPDATE blogs SET title = ?, excerpt = ?, content = ?, author_name = ?, date = ? WHERE id = ?
	`), b.Title, b.Excerpt, b.Content, b.AuthorName, date, id)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes blog id. Its comments are left in place.
func (s *BlogStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM blogs WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Count returns the number of blogs.
func (s *BlogStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM blogs`)
	return n, err
}
