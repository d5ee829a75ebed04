package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Comment is an append-only remark on a blog. Author is a free-text display
// name, not a user id.
type Comment struct {
	ID      int64     `db:"id" json:"id"`
	BlogID  int64     `db:"blog_id" json:"blogId"`
	Author  string    `db:"author" json:"author"`
	Content string    `db:"content" json:"content"`
	Date    time.Time `db:"date" json:"date"`
}

type CommentStore struct {
	db *sqlx.DB
}

func NewCommentStore(db *sqlx.DB) *CommentStore {
	return &CommentStore{db: db}
}

func (s *CommentStore) q(query string) string { return s.db.Rebind(query) }

// ListAll returns every comment ordered by id.
func (s *CommentStore) ListAll(ctx context.Context) ([]Comment, error) {
	comments := []Comment{}
	err := s.db.SelectContext(ctx, &comments, `SELECT * FROM comments ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// ListByBlog returns the comments on blogID ordered by id. The blog itself is
// not checked for existence.
func (s *CommentStore) ListByBlog(ctx context.Context, blogID int64) ([]Comment, error) {
	comments := []Comment{}
	err := s.db.SelectContext(ctx, &comments, s.q(`SELECT * FROM comments WHERE blog_id = ? ORDER BY id ASC`), blogID)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// GetByID returns the comment matching id, or ErrNotFound.
func (s *CommentStore) GetByID(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := s.db.GetContext(ctx, &c, s.q(`SELECT * FROM comments WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts c under the next free id. A zero Date is stamped with the
// current time.
func (s *CommentStore) Create(ctx context.Context, c *Comment) (*Comment, error) {
	date := c.Date.UTC()
	if c.Date.IsZero() {
		date = time.Now().UTC()
	}
	id, err := insertWithNextID(ctx, s.db, "comments", func(tx *sqlx.Tx, id int64) error {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO comments (id, blog_id, author, content, date) VALUES (?, ?, ?, ?, ?)
		`), id, c.BlogID, c.Author, c.Content, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Insert stores a seed comment with its given id.
func (s *CommentStore) Insert(ctx context.Context, c *Comment) error {
	return insertComment(ctx, s.db, c)
}

func insertComment(ctx context.Context, ex sqlx.ExtContext, c *Comment) error {
	_, err := ex.ExecContext(ctx, ex.Rebind(`
		INSERT INTO comments (id, blog_id, author, content, date) VALUES (?, ?, ?, ?, ?)
	`), c.ID, c.BlogID, c.Author, c.Content, c.Date.UTC())
	return err
}
