package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Social holds optional profile links.
type Social struct {
	GitHub   *string `json:"github,omitempty"`
	LinkedIn *string `json:"linkedin,omitempty"`
}

// BlogRef is the denormalized blog reference embedded in a developer profile.
type BlogRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Developer is a read-only directory profile.
type Developer struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
	Bio    string    `json:"bio"`
	Skills []string  `json:"skills"`
	Social Social    `json:"social"`
	Blogs  []BlogRef `json:"blogs"`
}

// developerRow is the table shape; JSON documents live in single columns.
type developerRow struct {
	ID     int64                 `db:"id"`
	Name   string                `db:"name"`
	Avatar string                `db:"avatar"`
	Bio    string                `db:"bio"`
	Skills JSONColumn[[]string]  `db:"skills"`
	Social JSONColumn[Social]    `db:"social"`
	Blogs  JSONColumn[[]BlogRef] `db:"blogs"`
}

func (r *developerRow) developer() *Developer {
	d := &Developer{
		ID:     r.ID,
		Name:   r.Name,
		Avatar: r.Avatar,
		Bio:    r.Bio,
		Skills: r.Skills.V,
		Social: r.Social.V,
		Blogs:  r.Blogs.V,
	}
	if d.Skills == nil {
		d.Skills = []string{}
	}
	if d.Blogs == nil {
		d.Blogs = []BlogRef{}
	}
	return d
}

// DeveloperFilter selects a page of developers. Name and Skill are
// case-sensitive substring filters; empty means no filter. Page is 1-based and
// Limit <= 0 disables paging.
type DeveloperFilter struct {
	Name  string
	Skill string
	Page  int
	Limit int
}

// Matches reports whether d passes the Name and Skill filters.
func (f DeveloperFilter) Matches(d *Developer) bool {
	if f.Name != "" && !strings.Contains(d.Name, f.Name) {
		return false
	}
	if f.Skill == "" {
		return true
	}
	for _, s := range d.Skills {
		if strings.Contains(s, f.Skill) {
			return true
		}
	}
	return false
}

type DeveloperStore struct {
	db *sqlx.DB
}

func NewDeveloperStore(db *sqlx.DB) *DeveloperStore {
	return &DeveloperStore{db: db}
}

func (s *DeveloperStore) q(query string) string { return s.db.Rebind(query) }

// List returns the requested page of developers matching f, ordered by id,
// and the total number of matches across all pages.
//
// Filtering happens in Go: skills are a JSON document and LIKE is
// case-insensitive on SQLite and MySQL, so neither can express a portable
// case-sensitive "any skill contains" test.
func (s *DeveloperStore) List(ctx context.Context, f DeveloperFilter) ([]*Developer, int, error) {
	var rows []*developerRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM developers ORDER BY id ASC`)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]*Developer, 0, len(rows))
	for _, r := range rows {
		d := r.developer()
		if f.Matches(d) {
			matched = append(matched, d)
		}
	}
	total := len(matched)

	if f.Limit <= 0 {
		return matched, total, nil
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * f.Limit
	if start >= total {
		return []*Developer{}, total, nil
	}
	end := min(start+f.Limit, total)
	return matched[start:end], total, nil
}

// GetByID returns the developer matching id, or ErrNotFound.
func (s *DeveloperStore) GetByID(ctx context.Context, id int64) (*Developer, error) {
	var r developerRow
	err := s.db.GetContext(ctx, &r, s.q(`SELECT * FROM developers WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.developer(), nil
}

// Insert stores a seed developer with its given id.
func (s *DeveloperStore) Insert(ctx context.Context, d *Developer) error {
	return insertDeveloper(ctx, s.db, d)
}

func insertDeveloper(ctx context.Context, ex sqlx.ExtContext, d *Developer) error {
	_, err := ex.ExecContext(ctx, ex.Rebind(`
		INSERT INTO developers (id, name, avatar, bio, skills, social, blogs)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), d.ID, d.Name, d.Avatar, d.Bio,
		JSONColumn[[]string]{V: d.Skills},
		JSONColumn[Social]{V: d.Social},
		JSONColumn[[]BlogRef]{V: d.Blogs},
	)
	return err
}

// Count returns the number of developers.
func (s *DeveloperStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM developers`)
	return n, err
}
