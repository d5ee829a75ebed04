package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// User is a seeded account used by the mock login. Password and Token are
// only ever served by GET /users.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"password"`
	Token    string `db:"token" json:"token"`
}

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *UserStore) q(query string) string { return s.db.Rebind(query) }

// ListAll returns every user ordered by id.
func (s *UserStore) ListAll(ctx context.Context) ([]*User, error) {
	users := []*User{}
	err := s.db.SelectContext(ctx, &users, `SELECT id, username, password, token FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetByID returns the user matching id, or ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT id, username, password, token FROM users WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByToken returns the user whose bearer token matches, or ErrNotFound.
func (s *UserStore) GetByToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT id, username, password, token FROM users WHERE token = ?`), token)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Insert stores a seed user with its given id. Users are never created
// through the API.
func (s *UserStore) Insert(ctx context.Context, u *User) error {
	return insertUser(ctx, s.db, u)
}

func insertUser(ctx context.Context, ex sqlx.ExtContext, u *User) error {
	_, err := ex.ExecContext(ctx, ex.Rebind(`
		INSERT INTO users (id, username, password, token) VALUES (?, ?, ?, ?)
	`), u.ID, u.Username, u.Password, u.Token)
	if isUniqueConstraintError(err) {
		return ErrDuplicateUser
	}
	return err
}

// Count returns the number of users.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
