package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/joestump/devhub/internal/query"
)

// User is the resident record of the signed-in account. It never carries the
// password.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Identity is a successful authentication: who, and the bearer token to send.
type Identity struct {
	User  User
	Token string
}

// Authenticator checks credentials. A mismatch is reported as *AuthError;
// any other error is a transport or provider failure.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
}

// AuthError is a credential mismatch.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

var errInvalidCredentials = &AuthError{Message: "invalid username or password"}

// directoryUser is an entry of GET /users.
type directoryUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

func listUsers(ctx context.Context, t query.Transport, username string) ([]directoryUser, error) {
	req := query.Request{Method: http.MethodGet, Path: "/users"}
	if username != "" {
		req.Query = url.Values{"username": {username}}
	}
	resp, err := t.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return query.DecodeJSON[[]directoryUser](resp)
}

// UserListAuthenticator fetches the full user list and looks for an exact
// username and password match. It mirrors the mock backend and is not a
// real credential check.
type UserListAuthenticator struct {
	transport query.Transport
}

func NewUserListAuthenticator(t query.Transport) *UserListAuthenticator {
	return &UserListAuthenticator{transport: t}
}

func (a *UserListAuthenticator) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	users, err := listUsers(ctx, a.transport, "")
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	for _, u := range users {
		if u.Username == username && u.Password == password {
			if u.Token == "" {
				return nil, &AuthError{Message: fmt.Sprintf("account %q has no API token", username)}
			}
			return &Identity{User: User{ID: u.ID, Username: u.Username}, Token: u.Token}, nil
		}
	}
	return nil, errInvalidCredentials
}
