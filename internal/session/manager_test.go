package session_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/joestump/devhub/internal/devhub"
	"github.com/joestump/devhub/internal/localstore"
	"github.com/joestump/devhub/internal/query"
	"github.com/joestump/devhub/internal/session"
)

// usersTransport serves GET /users from a fixed body and counts calls.
type usersTransport struct {
	body  string
	err   error
	calls atomic.Int32
}

func (u *usersTransport) Do(ctx context.Context, req query.Request) (*query.Response, error) {
	u.calls.Add(1)
	if u.err != nil {
		return nil, u.err
	}
	return &query.Response{Status: http.StatusOK, Header: http.Header{}, Body: []byte(u.body)}, nil
}

const users = `[
	{"id": 1, "username": "alice", "password": "correct", "token": "alice-token"},
	{"id": 2, "username": "bob", "password": "hunter2", "token": "bob-token"}
]`

// failingStore returns err from every call.
type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error { return f.err }
func (f failingStore) Delete(context.Context, string) error { return f.err }

func has(t *testing.T, s localstore.Store, key string) bool {
	t.Helper()
	_, ok, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get %s: %v", key, err)
	}
	return ok
}

func TestLogin_WrongPasswordFailsWithoutWriting(t *testing.T) {
	store := localstore.NewMemory()
	m := session.NewManager(store, session.NewUserListAuthenticator(&usersTransport{body: users}), false)

	err := m.Login(context.Background(), "alice", "wrong-password")
	var ae *session.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("Login err = %v, want AuthError", err)
	}

	st := m.State()
	if st.Status != session.Failed || st.Error == "" {
		t.Errorf("state = %+v, want failed with a message", st)
	}
	if m.Token() != "" {
		t.Errorf("token = %q, want empty", m.Token())
	}
	if has(t, store, localstore.KeyAuthToken) || has(t, store, localstore.KeyUser) {
		t.Error("store was written after a failed login")
	}
}

func TestLogin_SuccessPersistsTokenAndUserOnly(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	m := session.NewManager(store, session.NewUserListAuthenticator(&usersTransport{body: users}), false)

	if err := m.Login(ctx, "alice", "correct"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	st := m.State()
	if st.Status != session.SignedIn || st.User == nil || st.User.ID != 1 || st.User.Username != "alice" {
		t.Errorf("state = %+v, want signed in as alice", st)
	}
	if m.Token() != "alice-token" {
		t.Errorf("token = %q, want alice-token", m.Token())
	}

	tok, _, _ := store.Get(ctx, localstore.KeyAuthToken)
	if tok != "alice-token" {
		t.Errorf("stored token = %q, want alice-token", tok)
	}
	user, _, _ := store.Get(ctx, localstore.KeyUser)
	if strings.Contains(user, "correct") || strings.Contains(user, "password") {
		t.Errorf("stored user %s retains the password", user)
	}
}

func TestLogin_RetryFromFailed(t *testing.T) {
	m := session.NewManager(localstore.NewMemory(), session.NewUserListAuthenticator(&usersTransport{body: users}), false)
	ctx := context.Background()

	_ = m.Login(ctx, "bob", "nope")
	if m.State().Status != session.Failed {
		t.Fatalf("status = %s, want failed", m.State().Status)
	}
	if err := m.Login(ctx, "bob", "hunter2"); err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if st := m.State(); st.Status != session.SignedIn || st.Error != "" {
		t.Errorf("state = %+v, want signed in with no error", st)
	}
}

func TestLogin_TransportErrorFails(t *testing.T) {
	tr := &usersTransport{err: &query.TransportError{Method: "GET", Path: "/users", Status: http.StatusBadGateway}}
	m := session.NewManager(localstore.NewMemory(), session.NewUserListAuthenticator(tr), false)

	err := m.Login(context.Background(), "alice", "correct")
	var te *query.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Login err = %v, want TransportError", err)
	}
	if st := m.State(); st.Status != session.Failed || !strings.Contains(st.Error, "server") {
		t.Errorf("state = %+v, want failed with a server message", st)
	}
}

func TestLogin_EmptyCredentialsNeverReachAuthenticator(t *testing.T) {
	tr := &usersTransport{body: users}
	m := session.NewManager(localstore.NewMemory(), session.NewUserListAuthenticator(tr), false)

	err := m.Login(context.Background(), "", "")
	var ve *devhub.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 2 {
		t.Fatalf("Login err = %v, want ValidationError on both fields", err)
	}
	if tr.calls.Load() != 0 {
		t.Error("authenticator was called")
	}
	if m.State().Status != session.SignedOut {
		t.Errorf("status = %s, want signed_out", m.State().Status)
	}
}

func TestLogout_ThenFreshLoadIsSignedOut(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	m := session.NewManager(store, session.NewUserListAuthenticator(&usersTransport{body: users}), false)
	if err := m.Login(ctx, "alice", "correct"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	m.Logout(ctx)
	if m.State().Status != session.SignedOut || m.Token() != "" {
		t.Errorf("after logout state = %+v token = %q", m.State(), m.Token())
	}

	// A new process over the same store, with no network.
	offline := &usersTransport{err: errors.New("network unreachable")}
	fresh := session.NewManager(store, session.NewUserListAuthenticator(offline), false)
	if got := fresh.LoadFromStorage(ctx); got != session.SignedOut {
		t.Errorf("LoadFromStorage = %s, want signed_out", got)
	}
	if offline.calls.Load() != 0 {
		t.Error("LoadFromStorage used the network")
	}
}

func TestBootstrap_RestoresWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	_ = store.Set(ctx, localstore.KeyAuthToken, "bob-token")
	_ = store.Set(ctx, localstore.KeyUser, `{"id":2,"username":"bob"}`)

	offline := &usersTransport{err: errors.New("network unreachable")}
	m := session.NewManager(store, session.NewUserListAuthenticator(offline), false)
	m.Bootstrap(ctx)

	st := m.State()
	if st.Status != session.SignedIn || st.User.Username != "bob" || m.Token() != "bob-token" {
		t.Errorf("state = %+v token = %q, want signed in as bob", st, m.Token())
	}
	if offline.calls.Load() != 0 {
		t.Error("Bootstrap used the network")
	}
}

func TestBootstrap_IncompleteOrUnreadableIsSignedOut(t *testing.T) {
	ctx := context.Background()
	tokenOnly := localstore.NewMemory()
	_ = tokenOnly.Set(ctx, localstore.KeyAuthToken, "tok")
	corrupt := localstore.NewMemory()
	_ = corrupt.Set(ctx, localstore.KeyAuthToken, "tok")
	_ = corrupt.Set(ctx, localstore.KeyUser, "{not json")

	tests := []struct {
		name  string
		store localstore.Store
	}{
		{"empty", localstore.NewMemory()},
		{"token only", tokenOnly},
		{"corrupt user", corrupt},
		{"read error", failingStore{err: errors.New("disk gone")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := session.NewManager(tt.store, session.NewUserListAuthenticator(&usersTransport{}), false)
			m.Bootstrap(ctx)
			if st := m.State(); st.Status != session.SignedOut || st.Error != "" {
				t.Errorf("state = %+v, want signed_out", st)
			}
		})
	}
}

func TestSubscribe(t *testing.T) {
	m := session.NewManager(localstore.NewMemory(), session.NewUserListAuthenticator(&usersTransport{body: users}), false)

	var seen []session.Status
	var tokens []string
	unsubscribe := m.Subscribe(func(s session.State) {
		seen = append(seen, s.Status)
		tokens = append(tokens, m.Token())
	})

	_ = m.Login(context.Background(), "alice", "correct")
	if len(seen) != 2 || seen[0] != session.Authenticating || seen[1] != session.SignedIn {
		t.Errorf("transitions = %v, want [authenticating signed_in]", seen)
	}
	if tokens[1] != "alice-token" {
		t.Errorf("token seen on signed_in = %q, want alice-token", tokens[1])
	}

	unsubscribe()
	m.Logout(context.Background())
	if len(seen) != 2 {
		t.Errorf("notified after unsubscribe: %v", seen)
	}
}

func TestTheme(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		stored     string
		preferDark bool
		want       session.Theme
	}{
		{"nothing stored", "", false, session.Light},
		{"system prefers dark", "", true, session.Dark},
		{"stored wins over hint", "light", true, session.Light},
		{"stored dark", "dark", false, session.Dark},
		{"invalid stored value ignored", "blue", true, session.Dark},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := localstore.NewMemory()
			if tt.stored != "" {
				_ = store.Set(ctx, localstore.KeyTheme, tt.stored)
			}
			m := session.NewManager(store, nil, tt.preferDark)
			m.Bootstrap(ctx)
			if got := m.Theme(); got != tt.want {
				t.Errorf("Theme = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToggleTheme_Persists(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	m := session.NewManager(store, nil, false)
	m.Bootstrap(ctx)

	got, err := m.ToggleTheme(ctx)
	if err != nil || got != session.Dark {
		t.Fatalf("ToggleTheme = %q, %v; want dark", got, err)
	}
	if v, _, _ := store.Get(ctx, localstore.KeyTheme); v != "dark" {
		t.Errorf("stored theme = %q, want dark", v)
	}

	if err := m.SetTheme(ctx, "sepia"); err == nil {
		t.Error("SetTheme(sepia) succeeded, want error")
	}
	if m.Theme() != session.Dark {
		t.Errorf("Theme = %q after invalid set, want dark", m.Theme())
	}

	fresh := session.NewManager(store, nil, false)
	fresh.Bootstrap(ctx)
	if fresh.Theme() != session.Dark {
		t.Errorf("restored theme = %q, want dark", fresh.Theme())
	}
}
