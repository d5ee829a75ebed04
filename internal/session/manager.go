// Package session owns the client's authentication state machine and theme
// preference, both persisted in a localstore.Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/joestump/devhub/internal/devhub"
	"github.com/joestump/devhub/internal/localstore"
	"github.com/joestump/devhub/internal/metrics"
	"github.com/joestump/devhub/internal/query"
)

// Status is the authentication state.
type Status string

const (
	SignedOut      Status = "signed_out"
	Authenticating Status = "authenticating"
	SignedIn       Status = "signed_in"
	Failed         Status = "failed"
)

// Theme is the UI colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, bool) {
	switch t := Theme(s); t {
	case Light, Dark:
		return t, true
	}
	return "", false
}

// State is a snapshot handed to subscribers. User is set only when
// signed in; Error only when Failed.
type State struct {
	Status Status
	User   *User
	Error  string
	Theme  Theme
}

// Manager is the session state machine. It is safe for concurrent use.
type Manager struct {
	store      localstore.Store
	auth       Authenticator
	preferDark bool

	mu      sync.Mutex
	state   State
	token   string
	subs    map[int]func(State)
	nextSub int
}

// NewManager returns a signed-out manager using the light theme until
// Bootstrap reads the persisted state. preferDark is the system hint used
// when no theme has been saved.
func NewManager(store localstore.Store, auth Authenticator, preferDark bool) *Manager {
	return &Manager{
		store:      store,
		auth:       auth,
		preferDark: preferDark,
		state:      State{Status: SignedOut, Theme: Light},
		subs:       make(map[int]func(State)),
	}
}

// Bootstrap reads the theme and the persisted session once at startup.
// It never contacts the network and never fails.
func (m *Manager) Bootstrap(ctx context.Context) {
	theme := Light
	if m.preferDark {
		theme = Dark
	}
	raw, ok, err := m.store.Get(ctx, localstore.KeyTheme)
	if err != nil {
		log.Printf("session: read theme: %v", err)
	} else if ok {
		if t, valid := ParseTheme(raw); valid {
			theme = t
		} else {
			log.Printf("session: ignoring stored theme %q", raw)
		}
	}
	m.update(func(s *State) { s.Theme = theme })

	m.LoadFromStorage(ctx)
}

// LoadFromStorage restores the session from the store: signed in when both
// a token and a user record are present, signed out otherwise or when the
// store cannot be read.
func (m *Manager) LoadFromStorage(ctx context.Context) Status {
	token, user, err := m.readStored(ctx)
	if err != nil {
		log.Printf("session: load: %v", err)
	}
	if err != nil || token == "" || user == nil {
		m.transition(SignedOut, "", nil, "")
		return SignedOut
	}
	m.transition(SignedIn, token, user, "")
	return SignedIn
}

func (m *Manager) readStored(ctx context.Context) (string, *User, error) {
	token, ok, err := m.store.Get(ctx, localstore.KeyAuthToken)
	if err != nil || !ok {
		return "", nil, err
	}
	raw, ok, err := m.store.Get(ctx, localstore.KeyUser)
	if err != nil || !ok {
		return "", nil, err
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return "", nil, err
	}
	if u.Username == "" {
		return "", nil, errors.New("stored user has no username")
	}
	return token, &u, nil
}

// Login checks the credentials and, on success, persists the token and user
// and signs in. Empty credentials return a *devhub.ValidationError without
// changing state. Any other failure leaves the manager Failed with a
// readable message, leaves the store untouched, and is returned.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return &devhub.ValidationError{Fields: fields}
	}

	m.transition(Authenticating, "", nil, "")

	id, err := m.auth.Authenticate(ctx, username, password)
	if err != nil {
		m.transition(Failed, "", nil, failureMessage(err))
		return err
	}

	if err := m.persist(ctx, id); err != nil {
		m.transition(Failed, "", nil, "could not save session")
		return err
	}
	m.transition(SignedIn, id.Token, &id.User, "")
	return nil
}

func (m *Manager) persist(ctx context.Context, id *Identity) error {
	b, err := json.Marshal(id.User)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, localstore.KeyAuthToken, id.Token); err != nil {
		return err
	}
	if err := m.store.Set(ctx, localstore.KeyUser, string(b)); err != nil {
		_ = m.store.Delete(ctx, localstore.KeyAuthToken)
		return err
	}
	return nil
}

func failureMessage(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var te *query.TransportError
	if errors.As(err, &te) {
		return "could not reach the server, please try again"
	}
	return "sign in failed, please try again"
}

// Logout clears the stored token and user, then signs out. Store errors are
// logged; the transition always happens.
func (m *Manager) Logout(ctx context.Context) {
	for _, key := range []string{localstore.KeyAuthToken, localstore.KeyUser} {
		if err := m.store.Delete(ctx, key); err != nil {
			log.Printf("session: logout: %v", err)
		}
	}
	m.transition(SignedOut, "", nil, "")
}

// Token returns the bearer token while signed in. It satisfies
// query.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Theme returns the current theme.
func (m *Manager) Theme() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Theme
}

// SetTheme switches and persists the theme. The in-memory theme changes
// even when persisting fails.
func (m *Manager) SetTheme(ctx context.Context, t Theme) error {
	if _, ok := ParseTheme(string(t)); !ok {
		return &devhub.ValidationError{Fields: map[string]string{"theme": "theme must be light or dark"}}
	}
	m.update(func(s *State) { s.Theme = t })
	return m.store.Set(ctx, localstore.KeyTheme, string(t))
}

// ToggleTheme flips between light and dark and returns the new theme.
func (m *Manager) ToggleTheme(ctx context.Context) (Theme, error) {
	next := Dark
	if m.Theme() == Dark {
		next = Light
	}
	return next, m.SetTheme(ctx, next)
}

// Subscribe registers fn to receive every new state. The returned func
// unregisters it.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) transition(status Status, token string, user *User, msg string) {
	m.update(func(s *State) {
		s.Status = status
		s.Error = msg
		s.User = nil
		if user != nil {
			u := *user
			s.User = &u
		}
		m.token = token
	})
	metrics.SessionTransitionsTotal.WithLabelValues(string(status)).Inc()
}

// update applies fn under the lock and notifies subscribers outside it.
func (m *Manager) update(fn func(*State)) {
	m.mu.Lock()
	fn(&m.state)
	snap := m.snapshot()
	subs := make([]func(State), 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func (m *Manager) snapshot() State {
	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
