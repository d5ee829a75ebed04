package main

import (
	"context"
	"fmt"

	"github.com/joestump/devhub/internal/config"
	"github.com/joestump/devhub/internal/devhub"
	"github.com/joestump/devhub/internal/localstore"
	"github.com/joestump/devhub/internal/query"
	"github.com/joestump/devhub/internal/session"
)

// clientEnv is the wired client side: durable local state, the session and
// the data client sharing one transport.
type clientEnv struct {
	local   *localstore.SCSStore
	session *session.Manager
	data    *devhub.Client
}

func newClientEnv(ctx context.Context) (*clientEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	transport, err := query.NewHTTPTransport(cfg.Client.BaseURL, cfg.Client.Timeout)
	if err != nil {
		return nil, err
	}

	local, err := localstore.Open(ctx, cfg.Local.Driver, cfg.Local.DSN)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	var authn session.Authenticator
	switch cfg.Auth.Provider {
	case "oidc":
		authn, err = session.NewOIDCAuthenticator(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, transport)
		if err != nil {
			_ = local.Close()
			return nil, err
		}
	default:
		authn = session.NewUserListAuthenticator(transport)
	}

	mgr := session.NewManager(local, authn, cfg.PreferDark)
	mgr.Bootstrap(ctx)
	transport.SetTokenSource(mgr)

	return &clientEnv{
		local:   local,
		session: mgr,
		data:    devhub.NewClient(transport),
	}, nil
}

func (e *clientEnv) Close() error { return e.local.Close() }

// signedInUser returns the current user or an error asking to log in.
func (e *clientEnv) signedInUser() (*session.User, error) {
	st := e.session.State()
	if st.Status != session.SignedIn || st.User == nil {
		return nil, fmt.Errorf("not logged in: run `devhub login` first")
	}
	return st.User, nil
}

// withClient runs fn with a wired client environment.
func withClient(ctx context.Context, fn func(*clientEnv) error) error {
	env, err := newClientEnv(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()
	return fn(env)
}
