package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/joestump/devhub/internal/query"
)

// OIDCAuthenticator verifies credentials with an OpenID Connect provider
// using the resource owner password grant, then maps the verified username
// onto the DevHub user directory for the id and API token.
type OIDCAuthenticator struct {
	verifier     *gooidc.IDTokenVerifier
	oauth2Config oauth2.Config
	directory    query.Transport
}

// NewOIDCAuthenticator performs provider discovery for issuer.
func NewOIDCAuthenticator(ctx context.Context, issuer, clientID, clientSecret string, directory query.Transport) (*OIDCAuthenticator, error) {
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("OIDC provider discovery failed for %s: %w", issuer, err)
	}

	return &OIDCAuthenticator{
		verifier: provider.Verifier(&gooidc.Config{ClientID: clientID}),
		oauth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{gooidc.ScopeOpenID, "profile"},
		},
		directory: directory,
	}, nil
}

func (a *OIDCAuthenticator) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	token, err := a.oauth2Config.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil &&
			(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("token request: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("no id_token in token response")
	}
	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id_token verification: %w", err)
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode id_token claims: %w", err)
	}
	name := claims.PreferredUsername
	if name == "" {
		name = idToken.Subject
	}

	users, err := listUsers(ctx, a.directory, name)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	for _, u := range users {
		if u.Username == name && u.Token != "" {
			return &Identity{User: User{ID: u.ID, Username: u.Username}, Token: u.Token}, nil
		}
	}
	return nil, &AuthError{Message: fmt.Sprintf("no DevHub account for %q", name)}
}
