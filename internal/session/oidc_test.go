package session_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joestump/devhub/internal/session"
)

const testClientID = "devhub-cli"

// newProvider starts a minimal OpenID provider that accepts alice/correct on
// the password grant and signs id_tokens with a throwaway RSA key.
func newProvider(t *testing.T, username string) *httptest.Server {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	b64 := base64.RawURLEncoding.EncodeToString

	var issuer string
	sign := func(claims map[string]any) string {
		header, _ := json.Marshal(map[string]string{"alg": "RS256", "kid": "test", "typ": "JWT"})
		payload, _ := json.Marshal(claims)
		input := b64(header) + "." + b64(payload)
		sum := sha256.Sum256([]byte(input))
		sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, sum[:])
		if err != nil {
			t.Errorf("sign: %v", err)
		}
		return input + "." + b64(sig)
	}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                                issuer,
			"authorization_endpoint":                issuer + "/auth",
			"token_endpoint":                        issuer + "/token",
			"jwks_uri":                              issuer + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "test",
			"use": "sig",
			"alg": "RS256",
			"n":   b64(key.N.Bytes()),
			"e":   b64(big.NewInt(int64(key.E)).Bytes()),
		}}})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "password" ||
			r.Form.Get("username") != "alice" || r.Form.Get("password") != "correct" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		now := time.Now()
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "provider-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token": sign(map[string]any{
				"iss":                issuer,
				"sub":                "user-1",
				"aud":                testClientID,
				"iat":                now.Unix(),
				"exp":                now.Add(time.Hour).Unix(),
				"preferred_username": username,
			}),
		})
	})

	srv := httptest.NewServer(mux)
	issuer = srv.URL
	t.Cleanup(srv.Close)
	return srv
}

func TestOIDCAuthenticator(t *testing.T) {
	ctx := context.Background()
	idp := newProvider(t, "alice")
	directory := &usersTransport{body: users}

	a, err := session.NewOIDCAuthenticator(ctx, idp.URL, testClientID, "secret", directory)
	if err != nil {
		t.Fatalf("NewOIDCAuthenticator: %v", err)
	}

	id, err := a.Authenticate(ctx, "alice", "correct")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.User.ID != 1 || id.User.Username != "alice" || id.Token != "alice-token" {
		t.Errorf("identity = %+v, want alice mapped to her DevHub token", id)
	}

	_, err = a.Authenticate(ctx, "alice", "wrong")
	var ae *session.AuthError
	if !errors.As(err, &ae) {
		t.Errorf("wrong password err = %v, want AuthError", err)
	}
}

func TestOIDCAuthenticator_UnknownDirectoryUser(t *testing.T) {
	ctx := context.Background()
	idp := newProvider(t, "mallory")

	a, err := session.NewOIDCAuthenticator(ctx, idp.URL, testClientID, "secret", &usersTransport{body: users})
	if err != nil {
		t.Fatalf("NewOIDCAuthenticator: %v", err)
	}
	_, err = a.Authenticate(ctx, "alice", "correct")
	var ae *session.AuthError
	if !errors.As(err, &ae) {
		t.Errorf("err = %v, want AuthError for an unmapped account", err)
	}
}

func TestOIDCAuthenticator_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := session.NewOIDCAuthenticator(context.Background(), srv.URL, testClientID, "", &usersTransport{}); err == nil {
		t.Error("NewOIDCAuthenticator succeeded against a server without discovery")
	}
}
