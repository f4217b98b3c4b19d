// Package oidc accepts ID tokens from an external Keycloak realm next to the
// locally issued access tokens.
package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/docuforge/docuforge/pkg/middleware"
)

var ErrNoSubject = errors.New("oidc token has no subject")

// Verifier checks Keycloak tokens and exposes their claims under the names
// the rest of the service reads (sub, email, name).
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

// NewVerifier discovers the realm at issuer and verifies tokens issued to clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&gooidc.Config{ClientID: clientID})}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return normalize(idToken)
}

type keycloakClaims struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

type claims struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Issuer  string `json:"iss"`
	Expiry  int64  `json:"exp"`
}

// token carries already-normalized claims as JSON.
type token []byte

func (t token) Claims(v interface{}) error { return json.Unmarshal(t, v) }

func normalize(idToken *gooidc.IDToken) (middleware.Token, error) {
	var kc keycloakClaims
	if err := idToken.Claims(&kc); err != nil {
		return nil, err
	}
	return mapClaims(kc, idToken.Issuer, idToken.Expiry)
}

func mapClaims(kc keycloakClaims, issuer string, exp time.Time) (middleware.Token, error) {
	if kc.Subject == "" {
		return nil, ErrNoSubject
	}
	c := claims{Subject: kc.Subject, Email: kc.Email, Name: kc.Name, Issuer: issuer, Expiry: exp.Unix()}
	if c.Name == "" {
		c.Name = kc.PreferredUsername
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return token(b), nil
}
