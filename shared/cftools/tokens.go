// shared/cftools/tokens.go
package cftools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/shared/api"
)

const (
	tokenLifetime      = 24 * time.Hour
	tokenRefreshMargin = time.Hour
)

// Credentials identify the bot's application to the provider.
type Credentials struct {
	ApplicationID string
	Secret        string
}

type authRequest struct {
	ApplicationID string `json:"application_id"`
	Secret        string `json:"secret"`
}

type authResponse struct {
	Token string `json:"token"`
}

// TokenCache hands out a valid API token, registering a new one when the
// cached token is missing or close to expiry. Safe for concurrent use.
type TokenCache struct {
	api   *api.Client
	creds Credentials
	now   func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenCache(client *api.Client, creds Credentials) *TokenCache {
	return &TokenCache{api: client, creds: creds, now: time.Now}
}

// Token returns the cached token or fetches a fresh one. Concurrent callers
// wait on the same refresh.
func (tc *TokenCache) Token(ctx context.Context) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.token != "" && tc.now().Before(tc.expiresAt) {
		return tc.token, nil
	}

	var resp authResponse
	err := tc.api.Post(ctx, "/v1/auth/register", authRequest{
		ApplicationID: tc.creds.ApplicationID,
		Secret:        tc.creds.Secret,
	}, nil, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to register API token: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("failed to register API token: empty token in response")
	}

	tc.token = resp.Token
	tc.expiresAt = tc.now().Add(tokenLifetime - tokenRefreshMargin)
	return tc.token, nil
}

// Invalidate drops token if it is still the cached one.
func (tc *TokenCache) Invalidate(token string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.token == token {
		tc.token = ""
		tc.expiresAt = time.Time{}
	}
}
