package bitable

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopops/revsync/internal/domain/integration"
)

const (
	tenantTokenPath = "/auth/v3/tenant_access_token/internal"
	// tokenRefreshMargin renews the token this long before it expires
	tokenRefreshMargin = 5 * time.Minute
)

// TokenProvider exchanges app credentials for a tenant access token and
// caches it until shortly before expiry.
type TokenProvider struct {
	cfg       *Config
	transport *transport
	now       func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenProvider creates a token provider for the given configuration
func NewTokenProvider(cfg *Config) (*TokenProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newTokenProvider(cfg, newTransport(cfg)), nil
}

func newTokenProvider(cfg *Config, t *transport) *TokenProvider {
	return &TokenProvider{
		cfg:       cfg,
		transport: t,
		now:       time.Now,
	}
}

// Token returns a valid tenant access token, fetching a new one when needed
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.expiresAt) {
		return p.token, nil
	}

	var resp TenantTokenResponse
	req := TenantTokenRequest{AppID: p.cfg.AppID, AppSecret: p.cfg.AppSecret}
	if err := p.transport.do(ctx, http.MethodPost, tenantTokenPath, nil, "", req, &resp); err != nil {
		return "", fmt.Errorf("bitable: tenant token exchange failed: %w", err)
	}
	if resp.TenantAccessToken == "" {
		return "", fmt.Errorf("%w: empty tenant access token", integration.ErrPlatformAuthFailed)
	}

	lifetime := time.Duration(resp.Expire) * time.Second
	if lifetime > tokenRefreshMargin {
		lifetime -= tokenRefreshMargin
	}
	p.token = resp.TenantAccessToken
	p.expiresAt = p.now().Add(lifetime)
	return p.token, nil
}

// Invalidate drops the cached token so the next call fetches a new one
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiresAt = time.Time{}
}
