package shiprocket

import (
	"context"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// tokenTTL is how long the provider honors a bearer token.
const tokenTTL = 9 * 24 * time.Hour

// AuthEvents receives token lifecycle notifications. Implemented by the
// telemetry layer; a nil value disables reporting.
type AuthEvents interface {
	TokenRefreshed()
	TokenCacheHit()
}

// credential is the single cached bearer token. Mutated only by a successful
// re-authentication or ClearAuth.
type credential struct {
	token     string
	issuedAt  time.Time
	expiresAt time.Time
}

// TokenInfo describes the cached credential without touching the network.
type TokenInfo struct {
	HasToken bool       `json:"hasToken"`
	Expires  *time.Time `json:"expires,omitempty"`
	IsValid  bool       `json:"isValid"`
}

// Auth owns the cached credential and decides whether to reuse it or
// re-authenticate. One instance is shared by all domain operations.
type Auth struct {
	cfg    Config
	api    APIClient
	logger *otelzap.Logger

	mu    sync.Mutex
	cred  *credential
	group singleflight.Group
	now   func() time.Time
}

func newAuth(cfg Config, api APIClient, logger *otelzap.Logger) *Auth {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Auth{
		cfg:    cfg,
		api:    api,
		logger: logger,
		now:    now,
	}
}

// Token returns a valid bearer token, reusing the cached credential when it
// has not expired. Missing configuration fails before any network attempt.
// Concurrent callers share a single login via the singleflight group.
func (a *Auth) Token(ctx context.Context) (string, error) {
	if missing := a.cfg.missingCredentials(); len(missing) > 0 {
		return "", newConfigurationError(missing)
	}

	a.mu.Lock()
	if a.cred != nil && a.now().Before(a.cred.expiresAt) {
		token := a.cred.token
		a.mu.Unlock()
		if a.cfg.Events != nil {
			a.cfg.Events.TokenCacheHit()
		}
		return token, nil
	}
	a.mu.Unlock()

	v, err, _ := a.group.Do("login", func() (any, error) {
		return a.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh performs the login call and replaces the cached credential.
// A failed login leaves the previous credential untouched.
func (a *Auth) refresh(ctx context.Context) (string, error) {
	a.logger.Info("Authenticating with Shiprocket", zap.String("email", a.cfg.Email))

	resp, err := a.api.Login(ctx, &AuthRequest{
		Email:    a.cfg.Email,
		Password: a.cfg.Password,
	})
	if err != nil {
		a.logger.Error("Shiprocket authentication failed", zap.Error(err))
		return "", err
	}
	if resp.Token == "" {
		return "", newAuthenticationError("Authentication failed: empty token in response")
	}

	issued := a.now()
	a.mu.Lock()
	a.cred = &credential{
		token:     resp.Token,
		issuedAt:  issued,
		expiresAt: issued.Add(tokenTTL),
	}
	a.mu.Unlock()

	if a.cfg.Events != nil {
		a.cfg.Events.TokenRefreshed()
	}
	a.logger.Info("Shiprocket authentication successful",
		zap.Time("expires_at", issued.Add(tokenTTL)),
	)
	return resp.Token, nil
}

// ClearAuth drops the cached credential. Used on logout and in tests.
func (a *Auth) ClearAuth() {
	a.mu.Lock()
	a.cred = nil
	a.mu.Unlock()
	a.logger.Info("Shiprocket authentication cleared")
}

// IsAuthenticated reports whether a token exists and has not expired.
// Pure observer, no network call.
func (a *Auth) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cred != nil && a.now().Before(a.cred.expiresAt)
}

// TokenInfo reports the cached credential state. Pure observer.
func (a *Auth) TokenInfo() TokenInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	info := TokenInfo{}
	if a.cred != nil {
		expires := a.cred.expiresAt
		info.HasToken = true
		info.Expires = &expires
		info.IsValid = a.now().Before(expires)
	}
	return info
}
