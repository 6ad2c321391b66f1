package notify

import (
	"context"
	"errors"
)

// Identity represents an authenticated listener.
type Identity struct {
	// Subject is the authenticated user or service ID.
	Subject string `json:"subject"`

	// Scopes defines what operations are permitted, e.g. "queue:read",
	// "subscribe" or the wildcard "*".
	Scopes []string `json:"scopes,omitempty"`
}

// HasScope reports whether the identity holds scope. "*" grants everything.
func (i *Identity) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == ScopeAll || s == scope {
			return true
		}
	}
	return false
}

// Authenticator validates credentials and returns an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// ErrUnauthorized indicates authentication failure.
var ErrUnauthorized = errors.New("notify: unauthorized")

// ── API key authenticator ───────────────────────────

// APIKeyEntry maps a token to an identity.
type APIKeyEntry struct {
	Token    string
	Identity Identity
}

// APIKeyAuthenticator validates tokens against a static list.
type APIKeyAuthenticator struct {
	keys map[string]*Identity
}

// NewAPIKeyAuthenticator creates an API key authenticator.
func NewAPIKeyAuthenticator(entries ...APIKeyEntry) *APIKeyAuthenticator {
	keys := make(map[string]*Identity, len(entries))
	for _, e := range entries {
		ident := e.Identity
		keys[e.Token] = &ident
	}
	return &APIKeyAuthenticator{keys: keys}
}

func (a *APIKeyAuthenticator) Authenticate(_ context.Context, token string) (*Identity, error) {
	ident, ok := a.keys[token]
	if !ok {
		return nil, ErrUnauthorized
	}
	return ident, nil
}

// ── No-op authenticator ─────────────────────────────

// NoopAuthenticator accepts every token with a wildcard identity.
// Development only.
type NoopAuthenticator struct{}

func (a *NoopAuthenticator) Authenticate(_ context.Context, _ string) (*Identity, error) {
	return &Identity{
		Subject: "anonymous",
		Scopes:  []string{ScopeAll},
	}, nil
}

// ── Composite authenticator ─────────────────────────

// CompositeAuthenticator tries authenticators in order; the first success wins.
type CompositeAuthenticator struct {
	authenticators []Authenticator
}

// NewCompositeAuthenticator chains authenticators.
func NewCompositeAuthenticator(auths ...Authenticator) *CompositeAuthenticator {
	return &CompositeAuthenticator{authenticators: auths}
}

func (c *CompositeAuthenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	for _, auth := range c.authenticators {
		ident, err := auth.Authenticate(ctx, token)
		if err == nil {
			return ident, nil
		}
	}
	return nil, ErrUnauthorized
}

// ── Scopes ──────────────────────────────────────────

const (
	ScopeQueueRead    = "queue:read"
	ScopeQueueWrite   = "queue:write"
	ScopeNetworkRead  = "network:read"
	ScopeNetworkWrite = "network:write"
	ScopeSubscribe    = "subscribe"
	ScopeStatsRead    = "stats:read"
	ScopeAdmin        = "admin"
	ScopeAll          = "*"
)

// RequiredScope returns the scope a method needs. Unknown methods need admin.
func RequiredScope(method string) string {
	switch method {
	case MethodAuth:
		return ""
	case MethodSubscribe, MethodUnsubscribe:
		return ScopeSubscribe
	case MethodQueueStatus:
		return ScopeQueueRead
	case MethodQueueClear, MethodQueueResume:
		return ScopeQueueWrite
	case MethodNetworkStatus:
		return ScopeNetworkRead
	case MethodNetworkSet:
		return ScopeNetworkWrite
	case MethodStats:
		return ScopeStatsRead
	default:
		return ScopeAdmin
	}
}
