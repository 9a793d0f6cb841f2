package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/auth"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/ids"
)

const (
	issuer     = "carta-api"
	defaultTTL = 12 * time.Hour
)

var (
	// ErrInvalid covers tokens that were never issued, were revoked by
	// logout, or fail signature verification.
	ErrInvalid = errors.New("session: invalid token")
	// ErrExpired covers tokens whose lifetime has passed.
	ErrExpired = errors.New("session: expired token")
)

// Session is one issued login. A user may hold several concurrently.
type Session struct {
	ID        string
	Token     string
	User      auth.User
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	Tier string `json:"tier"`
	jwt.RegisteredClaims
}

// Manager issues, validates and revokes session tokens. Tokens are HS256
// JWTs carrying a session id; the in-memory store is the revocation source
// of truth, so a logged-out token never authorizes again even while its
// signature and expiry would still verify.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]Session

	directory *auth.Directory
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

// Option configures Manager behavior.
type Option func(*Manager)

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewManager constructs a Manager. The signing secret must be non-empty.
func NewManager(directory *auth.Directory, secret string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session: signing secret is not configured")
	}
	m := &Manager{
		sessions:  make(map[string]Session),
		directory: directory,
		secret:    []byte(secret),
		ttl:       defaultTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Login authenticates the caller and issues a fresh session. Normal-tier
// logins only need a non-empty username; professional-tier logins must match
// a registered record. Any mismatch yields auth.ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, username string, tier auth.AccountTier, credential string) (Session, error) {
	var (
		user auth.User
		err  error
	)
	switch tier {
	case auth.TierNormal:
		user, err = m.directory.ResolveNormal(username)
	case auth.TierProfessional:
		user, err = m.directory.ResolveProfessional(username, credential)
	default:
		err = auth.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	now := m.now().UTC()
	sess := Session{
		ID:        ids.New(),
		User:      user,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Tier: string(user.Tier),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			ID:        sess.ID,
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, err
	}
	sess.Token = signed

	m.mu.Lock()
	// Logins double as the store sweep: abandoned sessions whose tokens
	// never come back would otherwise accumulate for the process lifetime.
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

// Validate verifies the token and returns its user. The HMAC check runs on
// every call regardless of token state, so validation cost does not reveal
// whether a token ever existed.
func (m *Manager) Validate(ctx context.Context, token string) (auth.User, error) {
	cl, err := m.parse(token, true)
	if err != nil {
		return auth.User{}, err
	}

	m.mu.RLock()
	sess, ok := m.sessions[cl.ID]
	m.mu.RUnlock()
	if !ok {
		return auth.User{}, ErrInvalid
	}
	if m.now().After(sess.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, cl.ID)
		m.mu.Unlock()
		return auth.User{}, ErrExpired
	}
	return sess.User, nil
}

// Logout revokes the session behind the token. Invalidating an unknown,
// expired or already-revoked token is not an error.
func (m *Manager) Logout(ctx context.Context, token string) {
	cl, err := m.parse(token, false)
	if err != nil {
		return
	}
	m.mu.Lock()
	delete(m.sessions, cl.ID)
	m.mu.Unlock()
}

// Active reports the number of live sessions.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) parse(token string, validateClaims bool) (*claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalid
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	}
	if !validateClaims {
		// Logout only needs the session id; a stale expiry must not block
		// revocation.
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || strings.TrimSpace(cl.ID) == "" {
		return nil, ErrInvalid
	}
	return cl, nil
}
