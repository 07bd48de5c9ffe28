package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const issuer = "citizen-portal"

// Manager maps the signed session cookie of each browser to its MemoryStore.
type Manager struct {
	mu         sync.Mutex
	stores     map[string]*MemoryStore
	onExpire   []func(id string)
	cookieName string
	secret     []byte
	ttl        time.Duration
	logger     *zap.SugaredLogger
}

// NewManager creates a session manager signing cookies with secret.
func NewManager(cookieName string, secret []byte, ttl time.Duration, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		stores:     make(map[string]*MemoryStore),
		cookieName: cookieName,
		secret:     secret,
		ttl:        ttl,
		logger:     logger,
	}
}

// OnExpire registers fn to run after a session is swept.
func (m *Manager) OnExpire(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = append(m.onExpire, fn)
}

// Resolve returns the session for the request, starting a new one (and
// setting its cookie) when the request carries none or an unusable one.
// A live cookie past half its lifetime is re-issued so an active browser
// keeps its session.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (string, *MemoryStore) {
	now := time.Now()
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		if id, exp, err := m.parse(c.Value); err == nil {
			m.mu.Lock()
			store, ok := m.stores[id]
			m.mu.Unlock()
			if ok {
				store.touch(now)
				if exp.Sub(now) < m.ttl/2 {
					m.setCookie(w, r, id, now)
				}
				return id, store
			}
		}
	}

	id := uuid.NewString()
	store := NewMemoryStore()
	m.mu.Lock()
	m.stores[id] = store
	m.mu.Unlock()

	m.setCookie(w, r, id, now)
	return id, store
}

func (m *Manager) setCookie(w http.ResponseWriter, r *http.Request, id string, now time.Time) {
	token, err := m.sign(id, now)
	if err != nil {
		m.logger.Errorw("Failed to sign session cookie", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(m.ttl),
	})
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// Sweep drops sessions idle for longer than the TTL.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var expired []string
	for id, s := range m.stores {
		if now.Sub(s.idleSince()) > m.ttl {
			delete(m.stores, id)
			expired = append(expired, id)
		}
	}
	listeners := append([]func(string){}, m.onExpire...)
	m.mu.Unlock()

	for _, id := range expired {
		for _, fn := range listeners {
			fn(id)
		}
	}
	return len(expired)
}

// Start sweeps idle sessions every interval until ctx is done.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Session sweeper stopped")
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				m.logger.Infow("Expired idle sessions", "count", n, "live", m.Len())
			}
		}
	}
}

func (m *Manager) sign(id string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        id,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// parse returns the session id and expiry carried by a cookie value.
func (m *Manager) parse(tokenStr string) (string, time.Time, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parse session cookie: %w", err)
	}
	if !token.Valid || claims.ID == "" {
		return "", time.Time{}, errors.New("session cookie has no id")
	}
	return claims.ID, claims.ExpiresAt.Time, nil
}
