package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"evento-companion/internal/models"
	"evento-companion/internal/storage"
)

var (
	// ErrNoSession means no token is stored locally.
	ErrNoSession = errors.New("no active session")
	// ErrSessionExpired means the stored token expired or was rejected by the backend.
	ErrSessionExpired = errors.New("session expired")
)

// Claims is the subset of the token payload the client relies on.
type Claims struct {
	UserID models.ID `json:"id"`
	Role   string    `json:"tipo"`
	jwt.RegisteredClaims
}

// Manager is the single authentication guard of the client. It owns the
// token and the cached profile in local storage.
type Manager struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewManager constructs a Manager.
func NewManager(store storage.Store, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger, now: time.Now}
}

// Login stores the token obtained from the backend and the cached profile.
func (m *Manager) Login(ctx context.Context, token string, profile json.RawMessage) error {
	if _, err := parseClaims(token); err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if err := m.store.Set(ctx, storage.KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if len(profile) > 0 {
		if err := m.store.Set(ctx, storage.KeyProfile, profile); err != nil {
			return fmt.Errorf("store profile: %w", err)
		}
	}
	return nil
}

// Token returns the stored bearer token, invalidating it when expired.
func (m *Manager) Token(ctx context.Context) (string, error) {
	raw, err := m.store.Get(ctx, storage.KeyToken)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && len(raw) == 0) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}

	token := string(raw)
	claims, err := parseClaims(token)
	if err != nil {
		m.logger.Warn("stored token is unreadable", zap.Error(err))
		_ = m.Invalidate(ctx)
		return "", ErrSessionExpired
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(m.now()) {
		_ = m.Invalidate(ctx)
		return "", ErrSessionExpired
	}
	return token, nil
}

// Claims returns the identity carried by the current token.
func (m *Manager) Claims(ctx context.Context) (*Claims, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}
	return parseClaims(token)
}

// Profile returns the cached profile, or nil when none was stored.
func (m *Manager) Profile(ctx context.Context) (json.RawMessage, error) {
	raw, err := m.store.Get(ctx, storage.KeyProfile)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return raw, err
}

// SaveProfile replaces the cached profile.
func (m *Manager) SaveProfile(ctx context.Context, profile json.RawMessage) error {
	return m.store.Set(ctx, storage.KeyProfile, profile)
}

// Invalidate clears the session state. The event draft is left in place.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.logger.Info("session invalidated")
	return m.store.Delete(ctx, storage.KeyToken, storage.KeyProfile)
}

// Check inspects an error returned by a backend call and clears the session
// when it is a session error.
func (m *Manager) Check(ctx context.Context, err error) error {
	if errors.Is(err, ErrSessionExpired) {
		if invErr := m.Invalidate(ctx); invErr != nil {
			m.logger.Error("failed to clear session", zap.Error(invErr))
		}
	}
	return err
}

// parseClaims decodes the payload without verifying the signature; the
// backend remains the authority on validity.
func parseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
