package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/n-kyan/microsoft-auth/internal/models"
)

// EnvCredentialSeed falls back to a token supplied through the environment when
// the wrapped store holds nothing. The seed is never written back; only a
// completed device flow persists a record.
type EnvCredentialSeed struct {
	inner       CredentialStore
	accessToken string
	expires     string
	logger      *zap.Logger
}

// NewEnvCredentialSeed wraps inner with the ACCESS_TOKEN / TOKEN_EXPIRES bootstrap.
func NewEnvCredentialSeed(inner CredentialStore, accessToken, expires string, logger *zap.Logger) *EnvCredentialSeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnvCredentialSeed{inner: inner, accessToken: accessToken, expires: expires, logger: logger}
}

// Load prefers the wrapped store.
func (s *EnvCredentialSeed) Load(ctx context.Context) *models.TokenRecord {
	if record := s.inner.Load(ctx); record != nil {
		return record
	}
	if s.accessToken == "" || s.expires == "" {
		return nil
	}
	expiresAt, err := models.ParseExpiry(s.expires)
	if err != nil {
		s.logger.Warn("ignoring TOKEN_EXPIRES", zap.Error(err))
		return nil
	}
	s.logger.Info("using bootstrap credentials from environment", zap.Time("expires_at", expiresAt))
	return &models.TokenRecord{AccessToken: s.accessToken, ExpiresAt: expiresAt}
}

// Save delegates to the wrapped store.
func (s *EnvCredentialSeed) Save(ctx context.Context, record models.TokenRecord) error {
	return s.inner.Save(ctx, record)
}
