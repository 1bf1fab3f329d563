package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/n-kyan/microsoft-auth/internal/adapter/oauth"
	"github.com/n-kyan/microsoft-auth/internal/models"
	appErrors "github.com/n-kyan/microsoft-auth/pkg/errors"
	"github.com/n-kyan/microsoft-auth/pkg/logger"
)

const upstreamIdentity = "identity"

type deviceAuthorizer interface {
	StartDeviceAuth(ctx context.Context) (*models.DeviceFlowSession, error)
	ExchangeDeviceCode(ctx context.Context, deviceCode string) (*models.ProviderToken, error)
}

type credentialStore interface {
	Load(ctx context.Context) *models.TokenRecord
	Save(ctx context.Context, record models.TokenRecord) error
}

type deviceSessionTracker interface {
	Save(ctx context.Context, session models.DeviceFlowSession) error
	Exists(ctx context.Context, deviceCode string) (bool, error)
	Delete(ctx context.Context, deviceCode string) error
}

// TokenService owns the process's single bearer credential: it runs the device
// flow, keeps the current record in memory and mirrors it to the credential store.
type TokenService struct {
	provider  deviceAuthorizer
	store     credentialStore
	sessions  deviceSessionTracker
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time

	// mu serialises completions (exchange, swap, persist); readers use record.
	mu     sync.Mutex
	record atomic.Pointer[models.TokenRecord]
}

// NewTokenService constructs a TokenService with an empty record. sessions may
// be nil, which disables device code tracking.
func NewTokenService(provider deviceAuthorizer, store credentialStore, sessions deviceSessionTracker, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TokenService{
		provider:  provider,
		store:     store,
		sessions:  sessions,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Restore loads the persisted record, if any. An unreadable store leaves the
// service unauthenticated.
func (s *TokenService) Restore(ctx context.Context) models.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.store.Load(ctx)
	if record == nil {
		s.logger.Info("no stored credentials, authentication required")
		return models.AuthStateUnauthenticated
	}
	s.record.Store(record)
	s.metrics.SetTokenExpiry(record.ExpiresAt)

	state := record.State(s.now())
	s.logger.Info("restored stored credentials", zap.String("state", string(state)), zap.Time("expires_at", record.ExpiresAt))
	return state
}

// InitializeAuth starts a device authorization. Nothing persistent changes.
func (s *TokenService) InitializeAuth(ctx context.Context) (*models.DeviceFlowSession, error) {
	start := time.Now()
	session, err := s.provider.StartDeviceAuth(ctx)
	if err != nil {
		s.metrics.ObserveUpstream(upstreamIdentity, 0, time.Since(start))
		s.metrics.RecordAuthEvent("initialize", "unavailable")
		s.logger.Error("device authorization failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrProviderUnavailable.Code, appErrors.ErrProviderUnavailable.Status, "failed to start device authorization")
	}
	s.metrics.ObserveUpstream(upstreamIdentity, http.StatusOK, time.Since(start))

	if s.sessions != nil {
		if err := s.sessions.Save(ctx, *session); err != nil {
			s.metrics.RecordAuthEvent("initialize", "error")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record device session")
		}
	}

	s.metrics.RecordAuthEvent("initialize", "success")
	s.logger.Info("device authorization started", zap.Int64("expires_in", session.ExpiresIn))
	return session, nil
}

// GetValidToken returns the current token only while it is unexpired.
func (s *TokenService) GetValidToken() (string, bool) {
	record := s.record.Load()
	if record == nil || !record.Valid(s.now()) {
		return "", false
	}
	return record.AccessToken, true
}

// Status reports the lifecycle state without revealing the token.
func (s *TokenService) Status() models.AuthStatus {
	record := s.record.Load()
	if record == nil {
		return models.AuthStatus{State: models.AuthStateUnauthenticated}
	}
	state := record.State(s.now())
	status := models.AuthStatus{
		Authenticated: state == models.AuthStateAuthenticated,
		State:         state,
	}
	if !record.ExpiresAt.IsZero() {
		expiresAt := record.ExpiresAt
		status.ExpiresAt = &expiresAt
	}
	return status
}

// CompleteAuth exchanges a device code and replaces the held record. A rejected
// exchange leaves the previous record in place. When the exchange succeeds but
// the store write fails, the new record is already in use and a persistence
// error is returned.
func (s *TokenService) CompleteAuth(ctx context.Context, req models.CompleteAuthRequest) (*models.TokenRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordAuthEvent("complete", "invalid")
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "device_code is required")
	}

	if s.sessions != nil {
		known, err := s.sessions.Exists(ctx, req.DeviceCode)
		if err != nil {
			s.metrics.RecordAuthEvent("complete", "error")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up device session")
		}
		if !known {
			s.metrics.RecordAuthEvent("complete", "rejected")
			return nil, appErrors.Clone(appErrors.ErrTokenExchangeFailed, "unknown or expired device code")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	token, err := s.provider.ExchangeDeviceCode(ctx, req.DeviceCode)
	if err != nil {
		var providerErr *oauth.ProviderError
		if errors.As(err, &providerErr) {
			s.metrics.ObserveUpstream(upstreamIdentity, providerErr.StatusCode, time.Since(start))
			s.metrics.RecordAuthEvent("complete", "rejected")
			s.logger.Info("device code exchange rejected", zap.String("error", providerErr.Code))
			return nil, appErrors.Clone(appErrors.ErrTokenExchangeFailed, providerErr.Message())
		}
		s.metrics.ObserveUpstream(upstreamIdentity, 0, time.Since(start))
		s.metrics.RecordAuthEvent("complete", "unavailable")
		s.logger.Error("device code exchange failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrProviderUnavailable.Code, appErrors.ErrProviderUnavailable.Status, "identity provider unavailable")
	}
	s.metrics.ObserveUpstream(upstreamIdentity, http.StatusOK, time.Since(start))

	record := &models.TokenRecord{
		AccessToken: token.AccessToken,
		ExpiresAt:   s.now().UTC().Add(time.Duration(token.ExpiresIn) * time.Second),
	}
	s.record.Store(record)
	s.metrics.SetTokenExpiry(record.ExpiresAt)

	if s.sessions != nil {
		if err := s.sessions.Delete(ctx, req.DeviceCode); err != nil {
			s.logger.Warn("failed to discard device session", zap.Error(err))
		}
	}

	if err := s.store.Save(ctx, *record); err != nil {
		s.metrics.RecordAuthEvent("complete", "persistence_error")
		s.logger.Error("credentials acquired but not persisted", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "token acquired but could not be persisted")
	}

	s.metrics.RecordAuthEvent("complete", "success")
	s.logger.Info("device flow completed",
		logger.Fingerprint("token_fingerprint", record.AccessToken),
		zap.Time("expires_at", record.ExpiresAt),
	)
	copied := *record
	return &copied, nil
}
