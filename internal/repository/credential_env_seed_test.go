package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n-kyan/microsoft-auth/internal/models"
)

type stubCredentialStore struct {
	record  *models.TokenRecord
	saved   []models.TokenRecord
	saveErr error
}

func (s *stubCredentialStore) Load(context.Context) *models.TokenRecord { return s.record }

func (s *stubCredentialStore) Save(_ context.Context, record models.TokenRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, record)
	return nil
}

func TestEnvCredentialSeedPrefersStore(t *testing.T) {
	stored := &models.TokenRecord{AccessToken: "stored", ExpiresAt: time.Now().Add(time.Hour)}
	seed := NewEnvCredentialSeed(&stubCredentialStore{record: stored}, "env", "2030-01-01T00:00:00", nil)

	assert.Equal(t, "stored", seed.Load(context.Background()).AccessToken)
}

func TestEnvCredentialSeedFallback(t *testing.T) {
	inner := &stubCredentialStore{}
	seed := NewEnvCredentialSeed(inner, "env", "2030-01-01T00:00:00", nil)

	record := seed.Load(context.Background())
	require.NotNil(t, record)
	assert.Equal(t, "env", record.AccessToken)
	assert.Equal(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), record.ExpiresAt)
	assert.Empty(t, inner.saved, "seed must not be written back on load")

	require.NoError(t, seed.Save(context.Background(), *record))
	assert.Len(t, inner.saved, 1)
}

func TestEnvCredentialSeedIncomplete(t *testing.T) {
	assert.Nil(t, NewEnvCredentialSeed(&stubCredentialStore{}, "env", "", nil).Load(context.Background()))
	assert.Nil(t, NewEnvCredentialSeed(&stubCredentialStore{}, "", "2030-01-01T00:00:00", nil).Load(context.Background()))
	assert.Nil(t, NewEnvCredentialSeed(&stubCredentialStore{}, "env", "soon", nil).Load(context.Background()))
}

func TestEnvCredentialSeedSavePropagatesError(t *testing.T) {
	seed := NewEnvCredentialSeed(&stubCredentialStore{saveErr: errors.New("disk full")}, "", "", nil)
	assert.Error(t, seed.Save(context.Background(), models.TokenRecord{AccessToken: "T1"}))
}
