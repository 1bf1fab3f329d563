package repository

import (
	"context"

	"github.com/n-kyan/microsoft-auth/internal/models"
)

// CredentialStore is the durable home of the single token record. Load never
// fails: anything it cannot read is reported as no record.
type CredentialStore interface {
	Load(ctx context.Context) *models.TokenRecord
	Save(ctx context.Context, record models.TokenRecord) error
}

func recordOrNil(record models.TokenRecord) *models.TokenRecord {
	if record.IsZero() {
		return nil
	}
	return &record
}

// DeviceSessionStore tracks device codes issued by this process so unknown codes
// can be refused before reaching the provider.
type DeviceSessionStore interface {
	Save(ctx context.Context, session models.DeviceFlowSession) error
	Exists(ctx context.Context, deviceCode string) (bool, error)
	Delete(ctx context.Context, deviceCode string) error
}
