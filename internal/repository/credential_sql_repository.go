package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/n-kyan/microsoft-auth/internal/models"
)

const credentialRowID = 1

// SQLCredentialRepository keeps the token record as one row of token_credentials.
// It works against PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
type SQLCredentialRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLCredentialRepository constructs the repository.
func NewSQLCredentialRepository(db *sqlx.DB, logger *zap.Logger) *SQLCredentialRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLCredentialRepository{db: db, logger: logger}
}

// EnsureSchema creates the credentials table when missing.
func (r *SQLCredentialRepository) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS token_credentials (
	id INTEGER PRIMARY KEY,
	access_token TEXT NULL,
	expires TEXT NULL,
	updated_at TEXT NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create token_credentials: %w", err)
	}
	return nil
}

// Load reads the single credentials row.
func (r *SQLCredentialRepository) Load(ctx context.Context) *models.TokenRecord {
	query := r.db.Rebind(`SELECT access_token, expires FROM token_credentials WHERE id = ?`)
	var stored models.StoredToken
	if err := r.db.GetContext(ctx, &stored, query, credentialRowID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("credential row unreadable", zap.Error(err))
		}
		return nil
	}
	record, err := stored.Record()
	if err != nil {
		r.logger.Warn("credential row malformed", zap.Error(err))
		return nil
	}
	return recordOrNil(record)
}

// Save upserts the credentials row.
func (r *SQLCredentialRepository) Save(ctx context.Context, record models.TokenRecord) error {
	query := r.db.Rebind(`INSERT INTO token_credentials (id, access_token, expires, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (id)
DO UPDATE SET access_token = EXCLUDED.access_token, expires = EXCLUDED.expires, updated_at = EXCLUDED.updated_at`)
	stored := models.NewStoredToken(record)
	updatedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := r.db.ExecContext(ctx, query, credentialRowID, stored.AccessToken, stored.Expires, updatedAt); err != nil {
		return fmt.Errorf("upsert credentials: %w", err)
	}
	return nil
}
