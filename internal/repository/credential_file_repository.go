package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/n-kyan/microsoft-auth/internal/models"
	"github.com/n-kyan/microsoft-auth/pkg/storage"
)

// FileCredentialRepository keeps the token record as a JSON document on local disk.
type FileCredentialRepository struct {
	storage  *storage.LocalStorage
	filename string
	logger   *zap.Logger
}

// NewFileCredentialRepository prepares the directory holding path.
func NewFileCredentialRepository(path string, logger *zap.Logger) (*FileCredentialRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("credential file path required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := storage.NewLocalStorage(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return &FileCredentialRepository{storage: store, filename: filepath.Base(path), logger: logger}, nil
}

// Load reads the persisted record.
func (r *FileCredentialRepository) Load(_ context.Context) *models.TokenRecord {
	path := r.storage.Path(r.filename)
	raw, err := r.storage.Read(r.filename)
	if err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			r.logger.Warn("credential file unreadable", zap.String("path", path), zap.Error(err))
		}
		return nil
	}

	var stored models.StoredToken
	if err := json.Unmarshal(raw, &stored); err != nil {
		r.logger.Warn("credential file malformed", zap.String("path", path), zap.Error(err))
		return nil
	}
	record, err := stored.Record()
	if err != nil {
		r.logger.Warn("credential file malformed", zap.String("path", path), zap.Error(err))
		return nil
	}
	return recordOrNil(record)
}

// Save replaces the document atomically.
func (r *FileCredentialRepository) Save(_ context.Context, record models.TokenRecord) error {
	payload, err := json.Marshal(models.NewStoredToken(record))
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := r.storage.WriteAtomic(r.filename, payload); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
