package models

import (
	"fmt"
	"strings"
	"time"
)

// AuthState describes the token lifecycle state as seen at a given instant.
type AuthState string

const (
	AuthStateUnauthenticated AuthState = "unauthenticated"
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateExpired         AuthState = "expired"
)

// TokenRecord is the single bearer credential held by the service. Both fields
// are replaced together; an empty AccessToken or zero ExpiresAt means absent.
type TokenRecord struct {
	AccessToken string
	ExpiresAt   time.Time
}

// IsZero reports whether neither field is set.
func (r TokenRecord) IsZero() bool {
	return r.AccessToken == "" && r.ExpiresAt.IsZero()
}

// Valid reports whether the record can be used at now. There is no grace period.
func (r TokenRecord) Valid(now time.Time) bool {
	return r.AccessToken != "" && !r.ExpiresAt.IsZero() && now.Before(r.ExpiresAt)
}

// State classifies the record at now.
func (r TokenRecord) State(now time.Time) AuthState {
	switch {
	case r.AccessToken == "" || r.ExpiresAt.IsZero():
		return AuthStateUnauthenticated
	case r.Valid(now):
		return AuthStateAuthenticated
	default:
		return AuthStateExpired
	}
}

// StoredToken is the persisted layout shared by every credential backend:
// {"access_token": string|null, "expires": ISO-8601|null}.
type StoredToken struct {
	AccessToken *string `json:"access_token" db:"access_token"`
	Expires     *string `json:"expires" db:"expires"`
}

// NewStoredToken converts a record into its persisted form.
func NewStoredToken(r TokenRecord) StoredToken {
	var stored StoredToken
	if r.AccessToken != "" {
		token := r.AccessToken
		stored.AccessToken = &token
	}
	if !r.ExpiresAt.IsZero() {
		expires := r.ExpiresAt.UTC().Format(time.RFC3339Nano)
		stored.Expires = &expires
	}
	return stored
}

// Record converts the persisted form back into a TokenRecord.
func (s StoredToken) Record() (TokenRecord, error) {
	var record TokenRecord
	if s.AccessToken != nil {
		record.AccessToken = *s.AccessToken
	}
	if s.Expires != nil && strings.TrimSpace(*s.Expires) != "" {
		expires, err := ParseExpiry(*s.Expires)
		if err != nil {
			return TokenRecord{}, err
		}
		record.ExpiresAt = expires
	}
	return record, nil
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseExpiry accepts RFC 3339 timestamps and offset-less ISO-8601 timestamps,
// which are read as UTC.
func ParseExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised expiry timestamp %q", raw)
}
