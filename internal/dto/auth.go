package dto

import "time"

// InitializeAuthResponse is what a caller needs to let the user approve the device.
type InitializeAuthResponse struct {
	VerificationURI string `json:"verification_uri"`
	UserCode        string `json:"user_code"`
	DeviceCode      string `json:"device_code"`
	ExpiresIn       int64  `json:"expires_in"`
}

// CompleteAuthRequest is the JSON body accepted by /auth/complete.
type CompleteAuthRequest struct {
	DeviceCode string `json:"device_code"`
}

// CompleteAuthResponse confirms a completed device flow. The token is never returned.
type CompleteAuthResponse struct {
	Status string `json:"status"`
}

// AuthStatusResponse reports the token lifecycle state.
type AuthStatusResponse struct {
	Authenticated bool       `json:"authenticated"`
	State         string     `json:"state"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}
