package models

import "time"

// DeviceFlowSession is what the identity provider returns when a device
// authorization starts. Only DeviceCode is needed to finish the flow.
type DeviceFlowSession struct {
	DeviceCode      string    `json:"device_code"`
	UserCode        string    `json:"user_code"`
	VerificationURI string    `json:"verification_uri"`
	ExpiresIn       int64     `json:"expires_in"`
	Interval        int64     `json:"interval,omitempty"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// CompleteAuthRequest carries the device code to exchange.
type CompleteAuthRequest struct {
	DeviceCode string `json:"device_code" form:"device_code" validate:"required,max=4096"`
}

// ProviderToken is the token endpoint's successful answer.
type ProviderToken struct {
	AccessToken string
	TokenType   string
	Scope       string
	ExpiresIn   int64
}

// AuthStatus summarises the token state without exposing the token.
type AuthStatus struct {
	Authenticated bool       `json:"authenticated"`
	State         AuthState  `json:"state"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}
