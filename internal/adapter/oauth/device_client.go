package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/n-kyan/microsoft-auth/internal/models"
	"github.com/n-kyan/microsoft-auth/pkg/config"
)

const (
	deviceCodeGrantType = "urn:ietf:params:oauth:grant-type:device_code"
	maxResponseBytes    = 1 << 20
	unknownError        = "Unknown error"
)

// ProviderError is a rejection reported by the token endpoint, e.g.
// authorization_pending, expired_token or a malformed success response.
type ProviderError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	return e.Message()
}

// Message is the provider's description, falling back to its error code.
func (e *ProviderError) Message() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Code != "":
		return e.Code
	default:
		return unknownError
	}
}

// DeviceClient talks to the identity provider's device authorization and token
// endpoints on behalf of a public client.
type DeviceClient struct {
	oauth       *oauth2.Config
	httpClient  *http.Client
	mode         string
	pollTimeout  time.Duration
	pollInterval time.Duration
	logger      *zap.Logger
}

// NewDeviceClient builds a client for the configured authority and scopes.
func NewDeviceClient(cfg config.OAuthConfig, httpClient *http.Client, logger *zap.Logger) *DeviceClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPClientTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceClient{
		oauth: &oauth2.Config{
			ClientID: cfg.ClientID,
			Scopes:   cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: cfg.DeviceAuthURL(),
				TokenURL:      cfg.TokenURL(),
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
		httpClient:   httpClient,
		mode:         cfg.CompleteMode,
		pollTimeout:  cfg.PollTimeout,
		pollInterval: cfg.PollInterval,
		logger:       logger,
	}
}

// StartDeviceAuth requests a new device code. A response without a device code,
// user code or verification URI is an error.
func (c *DeviceClient) StartDeviceAuth(ctx context.Context) (*models.DeviceFlowSession, error) {
	resp, err := c.oauth.DeviceAuth(c.withHTTPClient(ctx))
	if err != nil {
		return nil, fmt.Errorf("device authorization: %w", err)
	}
	if resp.DeviceCode == "" || resp.UserCode == "" || resp.VerificationURI == "" {
		return nil, fmt.Errorf("device authorization: incomplete response from provider")
	}

	session := &models.DeviceFlowSession{
		DeviceCode:      resp.DeviceCode,
		UserCode:        resp.UserCode,
		VerificationURI: resp.VerificationURI,
		Interval:        resp.Interval,
		ExpiresAt:       resp.Expiry,
	}
	if !resp.Expiry.IsZero() {
		session.ExpiresIn = int64(time.Until(resp.Expiry).Round(time.Second) / time.Second)
	}
	return session, nil
}

// ExchangeDeviceCode trades a device code for an access token. In single mode
// the token endpoint is asked exactly once; in poll mode the client keeps
// asking at the provider's interval until approval or the poll timeout.
// Rejections are returned as *ProviderError; anything else is a transport failure.
func (c *DeviceClient) ExchangeDeviceCode(ctx context.Context, deviceCode string) (*models.ProviderToken, error) {
	if c.mode == config.CompleteModePoll {
		return c.pollDeviceCode(ctx, deviceCode)
	}
	return c.exchangeOnce(ctx, deviceCode)
}

type tokenResponse struct {
	AccessToken      string      `json:"access_token"`
	TokenType        string      `json:"token_type"`
	Scope            string      `json:"scope"`
	ExpiresIn        json.Number `json:"expires_in"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

func (c *DeviceClient) exchangeOnce(ctx context.Context, deviceCode string) (*models.ProviderToken, error) {
	form := url.Values{}
	form.Set("grant_type", deviceCodeGrantType)
	form.Set("client_id", c.oauth.ClientID)
	form.Set("device_code", deviceCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
		}
		return nil, &ProviderError{StatusCode: resp.StatusCode}
	}

	if payload.Error != "" || payload.AccessToken == "" {
		c.logger.Debug("device code exchange rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("error", payload.Error),
		)
		return nil, &ProviderError{StatusCode: resp.StatusCode, Code: payload.Error, Description: payload.ErrorDescription}
	}

	expiresIn, err := payload.ExpiresIn.Int64()
	if err != nil || expiresIn <= 0 {
		return nil, missingExpiry(resp.StatusCode)
	}

	return &models.ProviderToken{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		Scope:       payload.Scope,
		ExpiresIn:   expiresIn,
	}, nil
}

func (c *DeviceClient) pollDeviceCode(ctx context.Context, deviceCode string) (*models.ProviderToken, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	interval := int64(c.pollInterval / time.Second)
	if interval < 1 {
		interval = 1
	}
	tok, err := c.oauth.DeviceAccessToken(c.withHTTPClient(pollCtx), &oauth2.DeviceAuthResponse{
		DeviceCode: deviceCode,
		Interval:   interval,
	})
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		switch {
		case errors.As(err, &retrieveErr):
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, &ProviderError{StatusCode: status, Code: retrieveErr.ErrorCode, Description: retrieveErr.ErrorDescription}
		case ctx.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded):
			return nil, &ProviderError{Code: "authorization_pending", Description: "device code was not approved before the poll timeout"}
		default:
			return nil, fmt.Errorf("poll token endpoint: %w", err)
		}
	}

	if tok.ExpiresIn <= 0 {
		return nil, missingExpiry(http.StatusOK)
	}
	return &models.ProviderToken{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
	}, nil
}

func (c *DeviceClient) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func missingExpiry(status int) *ProviderError {
	return &ProviderError{StatusCode: status, Code: "invalid_response", Description: "token response did not include expires_in"}
}
