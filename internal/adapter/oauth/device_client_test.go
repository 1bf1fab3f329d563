package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n-kyan/microsoft-auth/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*config.OAuthConfig)) *DeviceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.OAuthConfig{
		ClientID:          "client-123",
		Authority:         srv.URL + "/consumers",
		Scopes:            []string{"Calendars.Read"},
		CompleteMode:      config.CompleteModeSingle,
		PollTimeout:       5 * time.Second,
		PollInterval:      time.Second,
		HTTPClientTimeout: 5 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewDeviceClient(cfg, srv.Client(), nil)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, body)
}

func TestStartDeviceAuth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/consumers/oauth2/v2.0/devicecode", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client-123", r.PostForm.Get("client_id"))
		assert.Equal(t, "Calendars.Read", r.PostForm.Get("scope"))
		writeJSON(w, http.StatusOK, `{
			"device_code": "dc-1",
			"user_code": "ABCD-EFGH",
			"verification_uri": "https://microsoft.com/devicelogin",
			"expires_in": 900,
			"interval": 5,
			"message": "To sign in, use a web browser"
		}`)
	}, nil)

	session, err := client.StartDeviceAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dc-1", session.DeviceCode)
	assert.Equal(t, "ABCD-EFGH", session.UserCode)
	assert.Equal(t, "https://microsoft.com/devicelogin", session.VerificationURI)
	assert.InDelta(t, 900, session.ExpiresIn, 1)
	assert.Equal(t, int64(5), session.Interval)
	assert.WithinDuration(t, time.Now().Add(900*time.Second), session.ExpiresAt, 5*time.Second)
}

func TestStartDeviceAuthIncompleteResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"device_code":"dc-1","verification_uri":"https://microsoft.com/devicelogin","expires_in":900}`)
	}, nil)

	_, err := client.StartDeviceAuth(context.Background())
	require.Error(t, err)
}

func TestStartDeviceAuthProviderRejects(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_client","error_description":"unknown client"}`)
	}, nil)

	_, err := client.StartDeviceAuth(context.Background())
	require.Error(t, err)
}

func TestExchangeDeviceCodeSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/consumers/oauth2/v2.0/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, deviceCodeGrantType, r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-123", r.PostForm.Get("client_id"))
		assert.Equal(t, "dc-1", r.PostForm.Get("device_code"))
		writeJSON(w, http.StatusOK, `{"access_token":"T1","token_type":"Bearer","scope":"Calendars.Read","expires_in":3600}`)
	}, nil)

	tok, err := client.ExchangeDeviceCode(context.Background(), "dc-1")
	require.NoError(t, err)
	assert.Equal(t, "T1", tok.AccessToken)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
	assert.Equal(t, "Bearer", tok.TokenType)
}

func TestExchangeDeviceCodeAcceptsStringExpiry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"T1","expires_in":"3599"}`)
	}, nil)

	tok, err := client.ExchangeDeviceCode(context.Background(), "dc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3599), tok.ExpiresIn)
}

func TestExchangeDeviceCodeRejections(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{
			name:    "authorization pending",
			status:  http.StatusBadRequest,
			body:    `{"error":"authorization_pending","error_description":"AADSTS70016: pending"}`,
			code:    "authorization_pending",
			message: "AADSTS70016: pending",
		},
		{
			name:    "code only",
			status:  http.StatusBadRequest,
			body:    `{"error":"expired_token"}`,
			code:    "expired_token",
			message: "expired_token",
		},
		{
			name:    "no token no error",
			status:  http.StatusOK,
			body:    `{"token_type":"Bearer"}`,
			message: unknownError,
		},
		{
			name:    "missing expiry",
			status:  http.StatusOK,
			body:    `{"access_token":"T1"}`,
			code:    "invalid_response",
			message: "token response did not include expires_in",
		},
		{
			name:    "zero expiry",
			status:  http.StatusOK,
			body:    `{"access_token":"T1","expires_in":0}`,
			code:    "invalid_response",
			message: "token response did not include expires_in",
		},
		{
			name:    "non json client error",
			status:  http.StatusBadRequest,
			body:    `<html>bad request</html>`,
			message: unknownError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			}, nil)

			_, err := client.ExchangeDeviceCode(context.Background(), "dc-1")
			var providerErr *ProviderError
			require.True(t, errors.As(err, &providerErr), "got %v", err)
			assert.Equal(t, tc.code, providerErr.Code)
			assert.Equal(t, tc.message, providerErr.Message())
		})
	}
}

func TestExchangeDeviceCodeTransportFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `<html>gateway</html>`)
	}, nil)
	_, err := client.ExchangeDeviceCode(context.Background(), "dc-1")
	require.Error(t, err)
	var providerErr *ProviderError
	assert.False(t, errors.As(err, &providerErr))

	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := config.OAuthConfig{ClientID: "client-123", Authority: srv.URL, CompleteMode: config.CompleteModeSingle}
	closed := NewDeviceClient(cfg, srv.Client(), nil)
	srv.Close()

	_, err = closed.ExchangeDeviceCode(context.Background(), "dc-1")
	require.Error(t, err)
	assert.False(t, errors.As(err, &providerErr))
}

func TestExchangeDeviceCodePollMode(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusBadRequest, `{"error":"authorization_pending"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"access_token":"T1","token_type":"Bearer","expires_in":3600}`)
	}, func(cfg *config.OAuthConfig) {
		cfg.CompleteMode = config.CompleteModePoll
	})

	tok, err := client.ExchangeDeviceCode(context.Background(), "dc-1")
	require.NoError(t, err)
	assert.Equal(t, "T1", tok.AccessToken)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExchangeDeviceCodePollModeRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":"expired_token","error_description":"code expired"}`)
	}, func(cfg *config.OAuthConfig) {
		cfg.CompleteMode = config.CompleteModePoll
	})

	_, err := client.ExchangeDeviceCode(context.Background(), "dc-1")
	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "expired_token", providerErr.Code)
	assert.Equal(t, "code expired", providerErr.Message())
}

func TestExchangeDeviceCodePollTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":"authorization_pending"}`)
	}, func(cfg *config.OAuthConfig) {
		cfg.CompleteMode = config.CompleteModePoll
		cfg.PollTimeout = 1500 * time.Millisecond
	})

	_, err := client.ExchangeDeviceCode(context.Background(), "dc-1")
	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "authorization_pending", providerErr.Code)
}
