package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n-kyan/microsoft-auth/internal/adapter/graph"
	appErrors "github.com/n-kyan/microsoft-auth/pkg/errors"
)

type mockCalendarReader struct {
	resp  *graph.Response
	err   error
	calls int
	token string
	start time.Time
	end   time.Time
}

func (m *mockCalendarReader) CalendarView(ctx context.Context, token string, start, end time.Time) (*graph.Response, error) {
	m.calls++
	m.token, m.start, m.end = token, start, end
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func TestCalendarServiceQueryPassthrough(t *testing.T) {
	body := `{"value":[{"subject":"Busy","showAs":"busy"},{"subject":"Free","showAs":"free"}]}`
	reader := &mockCalendarReader{resp: &graph.Response{StatusCode: http.StatusOK, Body: []byte(body)}}
	svc := NewCalendarService(reader, NewMetricsService(), nil)

	out, err := svc.QueryDay(context.Background(), "T1", time.Date(2024, 2, 1, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, body, string(out))
	assert.Equal(t, "T1", reader.token)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), reader.start)
	assert.Equal(t, time.Date(2024, 2, 1, 23, 59, 59, 999999999, time.UTC), reader.end)
}

func TestCalendarServiceRejectsBeforeCalling(t *testing.T) {
	reader := &mockCalendarReader{}
	svc := NewCalendarService(reader, nil, nil)
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Query(context.Background(), "T1", start, start.Add(-time.Second))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInput))

	_, err = svc.Query(context.Background(), "", start, start.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthenticated))
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)

	assert.Zero(t, reader.calls)

	// A zero-width range is allowed.
	reader.resp = &graph.Response{StatusCode: http.StatusOK, Body: []byte(`{"value":[]}`)}
	_, err = svc.Query(context.Background(), "T1", start, start)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.calls)
}

func TestCalendarServiceUpstreamFailure(t *testing.T) {
	body := `{"error":{"code":"InvalidAuthenticationToken","message":"Access token has expired."}}`
	reader := &mockCalendarReader{resp: &graph.Response{StatusCode: http.StatusUnauthorized, Body: []byte(body)}}
	svc := NewCalendarService(reader, nil, nil)

	_, err := svc.Query(context.Background(), "T1", time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRemoteQueryFailed.Code, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, body, appErr.Message)
	assert.Equal(t, 1, reader.calls, "no retries")
}

func TestCalendarServiceTransportAndDecodeFailures(t *testing.T) {
	svc := NewCalendarService(&mockCalendarReader{err: errors.New("timeout")}, nil, nil)
	_, err := svc.Query(context.Background(), "T1", time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)

	svc = NewCalendarService(&mockCalendarReader{resp: &graph.Response{StatusCode: http.StatusOK, Body: []byte("<html>")}}, nil, nil)
	_, err = svc.Query(context.Background(), "T1", time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRemoteQueryFailed))
	assert.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)
}
