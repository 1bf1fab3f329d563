package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/n-kyan/microsoft-auth/internal/adapter/graph"
	"github.com/n-kyan/microsoft-auth/internal/models"
	appErrors "github.com/n-kyan/microsoft-auth/pkg/errors"
)

const upstreamCalendar = "calendar"

type calendarReader interface {
	CalendarView(ctx context.Context, token string, start, end time.Time) (*graph.Response, error)
}

// CalendarService reads calendar events with a token supplied by the caller. It
// never authenticates on its own.
type CalendarService struct {
	client  calendarReader
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCalendarService constructs a CalendarService.
func NewCalendarService(client calendarReader, metrics *MetricsService, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{client: client, metrics: metrics, logger: logger}
}

// QueryDay returns the events of the UTC calendar day containing date.
func (s *CalendarService) QueryDay(ctx context.Context, token string, date time.Time) (json.RawMessage, error) {
	r := models.DayRange(date)
	return s.Query(ctx, token, r.Start, r.End)
}

// Query returns the provider's events between start and end, unmodified.
// Range and token checks happen before any outbound call. A non-success
// upstream answer is returned as an error carrying its status and body.
func (s *CalendarService) Query(ctx context.Context, token string, start, end time.Time) (json.RawMessage, error) {
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "end must not be before start")
	}
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "")
	}

	began := time.Now()
	resp, err := s.client.CalendarView(ctx, token, start, end)
	if err != nil {
		s.metrics.ObserveUpstream(upstreamCalendar, 0, time.Since(began))
		s.logger.Error("calendar query failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteQueryFailed.Code, appErrors.ErrRemoteQueryFailed.Status, "calendar provider unreachable")
	}
	s.metrics.ObserveUpstream(upstreamCalendar, resp.StatusCode, time.Since(began))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("calendar provider returned an error", zap.Int("status", resp.StatusCode))
		return nil, appErrors.WithStatus(appErrors.ErrRemoteQueryFailed, resp.StatusCode, string(resp.Body))
	}
	if !json.Valid(resp.Body) {
		return nil, appErrors.Clone(appErrors.ErrRemoteQueryFailed, "calendar provider returned invalid JSON")
	}
	return json.RawMessage(resp.Body), nil
}
