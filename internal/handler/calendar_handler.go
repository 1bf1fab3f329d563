package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/n-kyan/microsoft-auth/pkg/errors"
	"github.com/n-kyan/microsoft-auth/pkg/response"
)

const dateLayout = "2006-01-02"

type tokenProvider interface {
	GetValidToken() (string, bool)
}

type calendarService interface {
	QueryDay(ctx context.Context, token string, date time.Time) (json.RawMessage, error)
}

// CalendarHandler exposes availability queries.
type CalendarHandler struct {
	tokens   tokenProvider
	calendar calendarService
}

// NewCalendarHandler builds a new handler.
func NewCalendarHandler(tokens tokenProvider, calendar calendarService) *CalendarHandler {
	return &CalendarHandler{tokens: tokens, calendar: calendar}
}

// AvailableSlots godoc
// @Summary List calendar events for a day
// @Description Returns the calendar provider's response unmodified. Upstream failures keep the upstream status.
// @Tags Calendar
// @Produce json
// @Param date query string true "Day in YYYY-MM-DD"
// @Success 200 {object} object
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /calendar/available-slots [get]
func (h *CalendarHandler) AvailableSlots(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid date, expected YYYY-MM-DD"))
		return
	}

	token, ok := h.tokens.GetValidToken()
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthenticated, "not authenticated, start the device flow at /auth/initialize"))
		return
	}

	events, err := h.calendar.QueryDay(c.Request.Context(), token, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, events)
}
