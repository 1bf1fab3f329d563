package graph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/n-kyan/microsoft-auth/internal/models"
)

const (
	maxResponseBytes = 10 << 20
	// Seven fractional digits is the most the calendar API accepts.
	timestampLayout = "2006-01-02T15:04:05.9999999Z07:00"
)

// Response is an upstream answer, kept verbatim.
type Response struct {
	StatusCode int
	Body       []byte
}

// CalendarClient issues calendarView reads against the Graph REST API.
type CalendarClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCalendarClient constructs a client rooted at baseURL (e.g. https://graph.microsoft.com/v1.0).
func NewCalendarClient(baseURL string, httpClient *http.Client) *CalendarClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &CalendarClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// CalendarView fetches events between start and end with a bearer token. Any
// response the server produced is returned; only transport failures are errors.
func (c *CalendarClient) CalendarView(ctx context.Context, token string, start, end time.Time) (*Response, error) {
	query := url.Values{}
	query.Set("startDateTime", start.UTC().Format(timestampLayout))
	query.Set("endDateTime", end.UTC().Format(timestampLayout))
	query.Set("$select", models.CalendarSelectFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/calendarView?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build calendar request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.bearerClient(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read calendar response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *CalendarClient) bearerClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	client.Timeout = c.httpClient.Timeout
	return client
}
