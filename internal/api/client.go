package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/models"
)

// RequestIDHeader carries a per-request id that the service echoes in its logs
const RequestIDHeader = "X-Request-ID"

// Client is the HTTP implementation of Backend
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Headers are sent with every request
	Headers map[string]string
}

var _ Backend = (*Client)(nil)

// NewClient creates a client for the service at baseURL. A zero timeout
// leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Headers: map[string]string{},
	}
}

// errorBody is the error envelope returned by the service
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// StatusError is a non-2xx response from the service
type StatusError struct {
	StatusCode int
	Detail     string
	RequestID  string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("service returned %d: %s", e.StatusCode, e.Detail)
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// call issues one request. body is JSON-encoded when non-nil and the
// response is decoded into out when out is non-nil. Every failure is
// returned as a remote error tagged with op.
func (c *Client) call(ctx context.Context, op, method, endpoint string, query url.Values, body, out any) error {
	u := c.BaseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return apperrors.Remote(op, fmt.Errorf("failed to encode request: %w", err))
		}
		bodyReader = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return apperrors.Remote(op, err)
	}
	for key, value := range c.Headers {
		req.Header.Set(key, value)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	log := logger.With("op", op, "request_id", requestID)
	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Warn("Request failed", "error", err)
		return apperrors.Remote(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("Failed to read response", "error", err)
		return apperrors.Remote(op, err)
	}
	log.Debug("Request completed", "method", method, "path", endpoint,
		"status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		serr := &StatusError{StatusCode: resp.StatusCode, Detail: detailText(eb.Detail), RequestID: requestID}
		log.Warn("Service returned error", "status", resp.StatusCode, "detail", serr.Detail)
		return apperrors.Remote(op, serr)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.Remote(op, apperrors.Malformed("response body", err))
	}
	return nil
}

func (c *Client) ListSchedules(ctx context.Context, q models.ScheduleQuery) ([]models.ScheduleRecord, error) {
	query := url.Values{}
	query.Set("start_date", q.StartDate)
	query.Set("end_date", q.EndDate)
	if q.EquipmentGroupID != nil {
		query.Set("equipment_group_id", strconv.FormatInt(*q.EquipmentGroupID, 10))
	}

	var raw []json.RawMessage
	if err := c.call(ctx, "list schedules", http.MethodGet, "/production-schedules", query, nil, &raw); err != nil {
		return nil, err
	}
	// A record that does not decode is dropped; the rest of the window still shows
	out := make([]models.ScheduleRecord, 0, len(raw))
	for i, item := range raw {
		var rec models.ScheduleRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			logger.Warn("Skipping malformed schedule record", "index", i, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) UpdateSchedule(ctx context.Context, id int64, u models.ScheduleUpdate) (*models.ScheduleRecord, error) {
	var out models.ScheduleRecord
	endpoint := "/production-schedules/" + strconv.FormatInt(id, 10)
	if err := c.call(ctx, "update schedule", http.MethodPatch, endpoint, nil, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEquipmentGroups(ctx context.Context) ([]models.EquipmentGroup, error) {
	var out []models.EquipmentGroup
	if err := c.call(ctx, "list equipment groups", http.MethodGet, "/equipment-groups", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SimulateOrder(ctx context.Context, req models.SimulateRequest) (*models.SimulationResult, error) {
	var out models.SimulationResult
	if err := c.call(ctx, "simulate", http.MethodPost, "/orders/simulate", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req models.OrderCreate) (*models.Order, error) {
	var out models.Order
	if err := c.call(ctx, "create order", http.MethodPost, "/orders", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConfirmOrder(ctx context.Context, orderID int64) error {
	endpoint := "/orders/" + strconv.FormatInt(orderID, 10) + "/confirm"
	return c.call(ctx, "confirm order", http.MethodPost, endpoint, nil, nil, nil)
}

func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := c.call(ctx, "list orders", http.MethodGet, "/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCalendars(ctx context.Context, year int, month time.Month) ([]models.CalendarOverride, error) {
	query := url.Values{}
	query.Set("year", strconv.Itoa(year))
	query.Set("month", strconv.Itoa(int(month)))

	var out []models.CalendarOverride
	if err := c.call(ctx, "list calendars", http.MethodGet, "/calendars", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpsertCalendar(ctx context.Context, o models.CalendarOverride) (*models.CalendarOverride, error) {
	var out models.CalendarOverride
	if err := c.call(ctx, "update calendar", http.MethodPost, "/calendars", nil, o, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BatchUpdateCalendars(ctx context.Context, req models.BatchUpdateRequest) (*models.BatchUpdateResult, error) {
	var out models.BatchUpdateResult
	if err := c.call(ctx, "batch update calendars", http.MethodPost, "/calendars/batch", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	c.HTTP.CloseIdleConnections()
	return nil
}
