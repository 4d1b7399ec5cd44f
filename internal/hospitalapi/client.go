// Package hospitalapi is the REST client for the hospital backend consumed by
// the patient app: doctor profiles, daily slot groups, and slot booking.
package hospitalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/patient-booking/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost/Aayush/backend/api"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 300
)

var tracer = otel.Tracer("patientbooking.internal.hospitalapi")

// ErrNetwork marks transport failures (DNS, refused connection, timeout).
var ErrNetwork = errors.New("network error or server is not reachable")

// Client wraps the hospital REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a hospital API client.
func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTokenSource returns a copy of c that authenticates with ts. The copy
// shares the HTTP client and logger.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// GetDoctor fetches a doctor profile.
// GET /doctors/{id}
func (c *Client) GetDoctor(ctx context.Context, doctorID string) (*Response, error) {
	path := "/doctors/" + url.PathEscape(strings.TrimSpace(doctorID))
	return c.do(ctx, "get_doctor", http.MethodGet, path, nil)
}

// GetDoctorSlots fetches the shift groups for one doctor and calendar date.
// GET /doctor_slots?doctor_id={id}&date=YYYY-MM-DD
func (c *Client) GetDoctorSlots(ctx context.Context, doctorID, date string) (*Response, error) {
	q := url.Values{}
	q.Set("doctor_id", strings.TrimSpace(doctorID))
	q.Set("date", date)
	return c.do(ctx, "get_doctor_slots", http.MethodGet, "/doctor_slots?"+q.Encode(), nil)
}

// CreateAvailabilitySlots submits a booking payload.
// POST /user/availabilityslots
func (c *Client) CreateAvailabilitySlots(ctx context.Context, body any) (*Response, error) {
	return c.do(ctx, "create_availability_slots", http.MethodPost, "/user/availabilityslots", body)
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) (*Response, error) {
	ctx, span := tracer.Start(ctx, "hospitalapi."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("hospitalapi.path", path),
	)

	resp, err := c.doJSON(ctx, method, path, body)
	if resp != nil {
		span.SetAttributes(
			attribute.Int("http.status_code", resp.StatusCode),
			attribute.Bool("hospitalapi.status", bool(resp.Envelope.Status)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return resp, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*Response, error) {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("hospitalapi: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("hospitalapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	token, err := c.bearer(ctx)
	if err != nil {
		c.logger.Warn("hospitalapi: token lookup failed, sending unauthenticated", "path", path, "error", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hospitalapi: %s %s: %w: %w", method, path, ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hospitalapi: read response: %w: %w", ErrNetwork, err)
	}

	out := &Response{StatusCode: resp.StatusCode}
	decodeErr := decodeEnvelope(respBody, &out.Envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		c.logger.Warn("hospitalapi: non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return out, &StatusError{StatusCode: resp.StatusCode, Message: firstNonEmpty(out.Envelope.Message, msg)}
	}
	if decodeErr != nil {
		return out, fmt.Errorf("hospitalapi: decode response: %w", decodeErr)
	}
	return out, nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func decodeEnvelope(body []byte, env *Envelope) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, env)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
