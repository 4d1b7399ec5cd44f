package hospitalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Envelope is the common response wrapper of the hospital backend.
type Envelope struct {
	Status  Bool            `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response is a decoded API reply.
type Response struct {
	StatusCode int
	Envelope   Envelope
}

// OK reports a 2xx reply whose envelope status is truthy.
func (r *Response) OK() bool {
	if r == nil {
		return false
	}
	return r.StatusCode >= 200 && r.StatusCode <= 299 && bool(r.Envelope.Status)
}

// StatusError is returned for non-2xx replies.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hospitalapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("hospitalapi: status %d: %s", e.StatusCode, e.Message)
}

// Bool decodes the backend's loosely typed flags: JSON booleans, 0/1, and the
// strings "true", "1", "yes" and "success". Anything else is false.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}
	switch data[0] {
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*b = Bool(v)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes", "success":
			*b = true
		default:
			*b = false
		}
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			*b = false
			return nil
		}
		*b = n != 0
	}
	return nil
}

// TokenSource supplies the bearer token for authenticated calls. An empty
// token means the caller is a guest.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// Authenticated reports whether a non-empty token is held.
func (s StaticToken) Authenticated(context.Context) bool {
	return strings.TrimSpace(string(s)) != ""
}
