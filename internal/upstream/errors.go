package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ErrUnauthorized marks a platform 401. Callers treat it as a forced
// logout: the cached token is purged and the browser is signed out.
var ErrUnauthorized = errors.New("platform rejected credentials")

// APIError carries a non-2xx platform response with a best-effort message
// extracted from the body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform api: status %d", e.Status)
	}
	return fmt.Sprintf("platform api: %s (status %d)", e.Message, e.Status)
}

func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("platform api: %w", err)
	}
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return &APIError{
		Status:  resp.StatusCode(),
		Message: extractMessage(resp.Body()),
	}
}

// extractMessage digs a human-readable message out of an error body.
// The platform answers with {"detail": ...} on validation errors (where
// detail may be a string or a list of field errors) and {"error": ...} or
// {"message": ...} elsewhere.
func extractMessage(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return truncate(strings.TrimSpace(string(body)), 200)
	}

	if len(envelope.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
			return detail
		}
		var fields []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &fields); err == nil {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				if f.Msg != "" {
					msgs = append(msgs, f.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return truncate(strings.TrimSpace(string(body)), 200)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
