package sessionsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error is returned for any non-2xx response.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("sessionsdk: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("sessionsdk: %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool { return statusIs(err, http.StatusUnauthorized) }

// IsForbidden reports whether err is a 403 response.
func IsForbidden(err error) bool { return statusIs(err, http.StatusForbidden) }

func statusIs(err error, code int) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == code
}

// parseError builds an *Error from a failed response. JSON error bodies are
// decoded; anything else is kept as plain text.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	e := &Error{StatusCode: resp.StatusCode}

	var er ErrorResponse
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") &&
		json.Unmarshal(body, &er) == nil && er.Error != "" {
		e.Code = er.Error
		e.Message = er.ErrorDescription
		return e
	}
	e.Message = strings.TrimSpace(string(body))
	return e
}
