package arga

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrUnauthorized is matched by replies with status 401. The session cookie is
	// missing or expired and the caller has to log in again.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is matched by replies with status 404.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx reply from the admin API.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string // server supplied message, if any
	Body       string
}

func (e *APIError) Error() string {
	base := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body == "" {
		return base
	}
	return formatErrorWithJSON(base, e.Body).Error()
}

// Is lets errors.Is match ErrUnauthorized and ErrNotFound by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func newAPIError(method, url string, status int, body []byte) *APIError {
	e := &APIError{
		Method:     method,
		URL:        url,
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}

	var reply struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &reply); err == nil {
		e.Message = reply.Error
		if e.Message == "" {
			e.Message = reply.Message
		}
	} else if e.Body != "" && !strings.HasPrefix(e.Body, "<") {
		// plain text replies are the message, HTML error pages are not
		e.Message = e.Body
	}
	return e
}

// ErrorMessage returns the text to show a user for err: the server message when there
// is one, otherwise the status, otherwise the error itself.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("%d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
	}
	return err.Error()
}
