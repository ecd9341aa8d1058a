package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tOgg1/pedrito/internal/logging"
)

// Upstream errors.
var (
	ErrNotConfigured      = errors.New("upstream base URL not configured")
	ErrUndecodablePairing = errors.New("pairing code could not be decoded")
)

const maxErrorBody = 512

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func newStatusError(service, method, path string, code int, body []byte) *StatusError {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return &StatusError{
		Service:    service,
		Method:     method,
		Path:       path,
		StatusCode: code,
		Body:       logging.Redact(text),
	}
}

func (e *StatusError) Error() string {
	detail := e.Body
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s %s: %d %s", e.Service, e.Method, e.Path, e.StatusCode, detail)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
