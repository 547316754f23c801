package scoop

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imroc/req/v3"
)

var (
	ErrNilInvoker = errors.New("scoop: invoker is nil")
	ErrNoBackend  = errors.New("scoop: backend url missing")
)

// BackendError is a failure reported by the package-manager engine. Error
// returns the engine's message verbatim so callers can show it as is.
type BackendError struct {
	Op      Operation `json:"-"`
	Status  int       `json:"-"`
	Message string    `json:"error"`
}

func (e *BackendError) Error() string {
	return e.Message
}

// IsBackendError reports whether err carries a *BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

func handleInvokeError(resp *req.Response, requestErr error, op Operation) error {
	if requestErr != nil {
		// An undecodable error body still carries the engine's message.
		if resp != nil && resp.Response != nil && resp.IsErrorState() {
			return &BackendError{Op: op, Status: resp.StatusCode, Message: errorBody(resp, op)}
		}
		return fmt.Errorf("invoke %s: %w", op, requestErr)
	}

	if resp.IsErrorState() {
		if be, ok := resp.ErrorResult().(*BackendError); ok && strings.TrimSpace(be.Message) != "" {
			be.Op = op
			be.Status = resp.StatusCode
			return be
		}
		return &BackendError{Op: op, Status: resp.StatusCode, Message: errorBody(resp, op)}
	}

	return nil
}

func errorBody(resp *req.Response, op Operation) string {
	msg := strings.TrimSpace(resp.String())
	if msg == "" {
		msg = fmt.Sprintf("%s returned status %d", op, resp.StatusCode)
	}
	return msg
}
