package catalogclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// APIError is a non-success response from the catalog. It matches the domain
// error kinds with errors.Is, so callers handle remote and local failures the
// same way.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrValidation:
		return e.Status == http.StatusBadRequest
	case domain.ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeAPIError never returns an empty code or message, whatever the body.
func decodeAPIError(status int, body []byte) *APIError {
	var payload errorPayload
	_ = json.Unmarshal(body, &payload)

	code := strings.TrimSpace(payload.Code)
	if code == "" {
		code = "HTTP_" + fmt.Sprint(status)
	}
	message := strings.TrimSpace(payload.Message)
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = "unexpected response"
	}
	return &APIError{Status: status, Code: code, Message: message}
}
