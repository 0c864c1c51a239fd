// internal/app/store/records/errors.go
package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx response from the data API, with the store's error
// body decoded when present.
type APIError struct {
	Status  int
	Code    string // SQLSTATE or store error code, e.g. "23505", "PGRST202"
	Message string
	Details string
	What    string // table or rpc path the call targeted
}

func (e *APIError) Error() string {
	b := strings.Builder{}
	b.WriteString("records: ")
	b.WriteString(e.What)
	b.WriteString(": store returned ")
	b.WriteString(http.StatusText(e.Status))
	if e.Code != "" {
		b.WriteString(" (" + e.Code + ")")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

func apiError(what string, resp *resty.Response) error {
	apiErr := &APIError{
		Status: resp.StatusCode(),
		What:   what,
	}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.Details = body.Details
	}

	return apiErr
}

// IsConflict reports whether err is a uniqueness violation. The store
// surfaces these as HTTP 409 with SQLSTATE 23505.
func IsConflict(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusConflict || apiErr.Code == "23505"
}

// IsMissingRoutine reports whether err means the called stored procedure
// does not exist on this store instance (the provisioner falls back to
// console output in that case).
func IsMissingRoutine(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "PGRST202" || apiErr.Status == http.StatusNotFound
}

// IsMissingRelation reports whether err means the target table does not
// exist yet (seen before the schema has been provisioned).
func IsMissingRelation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "42P01"
}
