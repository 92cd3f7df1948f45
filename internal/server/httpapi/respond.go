package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aleksvolk/connectboard/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", common.ErrorValidation, err)
	}
	return nil
}

// statusFromError maps the shared error taxonomy to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrInvalidEmail),
		errors.Is(err, common.ErrInvalidCategory),
		errors.Is(err, common.ErrUpstreamRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUpstreamAuth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
