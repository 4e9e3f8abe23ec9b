package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"seleniumrobot/infoserver/pkg/commons"
	"seleniumrobot/infoserver/pkg/elementinfo"
	"seleniumrobot/infoserver/pkg/store"
	"seleniumrobot/infoserver/pkg/telemetry/logging"
	"seleniumrobot/infoserver/pkg/variables"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Detail string `json:"detail"`

	// Names lists the variables that could not be served on 423.
	Names []string `json:"names,omitempty"`
}

// badRequest reports a malformed parameter or body.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to status codes. Unclassified errors are
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		bad       *badRequest
		varErr    *variables.ValidationError
		elemErr   *elementinfo.ValidationError
		commonErr *commons.ValidationError
		conflict  *store.ConflictError
		reserved  *variables.ReservedError
	)

	switch {
	case errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: bad.msg})
	case errors.As(err, &varErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: varErr.Error()})
	case errors.As(err, &elemErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: elemErr.Error()})
	case errors.As(err, &commonErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: commonErr.Error()})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: conflict.Error()})
	case errors.As(err, &reserved):
		writeJSON(w, http.StatusLocked, ErrorResponse{Detail: reserved.Error(), Names: reserved.Names})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: err.Error()})
	default:
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "A server error occurred."})
	}
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return badRequestf("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequestf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return badRequestf("invalid JSON body: %v", err)
	}
	return nil
}
