package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/p-n-ai/pai-study/internal/study"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

var errBadRequest = errors.New("bad request")

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError maps service errors to status codes. Only 5xx responses hide
// the error text.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
		level = slog.LevelError
	}

	reqID := middleware.GetReqID(r.Context())
	slog.Log(r.Context(), level, "request failed",
		"request_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	respondJSON(w, status, ErrorResponse{Error: msg, RequestID: reqID})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, study.ErrUnknownItem), errors.Is(err, study.ErrUnknownTopic):
		return http.StatusNotFound
	case errors.Is(err, study.ErrInvalidRating), errors.Is(err, study.ErrUnknownStage),
		errors.Is(err, study.ErrInvalidSubmission), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, study.ErrStageLocked), errors.Is(err, study.ErrPaperLocked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
