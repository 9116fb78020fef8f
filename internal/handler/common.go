package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claritytracking/clarity-go/internal/middleware"
	"github.com/claritytracking/clarity-go/internal/service"
)

const (
	maxBodyBytes      = 1 << 20
	maxBatchBodyBytes = 4 << 20

	msgWebsiteNotFound = "Website not found or you do not have permission to access it."
	msgEmailTaken      = "Email already registered. Please log in instead."
	msgInternal        = "internal server error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// decodeJSON reads a size-limited JSON body into dst. On failure it writes the
// error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// writeServiceError maps service errors onto HTTP responses. Anything
// unrecognised is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, service.ErrWebsiteNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(msgWebsiteNotFound))
	case errors.Is(err, service.ErrEmailTaken):
		writeJSON(w, http.StatusBadRequest, errorResponse(msgEmailTaken))
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.Unauthorized(w)
	default:
		slog.Error("request failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse(msgInternal))
	}
}

// requireUser returns the authenticated user ID or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return 0, false
	}
	return userID, true
}

// parseWebsiteID parses the {website_id} URL parameter. Non-numeric ids are
// answered exactly like unknown ones.
func parseWebsiteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "website_id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusNotFound, errorResponse(msgWebsiteNotFound))
		return 0, false
	}
	return id, true
}
