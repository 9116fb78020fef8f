package handler

import (
	"net/http"

	"github.com/claritytracking/clarity-go/internal/middleware"
	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/service"
)

// WaitlistHandler handles waitlist signups.
type WaitlistHandler struct {
	service *service.WaitlistService
}

// NewWaitlistHandler creates a new WaitlistHandler.
func NewWaitlistHandler(svc *service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{service: svc}
}

// HandleJoin handles POST /api/waitlist requests. It answers 201 for a new
// signup and 200 when the email was already on the list.
func (h *WaitlistHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req model.WaitlistRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if req.Referer == nil {
		if ref := r.Referer(); ref != "" {
			req.Referer = &ref
		}
	}

	entry, created, err := h.service.Join(r.Context(), req, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, model.WaitlistResponse{ID: entry.ID, Email: entry.Email, CreatedAt: entry.CreatedAt})
}
