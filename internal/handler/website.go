package handler

import (
	"net/http"

	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/service"
)

// WebsiteHandler handles HTTP requests for websites and their connections.
type WebsiteHandler struct {
	service *service.WebsiteService
}

// NewWebsiteHandler creates a new WebsiteHandler.
func NewWebsiteHandler(svc *service.WebsiteService) *WebsiteHandler {
	return &WebsiteHandler{service: svc}
}

// HandleCreate handles POST /api/websites requests.
func (h *WebsiteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.WebsiteRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleList handles GET /api/websites requests.
func (h *WebsiteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	websites, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, websites)
}

// HandleCreateConnection handles POST /api/websites/{website_id}/connections requests.
func (h *WebsiteHandler) HandleCreateConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	websiteID, ok := parseWebsiteID(w, r)
	if !ok {
		return
	}

	var req model.ConnectionRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	resp, err := h.service.CreateConnection(r.Context(), userID, websiteID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
