package handler

import (
	"net/http"

	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/service"
)

// EventHandler handles event ingestion requests.
type EventHandler struct {
	service *service.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{service: svc}
}

// HandleAppend handles POST /api/websites/{website_id}/events requests.
func (h *EventHandler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	websiteID, ok := parseWebsiteID(w, r)
	if !ok {
		return
	}

	var req model.EventRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	e, err := h.service.Append(r.Context(), userID, websiteID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, e.ToResponse())
}

// HandleAppendBatch handles POST /api/websites/{website_id}/events/batch requests.
func (h *EventHandler) HandleAppendBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	websiteID, ok := parseWebsiteID(w, r)
	if !ok {
		return
	}

	var req model.EventBatchRequest
	if !decodeJSON(w, r, maxBatchBodyBytes, &req) {
		return
	}

	events, err := h.service.AppendBatch(r.Context(), userID, websiteID, req.Events)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]model.EventLogResponse, 0, len(events))
	for i := range events {
		resp = append(resp, events[i].ToResponse())
	}
	writeJSON(w, http.StatusCreated, resp)
}
