package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/service"
)

// HealthHandler serves the aggregation endpoints of a website.
type HealthHandler struct {
	service *service.HealthService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(svc *service.HealthService) *HealthHandler {
	return &HealthHandler{service: svc}
}

// HandleHealth handles GET /api/websites/{website_id}/health requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	websiteID, ok := parseWebsiteID(w, r)
	if !ok {
		return
	}

	health, err := h.service.Health(r.Context(), userID, websiteID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, health)
}

// HandleAlerts handles GET /api/websites/{website_id}/alerts requests.
func (h *HealthHandler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	websiteID, ok := parseWebsiteID(w, r)
	if !ok {
		return
	}

	alerts, err := h.service.Alerts(r.Context(), userID, websiteID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []model.EventAlert{}
	}

	writeJSON(w, http.StatusOK, alerts)
}

// HandleSummary handles GET /api/websites/{website_id}/events/summary requests.
func (h *HealthHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	websiteID, ok := parseWebsiteID(w, r)
	if !ok {
		return
	}
	window, ok := windowParam(w, r, "window_hours", time.Hour)
	if !ok {
		return
	}

	summaries, err := h.service.Summarize(r.Context(), userID, websiteID, window)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]model.EventSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, model.EventSummaryResponse{
			EventName:      s.EventName,
			LastReceivedAt: s.LastReceivedAt,
			EventCount:     s.EventCount,
			SampleID:       s.Sample.ID,
			SampleEventID:  s.Sample.EventID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDuplicates handles GET /api/websites/{website_id}/events/duplicates requests.
func (h *HealthHandler) HandleDuplicates(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	websiteID, ok := parseWebsiteID(w, r)
	if !ok {
		return
	}
	window, ok := windowParam(w, r, "window_minutes", time.Minute)
	if !ok {
		return
	}

	dups, err := h.service.FindDuplicates(r.Context(), userID, websiteID, window)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if dups == nil {
		dups = []model.DuplicateEvent{}
	}

	writeJSON(w, http.StatusOK, dups)
}

// windowParam reads an optional positive integer query parameter as a
// duration in unit. An absent parameter yields zero, the policy default.
func windowParam(w http.ResponseWriter, r *http.Request, name string, unit time.Duration) (time.Duration, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeServiceError(w, r, &service.ValidationError{Field: name, Msg: "must be a positive integer"})
		return 0, false
	}
	return time.Duration(n) * unit, true
}
