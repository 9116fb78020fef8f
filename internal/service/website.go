package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/repository"
)

const (
	maxWebsiteURLLen  = 2048
	maxWebsiteNameLen = 100
)

// WebsiteService manages websites and their platform connections.
type WebsiteService struct {
	repo *repository.WebsiteRepository
	gate *AccessGateway
	now  func() time.Time
}

// NewWebsiteService creates a new WebsiteService.
func NewWebsiteService(repo *repository.WebsiteRepository, gate *AccessGateway) *WebsiteService {
	return &WebsiteService{repo: repo, gate: gate, now: time.Now}
}

// Create registers a website for ownerID.
func (s *WebsiteService) Create(ctx context.Context, ownerID int64, req model.WebsiteRequest) (model.WebsiteResponse, error) {
	rawURL := strings.TrimSpace(req.URL)
	if err := validateWebsiteURL(rawURL); err != nil {
		return model.WebsiteResponse{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.WebsiteResponse{}, invalid("name", "required")
	}
	if utf8.RuneCountInString(name) > maxWebsiteNameLen {
		return model.WebsiteResponse{}, invalid("name", "max length %d", maxWebsiteNameLen)
	}

	w := &model.Website{
		UserID:    ownerID,
		URL:       rawURL,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return model.WebsiteResponse{}, fmt.Errorf("create website: %w", err)
	}

	return websiteResponse(w, nil), nil
}

// List returns every website owned by ownerID with its connections embedded.
// Connections for all websites are fetched in a single query.
func (s *WebsiteService) List(ctx context.Context, ownerID int64) ([]model.WebsiteResponse, error) {
	websites, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(websites))
	for i, w := range websites {
		ids[i] = w.ID
	}

	conns, err := s.repo.ConnectionsByWebsite(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.WebsiteResponse, 0, len(websites))
	for i := range websites {
		out = append(out, websiteResponse(&websites[i], conns[websites[i].ID]))
	}
	return out, nil
}

// CreateConnection links a website owned by userID to an ad platform.
func (s *WebsiteService) CreateConnection(ctx context.Context, userID, websiteID int64, req model.ConnectionRequest) (model.ConnectionResponse, error) {
	if _, err := s.gate.Authorize(ctx, userID, websiteID); err != nil {
		return model.ConnectionResponse{}, err
	}

	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if !model.ValidPlatform(platform) {
		return model.ConnectionResponse{}, invalid("platform", "must be one of %s, %s, %s",
			model.PlatformMeta, model.PlatformShopify, model.PlatformTikTok)
	}

	ids := req.PlatformIdentifiers
	if ids == nil {
		ids = map[string]any{}
	}

	c := &model.Connection{
		WebsiteID:           websiteID,
		Platform:            platform,
		PlatformIdentifiers: ids,
		IsActive:            true,
		CreatedAt:           s.now(),
	}
	if err := s.repo.CreateConnection(ctx, c); err != nil {
		return model.ConnectionResponse{}, fmt.Errorf("create connection: %w", err)
	}

	return c.ToResponse(), nil
}

func validateWebsiteURL(raw string) error {
	if raw == "" {
		return invalid("url", "required")
	}
	if utf8.RuneCountInString(raw) > maxWebsiteURLLen {
		return invalid("url", "max length %d", maxWebsiteURLLen)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("url", "must be an absolute http or https URL")
	}
	return nil
}

func websiteResponse(w *model.Website, conns []model.Connection) model.WebsiteResponse {
	resp := model.WebsiteResponse{
		ID:          w.ID,
		UserID:      w.UserID,
		URL:         w.URL,
		Name:        w.Name,
		CreatedAt:   w.CreatedAt,
		Connections: make([]model.ConnectionResponse, 0, len(conns)),
	}
	for i := range conns {
		resp.Connections = append(resp.Connections, conns[i].ToResponse())
	}
	return resp
}
