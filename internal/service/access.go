package service

import (
	"context"
	"errors"

	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/repository"
)

// AccessGateway enforces website ownership. Every operation on a website's
// connections, events or aggregates goes through Authorize first.
type AccessGateway struct {
	websites *repository.WebsiteRepository
}

// NewAccessGateway creates a new AccessGateway.
func NewAccessGateway(websites *repository.WebsiteRepository) *AccessGateway {
	return &AccessGateway{websites: websites}
}

// Authorize returns the website if userID owns it. Missing and foreign
// websites both produce ErrWebsiteNotFound.
func (g *AccessGateway) Authorize(ctx context.Context, userID, websiteID int64) (*model.Website, error) {
	w, err := g.websites.GetOwned(ctx, websiteID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrWebsiteNotFound) {
			return nil, ErrWebsiteNotFound
		}
		return nil, err
	}
	return w, nil
}
