package centerRepo

import (
	"context"
	"errors"

	"ecocycle/models"
)

// ErrNotFound indicates the center id does not exist.
var ErrNotFound = errors.New("recycling center not found")

// CenterRepository defines read access to the recycling-center directory.
// Directory management is owned by an external collaborator; the core only
// reads centers to decide assignment eligibility.
type CenterRepository interface {
	// GetByID retrieves a center by its unique ID.
	GetByID(ctx context.Context, id string) (*models.RecyclingCenter, error)
	// ListActive returns all active centers.
	ListActive(ctx context.Context) ([]models.RecyclingCenter, error)
	// ListAcceptingAny returns active centers accepting at least one of the
	// given item categories.
	ListAcceptingAny(ctx context.Context, categories []string) ([]models.RecyclingCenter, error)
}
