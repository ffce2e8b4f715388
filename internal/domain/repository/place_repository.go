package repository

import (
	"context"

	"github.com/roamerhq/roamer-api/internal/domain/entity"
)

// PlaceRepository defines place persistence. Create and Delete are
// transactional: the place row and the owner's membership row change
// together or not at all.
type PlaceRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Place, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*entity.Place, error)
	// Create inserts the place and appends its id to the creator's place set
	// in one transaction. Returns ErrNotFound if the creator row is gone.
	Create(ctx context.Context, p *entity.Place) error
	// Update mutates title/description only; the owner side is untouched.
	Update(ctx context.Context, p *entity.Place) error
	// Delete removes the place and its membership row in one transaction.
	Delete(ctx context.Context, p *entity.Place) error
}
