package repository

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// OrganizationRepository define el puerto de persistencia para Organization (DIP).
// GetByID devuelve (nil, nil) si no existe.
type OrganizationRepository interface {
	Create(ctx context.Context, org *entity.Organization) error
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
	Update(ctx context.Context, org *entity.Organization) error
	AddDistributorLink(ctx context.Context, shopID, distributorID string) error
	ListChildren(ctx context.Context, parentID string) ([]*entity.Organization, error)
}
