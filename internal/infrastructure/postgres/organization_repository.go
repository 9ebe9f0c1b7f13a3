package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

// OrganizationRepo implementación de OrganizationRepository sobre PostgreSQL (usable con pool o tx).
type OrganizationRepo struct {
	q Querier
}

// NewOrganizationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrganizationRepository(q Querier) *OrganizationRepo {
	return &OrganizationRepo{q: q}
}

const organizationColumns = `
	o.id, o.type, o.parent_id, o.name, o.active, o.require_payment_proof, o.created_at, o.updated_at,
	COALESCE((SELECT array_agg(l.distributor_id::text ORDER BY l.created_at)
	          FROM organization_links l WHERE l.shop_id = o.id), '{}')`

// Create persiste una organización.
func (r *OrganizationRepo) Create(ctx context.Context, org *entity.Organization) error {
	query := `
		INSERT INTO organizations (id, type, parent_id, name, active, require_payment_proof, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		org.ID, org.Type, nullable(org.ParentID), org.Name, org.Active, org.RequirePaymentProof,
		org.CreatedAt, org.UpdatedAt,
	)
	return mapError("create organization", err)
}

// GetByID obtiene una organización por ID; (nil, nil) si no existe.
func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations o WHERE o.id = $1`
	org, err := scanOrganization(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get organization", err)
	}
	return org, nil
}

// Update persiste nombre, estado y política.
func (r *OrganizationRepo) Update(ctx context.Context, org *entity.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, active = $3, require_payment_proof = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, org.ID, org.Name, org.Active, org.RequirePaymentProof, org.UpdatedAt)
	if err != nil {
		return mapError("update organization", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddDistributorLink vincula la tienda con un distribuidor (idempotente).
func (r *OrganizationRepo) AddDistributorLink(ctx context.Context, shopID, distributorID string) error {
	query := `
		INSERT INTO organization_links (shop_id, distributor_id)
		VALUES ($1, $2)
		ON CONFLICT (shop_id, distributor_id) DO NOTHING`
	_, err := r.q.Exec(ctx, query, shopID, distributorID)
	return mapError("add distributor link", err)
}

// ListChildren lista las organizaciones cuyo padre es parentID.
func (r *OrganizationRepo) ListChildren(ctx context.Context, parentID string) ([]*entity.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations o WHERE o.parent_id = $1 ORDER BY o.name`
	rows, err := r.q.Query(ctx, query, parentID)
	if err != nil {
		return nil, mapError("list children", err)
	}
	defer rows.Close()

	var list []*entity.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, mapError("scan organization", err)
		}
		list = append(list, org)
	}
	return list, mapError("list children", rows.Err())
}

func scanOrganization(row pgx.Row) (*entity.Organization, error) {
	var (
		o      entity.Organization
		parent *string
	)
	err := row.Scan(&o.ID, &o.Type, &parent, &o.Name, &o.Active, &o.RequirePaymentProof,
		&o.CreatedAt, &o.UpdatedAt, &o.LinkedDistributorIDs)
	if err != nil {
		return nil, err
	}
	o.ParentID = deref(parent)
	return &o, nil
}
