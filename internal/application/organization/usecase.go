package organization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/hierarchy"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

// UseCase casos de uso de organizaciones y su jerarquía.
type UseCase struct {
	repo   repository.OrganizationRepository
	policy access.Policy
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.OrganizationRepository, policy access.Policy) *UseCase {
	return &UseCase{repo: repo, policy: policy}
}

// Create valida el padre según la jerarquía y persiste la organización.
func (uc *UseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateOrganizationRequest) (*entity.Organization, error) {
	orgType := entity.OrgType(strings.ToUpper(in.Type))
	if !orgType.Valid() || strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}

	var parent *entity.Organization
	companyID := ""
	if in.ParentID != "" {
		p, err := uc.repo.GetByID(ctx, in.ParentID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: padre %s no existe", domain.ErrInvalidHierarchy, in.ParentID)
		}
		company, err := hierarchy.CompanyOf(ctx, uc.repo.GetByID, p.ID)
		if err != nil {
			return nil, err
		}
		parent, companyID = p, company.ID
	}

	now := time.Now().UTC()
	org := &entity.Organization{
		ID:                  uuid.New().String(),
		Type:                orgType,
		ParentID:            in.ParentID,
		Name:                strings.TrimSpace(in.Name),
		Active:              true,
		RequirePaymentProof: in.RequirePaymentProof,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := hierarchy.ValidateParent(org, parent); err != nil {
		return nil, err
	}
	if err := access.Check(actor, access.ActionManageOrganization, access.Subject{CompanyID: companyID}, uc.policy); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// GetByID obtiene una organización de la compañía del actor; ErrNotFound si no existe.
func (uc *UseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*entity.Organization, error) {
	org, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.authorizeRead(ctx, actor, org.ID); err != nil {
		return nil, err
	}
	return org, nil
}

func (uc *UseCase) get(ctx context.Context, id string) (*entity.Organization, error) {
	org, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

// Update cambia nombre, estado o política de comprobante de pago.
func (uc *UseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateOrganizationRequest) (*entity.Organization, error) {
	org, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, actor, org.ID); err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.ErrInvalidInput
		}
		org.Name = strings.TrimSpace(*in.Name)
	}
	if in.Active != nil {
		org.Active = *in.Active
	}
	if in.RequirePaymentProof != nil {
		org.RequirePaymentProof = *in.RequirePaymentProof
	}
	org.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// LinkDistributor vincula una tienda con un distribuidor adicional de la misma compañía.
func (uc *UseCase) LinkDistributor(ctx context.Context, actor entity.Actor, shopID, distributorID string) (*entity.Organization, error) {
	shop, err := uc.get(ctx, shopID)
	if err != nil {
		return nil, err
	}
	dist, err := uc.get(ctx, distributorID)
	if err != nil {
		return nil, err
	}
	if shop.Type != entity.OrgTypeShop || dist.Type != entity.OrgTypeDistributor {
		return nil, fmt.Errorf("%w: solo se vinculan tiendas con distribuidores", domain.ErrInvalidHierarchy)
	}
	shopCompany, err := hierarchy.CompanyOf(ctx, uc.repo.GetByID, shop.ID)
	if err != nil {
		return nil, err
	}
	distCompany, err := hierarchy.CompanyOf(ctx, uc.repo.GetByID, dist.ID)
	if err != nil {
		return nil, err
	}
	if shopCompany.ID != distCompany.ID {
		return nil, fmt.Errorf("%w: la tienda y el distribuidor pertenecen a compañías distintas", domain.ErrInvalidHierarchy)
	}
	if err := access.Check(actor, access.ActionManageOrganization, access.Subject{CompanyID: shopCompany.ID}, uc.policy); err != nil {
		return nil, err
	}
	if shop.IsLinkedTo(dist.ID) {
		return shop, nil
	}
	if err := uc.repo.AddDistributorLink(ctx, shop.ID, dist.ID); err != nil {
		return nil, err
	}
	shop.LinkedDistributorIDs = append(shop.LinkedDistributorIDs, dist.ID)
	return shop, nil
}

// ListChildren lista las organizaciones hijas directas.
func (uc *UseCase) ListChildren(ctx context.Context, actor entity.Actor, parentID string) ([]*entity.Organization, error) {
	if _, err := uc.GetByID(ctx, actor, parentID); err != nil {
		return nil, err
	}
	return uc.repo.ListChildren(ctx, parentID)
}

func (uc *UseCase) authorize(ctx context.Context, actor entity.Actor, orgID string) error {
	company, err := hierarchy.CompanyOf(ctx, uc.repo.GetByID, orgID)
	if err != nil {
		return err
	}
	return access.Check(actor, access.ActionManageOrganization, access.Subject{CompanyID: company.ID}, uc.policy)
}

// authorizeRead compara la compañía de orgID con la del actor. Un actor cuya organización
// no resuelve a una HQ no ve ninguna compañía (salvo el nivel más alto).
func (uc *UseCase) authorizeRead(ctx context.Context, actor entity.Actor, orgID string) error {
	company, err := hierarchy.CompanyOf(ctx, uc.repo.GetByID, orgID)
	if err != nil {
		return err
	}
	subject := access.Subject{CompanyID: company.ID}
	if own, err := hierarchy.CompanyOf(ctx, uc.repo.GetByID, actor.OrganizationID); err == nil {
		subject.ActorCompanyID = own.ID
	}
	return access.Check(actor, access.ActionReadOrganization, subject, uc.policy)
}
