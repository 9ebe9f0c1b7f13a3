// Package hierarchy resuelve la jerarquía de organizaciones: padres válidos,
// compañía raíz (HQ) y emparejamiento comprador/vendedor por tipo de orden.
package hierarchy

import (
	"context"
	"fmt"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// MaxDepth es el número máximo de saltos al subir hacia la casa matriz.
const MaxDepth = 10

var validParents = map[entity.OrgType][]entity.OrgType{
	entity.OrgTypeHQ:           nil,
	entity.OrgTypeManufacturer: {entity.OrgTypeHQ},
	entity.OrgTypeDistributor:  {entity.OrgTypeHQ},
	entity.OrgTypeShop:         {entity.OrgTypeDistributor},
	entity.OrgTypeWarehouse:    {entity.OrgTypeHQ},
}

// ValidParents devuelve los tipos de padre permitidos para orgType (vacío para HQ).
func ValidParents(orgType entity.OrgType) []entity.OrgType {
	parents := validParents[orgType]
	out := make([]entity.OrgType, len(parents))
	copy(out, parents)
	return out
}

// ValidateParent comprueba que parent puede ser padre de child.
// HQ no admite padre; el resto exige exactamente uno de un tipo permitido.
func ValidateParent(child *entity.Organization, parent *entity.Organization) error {
	if child == nil || !child.Type.Valid() {
		return fmt.Errorf("%w: tipo de organización desconocido", domain.ErrInvalidHierarchy)
	}
	allowed := validParents[child.Type]
	if len(allowed) == 0 {
		if parent != nil {
			return fmt.Errorf("%w: %s no admite padre", domain.ErrInvalidHierarchy, child.Type)
		}
		return nil
	}
	if parent == nil {
		return fmt.Errorf("%w: %s requiere padre", domain.ErrInvalidHierarchy, child.Type)
	}
	if parent.ID == child.ID {
		return fmt.Errorf("%w: una organización no puede ser su propio padre", domain.ErrInvalidHierarchy)
	}
	for _, t := range allowed {
		if parent.Type == t {
			return nil
		}
	}
	return fmt.Errorf("%w: %s no puede tener padre %s", domain.ErrInvalidHierarchy, child.Type, parent.Type)
}

// Lookup resuelve una organización por id; devuelve (nil, nil) si no existe.
type Lookup func(ctx context.Context, id string) (*entity.Organization, error)

// CompanyOf sube por los padres hasta la HQ raíz en a lo sumo MaxDepth saltos.
// Falla con ErrOrphanedOrganization ante ciclos, padres que no resuelven o profundidad excedida.
func CompanyOf(ctx context.Context, lookup Lookup, orgID string) (*entity.Organization, error) {
	seen := make(map[string]struct{}, MaxDepth)
	id := orgID
	for hop := 0; hop <= MaxDepth; hop++ {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: ciclo en %s", domain.ErrOrphanedOrganization, id)
		}
		seen[id] = struct{}{}

		org, err := lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if org == nil {
			if hop == 0 {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("%w: padre %s no existe", domain.ErrOrphanedOrganization, id)
		}
		if org.Type == entity.OrgTypeHQ {
			return org, nil
		}
		if org.ParentID == "" {
			return nil, fmt.Errorf("%w: %s sin padre", domain.ErrOrphanedOrganization, org.ID)
		}
		id = org.ParentID
	}
	return nil, fmt.Errorf("%w: más de %d saltos desde %s", domain.ErrOrphanedOrganization, MaxDepth, orgID)
}

// ValidOrderPairing indica si buyer y seller pueden participar en una orden de tipo orderType.
// Organizaciones inactivas nunca emparejan.
func ValidOrderPairing(orderType entity.OrderType, buyer, seller *entity.Organization) bool {
	if buyer == nil || seller == nil || !buyer.Active || !seller.Active {
		return false
	}
	switch orderType {
	case entity.OrderTypeH2M:
		return buyer.Type == entity.OrgTypeHQ && seller.Type == entity.OrgTypeManufacturer
	case entity.OrderTypeD2H:
		return buyer.Type == entity.OrgTypeDistributor &&
			seller.Type == entity.OrgTypeHQ &&
			buyer.ParentID == seller.ID
	case entity.OrderTypeS2D:
		return buyer.Type == entity.OrgTypeShop &&
			seller.Type == entity.OrgTypeDistributor &&
			buyer.IsLinkedTo(seller.ID)
	default:
		return false
	}
}

// UpstreamType devuelve el tipo de orden del que depende orderType (D2H depende de H2M, S2D de D2H).
func UpstreamType(orderType entity.OrderType) (entity.OrderType, bool) {
	switch orderType {
	case entity.OrderTypeD2H:
		return entity.OrderTypeH2M, true
	case entity.OrderTypeS2D:
		return entity.OrderTypeD2H, true
	default:
		return "", false
	}
}
