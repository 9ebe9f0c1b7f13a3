// Package access evalúa permisos según organización y nivel de rol del actor.
// Es puro: la política llega explícita y el sujeto viene ya resuelto por el caso de uso.
package access

import (
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// Action acción que un actor intenta realizar.
type Action string

const (
	ActionCreateOrder        Action = "order.create"
	ActionEditOrder          Action = "order.edit"
	ActionSubmitOrder        Action = "order.submit"
	ActionApproveOrder       Action = "order.approve"
	ActionDeleteOrder        Action = "order.delete"
	ActionReadOrder          Action = "order.read"
	ActionAcknowledge        Action = "document.acknowledge"
	ActionAttachProof        Action = "document.attach_proof"
	ActionReadDocument       Action = "document.read"
	ActionReserveStock       Action = "stock.reserve"
	ActionMoveStock          Action = "stock.move"
	ActionReadStock          Action = "stock.read"
	ActionManageOrganization Action = "organization.manage"
	ActionReadOrganization   Action = "organization.read"
)

// Códigos de razón de cada decisión.
const (
	ReasonAllowed           = "allowed"
	ReasonUnknownAction     = "unknown_action"
	ReasonMissingSubject    = "missing_subject"
	ReasonOrgMismatch       = "org_mismatch"
	ReasonRoleInsufficient  = "role_insufficient"
	ReasonNotApprover       = "not_approver"
	ReasonNotHighestTier    = "not_highest_tier"
	ReasonNotCreatorOrBuyer = "not_creator_or_buyer"
	ReasonNotReceiver       = "not_receiver"
	ReasonNotParty          = "not_party"
	ReasonNoThreshold       = "no_threshold"
)

// Policy umbrales de nivel de rol (menor = más privilegio).
type Policy struct {
	PowerUserLevel   int
	HighestTierLevel int
	SubmitLevel      int
	AdminLevel       int
	AckThresholds    map[entity.DocumentType]int
}

// DefaultPolicy política por defecto.
func DefaultPolicy() Policy {
	return Policy{
		PowerUserLevel:   entity.RoleLevelPowerUser,
		HighestTierLevel: entity.RoleLevelSuperAdmin,
		SubmitLevel:      entity.RoleLevelStaff,
		AdminLevel:       entity.RoleLevelHQAdmin,
		AckThresholds: map[entity.DocumentType]int{
			entity.DocumentTypePO:      entity.RoleLevelManager,
			entity.DocumentTypeInvoice: entity.RoleLevelManager,
			entity.DocumentTypePayment: entity.RoleLevelPowerUser,
			entity.DocumentTypeReceipt: entity.RoleLevelStaff,
		},
	}
}

// Subject recurso sobre el que se evalúa la acción. Solo se usan los campos que la regla necesita.
type Subject struct {
	Order    *entity.Order
	Document *entity.Document
	// LocationOrgID organización dueña del stock (ActionMoveStock).
	LocationOrgID string
	// CompanyID HQ raíz de la ubicación u organización afectada.
	CompanyID string
	// ActorCompanyID HQ raíz de la organización del actor (ActionReadOrganization).
	ActorCompanyID string
}

// Decision resultado de una evaluación; Reason siempre tiene un código.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true, Reason: ReasonAllowed} }
func deny(reason string) Decision { return Decision{Reason: reason} }

type rule func(actor entity.Actor, s Subject, p Policy) Decision

var rules = map[Action]rule{
	ActionCreateOrder:        createOrder,
	ActionEditOrder:          editOrder,
	ActionSubmitOrder:        submitOrder,
	ActionApproveOrder:       approveOrder,
	ActionDeleteOrder:        deleteOrder,
	ActionReadOrder:          readOrder,
	ActionAcknowledge:        acknowledge,
	ActionAttachProof:        attachProof,
	ActionReadDocument:       readDocument,
	ActionReserveStock:       reserveStock,
	ActionMoveStock:          moveStock,
	ActionReadStock:          readStock,
	ActionManageOrganization: manageOrganization,
	ActionReadOrganization:   readOrganization,
}

// CanAct evalúa si actor puede realizar action sobre subject con la política dada.
func CanAct(actor entity.Actor, action Action, subject Subject, policy Policy) Decision {
	r, ok := rules[action]
	if !ok {
		return deny(ReasonUnknownAction)
	}
	return r(actor, subject, policy)
}

// Check es CanAct que devuelve un *domain.DeniedError cuando la decisión es negativa.
func Check(actor entity.Actor, action Action, subject Subject, policy Policy) error {
	if d := CanAct(actor, action, subject, policy); !d.Allowed {
		return domain.Denied(d.Reason)
	}
	return nil
}

// ApproverOrgID organización que debe aprobar la orden:
// H2M la HQ compradora; D2H la HQ vendedora; S2D el distribuidor vendedor.
func ApproverOrgID(order *entity.Order) string {
	if order.Type == entity.OrderTypeH2M {
		return order.BuyerOrgID
	}
	return order.SellerOrgID
}

func hasLevel(actor entity.Actor, level int) bool {
	return actor.RoleLevel > 0 && actor.RoleLevel <= level
}

func createOrder(actor entity.Actor, s Subject, p Policy) Decision {
	if s.Order == nil {
		return deny(ReasonMissingSubject)
	}
	if actor.OrganizationID != s.Order.BuyerOrgID {
		return deny(ReasonOrgMismatch)
	}
	if !hasLevel(actor, p.SubmitLevel) {
		return deny(ReasonRoleInsufficient)
	}
	return allow()
}

func editOrder(actor entity.Actor, s Subject, _ Policy) Decision {
	if s.Order == nil {
		return deny(ReasonMissingSubject)
	}
	if actor.UserID != s.Order.CreatedBy && actor.OrganizationID != s.Order.BuyerOrgID {
		return deny(ReasonNotCreatorOrBuyer)
	}
	return allow()
}

func submitOrder(actor entity.Actor, s Subject, p Policy) Decision {
	if s.Order == nil {
		return deny(ReasonMissingSubject)
	}
	if actor.UserID == s.Order.CreatedBy {
		return allow()
	}
	if actor.OrganizationID != s.Order.BuyerOrgID {
		return deny(ReasonNotCreatorOrBuyer)
	}
	if !hasLevel(actor, p.SubmitLevel) {
		return deny(ReasonRoleInsufficient)
	}
	return allow()
}

func approveOrder(actor entity.Actor, s Subject, p Policy) Decision {
	if s.Order == nil {
		return deny(ReasonMissingSubject)
	}
	if !hasLevel(actor, p.PowerUserLevel) {
		return deny(ReasonRoleInsufficient)
	}
	if actor.OrganizationID != ApproverOrgID(s.Order) {
		return deny(ReasonNotApprover)
	}
	return allow()
}

func deleteOrder(actor entity.Actor, _ Subject, p Policy) Decision {
	if !hasLevel(actor, p.HighestTierLevel) {
		return deny(ReasonNotHighestTier)
	}
	return allow()
}

func readOrder(actor entity.Actor, s Subject, _ Policy) Decision {
	if s.Order == nil {
		return deny(ReasonMissingSubject)
	}
	switch actor.OrganizationID {
	case s.Order.BuyerOrgID, s.Order.SellerOrgID, s.Order.CompanyID:
		return allow()
	}
	return deny(ReasonNotParty)
}

func acknowledge(actor entity.Actor, s Subject, p Policy) Decision {
	if s.Document == nil {
		return deny(ReasonMissingSubject)
	}
	if actor.OrganizationID != s.Document.ReceiverOrgID {
		return deny(ReasonNotReceiver)
	}
	threshold, ok := p.AckThresholds[s.Document.Type]
	if !ok {
		return deny(ReasonNoThreshold)
	}
	if !hasLevel(actor, threshold) {
		return deny(ReasonRoleInsufficient)
	}
	return allow()
}

func attachProof(actor entity.Actor, s Subject, p Policy) Decision {
	if s.Document == nil {
		return deny(ReasonMissingSubject)
	}
	if actor.OrganizationID != s.Document.ReceiverOrgID {
		return deny(ReasonNotReceiver)
	}
	if !hasLevel(actor, p.SubmitLevel) {
		return deny(ReasonRoleInsufficient)
	}
	return allow()
}

func readDocument(actor entity.Actor, s Subject, _ Policy) Decision {
	if s.Document == nil {
		return deny(ReasonMissingSubject)
	}
	if actor.OrganizationID != s.Document.IssuerOrgID && actor.OrganizationID != s.Document.ReceiverOrgID {
		return deny(ReasonNotParty)
	}
	return allow()
}

func reserveStock(actor entity.Actor, s Subject, p Policy) Decision {
	if s.Order == nil {
		return deny(ReasonMissingSubject)
	}
	if actor.OrganizationID != s.Order.SellerOrgID {
		return deny(ReasonOrgMismatch)
	}
	if !hasLevel(actor, p.PowerUserLevel) {
		return deny(ReasonRoleInsufficient)
	}
	return allow()
}

func moveStock(actor entity.Actor, s Subject, p Policy) Decision {
	if s.LocationOrgID == "" {
		return deny(ReasonMissingSubject)
	}
	if actor.OrganizationID != s.LocationOrgID && (s.CompanyID == "" || actor.OrganizationID != s.CompanyID) {
		return deny(ReasonOrgMismatch)
	}
	if !hasLevel(actor, p.SubmitLevel) {
		return deny(ReasonRoleInsufficient)
	}
	return allow()
}

func readStock(actor entity.Actor, s Subject, _ Policy) Decision {
	if s.LocationOrgID == "" {
		return deny(ReasonMissingSubject)
	}
	if actor.OrganizationID != s.LocationOrgID && (s.CompanyID == "" || actor.OrganizationID != s.CompanyID) {
		return deny(ReasonOrgMismatch)
	}
	return allow()
}

func manageOrganization(actor entity.Actor, s Subject, p Policy) Decision {
	// El nivel más alto administra cualquier compañía (incluida la creación de una HQ).
	if hasLevel(actor, p.HighestTierLevel) {
		return allow()
	}
	if s.CompanyID == "" {
		return deny(ReasonMissingSubject)
	}
	if actor.OrganizationID != s.CompanyID {
		return deny(ReasonOrgMismatch)
	}
	if !hasLevel(actor, p.AdminLevel) {
		return deny(ReasonRoleInsufficient)
	}
	return allow()
}

// readOrganization: cualquier miembro de la misma compañía; el nivel más alto ve todas.
func readOrganization(actor entity.Actor, s Subject, p Policy) Decision {
	if hasLevel(actor, p.HighestTierLevel) {
		return allow()
	}
	if s.CompanyID == "" {
		return deny(ReasonMissingSubject)
	}
	if s.ActorCompanyID != s.CompanyID {
		return deny(ReasonOrgMismatch)
	}
	return allow()
}
