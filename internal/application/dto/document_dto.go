package dto

import "time"

// AcknowledgeRequest body para POST /api/documents/:id/acknowledge.
type AcknowledgeRequest struct {
	ProofRef string `json:"proof_ref,omitempty" validate:"omitempty,max=1024"`
}

// AttachProofRequest body para POST /api/documents/:id/proof.
type AttachProofRequest struct {
	ProofRef string `json:"proof_ref" validate:"required,max=1024"`
}

// DocumentResponse respuesta de documento.
type DocumentResponse struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"order_id"`
	Type           string     `json:"type"`
	Number         string     `json:"number"`
	Status         string     `json:"status"`
	IssuerOrgID    string     `json:"issuer_org_id"`
	ReceiverOrgID  string     `json:"receiver_org_id"`
	ProofRef       string     `json:"proof_ref,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
}

// AcknowledgeResponse documento reconocido y, si se creó, su sucesor.
// AlreadyAcknowledged indica que la llamada no tuvo efectos.
type AcknowledgeResponse struct {
	Document            DocumentResponse  `json:"document"`
	Next                *DocumentResponse `json:"next,omitempty"`
	OrderStatus         string            `json:"order_status"`
	AlreadyAcknowledged bool              `json:"already_acknowledged"`
}

// DocumentSnapshotResponse vista puntual de un documento para el renderizador PDF.
type DocumentSnapshotResponse struct {
	Document    DocumentResponse `json:"document"`
	Order       OrderResponse    `json:"order"`
	Issuer      OrganizationLite `json:"issuer"`
	Receiver    OrganizationLite `json:"receiver"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// OrganizationLite datos mínimos de una organización en documentos.
type OrganizationLite struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}
