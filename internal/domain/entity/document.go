package entity

import "time"

// DocumentType tipo de documento de la cadena; el orden de las constantes es el orden total PO < INVOICE < PAYMENT < RECEIPT.
type DocumentType string

const (
	DocumentTypePO      DocumentType = "PO"
	DocumentTypeInvoice DocumentType = "INVOICE"
	DocumentTypePayment DocumentType = "PAYMENT"
	DocumentTypeReceipt DocumentType = "RECEIPT"
)

// DocumentStatus estado de un documento.
type DocumentStatus string

const (
	DocumentStatusPending      DocumentStatus = "pending"
	DocumentStatusAcknowledged DocumentStatus = "acknowledged"
)

// Document representa un documento de la cadena PO → INVOICE → PAYMENT → RECEIPT de una orden.
type Document struct {
	ID             string
	OrderID        string
	Type           DocumentType
	Number         string
	Status         DocumentStatus
	IssuerOrgID    string
	ReceiverOrgID  string
	ProofRef       string // referencia al comprobante en almacenamiento externo (solo INVOICE)
	CreatedAt      time.Time
	AcknowledgedAt *time.Time
	AcknowledgedBy string
}

// IsAcknowledged indica si el documento ya fue reconocido.
func (d *Document) IsAcknowledged() bool {
	return d.Status == DocumentStatusAcknowledged
}
