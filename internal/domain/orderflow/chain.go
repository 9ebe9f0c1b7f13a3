package orderflow

import (
	"strings"
	"time"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// chain: orden total de la cadena y sentido emisor -> receptor de cada documento.
var chain = []struct {
	docType     entity.DocumentType
	buyerIssues bool
}{
	{entity.DocumentTypePO, true},
	{entity.DocumentTypeInvoice, false},
	{entity.DocumentTypePayment, true},
	{entity.DocumentTypeReceipt, false},
}

// Rank devuelve la posición del tipo en la cadena (PO=0) o -1 si es desconocido.
func Rank(t entity.DocumentType) int {
	for i, link := range chain {
		if link.docType == t {
			return i
		}
	}
	return -1
}

// Successor devuelve el documento que sigue a t; RECEIPT no tiene sucesor.
func Successor(t entity.DocumentType) (entity.DocumentType, bool) {
	i := Rank(t)
	if i < 0 || i+1 >= len(chain) {
		return "", false
	}
	return chain[i+1].docType, true
}

// Predecessor devuelve el documento que debe estar reconocido antes de crear t; PO no tiene.
func Predecessor(t entity.DocumentType) (entity.DocumentType, bool) {
	i := Rank(t)
	if i <= 0 {
		return "", false
	}
	return chain[i-1].docType, true
}

// Parties devuelve (emisor, receptor) del documento t para la orden.
// PO y PAYMENT van del comprador al vendedor; INVOICE y RECEIPT del vendedor al comprador.
func Parties(order *entity.Order, t entity.DocumentType) (issuer, receiver string) {
	i := Rank(t)
	if i < 0 {
		return "", ""
	}
	if chain[i].buyerIssues {
		return order.BuyerOrgID, order.SellerOrgID
	}
	return order.SellerOrgID, order.BuyerOrgID
}

// DocumentNumber número determinista "<TIPO>-<prefijo del id de la orden>".
func DocumentNumber(t entity.DocumentType, orderID string) string {
	prefix := strings.ReplaceAll(orderID, "-", "")
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return string(t) + "-" + strings.ToUpper(prefix)
}

// NewDocument construye el documento t (pending) de la orden.
func NewDocument(id string, order *entity.Order, t entity.DocumentType, now time.Time) *entity.Document {
	issuer, receiver := Parties(order, t)
	return &entity.Document{
		ID:            id,
		OrderID:       order.ID,
		Type:          t,
		Number:        DocumentNumber(t, order.ID),
		Status:        entity.DocumentStatusPending,
		IssuerOrgID:   issuer,
		ReceiverOrgID: receiver,
		CreatedAt:     now,
	}
}
