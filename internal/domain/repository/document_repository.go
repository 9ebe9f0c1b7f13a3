package repository

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para los documentos de la cadena.
// Create devuelve domain.ErrDuplicateDocument si ya existe un documento del mismo tipo para la orden.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Document, error)
	GetByOrderAndType(ctx context.Context, orderID string, docType entity.DocumentType) (*entity.Document, error)
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Document, error)
	// Update persiste estado, reconocimiento y comprobante.
	Update(ctx context.Context, doc *entity.Document) error
	DeleteByOrder(ctx context.Context, orderID string) error
	// ListIncomplete lista documentos reconocidos de órdenes aún aprobadas a los que les falta
	// el paso siguiente, del más antiguo al más reciente:
	//   - PO sin INVOICE, INVOICE sin PAYMENT;
	//   - PAYMENT sin RECEIPT o sin movimientos de cumplimiento, o cualquier PAYMENT si
	//     closeOnReceiptCreated (la orden ya debía estar cerrada);
	//   - RECEIPT reconocido si la orden cierra con ese reconocimiento.
	ListIncomplete(ctx context.Context, closeOnReceiptCreated bool, limit int) ([]*entity.Document, error)
}
