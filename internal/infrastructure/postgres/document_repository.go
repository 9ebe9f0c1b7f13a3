package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository sobre PostgreSQL.
// La unicidad (orden, tipo) la garantiza el constraint documents_order_type_key.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `
	d.id, d.order_id, d.type, d.number, d.status, d.issuer_org_id, d.receiver_org_id, d.proof_ref,
	d.created_at, d.acknowledged_at, d.acknowledged_by`

// rango de la cadena para ordenar PO < INVOICE < PAYMENT < RECEIPT.
const documentRank = `
	CASE d.type WHEN 'PO' THEN 1 WHEN 'INVOICE' THEN 2 WHEN 'PAYMENT' THEN 3 ELSE 4 END`

// Create inserta el documento; ErrDuplicateDocument si la orden ya tiene uno de ese tipo.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (id, order_id, type, number, status, issuer_org_id, receiver_org_id, proof_ref,
		                       created_at, acknowledged_at, acknowledged_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.OrderID, doc.Type, doc.Number, doc.Status, doc.IssuerOrgID, doc.ReceiverOrgID, doc.ProofRef,
		doc.CreatedAt, doc.AcknowledgedAt, doc.AcknowledgedBy,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicateDocument
	}
	return mapError("create document", err)
}

// GetByID obtiene un documento; (nil, nil) si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = $1`, id)
}

// GetForUpdate bloquea la fila del documento.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = $1 FOR UPDATE`, id)
}

// GetByOrderAndType obtiene el documento de un tipo para la orden; (nil, nil) si no existe.
func (r *DocumentRepo) GetByOrderAndType(ctx context.Context, orderID string, docType entity.DocumentType) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.order_id = $1 AND d.type = $2`
	return r.getOne(ctx, query, orderID, docType)
}

func (r *DocumentRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Document, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get document", err)
	}
	return doc, nil
}

// ListByOrder lista los documentos de la orden en el orden de la cadena.
func (r *DocumentRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.order_id = $1 ORDER BY ` + documentRank
	return r.list(ctx, query, orderID)
}

// Update persiste estado, reconocimiento y comprobante.
func (r *DocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	query := `
		UPDATE documents
		SET status = $2, proof_ref = $3, acknowledged_at = $4, acknowledged_by = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, doc.ID, doc.Status, doc.ProofRef, doc.AcknowledgedAt, doc.AcknowledgedBy)
	if err != nil {
		return mapError("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByOrder elimina todos los documentos de la orden.
func (r *DocumentRepo) DeleteByOrder(ctx context.Context, orderID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM documents WHERE order_id = $1`, orderID)
	return mapError("delete documents", err)
}

// ListIncomplete lista documentos reconocidos de órdenes aprobadas cuyo paso siguiente falta.
func (r *DocumentRepo) ListIncomplete(ctx context.Context, closeOnReceiptCreated bool, limit int) ([]*entity.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents d
		JOIN orders o ON o.id = d.order_id
		WHERE d.status = 'acknowledged' AND o.status = 'approved'
		  AND (
		        (d.type = 'PO' AND NOT EXISTS (
		            SELECT 1 FROM documents s WHERE s.order_id = d.order_id AND s.type = 'INVOICE'))
		     OR (d.type = 'INVOICE' AND NOT EXISTS (
		            SELECT 1 FROM documents s WHERE s.order_id = d.order_id AND s.type = 'PAYMENT'))
		     OR (d.type = 'PAYMENT' AND (
		            $1::boolean
		         OR NOT EXISTS (SELECT 1 FROM documents s WHERE s.order_id = d.order_id AND s.type = 'RECEIPT')
		         OR NOT EXISTS (SELECT 1 FROM stock_movements m
		                        WHERE m.reference_type = 'order' AND m.reference_id = d.order_id::text
		                          AND m.kind = 'order_fulfillment')))
		     OR (d.type = 'RECEIPT' AND NOT $1::boolean)
		  )
		ORDER BY d.created_at
		LIMIT $2`
	return r.list(ctx, query, closeOnReceiptCreated, limitArg(limit))
}

func (r *DocumentRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Document, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list documents", err)
	}
	defer rows.Close()

	var list []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, mapError("scan document", err)
		}
		list = append(list, doc)
	}
	return list, mapError("list documents", rows.Err())
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(&d.ID, &d.OrderID, &d.Type, &d.Number, &d.Status, &d.IssuerOrgID, &d.ReceiverOrgID, &d.ProofRef,
		&d.CreatedAt, &d.AcknowledgedAt, &d.AcknowledgedBy)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
