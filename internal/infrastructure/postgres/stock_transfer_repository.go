package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

var _ repository.StockTransferRepository = (*StockTransferRepo)(nil)

// StockTransferRepo implementación sobre stock_transfers + stock_transfer_lines.
type StockTransferRepo struct {
	q Querier
}

// NewStockTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransferRepository(q Querier) *StockTransferRepo {
	return &StockTransferRepo{q: q}
}

const transferColumns = `id, from_org_id, to_org_id, status, notes, created_by, created_at, received_by, received_at`

// Create inserta la cabecera y las líneas del traslado.
func (r *StockTransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	query := `INSERT INTO stock_transfers (` + transferColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.FromOrgID, t.ToOrgID, t.Status, t.Notes, t.CreatedBy, t.CreatedAt, t.ReceivedBy, t.ReceivedAt,
	)
	if err != nil {
		return mapError("create stock transfer", err)
	}
	if len(t.Lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range t.Lines {
		batch.Queue(`
			INSERT INTO stock_transfer_lines (id, transfer_id, variant_id, quantity, unit_cost, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, t.ID, l.VariantID, l.Quantity, l.UnitCost, i,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range t.Lines {
		if _, err := br.Exec(); err != nil {
			return mapError("insert stock transfer line", err)
		}
	}
	return nil
}

// GetByID obtiene el traslado con sus líneas; (nil, nil) si no existe.
func (r *StockTransferRepo) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera del traslado.
func (r *StockTransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *StockTransferRepo) get(ctx context.Context, query, id string) (*entity.StockTransfer, error) {
	var t entity.StockTransfer
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.FromOrgID, &t.ToOrgID, &t.Status, &t.Notes, &t.CreatedBy, &t.CreatedAt, &t.ReceivedBy, &t.ReceivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get stock transfer", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, transfer_id, variant_id, quantity, unit_cost
		FROM stock_transfer_lines
		WHERE transfer_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, mapError("list stock transfer lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.StockTransferLine
		if err := rows.Scan(&l.ID, &l.TransferID, &l.VariantID, &l.Quantity, &l.UnitCost); err != nil {
			return nil, mapError("scan stock transfer line", err)
		}
		t.Lines = append(t.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list stock transfer lines", err)
	}
	return &t, nil
}

// Update persiste estado y datos de recepción.
func (r *StockTransferRepo) Update(ctx context.Context, t *entity.StockTransfer) error {
	query := `UPDATE stock_transfers SET status = $2, received_by = $3, received_at = $4 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, t.ID, t.Status, t.ReceivedBy, t.ReceivedAt)
	if err != nil {
		return mapError("update stock transfer", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
