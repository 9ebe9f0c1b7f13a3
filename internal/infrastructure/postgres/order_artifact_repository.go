package postgres

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

var _ repository.OrderArtifactRepository = (*OrderArtifactRepo)(nil)

// OrderArtifactRepo artefactos QR/lote por orden.
type OrderArtifactRepo struct {
	q Querier
}

// NewOrderArtifactRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderArtifactRepository(q Querier) *OrderArtifactRepo {
	return &OrderArtifactRepo{q: q}
}

func (r *OrderArtifactRepo) Create(ctx context.Context, a *entity.OrderArtifact) error {
	query := `INSERT INTO order_artifacts (id, order_id, kind, code, finalized) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, a.ID, a.OrderID, a.Kind, a.Code, a.Finalized)
	return mapError("create order artifact", err)
}

func (r *OrderArtifactRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.OrderArtifact, error) {
	query := `SELECT id, order_id, kind, code, finalized FROM order_artifacts WHERE order_id = $1 ORDER BY code`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, mapError("list order artifacts", err)
	}
	defer rows.Close()

	var list []*entity.OrderArtifact
	for rows.Next() {
		var a entity.OrderArtifact
		if err := rows.Scan(&a.ID, &a.OrderID, &a.Kind, &a.Code, &a.Finalized); err != nil {
			return nil, mapError("scan order artifact", err)
		}
		list = append(list, &a)
	}
	return list, mapError("list order artifacts", rows.Err())
}

func (r *OrderArtifactRepo) DeleteNonFinalizedByOrder(ctx context.Context, orderID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM order_artifacts WHERE order_id = $1 AND NOT finalized`, orderID)
	return mapError("delete order artifacts", err)
}
