package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/supplychain-core/internal/domain"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx: los repositorios funcionan con cualquiera.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Códigos SQLSTATE que se tratan como contención (reintentables).
const (
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014" // statement_timeout
	codeUniqueViolation      = "23505"
)

// Restricciones de unicidad con significado de dominio.
const (
	documentsOrderTypeKey = "documents_order_type_key" // (order_id, type)
	movementsIdemKey      = "idx_stock_movements_idem" // otra transacción escribió la misma clave
)

// mapError convierte errores de PostgreSQL en errores de dominio y envuelve el resto con op.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
			return fmt.Errorf("%s: %w", op, domain.ErrContention)
		case codeUniqueViolation:
			switch pgErr.ConstraintName {
			case documentsOrderTypeKey:
				return fmt.Errorf("%s: %w", op, domain.ErrDuplicateDocument)
			case movementsIdemKey:
				return fmt.Errorf("%s: %w", op, domain.ErrContention)
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// limitArg traduce limit <= 0 a NULL (LIMIT NULL equivale a sin límite).
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
