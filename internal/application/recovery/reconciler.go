// Package recovery completa las secuencias de escritura interrumpidas por una caída
// y repara posiciones de inventario desfasadas respecto al libro.
package recovery

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/application/orders"
	"github.com/jhoicas/supplychain-core/internal/application/ports"
)

// Report resumen de una pasada de reconciliación.
type Report struct {
	DocumentsChecked  int
	DocumentsResumed  int
	PositionsChecked  int
	PositionsRepaired int
	Failures          int
}

// Reconciler detecta y completa:
//   - documentos reconocidos sin sucesor;
//   - PAYMENT reconocido sin movimientos de cumplimiento;
//   - RECEIPT creado con la orden aún abierta;
//   - posiciones cuyo LastSeq está por detrás del libro (se recalculan por replay).
type Reconciler struct {
	repos     ports.Repos
	chain     *orders.DocumentChainUseCase
	ledger    *inventory.LedgerUseCase
	log       zerolog.Logger
	BatchSize int
}

// NewReconciler construye el reconciliador. repos son repositorios fuera de transacción.
func NewReconciler(repos ports.Repos, chain *orders.DocumentChainUseCase, ledger *inventory.LedgerUseCase, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		repos:     repos,
		chain:     chain,
		ledger:    ledger,
		log:       log.With().Str("component", "recovery").Logger(),
		BatchSize: 200,
	}
}

// Reconcile ejecuta una pasada completa. Los fallos por elemento se registran y se cuentan;
// solo los errores de lectura de candidatos se devuelven.
func (rc *Reconciler) Reconcile(ctx context.Context) (Report, error) {
	var rep Report

	closeOnCreated := rc.chain.CloseOn() == orders.CloseOnReceiptCreated
	docs, err := rc.repos.Documents.ListIncomplete(ctx, closeOnCreated, rc.BatchSize)
	if err != nil {
		return rep, err
	}
	for _, d := range docs {
		rep.DocumentsChecked++
		changed, err := rc.chain.Resume(ctx, d.ID)
		if err != nil {
			rep.Failures++
			rc.log.Error().Err(err).Str("document_id", d.ID).Str("order_id", d.OrderID).Msg("no se pudo completar la cadena")
			continue
		}
		if changed {
			rep.DocumentsResumed++
			rc.log.Info().Str("document_id", d.ID).Str("order_id", d.OrderID).Str("type", string(d.Type)).
				Msg("cadena de documentos completada")
		}
	}

	keys, err := rc.repos.Movements.ListStaleKeys(ctx, rc.BatchSize)
	if err != nil {
		return rep, err
	}
	for _, k := range keys {
		rep.PositionsChecked++
		_, drifted, err := rc.ledger.RecomputePosition(ctx, k)
		if err != nil {
			rep.Failures++
			rc.log.Error().Err(err).Str("variant_id", k.VariantID).Str("org_id", k.OrganizationID).Msg("no se pudo recalcular la posición")
			continue
		}
		if drifted {
			rep.PositionsRepaired++
			rc.log.Warn().Str("variant_id", k.VariantID).Str("org_id", k.OrganizationID).Msg("posición reparada desde el libro")
		}
	}
	return rep, nil
}

// Run ejecuta Reconcile al arrancar y luego cada interval hasta que ctx se cancele.
func (rc *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	for {
		rep, err := rc.Reconcile(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			rc.log.Error().Err(err).Msg("reconciliación fallida")
		case rep.DocumentsResumed > 0 || rep.PositionsRepaired > 0 || rep.Failures > 0:
			rc.log.Info().
				Int("documents_resumed", rep.DocumentsResumed).
				Int("positions_repaired", rep.PositionsRepaired).
				Int("failures", rep.Failures).
				Msg("reconciliación terminada")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}
