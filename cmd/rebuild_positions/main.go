// rebuild_positions reproduce el libro de movimientos y repara las posiciones de inventario
// que no coinciden con él.
//
// Uso: go run ./cmd/rebuild_positions [-variant ID -org ID] [-dry-run=false]
// Sin -variant/-org recorre todas las claves con movimientos. Por defecto solo informa.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	domaininv "github.com/jhoicas/supplychain-core/internal/domain/inventory"
	"github.com/jhoicas/supplychain-core/internal/infrastructure/memory"
	"github.com/jhoicas/supplychain-core/internal/infrastructure/postgres"
	"github.com/jhoicas/supplychain-core/pkg/config"
	"github.com/jhoicas/supplychain-core/pkg/logger"
)

func main() {
	variantID := flag.String("variant", "", "variante a reconstruir (requiere -org)")
	orgID := flag.String("org", "", "organización a reconstruir (requiere -variant)")
	dryRun := flag.Bool("dry-run", true, "solo informa desviaciones, no escribe")
	flag.Parse()

	if (*variantID == "") != (*orgID == "") {
		fmt.Fprintln(os.Stderr, "-variant y -org van juntos")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "rebuild_positions"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	repos := postgres.NewRepos(pool)
	ledger := inventory.NewLedgerUseCase(
		postgres.NewTxRunner(pool, cfg.DB.LockTimeout), repos,
		memory.NewLocker(cfg.Workflow.LockWait), access.DefaultPolicy(),
	)

	keys := []entity.StockKey{{VariantID: strings.TrimSpace(*variantID), OrganizationID: strings.TrimSpace(*orgID)}}
	if *variantID == "" {
		if keys, err = repos.Movements.ListKeys(ctx); err != nil {
			log.Fatal().Err(err).Msg("listar claves")
		}
	}

	drifted, failed := 0, 0
	for _, key := range keys {
		var isDrifted bool
		if *dryRun {
			isDrifted, err = compare(ctx, repos.Movements, repos.Positions, key)
		} else {
			_, isDrifted, err = ledger.RecomputePosition(ctx, key)
		}
		if err != nil {
			failed++
			log.Error().Err(err).Str("key", key.String()).Msg("no se pudo reconstruir")
			continue
		}
		if isDrifted {
			drifted++
			log.Warn().Str("key", key.String()).Bool("repaired", !*dryRun).Msg("posición desviada")
		}
	}

	log.Info().
		Int("keys", len(keys)).
		Int("drifted", drifted).
		Int("failed", failed).
		Bool("dry_run", *dryRun).
		Msg("reconstrucción terminada")
	if failed > 0 {
		os.Exit(1)
	}
}

type movementLister interface {
	ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.StockMovement, error)
}

type positionGetter interface {
	Get(ctx context.Context, key entity.StockKey) (*entity.InventoryPosition, error)
}

func compare(ctx context.Context, movs movementLister, positions positionGetter, key entity.StockKey) (bool, error) {
	ledger, err := movs.ListByKey(ctx, key)
	if err != nil {
		return false, err
	}
	current, err := positions.Get(ctx, key)
	if err != nil {
		return false, err
	}
	replayed, err := domaininv.Replay(key, ledger)
	if err != nil {
		return false, err
	}
	return !replayed.SameQuantities(current), nil
}
