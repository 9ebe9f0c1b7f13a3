package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/application/notify"
	"github.com/jhoicas/supplychain-core/internal/application/orders"
	"github.com/jhoicas/supplychain-core/internal/application/organization"
	"github.com/jhoicas/supplychain-core/internal/application/recovery"
	httpRouter "github.com/jhoicas/supplychain-core/internal/interfaces/http"
	"github.com/jhoicas/supplychain-core/pkg/config"
	"github.com/jhoicas/supplychain-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer st.close()

	locker, closeLocker := buildLocker(ctx, cfg, log)
	defer closeLocker()

	notifier, closeNotifier := buildNotifier(ctx, cfg, log)
	defer closeNotifier()

	verifier, closeVerifier := buildVerifier(ctx, cfg, log)
	defer closeVerifier()

	policy := policyFrom(cfg.Workflow)
	settings := settingsFrom(cfg.Workflow)

	ledgerUC := inventory.NewLedgerUseCase(st.tx, st.repos, locker, policy)
	orderUC := orders.NewOrderUseCase(st.tx, st.repos, locker, ledgerUC, policy, settings)
	chainUC := orders.NewDocumentChainUseCase(st.tx, st.repos, locker, ledgerUC, verifier, policy, settings)
	orgUC := organization.NewUseCase(st.repos.Organizations, policy)

	relay := notify.NewRelay(st.repos.Outbox, notifier, log.Zerolog())
	relay.Interval = cfg.Workers.OutboxInterval
	relay.BatchSize = cfg.Workers.OutboxBatchSize
	relay.MaxAttempts = cfg.Workers.OutboxMaxAttempt

	reconciler := recovery.NewReconciler(st.repos, chainUC, ledgerUC, log.Zerolog())

	app := httpRouter.NewServer(httpRouter.RouterDeps{
		Organizations:    orgUC,
		Orders:           orderUC,
		Chain:            chainUC,
		Ledger:           ledgerUC,
		JWTSecret:        cfg.JWT.Secret,
		HighestTierLevel: cfg.Workflow.HighestTierLevel,
	}, httpRouter.ServerOptions{
		AppName:   cfg.App.Name,
		RateLimit: cfg.HTTP.RateLimit,
		Log:       log.Zerolog(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := cfg.HTTP.Addr()
		log.Info().Str("addr", addr).Msg("servidor escuchando")
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("apagando servidor")
		return app.ShutdownWithContext(sctx)
	})
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error { return reconciler.Run(gctx, cfg.Workers.RecoveryInterval) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor terminado con error")
		return
	}
	log.Info().Msg("servidor detenido")
}
