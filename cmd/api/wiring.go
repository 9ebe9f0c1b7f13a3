package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/supplychain-core/internal/application/orders"
	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/infrastructure/gcs"
	"github.com/jhoicas/supplychain-core/internal/infrastructure/memory"
	"github.com/jhoicas/supplychain-core/internal/infrastructure/postgres"
	infrapubsub "github.com/jhoicas/supplychain-core/internal/infrastructure/pubsub"
	"github.com/jhoicas/supplychain-core/internal/infrastructure/redislock"
	"github.com/jhoicas/supplychain-core/migrations"
	"github.com/jhoicas/supplychain-core/pkg/config"
	"github.com/jhoicas/supplychain-core/pkg/logger"
)

type store struct {
	tx    ports.TxRunner
	repos ports.Repos
	close func()
}

// openStore abre PostgreSQL (aplicando migraciones si está habilitado) o la tienda en memoria.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store, error) {
	if cfg.App.Store == "memory" {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		mem := memory.NewStore()
		return &store{tx: mem, repos: mem.Repos(), close: func() {}}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, migrations.FS); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &store{
		tx:    postgres.NewTxRunner(pool, cfg.DB.LockTimeout),
		repos: postgres.NewRepos(pool),
		close: pool.Close,
	}, nil
}

// buildLocker usa Redis si hay dirección configurada; sin Redis los bloqueos solo valen para esta instancia.
func buildLocker(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.Locker, func()) {
	if !cfg.Redis.Enabled() {
		return memory.NewLocker(cfg.Workflow.LockWait), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("bloqueos distribuidos en Redis")
	return redislock.New(rdb, cfg.Workflow.LockWait, log.Zerolog()), func() { _ = rdb.Close() }
}

func buildNotifier(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.Notifier, func()) {
	if cfg.PubSub.ProjectID == "" {
		return infrapubsub.NewLogNotifier(log.Zerolog()), func() {}
	}
	n, err := infrapubsub.NewNotifier(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicPrefix, cfg.PubSub.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente Pub/Sub")
	}
	return n, func() { _ = n.Close() }
}

// buildVerifier devuelve nil si no hay bucket: los comprobantes se aceptan sin comprobar.
func buildVerifier(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.ProofVerifier, func()) {
	if cfg.Storage.Bucket == "" {
		return nil, func() {}
	}
	v, err := gcs.NewProofVerifier(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente Cloud Storage")
	}
	return v, func() { _ = v.Close() }
}

func policyFrom(w config.WorkflowConfig) access.Policy {
	return access.Policy{
		PowerUserLevel:   w.PowerUserLevel,
		HighestTierLevel: w.HighestTierLevel,
		SubmitLevel:      w.SubmitLevel,
		AdminLevel:       w.AdminLevel,
		AckThresholds: map[entity.DocumentType]int{
			entity.DocumentTypePO:      w.AckPOLevel,
			entity.DocumentTypeInvoice: w.AckInvoiceLevel,
			entity.DocumentTypePayment: w.AckPaymentLevel,
			entity.DocumentTypeReceipt: w.AckReceiptLevel,
		},
	}
}

func settingsFrom(w config.WorkflowConfig) orders.Settings {
	return orders.Settings{
		CloseOn:            orders.ClosePolicy(w.ClosePolicy),
		ParentOrderWindow:  w.ParentOrderWindow,
		RequireParentOrder: w.RequireParentOrder,
	}
}
