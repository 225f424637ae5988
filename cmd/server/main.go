package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"fedbridge/internal/audit"
	jwttoken "fedbridge/internal/jwt_token"
	"fedbridge/internal/mintregistry"
	"fedbridge/internal/platform/config"
	"fedbridge/internal/platform/httpserver"
	"fedbridge/internal/platform/logger"
	"fedbridge/internal/platform/metrics"
	platformredis "fedbridge/internal/platform/redis"
	"fedbridge/internal/policy"
	"fedbridge/internal/policy/spendtotals"
	"fedbridge/internal/swap"
	swaphandler "fedbridge/internal/swap/handler"
	httptransport "fedbridge/internal/transport/http"
	"fedbridge/internal/wallet"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checks := make(map[string]httptransport.HealthChecker)

	// Swap persistence: Postgres when configured, in-memory otherwise.
	var swapStore swap.Store = swap.NewInMemoryStore()
	var auditStore audit.Store = audit.NewInMemoryStore()
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		swapStore = swap.NewPostgresStore(pool)
		checks["postgres"] = pgxHealth{pool}

		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open audit database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		auditStore = audit.NewPostgresStore(db)
	}

	// Spend accounting: Redis makes the daily ceilings atomic across
	// replicas; a single instance can run in-memory.
	var totals spendtotals.Store = spendtotals.NewInMemoryStore()
	if cfg.Redis.URL != "" {
		rdb, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		totals = spendtotals.NewRedisStore(rdb.Unwrap(), cfg.Policy.SpendTotalsRetention)
		checks["redis"] = rdb
	}

	// Kafka audit fan-out rides a buffered channel so broker latency never
	// sits on the swap path.
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("failed to create kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()

		queue := audit.NewChannelSink(1024)
		worker := audit.NewWorker(kafkaSink, queue.Events(), log)
		go func() {
			if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("audit worker stopped", "error", err)
			}
		}()
		auditStore = audit.Tee{Primary: auditStore, Secondary: queue}
	}

	mints := mintregistry.NewRegistry(
		mintregistry.Entry{
			Protocol: mintregistry.ProtocolFedimint,
			Enabled:  true,
			Fedimint: &mintregistry.FedimintConfig{
				FederationURL: cfg.Mints.FederationURL,
				GuardianURLs:  cfg.Mints.GuardianURLs,
			},
		},
		mintregistry.Entry{
			Protocol: mintregistry.ProtocolCashu,
			Enabled:  true,
			Cashu: &mintregistry.CashuConfig{
				MintURLs:    cfg.Mints.CashuMints,
				DefaultMint: cfg.Mints.DefaultCashu,
			},
		},
		mintregistry.Entry{
			Protocol: mintregistry.ProtocolNative,
			Enabled:  true,
			Native:   &mintregistry.NativeConfig{URL: cfg.Mints.NativeURL},
		},
	)

	// Wallet clients: the simulator stands in until the per-protocol SDK
	// clients land behind the same port.
	wallets := wallet.NewRegistry()
	for _, p := range []mintregistry.Protocol{
		mintregistry.ProtocolFedimint,
		mintregistry.ProtocolCashu,
		mintregistry.ProtocolNative,
		mintregistry.ProtocolLightning,
	} {
		wallets.Register(p, wallet.NewSimulator())
	}

	engine := policy.NewEngine(policy.Limits{
		DailySpend:        cfg.Policy.DailySpendLimit,
		PerTransaction:    cfg.Policy.PerTransactionLimit,
		ApprovalThreshold: cfg.Policy.ApprovalThreshold,
	})

	orchestrator, err := swap.New(swapStore, totals, mints, wallets, engine,
		swap.WithLogger(log),
		swap.WithMetrics(m),
		swap.WithAuditPublisher(audit.NewPublisher(auditStore)),
		swap.WithCallTimeout(cfg.Swap.ExternalCallTimeout),
		swap.WithIdempotencyWindow(cfg.Swap.IdempotencyWindow),
	)
	if err != nil {
		log.Error("failed to build orchestrator", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	bridge := swaphandler.New(orchestrator, mints, log, m, jwttoken.NewJWTServiceAdapter(jwtService))

	router := httptransport.NewRouter(log, checks, bridge)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting fedbridge", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server lifecycle failed", "error", err)
		os.Exit(1)
	}
}

// pgxHealth adapts a pgx pool to the router's health check port.
type pgxHealth struct {
	pool *pgxpool.Pool
}

func (h pgxHealth) Health(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
