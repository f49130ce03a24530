package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/config"
	"github.com/voxov/voxov/internal/costlayer"
	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/fed"
	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/httpserver"
	"github.com/voxov/voxov/internal/infogene"
	"github.com/voxov/voxov/internal/mapgene"
	"github.com/voxov/voxov/internal/msggene"
	"github.com/voxov/voxov/internal/platform"
	"github.com/voxov/voxov/internal/ripper"
	"github.com/voxov/voxov/internal/session"
	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/store/kv"
	"github.com/voxov/voxov/internal/store/object"
	"github.com/voxov/voxov/internal/telemetry"
)

// registeredGeneIds is exposed in info_1's payload.
var registeredGeneIds = []string{"info_1", "map_1", "msg_1"}

// Run connects to infrastructure using cfg, wires every layer, and serves
// the gateway until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting voxov", "listen", cfg.ListenAddr())

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry()

	gw, ripr := wire(db, rdb, logger, cfg)
	go ripr.Run(ctx)

	srv := httpserver.NewServer(httpserver.Config{CORSAllowedOrigins: cfg.CORSAllowedOrigins}, logger, db, rdb, metricsReg)
	srv.Mount(gw.ServeHTTP)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// wire constructs every layer and registers every gene, returning the
// assembled Gateway and Ripper ready to run.
func wire(pool *pgxpool.Pool, rdb *redis.Client, logger *slog.Logger, cfg *config.Config) (*Gateway, *ripper.Ripper) {
	kvStore := kv.New(rdb)
	docs := doc.New(pool)
	objs := object.New(pool)

	ledger := audit.NewLedger(kvStore, docs, logger)
	ledger.Start(context.Background())

	rates := costmodel.Rates{
		Time:     cfg.TimeCost,
		SpaceDoc: cfg.SpaceCostDoc,
		SpaceObj: cfg.SpaceCostObj,
		Traffic:  cfg.TrafficCost,
	}

	auth := session.New(kvStore, ledger, session.Config{
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		UserTTL:    cfg.UserTTL,
		InitCredit: cfg.InitCredit,
		AuthPhones: cfg.AuthPhones,
	})

	cost := costlayer.New(kvStore, ledger, costlayer.Config{
		CreditLimit:    cfg.CreditLimit,
		Rates:          rates,
		CheckInAward:   cfg.CheckInAward,
		CheckInRefresh: cfg.CheckInRefresh,
	})

	fedLayer := fed.New()

	genes := gene.NewRegistry()
	genes.Register("map_1", mapgene.Dispatch(docs, ledger, cfg.SpaceCostDoc, cfg.TrafficCost))
	genes.Register("msg_1", msggene.Dispatch(docs, kvStore, ledger, cfg.SpaceCostDoc, cfg.TrafficCost))

	infoPayload, err := infogene.Build(cfg, registeredGeneIds)
	if err != nil {
		logger.Error("building info_1 payload", "error", err)
	}
	infoDispatch := infogene.Dispatch(infoPayload)
	genes.Register("info_1", func(ctx context.Context, g *gene.Ctx, arg string) (string, error) {
		result, err := infoDispatch(g.Uid.String(), arg)
		if err != nil {
			return "", err
		}
		if err := g.Time(); err != nil {
			return "", err
		}
		if err := g.Refund(ctx); err != nil {
			return "", err
		}
		return result, nil
	})

	gw := NewGateway(auth, cost, fedLayer, genes, ledger, docs, objs, rates)

	ripr := ripper.New(docs, objs, logger, ripper.Config{
		Disabled:           cfg.RipperdDisabled,
		Interval:           cfg.RipperdInterval,
		SweepLimit:         cfg.RipperdSweepLimit,
		CreditLogRetention: cfg.CreditLogRetention,
	})

	return gw, ripr
}
