package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shipquote-backend/api/routes"
	"github.com/angelmondragon/shipquote-backend/internal/catalog"
	"github.com/angelmondragon/shipquote-backend/internal/lineitems"
	ordersvc "github.com/angelmondragon/shipquote-backend/internal/orders"
	"github.com/angelmondragon/shipquote-backend/internal/packages"
	provisioningsvc "github.com/angelmondragon/shipquote-backend/internal/provisioning"
	"github.com/angelmondragon/shipquote-backend/internal/quotes"
	"github.com/angelmondragon/shipquote-backend/internal/storeopts"
	"github.com/angelmondragon/shipquote-backend/pkg/config"
	"github.com/angelmondragon/shipquote-backend/pkg/db"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/metrics"
	"github.com/angelmondragon/shipquote-backend/pkg/migrate"
	"github.com/angelmondragon/shipquote-backend/pkg/redis"
	"github.com/angelmondragon/shipquote-backend/pkg/remote"
	"github.com/angelmondragon/shipquote-backend/pkg/session"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pipelineMetrics := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	optionsRepo := storeopts.NewRepository(dbClient.DB())

	tenantID := cfg.Remote.TenantID
	if tenantID == "" {
		tenantID, err = storeopts.EnsureTenantID(context.Background(), optionsRepo, cfg.Store.Host())
		if err != nil {
			logg.Error(context.Background(), "failed to resolve tenant id", err)
			os.Exit(1)
		}
	}

	remoteClient, err := remote.NewClient(cfg.Remote, redisClient, tenantID, logg, pipelineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create remote client", err)
		os.Exit(1)
	}

	sessions, err := session.NewStore(redisClient, cfg.Session.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())

	normalizer, err := lineitems.NewNormalizer(catalogRepo, cfg.Store.WeightUnitEnum(), cfg.Store.DimensionUnitEnum())
	if err != nil {
		logg.Error(context.Background(), "failed to create line-item normalizer", err)
		os.Exit(1)
	}

	assembler, err := packages.NewAssembler(normalizer, sessions, cfg.Store.ShipToEnum(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create package assembler", err)
		os.Exit(1)
	}

	quoteService, err := quotes.NewService(remoteClient, redisClient, redisClient, cfg.Remote, cfg.Store, pipelineMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
		os.Exit(1)
	}

	provisioningService, err := provisioningsvc.NewService(
		remoteClient,
		remoteClient,
		optionsRepo,
		provisioningsvc.NewInstallationRepository(dbClient.DB()),
		redisClient,
		redisClient,
		cfg.Remote,
		cfg.Store,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create provisioning service", err)
		os.Exit(1)
	}

	orderEnricher, err := ordersvc.NewEnricher(normalizer, sessions, remoteClient, cfg.Store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order enricher", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:       cfg,
			Logger:       logg,
			DBPinger:     dbClient,
			RedisPinger:  redisClient,
			Sessions:     sessions,
			Assembler:    assembler,
			Quotes:       quoteService,
			Orders:       orderEnricher,
			Provisioning: provisioningService,
			Catalog:      catalogRepo,
			Remote:       remoteClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
