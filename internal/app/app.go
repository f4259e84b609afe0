package app

import (
	"context"
	"database/sql"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mygarage/internal/config"
	httpserver "mygarage/internal/http"
	"mygarage/internal/http/handlers"
	"mygarage/internal/http/middleware"
	"mygarage/internal/livelink"
	"mygarage/internal/password"
	platformdb "mygarage/internal/platform/db"
	platformredis "mygarage/internal/platform/redis"
	"mygarage/internal/recalls"
	"mygarage/internal/redisstore"
	"mygarage/internal/repository"
	"mygarage/internal/service"
)

// App wires mygarage server dependencies.
type App struct {
	server      *httpserver.Server
	manager     *livelink.Manager
	mqttIngest  *livelink.MQTTIngest
	recallFeed  *recalls.Client
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := platformdb.Connect(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := platformredis.Connect(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		sqlDB.Close()
		redisClient.Close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(sqlDB)
	vehicleRepo := repository.NewVehicleRepository(sqlDB)
	recallRepo := repository.NewRecallRepository(sqlDB)
	tollRepo := repository.NewTollRepository(sqlDB)
	attachmentRepo := repository.NewAttachmentRepository(sqlDB)
	familyRepo := repository.NewFamilyRepository(sqlDB)
	transferRepo := repository.NewTransferRepository(sqlDB)
	livelinkRepo := repository.NewLiveLinkRepository(sqlDB)

	snapshots := redisstore.NewStore(redisClient, cfg.SnapshotTTL())
	recallFeed := recalls.NewClient(cfg.RecallFeed.BaseURL, cfg.RecallCacheTTL(), logger)

	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	authService := service.NewAuthService(userRepo, hasher, tokens, logger)
	vehiclesService := service.NewVehiclesService(vehicleRepo, familyRepo, snapshots, logger)
	recallsService := service.NewRecallsService(recallRepo, recallFeed, vehiclesService, logger)
	tollService := service.NewTollService(tollRepo, vehiclesService, logger)
	attachmentsService := service.NewAttachmentsService(attachmentRepo, vehiclesService, cfg.Storage.DataDir, logger)
	familyService := service.NewFamilyService(familyRepo, userRepo, logger)
	transferService := service.NewTransferService(transferRepo, vehicleRepo, logger)
	telemetryService := service.NewTelemetryService(livelinkRepo, snapshots, vehiclesService, logger)

	manager := livelink.NewManager()
	gateway := livelink.NewGateway(telemetryService, manager, logger)

	var mqttIngest *livelink.MQTTIngest
	if cfg.MQTT.Enabled {
		mqttIngest = livelink.NewMQTTIngest(cfg.MQTT.Broker, cfg.MQTT.ClientID, telemetryService, logger)
	}

	routes := httpserver.Routes{
		Auth:        handlers.NewAuthHandlers(authService, logger),
		Vehicles:    handlers.NewVehiclesHandlers(vehiclesService, logger),
		Recalls:     handlers.NewRecallsHandlers(recallsService, logger),
		Tolls:       handlers.NewTollHandlers(tollService, logger),
		Attachments: handlers.NewAttachmentsHandlers(attachmentsService, logger),
		Family:      handlers.NewFamilyHandlers(familyService, transferService, authService, logger),
		LiveLink:    handlers.NewLiveLinkHandlers(telemetryService, authService, logger),
		LiveLinkWS:  gateway.HandleWS,
		Health:      handlers.NewHealthHandler(manager),
	}

	router := httpserver.NewRouter(routes, middleware.Auth(tokens))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		manager:     manager,
		mqttIngest:  mqttIngest,
		recallFeed:  recallFeed,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the MQTT ingest and the HTTP server. Device keepalive is owned
// by each websocket connection's write pump.
func (a *App) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if a.mqttIngest != nil {
		if err := a.mqttIngest.Start(groupCtx); err != nil {
			return err
		}
	}
	group.Go(func() error {
		return a.server.Run(groupCtx)
	})
	return group.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.mqttIngest != nil {
		a.mqttIngest.Stop()
	}
	if a.recallFeed != nil {
		a.recallFeed.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
