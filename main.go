package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"notes-server/configs"
	"notes-server/controllers"
	middleware "notes-server/middlewares"
	"notes-server/repository"
	"notes-server/routes"
	"notes-server/server"
	service "notes-server/services"
	"notes-server/utils"

	fiberprometheus "github.com/ansrivas/fiberprometheus/v2"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "config.yml", "path to the config file")
	flag.Parse()

	cfg, err := configs.InitConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := configs.NewLogger(cfg.Logger, "notes-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Errorw("startup", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *configs.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	var noteRepo repository.NoteRepositoryInterface
	switch cfg.Storage.Driver {
	case "memory":
		noteRepo = repository.NewMemoryNoteRepository()
		log.Warn("using in-memory note storage; notes are lost on restart")
	default:
		client, err := configs.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		log.Infow("connected to MongoDB", "database", cfg.Mongo.Database)

		collection := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		mongoRepo := repository.NewNoteRepository(collection, cfg.Mongo.OperationTimeout)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return err
		}
		noteRepo = mongoRepo
	}

	// Note events: Redis fans out across instances, otherwise the hub
	// delivers locally.
	hub := service.NewNoteEventHub(log)
	var publisher service.NoteEventPublisher = hub
	if cfg.Redis.Enabled {
		rdb, err := configs.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		log.Infow("connected to Redis", "addr", cfg.Redis.Addr)

		redisPublisher := service.NewRedisNoteEventPublisher(rdb)
		sub := redisPublisher.Subscribe(ctx)
		defer func() { _ = sub.Close() }()
		go hub.Relay(ctx, sub.Channel())
		publisher = redisPublisher
	}

	// Auth keys
	keys := utils.NewPublicKeyStore()
	n, err := keys.LoadKeys(cfg.Auth.PublicKeyDir)
	if err != nil {
		log.Warnw("could not load JWT public keys; waiting for key rotation", "dir", cfg.Auth.PublicKeyDir, "error", err)
	} else {
		log.Infow("loaded JWT public keys", "count", n)
	}

	noteService := service.NewNoteService(noteRepo, publisher, log)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	app := routes.NewApp(routes.AppDeps{
		Notes:       controllers.NewNoteController(noteService, log),
		Events:      controllers.NewNoteEventsController(hub, log),
		Keys:        keys,
		Log:         log,
		RateLimiter: limiter,
		Metrics:     fiberprometheus.New("notes-server"),
		CORSOrigins: cfg.CORS.AllowOrigins,
	})

	// gRPC key rotation
	lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	grpcServer := server.NewGRPCServer(keys, cfg.Auth.RotationToken, log)

	serverErrors := make(chan error, 2)
	go func() {
		log.Infow("starting gRPC server", "port", cfg.Server.GRPCPort)
		serverErrors <- grpcServer.Serve(lis)
	}()
	go func() {
		log.Infow("starting HTTP server", "port", cfg.Server.Port)
		serverErrors <- app.Listen(":" + strconv.Itoa(cfg.Server.Port))
	}()

	consulClient := &http.Client{Timeout: 5 * time.Second}
	if cfg.Consul.Enabled {
		if err := configs.RegisterService(ctx, consulClient, cfg.Consul, cfg.Server.Port); err != nil {
			log.Warnw("consul registration failed", "error", err)
		} else {
			log.Infow("registered with Consul", "service", cfg.Consul.ServiceName)
		}
	}

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Infow("shutdown", "status", "shutdown started")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if cfg.Consul.Enabled {
		if err := configs.DeregisterService(shutdownCtx, consulClient, cfg.Consul); err != nil {
			log.Warnw("consul deregistration failed", "error", err)
		}
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("could not stop server gracefully: %w", err)
	}
	log.Infow("shutdown", "status", "shutdown complete")
	return nil
}
