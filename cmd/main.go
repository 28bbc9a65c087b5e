package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	httpapi "github.com/immxrtalbeast/healthconnect_rtc/internal/api/http"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/broadcast"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/config"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/repository"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/repository/model"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/service"
	"github.com/immxrtalbeast/healthconnect_rtc/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	hub := broadcast.NewHub(log)

	presenceRepo, err := setupPresenceRepository(cfg.Database, log)
	if err != nil {
		log.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}
	roster := repository.NewInMemoryChatRoster()

	signalService := service.NewSignalService(hub, log, cfg.Rooms.EmptyTTL)
	presenceService := service.NewPresenceService(presenceRepo, roster, hub, log, service.SweepConfig{
		PresenceInterval:  cfg.Presence.SweepInterval,
		PresenceThreshold: cfg.Presence.OfflineThreshold,
		TypingInterval:    cfg.Presence.TypingSweepEvery,
		TypingThreshold:   cfg.Presence.TypingThreshold,
	})

	if err := signalService.StartSweeps(cfg.Rooms.SweepInterval); err != nil {
		log.Error("failed to start room sweep", slog.Any("error", err))
		os.Exit(1)
	}
	defer signalService.Close()

	if err := presenceService.StartSweeps(); err != nil {
		log.Error("failed to start presence sweeps", slog.Any("error", err))
		os.Exit(1)
	}
	defer presenceService.Close()

	signalController := httpapi.NewSignalController(signalService, hub, log, cfg.WebRTC.STUNServers)
	presenceController := httpapi.NewPresenceController(presenceService, hub, log)

	router := httpapi.SetupRouter(signalController, presenceController, cfg.HTTP.AllowOrigins)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func setupPresenceRepository(cfg config.DatabaseConfig, log *slog.Logger) (repository.PresenceRepository, error) {
	if cfg.DSN == "" {
		log.Info("no database dsn, keeping presence in-memory")
		return repository.NewInMemoryPresenceRepository(), nil
	}

	db, err := connectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewPostgresPresenceRepository(db), nil
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(&model.UserPresence{})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
