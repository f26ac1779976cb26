package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmcalde/sitework/internal/config"
	"github.com/dmcalde/sitework/internal/database"
	"github.com/dmcalde/sitework/internal/evidence"
	siteworkHttp "github.com/dmcalde/sitework/internal/http"
	importHandler "github.com/dmcalde/sitework/internal/http/importcsv"
	paymentHandler "github.com/dmcalde/sitework/internal/http/payment"
	progressHandler "github.com/dmcalde/sitework/internal/http/progress"
	projectHandler "github.com/dmcalde/sitework/internal/http/project"
	"github.com/dmcalde/sitework/internal/importer"
	"github.com/dmcalde/sitework/internal/notify"
	"github.com/dmcalde/sitework/internal/payment"
	paymentStore "github.com/dmcalde/sitework/internal/payment/store"
	"github.com/dmcalde/sitework/internal/progress"
	progressStore "github.com/dmcalde/sitework/internal/progress/store"
	"github.com/dmcalde/sitework/internal/project"
	projectStore "github.com/dmcalde/sitework/internal/project/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	var notifier notify.Notifier = notify.LogNotifier{}

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaNotifier.Close()

		notifier = kafkaNotifier
	}

	var checker evidence.Checker

	if cfg.Evidence.Endpoint != "" {
		store, err := evidence.NewStore(evidence.Config{
			Endpoint:  cfg.Evidence.Endpoint,
			AccessKey: cfg.Evidence.AccessKey,
			SecretKey: cfg.Evidence.SecretKey,
			Bucket:    cfg.Evidence.Bucket,
			UseSSL:    cfg.Evidence.UseSSL,
		})
		if err != nil {
			slog.Error("failed to set up evidence store", "error", err)
			os.Exit(1)
		}

		checker = store
	}

	var (
		projects = projectStore.New(db)
		entries  = progressStore.New(db)
		payments = paymentStore.New(db)
	)

	var (
		projectService  = project.NewService(projects)
		progressService = progress.NewService(entries, projects, notifier, checker)
		paymentService  = payment.NewService(payments, projects, entries, notifier)
		importService   = importer.NewService()
	)

	var (
		projectH  = projectHandler.NewHandler(projectService, paymentService, progressService)
		progressH = progressHandler.NewHandler(progressService)
		paymentH  = paymentHandler.NewHandler(paymentService)
		importH   = importHandler.NewHandler(importService, progressService)
	)

	router := siteworkHttp.New(cfg.Auth.JWTSecret, projectH, progressH, paymentH, importH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
