package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gather/internal/health"
	"gather/internal/notify"
	"gather/internal/notify/mailer"
	"gather/pkg/config"
	"gather/pkg/kafka"
	kafka_config "gather/pkg/kafka/config"
	kafkamw "gather/pkg/kafka/middleware"
	"gather/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		cfg.Log.Fatal("SMTP_HOST and SMTP_FROM are required for the notifier")
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	m, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create mailer", "error", err)
	}

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.NotifyTopic, cfg.NotifyGroupID, kafkaCfg.DLQTopic, notify.NewMailHandler(m, cfg.Log), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	metrics := kafkamw.NewMetrics()
	consumer.Use(kafkamw.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(metrics.ConsumerMiddleware())

	server := newStatusServer(cfg, metrics)
	go func() {
		cfg.Log.Info("Starting status server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Log.Error("Status server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting notifier", "topic", cfg.NotifyTopic, "group_id", cfg.NotifyGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	cfg.Log.Info("Shutting down notifier...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		cfg.Log.Error("Status server shutdown failed", "error", err)
	}
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped", "consumed", metrics.Snapshot().Consumed)
}

func newStatusServer(cfg *config.Config, metrics *kafkamw.Metrics) *http.Server {
	router := httprouter.New()
	health.NewHandler(cfg.Log).RegisterRoutes(router)
	notify.NewStatusHandler(metrics, cfg.Log).RegisterRoutes(router)

	var handler http.Handler = router
	handler = middleware.RequestLogging(cfg.Log)(handler)
	handler = middleware.Recovery(cfg.Log)(handler)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
