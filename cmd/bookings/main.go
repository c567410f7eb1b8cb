package main

import (
	"context"

	adminhandler "gather/internal/admin/handler"
	adminservice "gather/internal/admin/service"
	"gather/internal/bookings/capacity"
	bookingshandler "gather/internal/bookings/handler"
	bookingsrepo "gather/internal/bookings/repository"
	bookingsservice "gather/internal/bookings/service"
	bookingsvalidator "gather/internal/bookings/validator"
	eventshandler "gather/internal/events/handler"
	eventsrepo "gather/internal/events/repository"
	eventsservice "gather/internal/events/service"
	eventsvalidator "gather/internal/events/validator"
	"gather/internal/health"
	"gather/internal/notify"
	"gather/pkg/app"
	"gather/pkg/clock"
	"gather/pkg/config"
	"gather/pkg/contracts"
	"gather/pkg/kafka"
	kafka_config "gather/pkg/kafka/config"
	kafkamw "gather/pkg/kafka/middleware"
	"gather/pkg/lock"
)

const (
	ServiceName      = "bookings"
	notifyMaxRetries = 3
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.LockBackend == config.LockBackendRedis {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)
	emitter := initEmitter(cfg, serverApp)
	handlers := initServices(cfg, emitter)
	serverApp.SetApp(initHealth(cfg), handlers...)
	serverApp.Run()
}

func initHealth(cfg *config.Config) *health.Handler {
	checks := []health.Check{health.MongoCheck(cfg.Client.Mongo)}
	if cfg.Client.Redis != nil {
		checks = append(checks, health.RedisCheck(cfg.Client.Redis))
	}
	return health.NewHandler(cfg.Log, checks...)
}

func initLocker(cfg *config.Config) lock.Locker {
	if cfg.LockBackend == config.LockBackendRedis {
		cfg.Log.Info("Using Redis event locks", "ttl", cfg.LockTTL)
		return lock.NewRedisLocker(cfg.Client.Redis, cfg.LockTTL)
	}
	cfg.Log.Info("Using in-process event locks")
	return lock.NewMemoryLocker()
}

// initEmitter returns the notification dispatcher, or a no-op when
// notifications are disabled. Kafka failures at startup are fatal.
func initEmitter(cfg *config.Config, serverApp *app.Application) bookingsservice.Emitter {
	if !cfg.NotifyEnabled {
		cfg.Log.Info("Booking notifications disabled")
		return notify.Noop{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotifyTopic, kafkaCfg.DLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamw.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkamw.NewMetrics().ProducerMiddleware())
	}

	dispatcher := notify.NewDispatcher(notify.NewKafkaPublisher(producer), cfg.NotifyBuffer, notifyMaxRetries, cfg.Log)
	dispatcher.Start(context.Background())

	serverApp.OnShutdown("notify-dispatcher", dispatcher.Stop)
	serverApp.OnShutdown("kafka-producer", func(context.Context) error {
		return producer.Close()
	})

	cfg.Log.Info("Booking notifications enabled", "topic", cfg.NotifyTopic, "buffer", cfg.NotifyBuffer)
	return dispatcher
}

func initServices(cfg *config.Config, emitter bookingsservice.Emitter) []contracts.Handler {
	clk := clock.NewSystem()

	eventRepo := eventsrepo.NewMongoEventRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	eventValidator := eventsvalidator.NewEventValidator(cfg.Log)
	bookingValidator := bookingsvalidator.NewBookingValidator(cfg.Log)

	boundary := capacity.NewBoundary(initLocker(cfg), bookingRepo, cfg.LockWaitTimeout, cfg.Log)

	adminService := adminservice.NewAdminService(eventRepo, bookingRepo, eventValidator, boundary, emitter, clk, cfg)
	eventService := eventsservice.NewEventService(eventRepo, eventValidator, adminService, cfg)
	bookingService := bookingsservice.NewBookingService(bookingRepo, eventRepo, bookingValidator, boundary, emitter, clk, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName, "lock_backend", cfg.LockBackend)
	return []contracts.Handler{
		eventshandler.NewEventHandler(eventService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		adminhandler.NewAdminHandler(adminService, cfg.Log),
	}
}
