package main

import (
	availabilityhandler "wellnest/internal/availability/handler"
	availability "wellnest/internal/availability/service"
	bookinghandler "wellnest/internal/bookings/handler"
	bookingrepository "wellnest/internal/bookings/repository"
	bookingservice "wellnest/internal/bookings/service"
	bookingvalidator "wellnest/internal/bookings/validator"
	schedulehandler "wellnest/internal/schedules/handler"
	schedulerepository "wellnest/internal/schedules/repository"
	scheduleservice "wellnest/internal/schedules/service"
	schedulevalidator "wellnest/internal/schedules/validator"
	servicehandler "wellnest/internal/services/handler"
	servicerepository "wellnest/internal/services/repository"
	catalogservice "wellnest/internal/services/service"
	"wellnest/pkg/app"
	"wellnest/pkg/config"
	"wellnest/pkg/contracts"
	"wellnest/pkg/kafka"
	kafkaconfig "wellnest/pkg/kafka/config"
	kafkamiddleware "wellnest/pkg/kafka/middleware"
)

const ServiceName = "scheduling"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Scheduling service")

	producer := initProducer(cfg)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}()
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, initHandlers(cfg, producer)...)
	serverApp.Run()
}

func initHandlers(cfg *config.Config, producer *kafka.Producer) []contracts.Handler {
	scheduleRepo := schedulerepository.NewMongoWorkScheduleRepository(cfg)
	appointmentRepo := bookingrepository.NewMongoAppointmentRepository(cfg)
	lockRepo := bookingrepository.NewAppointmentLockRepository(cfg)
	serviceRepo := servicerepository.NewMongoServiceRepository(cfg)

	availabilityService := availability.NewAvailabilityService(
		scheduleRepo,
		appointmentRepo,
		serviceRepo,
		initSlotCache(cfg),
		cfg,
	)

	var schedulePublisher scheduleservice.EventPublisher
	var bookingPublisher bookingservice.EventPublisher
	if producer != nil {
		schedulePublisher = producer
		bookingPublisher = producer
	}

	scheduleService := scheduleservice.NewWorkScheduleService(
		scheduleRepo,
		schedulevalidator.NewScheduleValidator(cfg.Log),
		cfg,
		schedulePublisher,
		availabilityService,
	)

	bookingService := bookingservice.NewBookingService(
		appointmentRepo,
		lockRepo,
		scheduleRepo,
		serviceRepo,
		bookingvalidator.NewAppointmentValidator(cfg.Log),
		cfg,
		bookingPublisher,
		availabilityService,
	)

	catalogService := catalogservice.NewCatalogService(serviceRepo, availabilityService, cfg)

	cfg.Log.Info("Scheduling service initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		schedulehandler.NewWorkScheduleHandler(scheduleService, cfg.Log),
		availabilityhandler.NewSlotHandler(availabilityService, cfg.Log),
		bookinghandler.NewAppointmentHandler(bookingService, cfg.Log),
		servicehandler.NewServiceHandler(catalogService, cfg.Log),
	}
}

func initSlotCache(cfg *config.Config) *availability.SlotCache {
	if !cfg.SlotCacheEnabled {
		cfg.Log.Info("Slot cache disabled")
		return nil
	}

	cache, err := availability.NewSlotCache(cfg.SlotCacheSize)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize slot cache", "error", err)
	}
	return cache
}

func initProducer(cfg *config.Config) *kafka.Producer {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka publishing disabled")
		return nil
	}

	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.AppointmentEventsTopic, cfg.AppointmentEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	return producer
}
