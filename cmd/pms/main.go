package main

import (
	"context"

	availabilityhandler "innkeep/internal/availability/handler"
	availabilityservice "innkeep/internal/availability/service"
	bookingshandler "innkeep/internal/bookings/handler"
	bookingsrepository "innkeep/internal/bookings/repository"
	bookingsservice "innkeep/internal/bookings/service"
	bookingsvalidator "innkeep/internal/bookings/validator"
	foodhandler "innkeep/internal/food/handler"
	foodrepository "innkeep/internal/food/repository"
	foodservice "innkeep/internal/food/service"
	foodvalidator "innkeep/internal/food/validator"
	guestshandler "innkeep/internal/guests/handler"
	guestsrepository "innkeep/internal/guests/repository"
	guestsservice "innkeep/internal/guests/service"
	paymentshandler "innkeep/internal/payments/handler"
	paymentsservice "innkeep/internal/payments/service"
	revenuehandler "innkeep/internal/revenue/handler"
	revenuerepository "innkeep/internal/revenue/repository"
	revenueservice "innkeep/internal/revenue/service"
	roomshandler "innkeep/internal/rooms/handler"
	roomsrepository "innkeep/internal/rooms/repository"
	roomsservice "innkeep/internal/rooms/service"
	roomsvalidator "innkeep/internal/rooms/validator"

	"innkeep/pkg/app"
	"innkeep/pkg/config"
	"innkeep/pkg/contracts"
	"innkeep/pkg/events"
	"innkeep/pkg/gateway"
)

const ServiceName = "pms"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting property management service")

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	handlers, availability := initServices(cfg, publisher)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handlers...)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	serverApp.AddWorker(func() { availability.RunSweeper(sweepCtx) })

	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) ([]contracts.Handler, availabilityservice.AvailabilityService) {
	roomRepo := roomsrepository.NewMongoRoomRepository(cfg)
	bookingRepo := bookingsrepository.NewMongoBookingRepository(cfg)
	slotLockRepo := bookingsrepository.NewSlotLockRepository(cfg)
	revenueRepo := revenuerepository.NewMongoRevenueRepository(cfg)
	guestRepo := guestsrepository.NewMongoGuestRepository(cfg)
	foodItemRepo := foodrepository.NewMongoFoodItemRepository(cfg)
	foodOrderRepo := foodrepository.NewMongoFoodOrderRepository(cfg)

	roomService := roomsservice.NewRoomService(roomRepo, roomsvalidator.NewRoomValidator(cfg.Log), cfg)
	guestService := guestsservice.NewGuestService(guestRepo, cfg)
	availabilityService := availabilityservice.NewAvailabilityService(bookingRepo, roomRepo, guestService, publisher, cfg)
	revenueService := revenueservice.NewRevenueService(revenueRepo, cfg)

	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		slotLockRepo,
		roomRepo,
		availabilityService,
		revenueRepo,
		guestService,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	gatewayClient := gateway.New(gateway.Config{
		BaseURL:       cfg.GatewayBaseURL,
		KeyID:         cfg.GatewayKeyID,
		KeySecret:     cfg.GatewayKeySecret,
		WebhookSecret: cfg.GatewayWebhookSecret,
		Log:           cfg.Log,
	})

	paymentService := paymentsservice.NewPaymentService(
		bookingRepo,
		slotLockRepo,
		revenueRepo,
		availabilityService,
		gatewayClient,
		publisher,
		cfg,
	)

	foodService := foodservice.NewFoodService(
		foodItemRepo,
		foodOrderRepo,
		bookingRepo,
		slotLockRepo,
		foodvalidator.NewFoodValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	handlers := []contracts.Handler{
		roomshandler.NewRoomHandler(roomService, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availabilityService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		paymentshandler.NewPaymentHandler(paymentService, cfg.Log),
		foodhandler.NewFoodHandler(foodService, cfg.Log),
		revenuehandler.NewRevenueHandler(revenueService, cfg.Log),
		guestshandler.NewGuestHandler(guestService, cfg.Log),
	}

	return handlers, availabilityService
}
