package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"rental-service/internal/auth"
	"rental-service/internal/availability"
	"rental-service/internal/config"
	"rental-service/internal/db"
	"rental-service/internal/handlers"
	"rental-service/internal/jobs"
	"rental-service/internal/logger"
	"rental-service/internal/middleware"
	"rental-service/internal/observability"
	"rental-service/internal/rabbitmq"
	"rental-service/internal/repositories"
	"rental-service/internal/scheduler"
	"rental-service/internal/telemetry"
	"rental-service/internal/ws"
)

func main() {
	cfg := config.Load()
	log := logger.New("rental-service")

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Error("failed to connect to db", zap.Error(err))
		return
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), "rental-service", cfg.OTLPEndpoint)
	if err != nil {
		log.Error("failed to init tracing", zap.Error(err))
		return
	}
	defer shutdownTracing(context.Background())

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Info("rabbitmq publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)))
	audit := telemetry.NewAuditEmitter(publisher, "audit.rental", "rental-service", cfg.Environment)

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange+"_ws"); err == nil {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	} else {
		log.Warn("ws event publisher disabled", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userRepo := repositories.NewUserRepo(database)
	vehicleRepo := repositories.NewVehicleRepo(database)
	rentalRepo := repositories.NewRentalRepo(database)
	contractRepo := repositories.NewContractRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	chatRepo := repositories.NewChatRepo(database, messageRepo)

	checker := availability.NewChecker(rentalRepo)
	hub := ws.NewHub()

	authHandler := handlers.NewAuthHandler(userRepo, tokens)
	userHandler := handlers.NewUserHandler(userRepo)
	vehicleHandler := handlers.NewVehicleHandler(vehicleRepo)
	rentalHandler := handlers.NewRentalHandler(rentalRepo, vehicleRepo, checker, hub)
	paymentHandler := handlers.NewPaymentHandler(rentalRepo, hub, audit)
	contractHandler := handlers.NewContractHandler(contractRepo, rentalRepo, vehicleRepo, userRepo, hub)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, userRepo)
	socketHandler := ws.NewSocketHandler(hub, chatRepo, messageRepo, tokens)

	runner := jobs.NewRunner(rentalRepo, hub, log, cfg.DepositPaymentWindow)
	sched := scheduler.New(runner, log)
	sched.Start()
	defer sched.Stop()

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("rental-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, cfg.Environment == "development")

	api := router.Group("/api")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/renew-access-token", authHandler.RenewAccessToken)

	authMiddleware := middleware.AuthMiddleware(tokens)
	secured := api.Group("", authMiddleware)

	secured.GET("/users/me", userHandler.GetMe)
	secured.PATCH("/users/me", userHandler.UpdateMe)
	secured.GET("/users/:user_id", userHandler.GetUser)

	secured.POST("/vehicles", vehicleHandler.Create)
	secured.GET("/vehicles", vehicleHandler.List)
	secured.GET("/vehicles/mine", vehicleHandler.ListMine)
	secured.GET("/vehicles/:vehicle_id", vehicleHandler.Get)
	secured.PUT("/vehicles/:vehicle_id", vehicleHandler.Update)
	secured.PATCH("/vehicles/:vehicle_id/visibility", vehicleHandler.SetHidden)
	secured.DELETE("/vehicles/:vehicle_id", vehicleHandler.Delete)
	secured.GET("/vehicles/:vehicle_id/availability", rentalHandler.CheckAvailability)
	secured.GET("/vehicles/:vehicle_id/rental-confirmation", rentalHandler.GetConfirmation)

	secured.POST("/rentals", rentalHandler.Create)
	secured.GET("/rentals/renting", rentalHandler.ListAsRenter)
	secured.GET("/rentals/owned", rentalHandler.ListAsOwner)
	secured.GET("/rentals/:rental_id", rentalHandler.Get)
	secured.POST("/rentals/:rental_id/decision", rentalHandler.OwnerDecision)
	secured.POST("/rentals/:rental_id/cancel", rentalHandler.Cancel)
	secured.POST("/rentals/:rental_id/received", rentalHandler.ConfirmReceived)
	secured.POST("/rentals/:rental_id/returned", rentalHandler.ConfirmReturned)
	secured.POST("/rentals/:rental_id/pay-deposit", paymentHandler.PayDeposit)
	secured.POST("/rentals/:rental_id/pay-remaining", paymentHandler.PayRemaining)

	secured.GET("/rentals/:rental_id/contract-draft", contractHandler.PrepareDraft)
	secured.POST("/rentals/:rental_id/contracts", contractHandler.Create)
	secured.GET("/rentals/:rental_id/contracts", contractHandler.ListByRental)
	secured.GET("/contracts/:contract_id", contractHandler.Get)
	secured.POST("/contracts/:contract_id/sign", contractHandler.Sign)

	secured.POST("/chat/sessions", chatHandler.CreateSession)
	secured.GET("/chat/sessions", chatHandler.GetAllSessions)
	secured.GET("/chat/sessions/:session_id/messages", chatHandler.GetSessionMessages)

	router.GET("/ws", socketHandler.Handle)

	log.Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("server error", zap.Error(err))
	}
}
