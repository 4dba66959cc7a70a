package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hireflow/config"
	"hireflow/cron"
	"hireflow/database"
	"hireflow/database/repository"
	"hireflow/handlers"
	"hireflow/middleware"
	"hireflow/routes"
	"hireflow/services/booking"
	"hireflow/services/dispatch"
	"hireflow/services/escrow"
	"hireflow/services/notification"
	"hireflow/services/otp"
	"hireflow/services/payment"
	"hireflow/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	database.InitDB()
	utils.InitRedis()

	policy, err := escrow.ParsePolicyConfig(
		cfg.CommissionRate,
		cfg.GSTRate,
		cfg.AdvancePlatformRatio,
		cfg.CashPlatformRatio,
		cfg.RequireRating,
		cfg.RequireAdminApproval,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid escrow policy: %v", err)
	}

	// repositories.
	bookings := repository.NewMongoBookingRepo()
	accounts := repository.NewMongoEscrowRepo()
	offerRecords := repository.NewMongoOfferRecordRepo()
	devices := repository.NewMongoDeviceRepo()

	// notification queue.
	queue := asynq.NewClient(cron.QueueRedisOpt())
	defer queue.Close()
	notifier, err := notification.NewQueueNotifier(queue)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to create notifier: %v", err)
	}

	// services.
	gateway := payment.NewStripeGateway(cfg.StripeKey, cfg.StripeWebhookSecret, logger)
	ledger := escrow.NewLedger(accounts, gateway, logger)
	gate := otp.NewGate(otp.NewRedisStore(utils.GetOTPCacheClient()), otp.Config{
		Length:      cfg.OTPLength,
		MaxAttempts: cfg.OTPMaxAttempts,
		TTL:         cfg.OTPTTL,
	}, logger)
	machine := booking.NewMachine(bookings, ledger, gate, notifier, policy, logger)
	controller := dispatch.NewController(notifier, machine, offerRecords, dispatch.Config{Deadline: cfg.OfferDeadline}, logger)
	processor := payment.NewProcessor(machine, logger)

	// push worker.
	var worker *asynq.Server
	fcm, err := utils.FirebaseInit(context.Background())
	if err != nil {
		if config.IsProduction() {
			logger.Sugar().Fatalf("main: %v", err)
		}
		logger.Warn("main: push delivery disabled, notifications stay queued", zap.Error(err))
	} else {
		sender, err := notification.NewPushSender(devices, fcm, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to create push sender: %v", err)
		}
		worker = cron.InitNotificationWorker(sender, logger)
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go cron.StartPendingSweeper(bgCtx, machine, cfg.PendingBookingTTL, cfg.SweepInterval, logger)
	utils.StartHealthMonitor(bgCtx,
		[]*redis.Client{utils.GetCacheClient(), utils.GetOTPCacheClient()},
		database.MongoClient)

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewOfferHandler(controller),
		handlers.NewBookingHandler(machine),
		handlers.NewEscrowHandler(machine, ledger),
		handlers.NewPaymentHandler(gateway, processor),
		handlers.NewDeviceHandler(devices),
		handlers.NewAuthHandler(utils.GetCacheClient()),
	)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))
	routes.RegisterRoutes(router, handlerBundle)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	// Open offers cannot outlive the process; stop their timers first.
	controller.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	if err := database.MongoClient.Disconnect(ctx); err != nil {
		logger.Warn("main: mongo disconnect", zap.Error(err))
	}

	_ = logger.Sync()
	logger.Sugar().Info("main: server stopped gracefully")
}
