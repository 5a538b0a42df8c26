package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fundihub/config"
	"fundihub/database"
	"fundihub/database/repository"
	"fundihub/handlers"
	"fundihub/routes"
	"fundihub/services/booking"
	"fundihub/services/escrow"
	"fundihub/services/gateway"
	"fundihub/services/matching"
	"fundihub/services/notification"
	"fundihub/services/payout"
	"fundihub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitLockClient()
	utils.FirebaseInit()
	utils.StartHealthMonitor(
		map[string]*redis.Client{"cache": utils.GetCacheClient(), "lock": utils.GetLockClient()},
		database.MongoClient,
		time.Minute,
	)

	stripe.Key = config.AppConfig.StripeKey

	// Repositories.
	bookingRepo := repository.NewMongoBookingRepo()
	escrowRepo := repository.NewMongoEscrowRepo()
	payoutRepo := repository.NewMongoPayoutRepo()
	providerRepo := repository.NewMongoProviderRepo()
	clientRepo := repository.NewMongoClientRepo()

	// Notification queue.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotifyQueue,
	})
	notifier := notification.NewAsynqNotifier(asynqClient, logger)
	notifyWorker := notification.NewWorker(clientRepo, providerRepo, logger)
	notifyWorker.Start()

	// Payment gateways.
	gatewayTimeout := time.Duration(config.AppConfig.GatewayTimeoutSec) * time.Second
	paymentGateway := &gateway.CompositeGateway{
		Bank: gateway.NewStripeGateway(logger),
		Mobile: gateway.NewMpesaGateway(
			config.AppConfig.DarajaBaseURL,
			config.AppConfig.DarajaKey,
			config.AppConfig.DarajaSecret,
			config.AppConfig.DarajaShortCode,
			gatewayTimeout,
			logger,
		),
	}

	// Services.
	escrowLedger := &escrow.DefaultLedger{
		Repo:   escrowRepo,
		Cfg:    escrow.Config{CommissionRateBps: config.AppConfig.CommissionRateBps},
		Logger: logger,
	}

	payoutEngine := &payout.Engine{
		Payouts:   payoutRepo,
		Bookings:  bookingRepo,
		Providers: providerRepo,
		Gateway:   paymentGateway,
		Notifier:  notifier,
		Logger:    logger,
		Cfg: payout.Config{
			CommissionRateBps: config.AppConfig.CommissionRateBps,
			PayoutDelay:       time.Duration(config.AppConfig.PayoutDelayMin) * time.Minute,
			Currency:          config.AppConfig.DefaultCurrency,
			GatewayTimeout:    gatewayTimeout,
		},
	}

	bookingService := &booking.DefaultBookingService{
		Bookings:     bookingRepo,
		Escrow:       escrowLedger,
		Payouts:      payoutEngine,
		Notifier:     notifier,
		Logger:       logger,
		RefundableBy: config.RefundableStatusSet(),
	}

	matchingService := &matching.DefaultMatchingService{
		ProviderRepo: providerRepo,
		Logger:       logger,
	}

	sweeper := &payout.Sweeper{
		Engine:   payoutEngine,
		Interval: time.Duration(config.AppConfig.PayoutSweepIntervalMin) * time.Minute,
		Lock:     utils.GetLockClient(),
		Logger:   logger,
	}
	sweeper.Start()

	// HTTP surface.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	handlerBundle := &handlers.HandlerBundle{
		Bookings: bookingService,
		Escrow:   escrowLedger,
		Matching: matchingService,
		Payouts:  payoutEngine,
		Sweeper:  sweeper,
		Cache:    utils.GetCacheClient(),
	}
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	sweeper.Stop()
	notifyWorker.Stop()
	asynqClient.Close()

	logger.Sugar().Info("main: server stopped gracefully")
}
