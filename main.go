package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Nappiz/tcmudah-storefront/clients"
	"github.com/Nappiz/tcmudah-storefront/config"
	"github.com/Nappiz/tcmudah-storefront/controllers"
	"github.com/Nappiz/tcmudah-storefront/database"
	apperrors "github.com/Nappiz/tcmudah-storefront/errors"
	"github.com/Nappiz/tcmudah-storefront/logger"
	"github.com/Nappiz/tcmudah-storefront/middleware"
	awspkg "github.com/Nappiz/tcmudah-storefront/pkg/aws"
	"github.com/Nappiz/tcmudah-storefront/repository"
	"github.com/Nappiz/tcmudah-storefront/routes"
	"github.com/Nappiz/tcmudah-storefront/services"
)

const serviceName = "storefront"

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Initialize(os.Getenv("APP_ENV"))
		logger.Log.Fatal("invalid configuration", zap.Error(err))
	}

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		logger.Initialize(cfg.Env)
		logger.Log.Fatal("failed to load AWS config", zap.Error(err))
	}

	// CloudWatch Logs + Metrics
	cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName)
	if err == nil && cwLogs.IsEnabled() {
		logger.InitializeWithWriter(cfg.Env, cwLogs)
	} else {
		logger.Initialize(cfg.Env)
		if err != nil {
			logger.Log.Warn("CloudWatch Logs init failed", zap.Error(err))
		}
	}
	defer cwLogs.Close()
	defer logger.Log.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsClient := awspkg.NewMetricsClient(awsCfg)

	// Cart persistence is optional; without Redis carts live in memory.
	var cartRepo repository.CartRepository = repository.NewMemoryCartRepository()
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			fatal(cwLogs, "failed to connect to Redis", err)
		}
		defer redisClient.Close()
		cartRepo = repository.NewRedisCartRepository(redisClient, cfg.CartTTL)
	}

	api := clients.NewAPIClient(cfg.APIBaseURL, cfg.UpstreamTimeout)
	catalog := services.NewCatalogCache(api, metricsClient)

	var uploader services.ProofUploader
	switch cfg.ProofStorage {
	case config.ProofStorageS3:
		objects := awspkg.NewS3Uploader(awspkg.NewS3Client(awsCfg), cfg.S3ProofBucket, cfg.S3PublicACL)
		uploader = services.NewS3ProofUploader(objects, cfg.S3ProofBucket, cfg.S3PublicBaseURL, awsCfg.Region, metricsClient)
	default:
		uploader = services.NewAPIProofUploader(api, metricsClient)
	}

	// Checkout metrics are recorded even when no order topic is configured.
	var publisher awspkg.SNSPublisher
	if cfg.OrderTopicARN != "" {
		publisher = awspkg.NewSNSClient(awsCfg)
	}
	notifier := services.NewOrderNotifier(publisher, cfg.OrderTopicARN, metricsClient, logger.Log)

	sessions := services.NewSessionManager(services.SessionManagerConfig{
		API:           api,
		Uploader:      uploader,
		Catalog:       catalog,
		Repo:          cartRepo,
		Notifier:      notifier,
		IdleTTL:       cfg.SessionIdleTTL,
		ProofMaxBytes: cfg.ProofMaxBytes,
	})
	sessions.Start(time.Minute)
	defer sessions.Stop()

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 10*time.Minute)
	stopLimiter := make(chan struct{})
	go limiter.Run(stopLimiter)
	defer close(stopLimiter)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger.Log),
		gin.Recovery(),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.SecurityHeaders(),
		middleware.RateLimit(limiter),
		middleware.Metrics(metricsClient, serviceName),
		apperrors.ErrorMiddleware(),
	)
	router.MaxMultipartMemory = cfg.ProofMaxBytes + 1<<20

	routes.RegisterRoutes(
		router,
		controllers.NewStorefrontController(catalog, sessions, cfg.ProofMaxBytes),
		controllers.NewCMSController(api),
		cfg,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Storefront is running", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(cwLogs, "server failed", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("shutdown error", zap.Error(err))
	}
	logger.Log.Info("Server shutdown complete.")
}

var osExit = os.Exit

// fatal logs err and ships buffered log lines before exiting, which
// zap's Fatal would skip along with every deferred call.
func fatal(shipper interface{ Close() }, msg string, err error) {
	logger.Log.Error(msg, zap.Error(err))
	_ = logger.Log.Sync()
	shipper.Close()
	osExit(1)
}
