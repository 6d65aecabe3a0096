package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atm-admin/internal/client"
	"atm-admin/internal/config"
	"atm-admin/internal/graph"
	"atm-admin/internal/handler"
	"atm-admin/internal/screens"
	"atm-admin/internal/service"
	"atm-admin/pkg/migration"
	"atm-admin/shared/authutils"
	"atm-admin/shared/configservice"
	"atm-admin/shared/database"
	sharedLogger "atm-admin/shared/logger"
	"atm-admin/shared/messaging"
	"atm-admin/shared/models"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// serviceUserID - UserID, под которым экраны обращаются к удалённому GraphQL API.
var serviceUserID = uuid.MustParse("00000000-0000-0000-0000-00000000a7a1")

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
		Development: cfg.Env == "development",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	logger.Info("Starting admin config service", zap.String("env", cfg.Env), zap.String("instance", cfg.InstanceID))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// --- External Connections ---
	pool, err := database.NewPool(ctx, database.PoolConfig{
		DSN:         cfg.DSN(),
		MaxConns:    int32(cfg.DBMaxConns),
		IdleTimeout: cfg.DBIdleTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	schemaVersion, err := migration.NewRunner(pool, migration.Options{
		FS:  database.MigrationsFS,
		Dir: database.MigrationsPath,
	}).Up(ctx)
	if err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	logger.Info("Database schema ready", zap.Uint("version", schemaVersion))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))

	mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()

	// --- Dependency Injection ---
	configRepo := database.NewPgConfigRepository(pool, logger)
	changeRepo := database.NewPgConfigChangeRepository(pool, logger)
	machineRepo := database.NewPgMachineRepository(pool, logger)
	machineCache := database.NewRedisMachineCache(redisClient, cfg.MachinesCacheTTL, logger)
	// Справочник мог измениться, пока сервис был остановлен.
	if err := machineCache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate machine cache", zap.Error(err))
	}

	snapshot, err := configservice.NewConfigService(ctx, configRepo, logger)
	if err != nil {
		logger.Fatal("Failed to load configuration snapshot", zap.Error(err))
	}

	publisher, err := messaging.NewRabbitMQConfigUpdatePublisher(mqConn, logger)
	if err != nil {
		logger.Fatal("Failed to create config update publisher", zap.Error(err))
	}
	defer publisher.Close()

	consumer, err := messaging.NewConfigUpdateConsumer(mqConn, snapshot, cfg.InstanceID, logger)
	if err != nil {
		logger.Fatal("Failed to create config update consumer", zap.Error(err))
	}

	configSvc := service.NewConfigService(service.Deps{
		Repo:         configRepo,
		Changes:      changeRepo,
		Machines:     machineRepo,
		MachineCache: machineCache,
		Snapshot:     snapshot,
		Publisher:    publisher,
		Origin:       cfg.InstanceID,
	}, logger)

	screensSource, err := newScreensSource(cfg, configSvc, logger)
	if err != nil {
		logger.Fatal("Failed to create screens data source", zap.Error(err))
	}

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create JWT verifier", zap.Error(err))
	}

	graphqlHandler, err := graph.NewHandler(configSvc, logger)
	if err != nil {
		logger.Fatal("Failed to build GraphQL schema", zap.Error(err))
	}

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Logger:         logger,
		Verifier:       verifier.VerifyToken,
		GraphQL:        graphqlHandler,
		Screens:        handler.NewScreensHandler(screensSource, logger),
		RateLimit:      newGraphQLRateLimiter(redisClient, cfg.GraphQLRateLimit, logger),
		AllowedOrigins: cfg.GetAllowedOrigins(),
		Metrics:        true,
		Health: handler.HealthHandler(logger, map[string]handler.Pinger{
			"postgres": pool,
			"redis":    handler.RedisPinger(redisClient),
		}),
	})

	// --- Start Background Workers (Consumers) ---
	if err := consumer.StartConsuming(); err != nil {
		logger.Fatal("Failed to start config update consumer", zap.Error(err))
	}

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	consumer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// newScreensSource возвращает источник данных для экранов: удалённый GraphQL API,
// если задан CONFIG_API_URL, иначе сервис в процессе.
func newScreensSource(cfg *config.Config, local service.ConfigService, logger *zap.Logger) (screens.DataSource, error) {
	if cfg.ConfigAPIURL == "" {
		return local, nil
	}

	token, err := authutils.IssueToken(cfg.JWTSecret, &models.Claims{
		UserID: serviceUserID,
		Roles:  []string{models.RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "admin-screens",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue service token: %w", err)
	}

	logger.Info("Screens use remote configuration API", zap.String("url", cfg.ConfigAPIURL))
	return client.NewGraphQLClient(client.Config{
		Endpoint: cfg.ConfigAPIURL,
		Token:    token,
	}, logger)
}

// newGraphQLRateLimiter ограничивает /graphql по оператору (или IP для анонимных запросов).
func newGraphQLRateLimiter(redisClient *redis.Client, limit uint, logger *zap.Logger) gin.HandlerFunc {
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: redisClient,
		Rate:        time.Minute,
		Limit:       limit,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			logger.Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			if userID, ok := models.GetUserIDFromContext(c.Request.Context()); ok {
				return "graphql:" + userID.String()
			}
			return "graphql:" + c.ClientIP()
		},
	})
}

// connectRabbitMQ подключается к RabbitMQ с повторными попытками.
func connectRabbitMQ(rawURL string, logger *zap.Logger) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	var err error
	maxRetries := 30
	retryDelay := 2 * time.Second

	logger.Info("Attempting to connect to RabbitMQ",
		zap.String("url", maskURL(rawURL)),
		zap.Int("max_retries", maxRetries),
		zap.Duration("retry_delay", retryDelay),
	)
	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		conn, err = amqp091.Dial(rawURL)
		if err == nil {
			logger.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				notifyClose := make(chan *amqp091.Error, 1)
				conn.NotifyClose(notifyClose)
				if closeErr := <-notifyClose; closeErr != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// maskURL убирает пароль из URL для логов.
func maskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}
