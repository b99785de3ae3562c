package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/sbilibin2017/bank-ledger/internal/config"
	"github.com/sbilibin2017/bank-ledger/internal/jwt"
	"github.com/sbilibin2017/bank-ledger/internal/logger"
	"github.com/sbilibin2017/bank-ledger/internal/repositories"
	"github.com/sbilibin2017/bank-ledger/internal/services"
)

// run connects the configured backends, serves HTTP and shuts down gracefully
// on SIGINT, SIGTERM or SIGQUIT.
func run(ctx context.Context, cfg *config.Config) error {
	tokens := jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey), jwt.WithExpiration(cfg.JWTExp))

	ledger, directory, closeStore, err := openServices(ctx, cfg, tokens)
	if err != nil {
		return err
	}
	defer closeStore()

	loginLimiter, closeLimiter, err := newLoginLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: newRouter(routerDeps{
			ledger:       ledger,
			directory:    directory,
			tokens:       tokens,
			loginLimiter: loginLimiter,
			swaggerURL:   fmt.Sprintf("http://%s/swagger/doc.json", cfg.Addr()),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}

// openServices builds the ledger and directory over the configured store driver.
// The returned func releases the database and the Kafka writer.
func openServices(ctx context.Context, cfg *config.Config, tokens services.TokenGenerator) (*services.LedgerService, *services.DirectoryService, func(), error) {
	writer := newKafkaWriter(cfg)

	closeWriter := func() {
		if writer == nil {
			return
		}
		if err := writer.Close(); err != nil {
			logger.Log.Errorw("kafka writer close error", "error", err)
		}
	}

	if cfg.StoreDriver == config.DriverMemory {
		logger.Log.Warn("Using the in-memory store, data is lost on exit")
		store := repositories.NewMemoryStore()
		ledger, directory := newMemoryServices(store, writer, tokens)
		return ledger, directory, closeWriter, nil
	}

	logger.Log.Infow("Connecting to PostgreSQL", "host", cfg.PostgresHost, "port", cfg.PostgresPort, "db", cfg.PostgresDB)
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.PostgresDSN())
	if err != nil {
		closeWriter()
		return nil, nil, nil, fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	db.SetMaxOpenConns(cfg.PostgresMaxOpenConns)
	db.SetMaxIdleConns(cfg.PostgresMaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	tx := repositories.NewTxManager(db, cfg.PostgresQueryTimeout)
	accounts := repositories.NewAccountRepository(db, repositories.GetTxFromContext)
	ledger := services.NewLedgerService(tx, accounts,
		repositories.NewTransactionRepository(db, repositories.GetTxFromContext), kafkaOrNil(writer))
	directory := services.NewDirectoryService(tx,
		repositories.NewCustomerRepository(db, repositories.GetTxFromContext),
		accounts,
		repositories.NewLoginRepository(db, repositories.GetTxFromContext),
		tokens,
	)

	return ledger, directory, func() {
		closeWriter()
		db.Close()
	}, nil
}

func newMemoryServices(store *repositories.MemoryStore, writer *kafka.Writer, tokens services.TokenGenerator) (*services.LedgerService, *services.DirectoryService) {
	ledger := services.NewLedgerService(store, store.Accounts(), store.Transactions(), kafkaOrNil(writer))
	directory := services.NewDirectoryService(store, store.Customers(), store.Accounts(), store.Logins(), tokens)
	return ledger, directory
}

// kafkaOrNil keeps a nil *kafka.Writer from becoming a non-nil interface.
func kafkaOrNil(w *kafka.Writer) services.KafkaWriter {
	if w == nil {
		return nil
	}
	return w
}

func newKafkaWriter(cfg *config.Config) *kafka.Writer {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}
	logger.Log.Infow("Publishing transaction events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// newLoginLimiter keeps its counters in Redis when REDIS_ADDR is set so that
// every replica shares one budget, and in process memory otherwise.
func newLoginLimiter(ctx context.Context, cfg *config.Config) (*limiter.Limiter, func(), error) {
	rate, err := limiter.NewRateFromFormatted(cfg.LoginRateLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid LOGIN_RATE_LIMIT %q: %w", cfg.LoginRateLimit, err)
	}

	if cfg.RedisAddr == "" {
		return limiter.New(memory.NewStore(), rate), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("Redis connection error: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "ledger_login_limit"})
	if err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return limiter.New(store, rate), func() { rdb.Close() }, nil
}
