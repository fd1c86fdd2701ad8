package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"plantshop/internal/cache"
	"plantshop/internal/config"
	"plantshop/internal/database"
	"plantshop/internal/metrics"
	"plantshop/internal/notifications"
	"plantshop/internal/repositories"
	"plantshop/internal/server"
	"plantshop/internal/services"
	"plantshop/pkg/logger"
	"plantshop/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	amqp "github.com/streadway/amqp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "plantshop"}).Error(context.Background(), "invalid configuration", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "plantshop",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "server stopped with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// --- Product cache ---
	var productCache cache.ProductCache = cache.NopProductCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logg.Warn(ctx, "redis unavailable, product cache disabled", err)
		} else {
			productCache = cache.NewRedisProductCache(rdb, cfg.CacheTTL)
		}
	}

	// --- Notifications ---
	var mq *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.NotifyQueue}, logg)
		if err != nil {
			logg.Warn(ctx, "rabbitmq unavailable, emails will be sent inline", err)
			mq = nil
		} else {
			defer mq.Close()
		}
	}
	sender := buildSender(ctx, cfg, logg, mq)

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(registry)

	// --- Repositories and services ---
	conn := db.DB()
	productRepo := repositories.NewGORMProductRepository(conn)
	orderRepo := repositories.NewGORMOrderRepository(conn)
	userRepo := repositories.NewGORMUserRepository(conn)
	categoryRepo := repositories.NewGORMCategoryRepository(conn)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, cfg.AdminEmails...)
	productService := services.NewProductService(productRepo, categoryRepo, productCache, logg, cfg.LowStockThreshold)
	categoryService := services.NewCategoryService(categoryRepo, productRepo, productCache, logg)
	orderService := services.NewOrderService(services.OrderServiceParams{
		Tx:          db,
		Products:    productRepo,
		Orders:      orderRepo,
		Users:       userRepo,
		Notifier:    notifications.NewDispatcher(sender, notifications.NewRenderer(cfg.AppURL, cfg.Currency), cfg.OperatorEmail),
		Cache:       productCache,
		Metrics:     orderMetrics,
		Logger:      logg,
		TotalPolicy: cfg.OrderTotalPolicy,
	})

	app := server.New(server.Deps{
		Logger:     logg,
		Auth:       authService,
		Products:   productService,
		Categories: categoryService,
		Orders:     orderService,
		Database:   db,
		Metrics:    registry,
		AccessLog:  cfg.IsDevelopment(),
	})

	listenErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", cfg.AppPort), "starting server")
		listenErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down server")
	if err := app.Shutdown(); err != nil {
		return err
	}
	logg.Info(context.Background(), "server gracefully stopped")
	return nil
}

// buildSender picks how emails leave the process: logged only, queued through
// RabbitMQ for a background worker, or sent inline over SMTP.
func buildSender(ctx context.Context, cfg *config.Config, logg *logger.Logger, mq *rabbitmq.Client) notifications.Sender {
	if cfg.EmailsDisabled || cfg.SMTP.Host == "" {
		logg.Info(ctx, "email delivery disabled")
		return notifications.NewLogSender(logg)
	}

	smtpSender := notifications.NewSMTPSender(notifications.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if mq == nil {
		return smtpSender
	}

	worker := notifications.NewWorker(smtpSender)
	go func() {
		err := mq.Consume(ctx, func(ctx context.Context, msg amqp.Delivery) error {
			return worker.Deliver(ctx, msg.Body)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "email consumer stopped", err)
		}
	}()
	return notifications.NewQueueSender(mq)
}
