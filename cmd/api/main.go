package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/learnhub/learnhub-backend/api/routes"
	"github.com/learnhub/learnhub-backend/internal/cart"
	"github.com/learnhub/learnhub-backend/internal/checkout"
	"github.com/learnhub/learnhub-backend/internal/courses"
	"github.com/learnhub/learnhub-backend/internal/enrollments"
	"github.com/learnhub/learnhub-backend/internal/payments"
	"github.com/learnhub/learnhub-backend/internal/payments/pagarme"
	"github.com/learnhub/learnhub-backend/internal/payments/squaregw"
	"github.com/learnhub/learnhub-backend/pkg/config"
	"github.com/learnhub/learnhub-backend/pkg/db"
	"github.com/learnhub/learnhub-backend/pkg/logger"
	"github.com/learnhub/learnhub-backend/pkg/metrics"
	"github.com/learnhub/learnhub-backend/pkg/migrate"
	"github.com/learnhub/learnhub-backend/pkg/outbox"
	"github.com/learnhub/learnhub-backend/pkg/redis"
	"github.com/learnhub/learnhub-backend/pkg/square"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	// Post-payment writes use the service role.
	serviceDB := dbClient
	if cfg.DB.HasServiceRole() {
		serviceDB, err = db.New(bootCtx, cfg.DB.ServiceRole(), logg)
		if err != nil {
			return fmt.Errorf("bootstrap service-role database: %w", err)
		}
		defer func() { err = multierr.Append(err, serviceDB.Close()) }()
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	gateway, err := buildGateway(bootCtx, cfg, logg)
	if err != nil {
		return fmt.Errorf("build payment gateway: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	courseRepo := courses.NewRepository(dbClient.DB())
	enrollmentRepo := enrollments.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	serviceOutbox := outbox.NewService(outbox.NewRepository(serviceDB.DB()), logg)

	cartService, err := cart.NewService(cartRepo, courseRepo, enrollmentRepo)
	if err != nil {
		return fmt.Errorf("create cart service: %w", err)
	}
	enrollmentService, err := enrollments.NewService(enrollmentRepo, courseRepo, dbClient, outboxSvc)
	if err != nil {
		return fmt.Errorf("create enrollment service: %w", err)
	}
	fulfiller, err := checkout.NewFulfiller(
		enrollments.NewRepository(serviceDB.DB()),
		cart.NewRepository(serviceDB.DB()),
		logg,
	)
	if err != nil {
		return fmt.Errorf("create fulfiller: %w", err)
	}
	checkoutService, err := checkout.NewService(checkout.Deps{
		Gateway:     gateway,
		Courses:     courseRepo,
		Enrollments: enrollmentRepo,
		ServiceTx:   serviceDB,
		Outbox:      serviceOutbox,
		Fulfiller:   fulfiller,
		Locker:      redisClient,
		Metrics:     metrics.NewCheckoutMetrics(reg),
		Logger:      logg,
	}, cfg.Gateway, cfg.Checkout)
	if err != nil {
		return fmt.Errorf("create checkout service: %w", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			metrics.NewHTTPMetrics(reg),
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			cartService,
			enrollmentService,
			checkoutService,
			outbox.NewDLQRepository(dbClient.DB()),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"provider": gateway.Provider(),
	})
	logg.Info(ctx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildGateway(ctx context.Context, cfg *config.Config, logg *logger.Logger) (payments.Gateway, error) {
	if cfg.Gateway.NormalizedProvider() == config.GatewayProviderSquare {
		client, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return nil, err
		}
		gateway, err := squaregw.New(client, cfg.Gateway.Currency)
		if err != nil {
			return nil, err
		}
		return gateway, nil
	}

	gateway, err := pagarme.NewClient(cfg.Gateway, pagarme.WithLogger(logg))
	if err != nil {
		return nil, err
	}
	return gateway, nil
}
