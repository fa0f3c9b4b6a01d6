package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/vkirilenko/busbooker/config"
	"github.com/vkirilenko/busbooker/internal/bootstrap"
	"github.com/vkirilenko/busbooker/internal/cache"
	"github.com/vkirilenko/busbooker/internal/kafka"
	"github.com/vkirilenko/busbooker/internal/metrics"
	"github.com/vkirilenko/busbooker/internal/payment"
	"github.com/vkirilenko/busbooker/internal/repository"
	"github.com/vkirilenko/busbooker/internal/service/booking"
	"github.com/vkirilenko/busbooker/internal/service/trips"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := runMigrations(cfg); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.TripsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	processor := payment.NewSimulatedProcessor(
		time.Duration(cfg.Payment.LatencyMillis)*time.Millisecond,
		time.Duration(cfg.Payment.TimeoutMillis)*time.Millisecond,
		logger,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New("busbooker")
	}

	tripRepo := repository.NewTripRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	tripService := trips.NewTripService(tripRepo, redisCache)

	opts := []booking.BookingServiceOption{
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	}
	if m != nil {
		opts = append(opts, booking.WithMetrics(m))
	}
	bookingService := booking.NewBookingService(
		bookingRepo,
		tripRepo,
		redisCache,
		producer,
		processor,
		logger,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.SeatLockTTLMinutes)*time.Minute,
		int64(cfg.Booking.ServiceFeeCents),
		int64(cfg.Booking.TaxRateBps),
		opts...,
	)

	if err := bootstrap.Run(ctx, cfg, logger, tripService, bookingService, m); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runMigrations(cfg *config.Config) error {
	if cfg.Migrations.Dir == "" {
		return nil
	}
	m, err := migrate.New("file://"+cfg.Migrations.Dir, cfg.Database.URL())
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
