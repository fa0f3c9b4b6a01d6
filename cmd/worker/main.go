package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/vkirilenko/busbooker/config"
	"github.com/vkirilenko/busbooker/internal/cache"
	"github.com/vkirilenko/busbooker/internal/email"
	"github.com/vkirilenko/busbooker/internal/kafka"
	"github.com/vkirilenko/busbooker/internal/payment"
	"github.com/vkirilenko/busbooker/internal/repository"
	"github.com/vkirilenko/busbooker/internal/service/booking"
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

	tripRepo := repository.NewTripRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
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
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(logger)

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warn("decode event", zap.Error(err))
				return nil
			}
			return sender.Send(ctx, event)
		})
		if err != nil {
			logger.Warn("consumer stopped", zap.Error(err))
		}
	}()

	sweep := time.NewTicker(time.Duration(cfg.Worker.CompletionSweepMinutes) * time.Minute)
	defer sweep.Stop()

	for {
		select {
		case <-sweep.C:
			completed, err := bookingService.CompleteDeparted(ctx)
			if err != nil {
				logger.Error("completion sweep", zap.Error(err))
				continue
			}
			if len(completed) > 0 {
				logger.Info("bookings completed", zap.Int("count", len(completed)))
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
