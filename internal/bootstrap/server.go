package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vkirilenko/busbooker/api"
	"github.com/vkirilenko/busbooker/config"
	"github.com/vkirilenko/busbooker/internal/metrics"
	"github.com/vkirilenko/busbooker/internal/service/booking"
	"github.com/vkirilenko/busbooker/internal/service/trips"
	"go.uber.org/zap"
)

// Run assembles the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger, tripSvc trips.TripUseCase, bookingSvc booking.BookingUseCase, m *metrics.Metrics) error {
	engine := newEngine(cfg, tripSvc, bookingSvc, m)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newEngine(cfg *config.Config, tripSvc trips.TripUseCase, bookingSvc booking.BookingUseCase, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if cfg.Metrics.Enabled && m != nil {
		engine.Use(m.Middleware())
		engine.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.HTTP.SwaggerDoc != "" {
		engine.StaticFile("/openapi.json", cfg.HTTP.SwaggerDoc)
		engine.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))
	}

	v1 := engine.Group("/api/v1")
	api.NewTripHandler(tripSvc).Register(v1.Group("/trips"))

	authed := v1.Group("/bookings")
	authed.Use(api.RequireUser())
	api.NewBookingHandler(bookingSvc).Register(authed)

	return engine
}
