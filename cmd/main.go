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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-rental/internal/config"
	"github.com/ukydev/fleet-rental/internal/db"
	"github.com/ukydev/fleet-rental/internal/events"
	"github.com/ukydev/fleet-rental/internal/handlers"
	"github.com/ukydev/fleet-rental/internal/metrics"
	"github.com/ukydev/fleet-rental/internal/middleware"
	"github.com/ukydev/fleet-rental/internal/rental"
)

// newGateway builds the snapshot gateway selected by cfg. The returned
// function releases its resources.
func newGateway(ctx context.Context, cfg *config.Config) (rental.Gateway, func(), error) {
	switch cfg.SnapshotBackend {
	case config.BackendMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		collection := client.Database(cfg.MongoDB).Collection(cfg.MongoCollection)
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("Failed to disconnect from MongoDB")
			}
		}
		return db.NewMongoSnapshotStore(collection), closeFn, nil
	case config.BackendMemory:
		return db.NewMemoryStore(), func() {}, nil
	case config.BackendFile:
		return db.NewFileSnapshotStore(cfg.SnapshotPath), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

// newPublisher connects to the MQTT broker when one is configured.
func newPublisher(cfg *config.Config) (events.Publisher, func(), error) {
	if cfg.MQTTBroker == "" {
		return events.NopPublisher{}, func() {}, nil
	}
	pub, err := events.NewMQTTPublisher(events.MQTTConfig{
		Broker:      cfg.MQTTBroker,
		ClientID:    cfg.MQTTClientID,
		TopicPrefix: cfg.MQTTTopicPrefix,
		QoS:         1,
		Timeout:     10 * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}
	return pub, pub.Close, nil
}

// newRouter wires the API, health and metrics endpoints behind logging and rate limiting.
func newRouter(cfg *config.Config, engine *rental.Engine) http.Handler {
	mux := http.NewServeMux()
	handlers.NewRentalHandler(engine).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	return middleware.Logging(limiter.Handler(mux))
}

func run(ctx context.Context, cfg *config.Config) error {
	metrics.Init()

	gateway, closeGateway, err := newGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer closeGateway()

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	defer closePublisher()

	engine, err := rental.New(ctx, gateway,
		rental.WithPublisher(publisher),
		rental.WithFeePolicy(cfg.FeePolicy()),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Port,
			"backend": cfg.SnapshotBackend,
		}).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ConfigureLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}
