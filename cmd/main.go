package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canteen-connect/internal/config"
	"canteen-connect/internal/database"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/messaging"
	"canteen-connect/internal/services/auth"
	"canteen-connect/internal/services/kitchen"
	"canteen-connect/internal/services/menu"
	"canteen-connect/internal/services/notification"
	"canteen-connect/internal/services/order"
	"canteen-connect/internal/services/reaper"
	"canteen-connect/internal/services/reporting"
	"canteen-connect/internal/web"
)

func main() {
	var (
		mode       = flag.String("mode", "", "Service mode (order-service, reaper, kitchen-display, notification-subscriber, seed)")
		port       = flag.Int("port", 0, "HTTP port (overrides config, order-service mode)")
		configPath = flag.String("config", "config.yaml", "Path to config file")
		prefetch   = flag.Int("prefetch", 1, "RabbitMQ prefetch count (consumer modes)")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "order-service":
		err = runOrderService(ctx, cfg, log)
	case "reaper":
		err = runReaper(ctx, cfg, log)
	case "kitchen-display":
		err = runConsumer(ctx, cfg, log, messaging.KitchenQueue, *prefetch)
	case "notification-subscriber":
		err = runConsumer(ctx, cfg, log, messaging.NotificationsQueue, *prefetch)
	case "seed":
		err = runSeed(ctx, cfg, log)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runOrderService runs the HTTP API: admission, lifecycle, catalog,
// auth and reporting.
func runOrderService(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// The broker is optional for the API: placement and status events
	// are best-effort.
	var publisher *messaging.Publisher
	conn, err := messaging.New(cfg, log)
	if err != nil {
		log.Error("rabbitmq_unavailable", "Running without event publishing", requestID, err, nil)
	} else {
		defer conn.Close()
		publisher = messaging.NewPublisher(conn, log)
		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
	}

	authService := auth.NewService(db, log, cfg.Auth.JWTSecret, cfg.TokenTTL())
	repo := order.NewRepository(db)

	var events order.EventPublisher
	if publisher != nil {
		events = publisher
	}
	orderService := order.NewService(repo, events, log)

	mux := http.NewServeMux()
	auth.NewHandler(authService, log).Register(mux)
	menu.NewHandler(menu.NewService(db, log), authService, log).Register(mux)
	order.NewHandler(orderService, authService, log).Register(mux)
	reporting.NewHandler(reporting.NewService(db, log), authService, log).Register(mux)
	mux.HandleFunc("GET /health", healthHandler(db))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: web.WithLogging(log, mux),
	}

	go func() {
		log.Info("server_started", fmt.Sprintf("Order service listening on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port": cfg.Server.Port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// runReaper runs the stale-order sweep as its own process.
func runReaper(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	var events reaper.EventPublisher
	conn, err := messaging.New(cfg, log)
	if err != nil {
		log.Error("rabbitmq_unavailable", "Running without event publishing", "startup", err, nil)
	} else {
		defer conn.Close()
		events = messaging.NewPublisher(conn, log)
	}

	r := reaper.New(order.NewRepository(db), events, log, cfg.SweepInterval(), cfg.GraceWindow())
	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// runConsumer runs one of the display/subscriber modes on the given
// queue.
func runConsumer(ctx context.Context, cfg *config.Config, log *logger.Logger, queue string, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, queue, queue+"_consumer", prefetch)

	switch queue {
	case messaging.KitchenQueue:
		return kitchen.NewDisplay(consumer, log).Start(ctx)
	default:
		return notification.NewSubscriber(consumer, log).Start(ctx)
	}
}

func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		response := map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "order-service",
		}
		if err := db.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			response["status"] = "unhealthy"
		}

		web.WriteJSON(w, status, response)
	}
}
