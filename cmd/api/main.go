package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	adminclient "storefront/internal/client/admin"
	"storefront/internal/client/payment"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/migrate"
	"storefront/internal/repository/kv"
	adminsvc "storefront/internal/service/admin"
	catalogsvc "storefront/internal/service/catalog"
	checkoutsvc "storefront/internal/service/checkout"
	"storefront/internal/service/visitor"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg := config.Load(logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}
	defer closeStorage()

	if cfg.PaymentAPIURL == "" {
		logger.Printf("PAYMENT_API_URL is empty, checkout will fail")
	}
	if cfg.AdminAPIURL == "" {
		logger.Printf("ADMIN_API_URL is empty, catalog and admin console will fail")
	}

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	paymentClient := payment.New(cfg.PaymentAPIURL, httpClient, cfg.HTTPClientTimeout)
	adminClient := adminclient.New(cfg.AdminAPIURL, httpClient, cfg.HTTPClientTimeout)

	visitors := visitor.NewRegistry(storage, cfg.VisitorIdleTimeout, logger)
	go visitors.Run(ctx, time.Minute)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Storage:     storage,
		Sessions:    visitor.NewSessions(cfg.SessionSecret, strings.HasPrefix(cfg.PublicBaseURL, "https://")),
		Visitors:    visitors,
		Checkout:    checkoutsvc.New(paymentClient, cfg.PublicBaseURL, cfg.CheckoutDeferClear, logger),
		Catalog:     catalogsvc.New(adminClient, cfg.CatalogTTL, logger),
		Admin:       adminsvc.New(adminClient, logger),
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (storage=%s)", cfg.HTTPAddr, cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	// Cancel first so open event streams and the sweeper return.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// openStorage builds the durable storage selected by STORAGE_BACKEND.
func openStorage(ctx context.Context, cfg config.Config, logger *log.Logger) (kv.Repository, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		logger.Printf("using in-memory storage, carts are lost on restart")
		return kv.NewMemory(), func() {}, nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return kv.NewRedis(client, cfg.RedisTTL), func() { client.Close() }, nil

	case config.StoragePostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to db: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		return kv.NewPostgres(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
