package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	adminclient "storefront/internal/client/admin"
	"storefront/internal/config"
	"storefront/internal/seed"
)

func main() {
	username := flag.String("username", os.Getenv("SEED_ADMIN_USERNAME"), "admin username to create")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password to create")
	flag.Parse()

	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg := config.Load(logger)

	if cfg.AdminAPIURL == "" {
		logger.Fatalf("ADMIN_API_URL is required")
	}
	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	api := adminclient.New(cfg.AdminAPIURL, nil, cfg.HTTPClientTimeout)
	res, err := seed.Apply(ctx, api, *username, *password)
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied (admin created=%t, products created=%d)", res.AdminCreated, res.ProductsCreated)
}
