package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	adminclient "storefront/internal/client/admin"
	"storefront/internal/config"
	"storefront/internal/importer"
)

func main() {
	var (
		filePath string
		username string
		password string
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV")
	flag.StringVar(&username, "username", os.Getenv("ADMIN_USERNAME"), "Admin username")
	flag.StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "Admin password")
	flag.Parse()

	if filePath == "" || username == "" || password == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg := config.Load(logger)
	if cfg.AdminAPIURL == "" {
		logger.Fatalf("ADMIN_API_URL is required")
	}

	ctx := context.Background()
	api := adminclient.New(cfg.AdminAPIURL, nil, cfg.HTTPClientTimeout)

	login, err := api.Login(ctx, username, password)
	if err != nil {
		logger.Fatalf("login: %v", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, api, login.Token)

	start := time.Now()
	stats, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Created %d and updated %d products in %s\n", stats.Created, stats.Updated, time.Since(start).Truncate(time.Millisecond))
}
