package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/service"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fail("Failed to load config: %v", err)
	}

	fmt.Printf("Preparing collection %q on the %s backend...\n", cfg.Store.Collection, cfg.Store.Backend)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := repository.DefaultRegistry().Open(ctx, cfg)
	if err != nil {
		fail("Failed to open store: %v", err)
	}
	defer store.Close()

	svc := service.NewConversationService(store)
	if err := svc.EnsureCollection(ctx, cfg.Store.Collection); err != nil {
		store.Close()
		fail("Failed to ensure collection: %v", err)
	}

	count, err := svc.Health(ctx)
	if err != nil {
		store.Close()
		fail("Store not reachable after setup: %v", err)
	}

	fmt.Printf("Collection %q ready (%d collections in store)\n", cfg.Store.Collection, count)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
