package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/pantrypal/backend/config"
	httpDelivery "github.com/pantrypal/backend/internal/delivery/http"
	"github.com/pantrypal/backend/internal/domain"
	"github.com/pantrypal/backend/internal/infrastructure/cache"
	"github.com/pantrypal/backend/internal/infrastructure/camera"
	"github.com/pantrypal/backend/internal/infrastructure/history"
	"github.com/pantrypal/backend/internal/infrastructure/inventory"
	"github.com/pantrypal/backend/internal/infrastructure/openfoodfacts"
	"github.com/pantrypal/backend/internal/infrastructure/zxing"
	"github.com/pantrypal/backend/internal/scan"
	"github.com/pantrypal/backend/internal/usecase"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PantryPal Scan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Provider: %s", cfg.Provider.BaseURL)

	// Infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	offClient := openfoodfacts.NewClient(cfg.Provider.BaseURL, cfg.Provider.UserAgent, cfg.Provider.RequestsPerMinute)
	if cfg.Server.Environment == "development" {
		offClient.SetDebug(true)
		log.Printf("Provider client debug mode enabled")
	}

	historyStore, err := history.Open(cfg.History.Path)
	if err != nil {
		log.Fatalf("Failed to open history store at %s: %v", cfg.History.Path, err)
	}
	defer historyStore.Close()
	log.Printf("Scan history: %s", cfg.History.Path)

	var inventoryGateway domain.InventoryGateway
	if cfg.Inventory.BaseURL != "" {
		inventoryGateway = inventory.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.Timeout, cfg.Inventory.RetryMax)
		log.Printf("Inventory backend: %s (retries: %d)", cfg.Inventory.BaseURL, cfg.Inventory.RetryMax)
	} else {
		log.Printf("WARNING: inventory backend not configured - accepted items will not be persisted")
	}

	// Usecase layer
	resolver := usecase.NewResolverService(offClient, memoryCache, historyStore, usecase.ResolverConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	var chime scan.Chime
	if cfg.Scanner.Chime {
		chime = scan.ChimeFunc(func() {
			log.Printf("[Scan] detection cue")
		})
	}

	registry := usecase.NewRegistry(func(id string) *usecase.Flow {
		cam := camera.NewPushCamera(cfg.Scanner.FrameBuffer)
		return usecase.NewFlow(id, usecase.FlowConfig{AllowManualEntry: true}, usecase.FlowDeps{
			Scanner:      scan.NewManager(cam, zxing.NewDecoder(), chime),
			Sink:         noopSink{},
			Pusher:       cam,
			Resolver:     resolver,
			Inventory:    inventoryGateway,
			FlattenNotes: inventory.FlattenNotes,
			OnAccepted: func(item *domain.EnrichedItem) {
				log.Printf("[Flow %s] accepted %q (barcode %s, outcome %s)", id, item.Name, item.Barcode, item.Outcome)
			},
		})
	})

	// HTTP delivery
	handler := httpDelivery.NewHandler(resolver, registry, historyStore)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// noopSink satisfies the scan sink for server-side flows: the rendering
// surface lives on the client, so there is nothing to attach here.
type noopSink struct{}

func (noopSink) Attach(scan.Stream) {}
func (noopSink) Clear()             {}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
