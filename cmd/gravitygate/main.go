package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lexavoss/gravitygate/internal/auth/google"
	"github.com/lexavoss/gravitygate/internal/auth/token"
	"github.com/lexavoss/gravitygate/internal/config"
	"github.com/lexavoss/gravitygate/internal/db"
	"github.com/lexavoss/gravitygate/internal/discovery"
	"github.com/lexavoss/gravitygate/internal/pool"
	"github.com/lexavoss/gravitygate/internal/proxy/handlers"
	"github.com/lexavoss/gravitygate/internal/proxy/middleware"
	"github.com/lexavoss/gravitygate/internal/upstream"
	"github.com/lexavoss/gravitygate/internal/version"
)

const serviceName = "gravitygate"

func main() {
	configPath := flag.String("config", "gravitygate.yaml", "path to the gateway config file")
	runImport := flag.Bool("import", false, "scan local credential files into the account store and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open account store: %v", err)
	}

	if *runImport {
		result := discovery.Scan()
		for _, scanErr := range result.Errors {
			log.Printf("⚠️ %s: %s: %s", scanErr.Source, scanErr.Path, scanErr.Error)
		}
		created, updated, err := discovery.Import(database, result.Credentials)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("📦 Imported %d new account(s), refreshed %d existing", created, updated)
		return
	}

	records, err := db.ListAccounts(database)
	if err != nil {
		log.Fatalf("Failed to list accounts: %v", err)
	}

	accountPool, err := pool.New(records)
	if err != nil {
		log.Fatalf("No accounts configured. Run with -import to seed the store: %v", err)
	}

	tokenManager := token.NewManager(database, google.OAuthConfig())
	upstreamClient := upstream.NewClient(cfg.UpstreamURL)
	relay := handlers.NewRelay(accountPool, tokenManager, upstreamClient, upstreamClient, cfg.RetryCap)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handlers.HealthHandler(serviceName))

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.APIKey))
		r.Post("/chat/completions", handlers.OpenAIChatHandler(relay))
		r.Post("/messages", handlers.ClaudeMessagesHandler(relay))
		r.Get("/models", handlers.ModelsHandler())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.APIKey))
		r.Get("/accounts", handlers.AccountsHandler(accountPool))
	})

	addr := cfg.BindAddr()
	log.Printf("🚀 %s %s starting on http://%s", serviceName, version.Version, addr)
	log.Printf("📦 Loaded %d account(s) into rotation", accountPool.Size())
	log.Printf("🔌 OpenAI API: POST /v1/chat/completions")
	log.Printf("🔌 Anthropic API: POST /v1/messages")

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
