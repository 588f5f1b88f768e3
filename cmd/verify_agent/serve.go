package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/employment-verifier/internal/attest"
	"github.com/jonathan/employment-verifier/internal/config"
	"github.com/jonathan/employment-verifier/internal/contact"
	"github.com/jonathan/employment-verifier/internal/db"
	"github.com/jonathan/employment-verifier/internal/evidence"
	"github.com/jonathan/employment-verifier/internal/fetch"
	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/llm"
	"github.com/jonathan/employment-verifier/internal/orchestrator"
	"github.com/jonathan/employment-verifier/internal/outreach"
	"github.com/jonathan/employment-verifier/internal/policy"
	"github.com/jonathan/employment-verifier/internal/server"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/workflow"
)

var (
	serveAddr       string
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the verification, workflow and webhook endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides LISTEN_ADDR)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a JSON config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Config{}
	if serveConfigPath != "" {
		fileCfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}
	cfg.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	ctx := context.Background()

	// Storage. Without a database the service runs fully in memory, which is
	// only useful for local development.
	var (
		candidates   store.CandidateStore
		attempts     store.AttemptStore
		workflows    store.WorkflowStore
		attestations store.AttestationStore
		pageStore    fetch.PageStore
		policyCache  policy.Cache
	)
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		candidates, attempts, workflows, attestations = database, database, database, database
		pageStore = database
		policyCache = db.NewPolicyCache(database)

		if cfg.RedisURL != "" {
			redisCache, err := policy.NewRedisCache(cfg.RedisURL, 0)
			if err != nil {
				return fmt.Errorf("failed to create redis policy cache: %w", err)
			}
			if err := redisCache.Ping(ctx); err != nil {
				return fmt.Errorf("failed to reach redis: %w", err)
			}
			defer redisCache.Close()
			policyCache = policy.NewTiered(redisCache, policyCache)
		}
	} else {
		log.Println("DATABASE_URL not set, using in-memory stores (all state is lost on restart)")
		mem := store.NewMemory()
		candidates, attempts, workflows, attestations = mem, mem, mem, mem
		policyCache = policy.NewMemoryCache()
	}

	// Public-evidence providers. Each is optional; with none configured every
	// web check reports UNABLE_TO_VERIFY.
	var providers []evidence.Provider
	var searcher evidence.Searcher
	if cfg.SearchAPIKey != "" && cfg.SearchCX != "" {
		gs, err := evidence.NewGoogleSearcher(ctx, cfg.SearchAPIKey, cfg.SearchCX)
		if err != nil {
			return fmt.Errorf("failed to create search client: %w", err)
		}
		searcher = gs
		providers = append(providers, evidence.NewWebSearchProvider(gs))
	}
	if cfg.PeopleDataURL != "" {
		providers = append(providers, evidence.NewPeopleDataProvider(cfg.PeopleDataURL, cfg.PeopleDataAPIKey))
	}
	if len(providers) == 0 {
		log.Println("No evidence providers configured; web verification will find nothing")
	}

	var llmClient llm.Client
	if cfg.GeminiAPIKey != "" {
		var err error
		llmClient, err = llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer llmClient.Close()
	}

	// Contact discovery scrapes company pages through the cached fetcher and
	// falls back to an LLM-guided search when both the model and the search
	// engine are available.
	var fallback contact.FallbackSearcher
	if llmClient != nil && searcher != nil {
		fallback = llm.NewPhoneSearcher(llmClient, searcher)
	}
	fetcher := fetch.NewCachedFetcher(pageStore, nil)
	discoverer := contact.NewDiscoverer(fetcher, fallback, cfg.Verbose)

	// Outreach vendors. A missing vendor disables that channel.
	var caller workflow.CallRunner
	if cfg.CallerBaseURL != "" {
		caller = outreach.NewPoller(outreach.NewVoiceVendor(cfg.CallerBaseURL, cfg.CallerAPIKey))
	}
	var emailer outreach.Emailer
	if cfg.EmailerBaseURL != "" {
		emailer = outreach.NewEmailVendor(cfg.EmailerBaseURL, cfg.EmailerAPIKey, cfg.EmailFrom)
	}

	var ledger attest.Ledger = attest.LocalLedger{}
	if cfg.LedgerURL != "" {
		ledger = attest.NewHTTPLedger(cfg.LedgerURL, cfg.LedgerAPIKey)
	}

	orch := orchestrator.New(policyCache, orchestrator.WithVerbose(cfg.Verbose))
	runner := orchestrator.NewRunner(orch, providers, attempts, candidates)
	engine := workflow.NewEngine(workflow.Config{
		Workflows:  workflows,
		Candidates: candidates,
		Orch:       orch,
		Providers:  providers,
		Discoverer: discoverer,
		Caller:     caller,
		Emailer:    emailer,
		Classifier: llm.NewReplyClassifier(llmClient),
		Attester:   attest.NewRecorder(ledger, attestations),
	})

	var jwtService *server.JWTService
	if cfg.JWTSecret != "" {
		jwtService = server.NewJWTService(&config.JWTConfig{Secret: cfg.JWTSecret, ExpirationHours: 24})
	} else {
		log.Println("JWT_SECRET not set, API authentication is disabled")
	}

	srv, err := server.New(server.Config{
		ListenAddr:    cfg.ListenAddr,
		WebhookSecret: cfg.WebhookSecret,
	}, server.Deps{
		Candidates: candidates,
		Attempts:   attempts,
		Workflows:  workflows,
		Matcher:    identity.NewMatcher(candidates),
		Runner:     runner,
		Engine:     engine,
		JWT:        jwtService,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
