// Command seed_policies pre-populates the employer policy cache with the
// known network-only enterprise employers, so the first verification against
// any of them hits the cache instead of re-deriving the classification.
//
// Usage:
//
//	go run cmd/tools/seed_policies/main.go
//
// Requires DATABASE_URL; REDIS_URL is optional and warms the fast tier too.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jonathan/employment-verifier/internal/db"
	"github.com/jonathan/employment-verifier/internal/policy"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "ERROR: DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	var cache policy.Cache = db.NewPolicyCache(database)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisCache, err := policy.NewRedisCache(redisURL, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to create redis cache: %v\n", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		cache = policy.NewTiered(redisCache, cache)
	}

	seeded := 0
	for _, employer := range policy.KnownNetworkOnlyEmployers() {
		p := policy.Classify(employer)
		if p == nil {
			fmt.Fprintf(os.Stderr, "WARNING: %q did not classify as network-only, skipping\n", employer)
			continue
		}
		if err := cache.Put(ctx, policy.DomainKey(employer), p); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to seed policy for %q: %v\n", employer, err)
			os.Exit(1)
		}
		seeded++
	}

	fmt.Printf("Seeded %d employer policies\n", seeded)
}
