// Package main provides the entry point for the employment verification
// service and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "verify_agent",
	Short: "Employment Verification Service",
	Long:  "Employment Verifier resolves candidate identities, verifies claimed employment against public evidence and employer policies, and escalates inconclusive claims through consent-gated phone and email outreach.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
