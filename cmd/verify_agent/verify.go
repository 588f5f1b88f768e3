package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/employment-verifier/internal/config"
	"github.com/jonathan/employment-verifier/internal/evidence"
	"github.com/jonathan/employment-verifier/internal/identity"
	"github.com/jonathan/employment-verifier/internal/observability"
	"github.com/jonathan/employment-verifier/internal/orchestrator"
	"github.com/jonathan/employment-verifier/internal/policy"
	"github.com/jonathan/employment-verifier/internal/store"
	"github.com/jonathan/employment-verifier/internal/types"
)

var (
	verifyInput     string
	verifyName      string
	verifyEmail     string
	verifyPhone     string
	verifyLinkedIn  string
	verifyEmployers []string
	verifyPhones    []string
	verifyVerbose   bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a candidate's claimed employers from the command line",
	Long: `Run the public-evidence verification pipeline for one candidate
without starting the server. State is kept in memory; configure evidence
providers via the environment (SEARCH_API_KEY, SEARCH_CX, PEOPLE_DATA_URL).

The candidate comes either from flags or from a JSON file:

	{"candidate": {"name": "...", "email": "..."},
	 "employers": ["..."],
	 "employer_phones": {"Employer": "+15551234567"}}`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyInput, "input", "", "Path to a candidate JSON file (alternative to flags)")
	verifyCmd.Flags().StringVar(&verifyName, "name", "", "Candidate full name")
	verifyCmd.Flags().StringVar(&verifyEmail, "email", "", "Candidate email")
	verifyCmd.Flags().StringVar(&verifyPhone, "phone", "", "Candidate phone")
	verifyCmd.Flags().StringVar(&verifyLinkedIn, "linkedin", "", "Candidate LinkedIn URL")
	verifyCmd.Flags().StringArrayVar(&verifyEmployers, "employer", nil, "Claimed employer (repeatable)")
	verifyCmd.Flags().StringArrayVar(&verifyPhones, "employer-phone", nil, "Known employer phone as 'Employer=+15551234567' (repeatable)")
	verifyCmd.Flags().BoolVarP(&verifyVerbose, "verbose", "v", false, "Print stage transitions")
	rootCmd.AddCommand(verifyCmd)
}

// verifyInputFile is the JSON shape accepted by --input.
type verifyInputFile struct {
	Candidate      types.CandidateData `json:"candidate"`
	Employers      []string            `json:"employers"`
	EmployerPhones map[string]string   `json:"employer_phones,omitempty"`
}

func runVerify(_ *cobra.Command, _ []string) error {
	cfg := config.Config{Verbose: verifyVerbose}
	cfg.FromEnv()

	data := types.CandidateData{
		Name:        verifyName,
		Email:       verifyEmail,
		Phone:       verifyPhone,
		LinkedInURL: verifyLinkedIn,
	}
	employers := verifyEmployers
	phoneByEmployer, err := parseEmployerPhones(verifyPhones)
	if err != nil {
		return err
	}

	if verifyInput != "" {
		raw, err := os.ReadFile(verifyInput)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		var in verifyInputFile
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("failed to parse input file: %w", err)
		}
		data = in.Candidate
		employers = in.Employers
		for employer, number := range in.EmployerPhones {
			phoneByEmployer[employer] = number
		}
	}

	if data.Name == "" {
		return fmt.Errorf("candidate name is required (--name or --input)")
	}
	if len(employers) == 0 {
		return fmt.Errorf("at least one employer is required (--employer or --input)")
	}

	ctx := context.Background()

	var providers []evidence.Provider
	if cfg.SearchAPIKey != "" && cfg.SearchCX != "" {
		gs, err := evidence.NewGoogleSearcher(ctx, cfg.SearchAPIKey, cfg.SearchCX)
		if err != nil {
			return fmt.Errorf("failed to create search client: %w", err)
		}
		providers = append(providers, evidence.NewWebSearchProvider(gs))
	}
	if cfg.PeopleDataURL != "" {
		providers = append(providers, evidence.NewPeopleDataProvider(cfg.PeopleDataURL, cfg.PeopleDataAPIKey))
	}

	mem := store.NewMemory()
	orch := orchestrator.New(policy.NewMemoryCache(), orchestrator.WithVerbose(cfg.Verbose))
	runner := orchestrator.NewRunner(orch, providers, mem, mem)
	matcher := identity.NewMatcher(mem)

	resolution, err := matcher.Resolve(ctx, data, employers)
	if err != nil {
		return fmt.Errorf("failed to resolve candidate: %w", err)
	}

	attempts, err := runner.VerifyAll(ctx, resolution.Candidate, phoneByEmployer)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	for _, attempt := range attempts {
		printer.PrintVerificationResult(attempt.Employer, &types.VerificationResult{
			Stage:          attempt.Stage,
			StageHistory:   attempt.StageHistory,
			Status:         attempt.Status,
			Outcome:        attempt.Outcome,
			Confidence:     attempt.Confidence,
			IsVerified:     attempt.IsVerified,
			ProofArtifacts: attempt.Artifacts,
			NextSteps:      attempt.NextSteps,
		})
		if cfg.Verbose {
			printer.PrintEvidence(attempt.Artifacts)
		}
	}

	candidate, err := mem.GetCandidate(ctx, resolution.Candidate.ID)
	if err != nil {
		return fmt.Errorf("failed to reload candidate: %w", err)
	}
	printer.PrintCandidate(candidate)
	return nil
}

// parseEmployerPhones turns repeated 'Employer=number' flags into a lookup
// map keyed by the employer name as claimed.
func parseEmployerPhones(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		employer, number, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(employer) == "" || strings.TrimSpace(number) == "" {
			return nil, fmt.Errorf("invalid --employer-phone %q, expected 'Employer=+15551234567'", pair)
		}
		out[strings.TrimSpace(employer)] = strings.TrimSpace(number)
	}
	return out, nil
}
