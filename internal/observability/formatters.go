// Package observability provides formatted output utilities for verbose CLI
// mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/employment-verifier/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintVerificationResult outputs a human-readable summary of one
// verification run.
func (p *Printer) PrintVerificationResult(employer string, result *types.VerificationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Employer:   %s\n", employer))
	sb.WriteString(fmt.Sprintf("Outcome:    %s\n", result.Outcome))
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", result.Confidence))
	if result.IsVerified {
		sb.WriteString("Verified:   yes\n")
	} else {
		sb.WriteString("Verified:   no\n")
	}
	if result.Method != "" {
		sb.WriteString(fmt.Sprintf("Method:     %s\n", result.Method))
	}

	if len(result.StageHistory) > 0 {
		sb.WriteString("\nStages:\n")
		for _, entry := range result.StageHistory {
			sb.WriteString(fmt.Sprintf("  %s  %s\n", entry.Timestamp.Format("15:04:05"), entry.Stage))
		}
	}

	if len(result.NextSteps) > 0 {
		sb.WriteString("\nNext steps:\n")
		for _, step := range result.NextSteps {
			marker := " "
			if step.Enabled {
				marker = "*"
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", marker, step.Label))
		}
	}

	p.printBox("VERIFICATION RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEvidence outputs the proof artifacts collected during a run.
func (p *Printer) PrintEvidence(artifacts []types.EvidenceArtifact) {
	if len(artifacts) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Artifacts collected: %d\n\n", len(artifacts)))

	count := min(len(artifacts), maxItemsToShow)
	for i := 0; i < count; i++ {
		a := artifacts[i]
		sb.WriteString(fmt.Sprintf("• [%s] %s\n", a.Type, a.Label))
		if a.Value != "" {
			value := a.Value
			if len(value) > 48 {
				value = value[:45] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %s\n", value))
		}
	}
	if len(artifacts) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(artifacts)-maxItemsToShow))
	}

	p.printBox("EVIDENCE TRAIL", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidate outputs the candidate's per-employer channel statuses.
func (p *Printer) PrintCandidate(candidate *types.CanonicalCandidate) {
	if candidate == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:  %s\n", candidate.Name))
	if candidate.Email != "" {
		sb.WriteString(fmt.Sprintf("Email: %s\n", candidate.Email))
	}

	if len(candidate.Employers) > 0 {
		sb.WriteString("\nEmployers:\n")
		for _, rec := range candidate.Employers {
			sb.WriteString(fmt.Sprintf("  %s\n", rec.Name))
			sb.WriteString(fmt.Sprintf("    web=%s call=%s email=%s\n",
				rec.Statuses[types.ChannelWeb],
				rec.Statuses[types.ChannelCall],
				rec.Statuses[types.ChannelEmail]))
		}
	}

	p.printBox("CANDIDATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWorkflowRun outputs the state of a multi-channel workflow run.
func (p *Printer) PrintWorkflowRun(run *types.WorkflowRun) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:      %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Employer: %s\n", run.Employer))
	sb.WriteString(fmt.Sprintf("State:    %s\n", run.State))
	if run.Outcome != "" {
		sb.WriteString(fmt.Sprintf("Outcome:  %s\n", run.Outcome))
	}
	if run.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason:   %s\n", run.Reason))
	}

	p.printBox("WORKFLOW RUN", strings.TrimSuffix(sb.String(), "\n"))
}
