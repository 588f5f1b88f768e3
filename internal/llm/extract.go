// Package llm - extract.go provides generic LLM-based structured extraction.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// It provides a reusable way to define what information to extract from text.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "PhoneSearch", "ReplyVerdict")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]string"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// --- Predefined Schemas ---

// PhoneSearchSchema returns the extraction schema for pulling a company
// phone number out of web search results.
func PhoneSearchSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "PhoneSearch",
		Description: `You are a careful research assistant. Your task is to find the main or HR phone number of a specific company in the search results below.
Only report a number that the results explicitly attribute to the company. If no result clearly lists a phone number for this company, return empty strings.`,
		Fields: []SchemaField{
			{
				Name:        "phone_number",
				Type:        "\"string\"",
				Description: "The phone number exactly as it appears in the results, or \"\" if none found",
				Required:    true,
			},
			{
				Name:        "source_url",
				Type:        "\"string\"",
				Description: "The URL of the result that lists the number, or \"\" if none found",
				Required:    true,
			},
		},
	}
}

// ReplyVerdictSchema returns the extraction schema for classifying an
// inbound employer email reply.
func ReplyVerdictSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "ReplyVerdict",
		Description: `You are classifying an employer's email reply to an employment verification request.
Decide whether the reply confirms the employment claim, denies it, refuses to answer, or is inconclusive.`,
		Fields: []SchemaField{
			{
				Name:        "verdict",
				Type:        "\"string\"",
				Description: "One of: YES, NO, REFUSED, INCONCLUSIVE",
				Required:    true,
			},
			{
				Name:        "rationale",
				Type:        "\"string\"",
				Description: "One sentence quoting the decisive phrase from the reply",
				Required:    false,
			},
		},
	}
}
