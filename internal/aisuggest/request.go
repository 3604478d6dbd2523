package aisuggest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
)

// suggestionSchema is the JSON Schema the model's response must satisfy,
// mirroring the teacher's ResponseFormatJSONSchemaParam structured-output
// pattern so a malformed completion is rejected by the API itself rather
// than by ad hoc parsing on our side.
var suggestionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"column": map[string]any{
			"type":        "string",
			"description": "the candidate column name that best maps to the variable, or empty if none fit",
		},
		"confidence": map[string]any{
			"type":        "number",
			"description": "0.0-1.0 confidence in the chosen column",
		},
		"reason": map[string]any{
			"type":        "string",
			"description": "one sentence justification",
		},
	},
	"required":             []string{"column", "confidence", "reason"},
	"additionalProperties": false,
}

const systemPrompt = "You map clinical trial source data columns onto CDISC SDTM variables. " +
	"Given a target variable and a list of candidate source columns, choose the single " +
	"best-fitting column by name and observed values. If none plausibly fit, return an " +
	"empty column. Respond only with the requested JSON."

func buildRequest(model, variableName, variableLabel string, candidates []Candidate) openai.ChatCompletionNewParams {
	var b strings.Builder
	fmt.Fprintf(&b, "Variable: %s", variableName)
	if variableLabel != "" {
		fmt.Fprintf(&b, " (%s)", variableLabel)
	}
	b.WriteString("\nCandidate columns:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s", c.Column)
		if c.Label != "" {
			fmt.Fprintf(&b, ": %s", c.Label)
		}
		b.WriteString("\n")
	}

	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(b.String()),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "suggestion",
					Schema: suggestionSchema,
					Strict: openai.Bool(true),
				},
			},
		},
	}
}

type suggestionPayload struct {
	Column     string  `json:"column"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// parseSuggestion decodes the model's JSON response and checks the chosen
// column is actually one of the offered candidates, refusing to fabricate
// a mapping the caller never proposed.
func parseSuggestion(content string, candidates []Candidate) (Suggestion, error) {
	var payload suggestionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return Suggestion{}, fmt.Errorf("aisuggest: parse response: %w", err)
	}
	if payload.Column == "" {
		return Suggestion{}, nil
	}
	valid := false
	for _, c := range candidates {
		if c.Column == payload.Column {
			valid = true
			break
		}
	}
	if !valid {
		return Suggestion{}, nil
	}
	return Suggestion{
		Column:     payload.Column,
		Confidence: payload.Confidence,
		Reason:     payload.Reason,
	}, nil
}
