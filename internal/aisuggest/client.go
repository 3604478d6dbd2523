// Package aisuggest wraps an LLM behind a small interface to augment
// column-scoring suggestions with a semantic second opinion for
// low-confidence or ambiguous bindings. It degrades gracefully: with no
// API key configured, every call is a no-op.
package aisuggest

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Mode reports whether the suggester is able to make live calls.
type Mode string

const (
	ModeOff  Mode = "off"
	ModeLive Mode = "live"
)

// Config configures the suggester.
type Config struct {
	APIKey string
	Model  string
}

const defaultModel = "gpt-4o-mini"

// Client wraps the OpenAI API for a single narrow purpose: given a
// variable and its candidate source columns, ask the model to rank
// which column is the best semantic fit. It carries no other feature
// of a general-purpose chat client.
type Client struct {
	api   openai.Client
	model string
	mode  Mode
}

// NewClient builds a Client. With no API key (explicit or via
// OPENAI_API_KEY), GetMode returns ModeOff and Suggest always returns
// an empty result rather than erroring.
func NewClient(cfg Config) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if apiKey == "" {
		return &Client{model: model, mode: ModeOff}
	}
	return &Client{
		api:   openai.NewClient(option.WithAPIKey(apiKey)),
		model: model,
		mode:  ModeLive,
	}
}

// IsConfigured reports whether the client can make live calls.
func (c *Client) IsConfigured() bool { return c.mode == ModeLive }

// GetMode returns the client's current mode, mirroring the teacher's
// IsConfigured/GetMode=="off" graceful-degradation pattern.
func (c *Client) GetMode() Mode { return c.mode }

// Candidate is one column under consideration for a variable.
type Candidate struct {
	Column string
	Label  string
}

// Suggestion is the model's pick, with its own stated confidence.
type Suggestion struct {
	Column     string
	Confidence float64
	Reason     string
}

// Suggest asks the model which candidate best fits variable among the
// given candidates. Returns the zero Suggestion and no error when the
// client isn't configured or the model declines to choose.
func (c *Client) Suggest(ctx context.Context, variableName, variableLabel string, candidates []Candidate) (Suggestion, error) {
	if c.GetMode() == ModeOff {
		return Suggestion{}, nil
	}
	if len(candidates) == 0 {
		return Suggestion{}, nil
	}

	resp, err := c.api.Chat.Completions.New(ctx, buildRequest(c.model, variableName, variableLabel, candidates))
	if err != nil {
		return Suggestion{}, fmt.Errorf("aisuggest: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, nil
	}
	return parseSuggestion(resp.Choices[0].Message.Content, candidates)
}
