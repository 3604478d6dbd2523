package aisuggest

import (
	"context"
	"testing"
)

func TestNewClientWithoutAPIKeyIsOff(t *testing.T) {
	c := NewClient(Config{})
	if c.IsConfigured() {
		t.Fatalf("expected client to be unconfigured without an API key")
	}
	if c.GetMode() != ModeOff {
		t.Errorf("GetMode() = %v, want ModeOff", c.GetMode())
	}
}

func TestSuggestNoopWhenUnconfigured(t *testing.T) {
	c := NewClient(Config{})
	got, err := c.Suggest(context.Background(), "SEX", "Sex", []Candidate{{Column: "sex"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Suggestion{}) {
		t.Errorf("expected zero Suggestion, got %+v", got)
	}
}

func TestSuggestNoopWithNoCandidates(t *testing.T) {
	c := NewClient(Config{APIKey: "sk-test"})
	got, err := c.Suggest(context.Background(), "SEX", "Sex", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Suggestion{}) {
		t.Errorf("expected zero Suggestion, got %+v", got)
	}
}

func TestParseSuggestionRejectsUnknownColumn(t *testing.T) {
	candidates := []Candidate{{Column: "sex"}, {Column: "gender"}}
	got, err := parseSuggestion(`{"column":"not_offered","confidence":0.9,"reason":"x"}`, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Suggestion{}) {
		t.Errorf("expected zero Suggestion for a column outside the candidate set, got %+v", got)
	}
}

func TestParseSuggestionAcceptsCandidateColumn(t *testing.T) {
	candidates := []Candidate{{Column: "sex"}, {Column: "gender"}}
	got, err := parseSuggestion(`{"column":"gender","confidence":0.82,"reason":"label match"}`, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Suggestion{Column: "gender", Confidence: 0.82, Reason: "label match"}
	if got != want {
		t.Errorf("parseSuggestion = %+v, want %+v", got, want)
	}
}

func TestParseSuggestionEmptyColumnIsNoMatch(t *testing.T) {
	got, err := parseSuggestion(`{"column":"","confidence":0,"reason":"no plausible match"}`, []Candidate{{Column: "sex"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Suggestion{}) {
		t.Errorf("expected zero Suggestion, got %+v", got)
	}
}

func TestParseSuggestionMalformedJSON(t *testing.T) {
	_, err := parseSuggestion(`not json`, []Candidate{{Column: "sex"}})
	if err == nil {
		t.Fatalf("expected an error for malformed JSON")
	}
}
