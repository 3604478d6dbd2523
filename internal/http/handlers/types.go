package handlers

import "github.com/rubentalstra/trial-submission-studio/internal/supp"

// SourceGrid is the wire shape of one ingested source: a UI caller has
// already parsed its paste/XLSX/Google Sheet into rows (A2 runs
// locally, not over HTTP) and posts the grid directly.
type SourceGrid struct {
	Headers []string   `json:"headers" binding:"required"`
	Labels  []string   `json:"labels,omitempty"`
	Rows    [][]string `json:"rows"`
}

// SessionRequest is the shared request body for every stateless
// domain operation: enough to rebuild mapping.State (C3) fresh on each
// call, since A7 carries no session affinity beyond A4.
type SessionRequest struct {
	StudyID      string            `json:"study_id" binding:"required"`
	Threshold    float64           `json:"threshold,omitempty"`
	Source       SourceGrid        `json:"source" binding:"required"`
	Bindings     map[string]string `json:"bindings,omitempty"`      // variable -> accepted source column
	NotCollected []string          `json:"not_collected,omitempty"` // variables
	Omitted      []string          `json:"omitted,omitempty"`       // variables
}

// ScoreResponse ranks every source column against every domain variable
// (C2).
type ScoreResponse struct {
	Domain string         `json:"domain"`
	Ranked map[string]any `json:"ranked"`
}

// MappingRequest is the body for POST /api/domains/:name/mapping/:action.
// Variable is required for every action except ai-suggest, which runs
// against every still-unmapped variable at once.
type MappingRequest struct {
	SessionRequest
	Variable string `json:"variable,omitempty"`
	Column   string `json:"column,omitempty"` // required for accept
}

// MappingResponse projects the resulting mapping state after an action.
type MappingResponse struct {
	Domain   string         `json:"domain"`
	Summary  map[string]int `json:"summary"`
	Bindings map[string]any `json:"bindings"`
}

// BuildResponse is the standardized frame rendered row-major for JSON
// transport.
type BuildResponse struct {
	Domain  string              `json:"domain"`
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// ValidateResponse mirrors validate.Report.
type ValidateResponse struct {
	Domain       string `json:"domain"`
	ErrorCount   int    `json:"error_count"`
	WarningCount int    `json:"warning_count"`
	HasErrors    bool   `json:"has_errors"`
	Issues       any    `json:"issues"`
}

// SuppRequest extends SessionRequest with the SUPP builder's own inputs
// (C5).
type SuppRequest struct {
	SessionRequest
	IDVar     string                    `json:"idvar,omitempty"`
	Overrides map[string]supp.Override `json:"overrides,omitempty"` // source column -> override
}

// SuppResponse carries the sidecar rows.
type SuppResponse struct {
	Domain string     `json:"domain"`
	Rows   []supp.Row `json:"rows"`
}
