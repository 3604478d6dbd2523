// Package handlers implements A7's stateless HTTP surface over the
// per-domain transformation core (C1-C7): every request carries the
// full source grid and mapping overrides it needs, since A7 keeps no
// session affinity beyond what A4's session store separately persists.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rubentalstra/trial-submission-studio/internal/aisuggest"
	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/config"
	"github.com/rubentalstra/trial-submission-studio/internal/frame"
	"github.com/rubentalstra/trial-submission-studio/internal/ingest"
	"github.com/rubentalstra/trial-submission-studio/internal/pipeline"
	"github.com/rubentalstra/trial-submission-studio/internal/runner"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
	"github.com/rubentalstra/trial-submission-studio/internal/supp"
	"github.com/rubentalstra/trial-submission-studio/internal/workpool"

	httpmw "github.com/rubentalstra/trial-submission-studio/internal/http/middleware"
)

// DomainHandler binds the standards catalog (C1) and pipeline options
// to every per-domain endpoint, dispatching C4/C6 work through a
// bounded pool so a slow request can't starve the others.
type DomainHandler struct {
	Catalog   *catalog.Catalog
	Options   func() pipeline.Options
	Pool      *workpool.Pool
	AI        *aisuggest.Client
	AITimeout time.Duration
}

// NewDomainHandler builds a handler whose AI-assisted suggester (A3)
// is configured from cfg; with no OpenAI key set, the client stays in
// ModeOff and the ai-suggest mapping action becomes a no-op.
func NewDomainHandler(cat *catalog.Catalog, options func() pipeline.Options, pool *workpool.Pool, cfg *config.Config) *DomainHandler {
	ai := aisuggest.NewClient(aisuggest.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.AIModel})
	return &DomainHandler{Catalog: cat, Options: options, Pool: pool, AI: ai, AITimeout: cfg.AISuggestTimeout}
}

func (h *DomainHandler) domain(c *gin.Context) (catalog.Domain, bool) {
	dom, err := h.Catalog.GetDomain(c.Param("name"))
	if err != nil {
		c.Error(&httpmw.ErrNotFound{Err: err})
		return catalog.Domain{}, false
	}
	return dom, true
}

func loaded(req SourceGrid) *runner.Loaded {
	hints := ingest.ComputeHints(req.Headers, req.Labels, req.Rows)
	return &runner.Loaded{Headers: req.Headers, Labels: req.Labels, Rows: req.Rows, Hints: hints}
}

// session rebuilds mapping state (C3) from a request's declared
// bindings/not-collected/omitted sets, the HTTP equivalent of the
// CLI's --accept/--not-collected/--omit flags.
func (h *DomainHandler) session(domain catalog.Domain, req SessionRequest) (*runner.Session, error) {
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 0.6
	}
	sess := runner.NewSession(h.Catalog, domain, req.StudyID, loaded(req.Source), threshold)
	for variable, column := range req.Bindings {
		if err := sess.State.AcceptManual(variable, column); err != nil {
			return nil, err
		}
	}
	for _, v := range req.NotCollected {
		if err := sess.State.SetNotCollected(v); err != nil {
			return nil, err
		}
	}
	for _, v := range req.Omitted {
		if err := sess.State.SetOmitted(v); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// Score ranks every source column against every domain variable (C2).
func (h *DomainHandler) Score(c *gin.Context) {
	domain, ok := h.domain(c)
	if !ok {
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}

	l := loaded(req.Source)
	ranked := make(map[string]any, len(domain.Variables))
	err := h.Pool.Run(c.Request.Context(), []workpool.Task{func(ctx context.Context) error {
		for _, v := range domain.Variables {
			ranked[v.Name] = scoring.ScoreAllForVariable(domain.Name, v, l.Headers, l.Hints)
		}
		return nil
	}})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ScoreResponse{Domain: domain.Name, Ranked: ranked})
}

// Mapping applies one mapping-state transition (C3) and returns the
// resulting summary/bindings. action is one of accept, not-collected,
// omit, clear, ai-suggest.
func (h *DomainHandler) Mapping(c *gin.Context) {
	domain, ok := h.domain(c)
	if !ok {
		return
	}
	var req MappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}
	if req.Variable == "" && c.Param("action") != "ai-suggest" {
		c.Error(&httpmw.ErrBadRequest{Err: fmt.Errorf("variable is required for action %q", c.Param("action"))})
		return
	}

	sess, err := h.session(domain, req.SessionRequest)
	if err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}

	switch c.Param("action") {
	case "accept":
		err = sess.State.AcceptManual(req.Variable, req.Column)
	case "not-collected":
		err = sess.State.SetNotCollected(req.Variable)
	case "omit":
		err = sess.State.SetOmitted(req.Variable)
	case "clear":
		err = sess.State.Clear(req.Variable)
	case "ai-suggest":
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.AITimeout)
		defer cancel()
		err = h.Pool.Run(ctx, []workpool.Task{func(ctx context.Context) error {
			return sess.Suggest(ctx, h.AI)
		}})
	default:
		err = fmt.Errorf("unknown mapping action %q", c.Param("action"))
	}
	if err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}

	bindings := make(map[string]any, len(domain.Variables))
	for _, v := range domain.Variables {
		b, err := sess.State.Status(v.Name)
		if err == nil {
			bindings[v.Name] = b
		}
	}
	summary := make(map[string]int)
	for kind, n := range sess.State.Summary() {
		summary[string(kind)] = n
	}
	c.JSON(http.StatusOK, MappingResponse{Domain: domain.Name, Summary: summary, Bindings: bindings})
}

// Build runs the normalization pipeline (C4/C7) and returns the
// standardized frame.
func (h *DomainHandler) Build(c *gin.Context) {
	domain, ok := h.domain(c)
	if !ok {
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}
	sess, err := h.session(domain, req)
	if err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}

	var resp BuildResponse
	err = h.Pool.Run(c.Request.Context(), []workpool.Task{func(ctx context.Context) error {
		std, err := sess.Build(h.Options(), nil)
		if err != nil {
			return err
		}
		rows := make([]map[string]string, std.RowCount)
		for r := range rows {
			row := make(map[string]string, len(std.Columns))
			for _, col := range std.Columns {
				row[col.Name] = renderCell(col.Values[r])
			}
			rows[r] = row
		}
		headers := make([]string, len(std.Columns))
		for i, col := range std.Columns {
			headers[i] = col.Name
		}
		resp = BuildResponse{Domain: domain.Name, Headers: headers, Rows: rows}
		return nil
	}})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Validate runs the pipeline then the validator (C4, C6).
func (h *DomainHandler) Validate(c *gin.Context) {
	domain, ok := h.domain(c)
	if !ok {
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}
	sess, err := h.session(domain, req)
	if err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}

	var resp ValidateResponse
	err = h.Pool.Run(c.Request.Context(), []workpool.Task{func(ctx context.Context) error {
		std, err := sess.Build(h.Options(), nil)
		if err != nil {
			return err
		}
		report := sess.Validate(std)
		resp = ValidateResponse{
			Domain:       report.Domain,
			ErrorCount:   report.ErrorCount(),
			WarningCount: report.WarningCount(),
			HasErrors:    report.HasErrors(),
			Issues:       report.Issues,
		}
		return nil
	}})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Supp builds the supplemental-qualifier sidecar (C5).
func (h *DomainHandler) Supp(c *gin.Context) {
	domain, ok := h.domain(c)
	if !ok {
		return
	}
	var req SuppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}
	sess, err := h.session(domain, req.SessionRequest)
	if err != nil {
		c.Error(&httpmw.ErrBadRequest{Err: err})
		return
	}

	var rows []supp.Row
	err = h.Pool.Run(c.Request.Context(), []workpool.Task{func(ctx context.Context) error {
		std, err := sess.Build(h.Options(), nil)
		if err != nil {
			return err
		}
		out, err := sess.Supp(std, req.IDVar, req.Overrides)
		if err != nil {
			return err
		}
		rows = out
		return nil
	}})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, SuppResponse{Domain: domain.Name, Rows: rows})
}

// renderCell renders a standardized-frame cell for the JSON response,
// mapping the internal Missing sentinel back to an empty string.
func renderCell(v string) string {
	if frame.IsMissing(v) {
		return ""
	}
	return v
}
