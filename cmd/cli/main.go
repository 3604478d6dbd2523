// Command sdtmcli drives the per-domain transformation core (C1-C7)
// end-to-end from the command line: score candidate columns, edit a
// domain's mapping, run the normalization pipeline, validate the
// result, build the supplemental-qualifier sidecar, and save/restore a
// mapping session. Grounded on the teacher's cmd/cli/main.go: flag-based
// subcommand dispatch, a constant usage block, no third-party CLI
// framework.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rubentalstra/trial-submission-studio/internal/aisuggest"
	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/config"
	"github.com/rubentalstra/trial-submission-studio/internal/frame"
	"github.com/rubentalstra/trial-submission-studio/internal/mapping"
	"github.com/rubentalstra/trial-submission-studio/internal/pipeline"
	"github.com/rubentalstra/trial-submission-studio/internal/runner"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
	"github.com/rubentalstra/trial-submission-studio/internal/session"
	"github.com/rubentalstra/trial-submission-studio/internal/sessiondiff"
	"github.com/rubentalstra/trial-submission-studio/internal/supp"
)

const (
	version = "1.0.0"
	usage   = `sdtmcli - CDISC SDTM per-domain transformation core

Usage:
  sdtmcli <command> [options]

Commands:
  score       Rank candidate source columns against a domain's variables
  map         Build a domain's mapping state and print its summary
  build       Run the normalization pipeline and print the standardized frame
  validate    Build and validate a domain against its conformance rules
  supp        Build the supplemental-qualifier sidecar for unmapped columns
  session     Save or restore a persisted mapping session
  version     Print version information

Run 'sdtmcli <command> --help' for more information on a command.
`
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "score":
		runScore(os.Args[2:])
	case "map":
		runMap(os.Args[2:])
	case "build":
		runBuild(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "supp":
		runSupp(os.Args[2:])
	case "session":
		runSession(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Printf("sdtmcli version %s\n", version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		fmt.Print(usage)
		os.Exit(1)
	}
}

// sourceFlags are the flags every subcommand needs to load a source
// file and build mapping state for one domain.
type sourceFlags struct {
	domain    *string
	input     *string
	sheet     *string
	studyID   *string
	threshold *float64
	accept    *stringSlice
	manual    *stringSlice
	notColl   *stringSlice
	omit      *stringSlice
}

func addSourceFlags(fs *flag.FlagSet) *sourceFlags {
	sf := &sourceFlags{
		domain:    fs.String("domain", "", "Domain name, e.g. DM, AE, VS (required)"),
		input:     fs.String("input", "", "Source file path: CSV, TSV, or XLSX (required)"),
		sheet:     fs.String("sheet", "", "Sheet name for XLSX sources"),
		studyID:   fs.String("study-id", "", "Study identifier used by STUDYID/USUBJID rules (required)"),
		threshold: fs.Float64("threshold", config.DefaultAcceptThreshold, "Column-scoring acceptance threshold (0..1)"),
		accept:    newStringSlice(fs, "accept", "VAR=COLUMN accepted binding (repeatable)"),
		manual:    newStringSlice(fs, "accept-manual", "VAR=COLUMN manual binding, same as --accept (repeatable)"),
		notColl:   newStringSlice(fs, "not-collected", "VAR marked not-collected (repeatable)"),
		omit:      newStringSlice(fs, "omit", "VAR marked omitted (repeatable)"),
	}
	return sf
}

func (sf *sourceFlags) validate() error {
	if *sf.domain == "" {
		return fmt.Errorf("--domain is required")
	}
	if *sf.input == "" {
		return fmt.Errorf("--input is required")
	}
	if *sf.studyID == "" {
		return fmt.Errorf("--study-id is required")
	}
	return nil
}

// buildSession loads the catalog and source, constructs mapping state,
// and applies every --accept/--not-collected/--omit override.
func (sf *sourceFlags) buildSession() (*runner.Session, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	domain, err := cat.GetDomain(*sf.domain)
	if err != nil {
		return nil, err
	}

	src, closeFn, err := runner.SourceByExtension(*sf.input, *sf.sheet)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	loaded, err := runner.Load(src)
	if err != nil {
		return nil, err
	}

	sess := runner.NewSession(cat, domain, *sf.studyID, loaded, *sf.threshold)

	for _, pair := range append(append([]string{}, sf.accept.values...), sf.manual.values...) {
		variable, column, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("--accept value %q must be VAR=COLUMN", pair)
		}
		if err := sess.State.AcceptManual(variable, column); err != nil {
			return nil, err
		}
	}
	for _, v := range sf.notColl.values {
		if err := sess.State.SetNotCollected(v); err != nil {
			return nil, err
		}
	}
	for _, v := range sf.omit.values {
		if err := sess.State.SetOmitted(v); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if dir := os.Getenv("SDTM_STANDARDS_DIR"); dir != "" {
		return catalog.LoadFromDir(dir)
	}
	return catalog.Load()
}

func pipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	if strings.EqualFold(os.Getenv("SDTM_CT_MATCHING"), "strict") {
		opts.CTMatching = catalog.Strict
	}
	if v := os.Getenv("SDTM_PRESERVE_ON_ERROR"); v == "false" {
		opts.PreserveOnError = false
	}
	return opts
}

func runScore(args []string) {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	sf := addSourceFlags(fs)
	variable := fs.String("variable", "", "Score only this variable (default: every variable)")
	must(fs.Parse(args))
	mustValidate(sf)

	cat, err := loadCatalog()
	exitOnErr(err)
	domain, err := cat.GetDomain(*sf.domain)
	exitOnErr(err)

	src, closeFn, err := runner.SourceByExtension(*sf.input, *sf.sheet)
	exitOnErr(err)
	defer closeFn()
	loaded, err := runner.Load(src)
	exitOnErr(err)

	type variableScores struct {
		Variable string      `json:"variable"`
		Ranked   interface{} `json:"ranked"`
	}
	var out []variableScores
	for _, v := range domain.Variables {
		if *variable != "" && !strings.EqualFold(v.Name, *variable) {
			continue
		}
		ranked := scoreVariable(domain.Name, v, loaded)
		out = append(out, variableScores{Variable: v.Name, Ranked: ranked})
	}
	printJSON(out)
}

func runMap(args []string) {
	fs := flag.NewFlagSet("map", flag.ExitOnError)
	sf := addSourceFlags(fs)
	aiSuggest := fs.Bool("ai-suggest", false, "Consult the AI-assisted suggester for variables still unmapped")
	must(fs.Parse(args))
	mustValidate(sf)

	sess, err := sf.buildSession()
	exitOnErr(err)

	if *aiSuggest {
		cfg := config.LoadConfig()
		client := aisuggest.NewClient(aisuggest.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.AIModel})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.AISuggestTimeout)
		defer cancel()
		exitOnErr(sess.Suggest(ctx, client))
	}

	printJSON(struct {
		Summary  map[string]int         `json:"summary"`
		Bindings map[string]interface{} `json:"bindings"`
		Used     []string               `json:"used_columns"`
		Unmapped []string               `json:"unmapped_columns"`
	}{
		Summary:  summaryAsStrings(sess),
		Bindings: bindingsAsJSON(sess),
		Used:     sortedKeys(sess.State.UsedColumns()),
		Unmapped: sess.State.UnmappedColumns(),
	})
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	sf := addSourceFlags(fs)
	format := fs.String("format", "csv", "Output format: csv or json")
	must(fs.Parse(args))
	mustValidate(sf)

	sess, err := sf.buildSession()
	exitOnErr(err)

	std, err := sess.Build(pipelineOptions(), nil)
	exitOnErr(err)

	writeFrame(std, *format)
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	sf := addSourceFlags(fs)
	must(fs.Parse(args))
	mustValidate(sf)

	sess, err := sf.buildSession()
	exitOnErr(err)

	std, err := sess.Build(pipelineOptions(), nil)
	exitOnErr(err)

	report := sess.Validate(std)
	printJSON(struct {
		Domain       string      `json:"domain"`
		ErrorCount   int         `json:"error_count"`
		WarningCount int         `json:"warning_count"`
		HasErrors    bool        `json:"has_errors"`
		Issues       interface{} `json:"issues"`
	}{
		Domain:       report.Domain,
		ErrorCount:   report.ErrorCount(),
		WarningCount: report.WarningCount(),
		HasErrors:    report.HasErrors(),
		Issues:       report.Issues,
	})
	if report.HasErrors() {
		os.Exit(1)
	}
}

func runSupp(args []string) {
	fs := flag.NewFlagSet("supp", flag.ExitOnError)
	sf := addSourceFlags(fs)
	idVar := fs.String("idvar", "", "Parent identifying variable name, e.g. AESEQ")
	include := newStringSlice(fs, "include", "COLUMN[:QNAM[:QLABEL]] to include in the sidecar (repeatable)")
	format := fs.String("format", "csv", "Output format: csv or json")
	must(fs.Parse(args))
	mustValidate(sf)

	sess, err := sf.buildSession()
	exitOnErr(err)

	std, err := sess.Build(pipelineOptions(), nil)
	exitOnErr(err)

	overrides := make(map[string]supp.Override)
	for _, spec := range include.values {
		parts := strings.SplitN(spec, ":", 3)
		col := parts[0]
		ov := supp.Override{Column: col, Action: supp.Include, QORIG: "CRF"}
		if len(parts) > 1 {
			ov.QNAM = parts[1]
		}
		if len(parts) > 2 {
			ov.QLABEL = parts[2]
		}
		overrides[col] = ov
	}

	rows, err := sess.Supp(std, *idVar, overrides)
	exitOnErr(err)

	writeSuppRows(rows, *format)
}

func runSession(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "session requires a subcommand: save|restore")
		os.Exit(1)
	}
	switch args[0] {
	case "save":
		runSessionSave(args[1:])
	case "restore":
		runSessionRestore(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown session subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func runSessionSave(args []string) {
	fs := flag.NewFlagSet("session save", flag.ExitOnError)
	sf := addSourceFlags(fs)
	dbPath := fs.String("db", config.DefaultSessionDBPath, "Session database path")
	must(fs.Parse(args))
	mustValidate(sf)

	sess, err := sf.buildSession()
	exitOnErr(err)

	store, err := session.Open(*dbPath)
	exitOnErr(err)
	defer store.Close()

	content, err := os.ReadFile(*sf.input)
	exitOnErr(err)

	err = store.Save(session.Snapshot{
		StudyID:           *sf.studyID,
		DomainName:        *sf.domain,
		SourceContentHash: session.HashSource(content),
		Bindings:          sess.State.ToConfig(),
		SuppOverrides:     map[string]supp.Override{},
	})
	exitOnErr(err)
	fmt.Fprintf(os.Stderr, "session saved: study=%s domain=%s\n", *sf.studyID, *sf.domain)
}

func runSessionRestore(args []string) {
	fs := flag.NewFlagSet("session restore", flag.ExitOnError)
	domain := fs.String("domain", "", "Domain name (required)")
	studyID := fs.String("study-id", "", "Study identifier (required)")
	input := fs.String("input", "", "Current source file path (required)")
	sheet := fs.String("sheet", "", "Sheet name for XLSX sources")
	threshold := fs.Float64("threshold", config.DefaultAcceptThreshold, "Column-scoring acceptance threshold")
	dbPath := fs.String("db", config.DefaultSessionDBPath, "Session database path")
	must(fs.Parse(args))

	if *domain == "" || *studyID == "" || *input == "" {
		fmt.Fprintln(os.Stderr, "--domain, --study-id, and --input are required")
		os.Exit(1)
	}

	cat, err := loadCatalog()
	exitOnErr(err)
	dom, err := cat.GetDomain(*domain)
	exitOnErr(err)

	src, closeFn, err := runner.SourceByExtension(*input, *sheet)
	exitOnErr(err)
	defer closeFn()
	loaded, err := runner.Load(src)
	exitOnErr(err)

	content, err := os.ReadFile(*input)
	exitOnErr(err)

	store, err := session.Open(*dbPath)
	exitOnErr(err)
	defer store.Close()

	result, err := store.Restore(*studyID, *domain, dom, loaded.Headers, loaded.Hints, *threshold, session.HashSource(content))
	exitOnErr(err)
	if result == nil {
		fmt.Fprintln(os.Stderr, "no saved session found for this study/domain")
		os.Exit(1)
	}

	printJSON(struct {
		Bindings map[string]interface{} `json:"bindings"`
		Changed  bool                   `json:"source_changed"`
		Diff     string                 `json:"diff,omitempty"`
	}{
		Bindings: bindingsFromConfig(result.State.ToConfig()),
		Changed:  result.Diff != nil,
		Diff:     diffString(result.Diff),
	})
}

func diffString(d *sessiondiff.Diff) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// scoreVariable ranks every source column against one domain variable
// (C2), in descending score order.
func scoreVariable(domainCode string, v catalog.Variable, loaded *runner.Loaded) []scoring.ColumnScore {
	return scoring.ScoreAllForVariable(domainCode, v, loaded.Headers, loaded.Hints)
}

// summaryAsStrings renders a mapping summary with string status keys,
// since mapping.StatusKind isn't itself a JSON object key type map
// encoders render predictably across Go versions.
func summaryAsStrings(sess *runner.Session) map[string]int {
	out := make(map[string]int)
	for kind, n := range sess.State.Summary() {
		out[string(kind)] = n
	}
	return out
}

// bindingsAsJSON projects every domain variable's current binding.
func bindingsAsJSON(sess *runner.Session) map[string]interface{} {
	out := make(map[string]interface{}, len(sess.Domain.Variables))
	for _, v := range sess.Domain.Variables {
		b, err := sess.State.Status(v.Name)
		if err != nil {
			continue
		}
		out[v.Name] = b
	}
	return out
}

// bindingsFromConfig projects a restored session's persisted bindings.
func bindingsFromConfig(cfg map[string]mapping.PersistedBinding) map[string]interface{} {
	out := make(map[string]interface{}, len(cfg))
	for name, b := range cfg {
		out[name] = b
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// --- small helpers ---

type stringSlice struct{ values []string }

func newStringSlice(fs *flag.FlagSet, name, usage string) *stringSlice {
	s := &stringSlice{}
	fs.Var(s, name, usage)
	return s
}
func (s *stringSlice) String() string { return strings.Join(s.values, ",") }
func (s *stringSlice) Set(v string) error {
	s.values = append(s.values, v)
	return nil
}

func must(err error) {
	if err != nil {
		os.Exit(1)
	}
}

func mustValidate(sf *sourceFlags) {
	if err := sf.validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// writeFrame prints a standardized frame (C7's output) as CSV or JSON.
func writeFrame(f *frame.Frame, format string) {
	if strings.EqualFold(format, "json") {
		rows := make([]map[string]string, f.RowCount)
		for r := range rows {
			row := make(map[string]string, len(f.Columns))
			for _, col := range f.Columns {
				row[col.Name] = renderCell(col.Values[r])
			}
			rows[r] = row
		}
		printJSON(rows)
		return
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	headers := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		headers[i] = col.Name
	}
	_ = w.Write(headers)
	for r := 0; r < f.RowCount; r++ {
		row := make([]string, len(f.Columns))
		for i, col := range f.Columns {
			row[i] = renderCell(col.Values[r])
		}
		_ = w.Write(row)
	}
}

// renderCell renders a frame cell for output, mapping the internal
// Missing sentinel back to an empty string.
func renderCell(v string) string {
	if frame.IsMissing(v) {
		return ""
	}
	return v
}

// writeSuppRows prints SUPP sidecar rows (C5's output) as CSV or JSON.
func writeSuppRows(rows []supp.Row, format string) {
	if strings.EqualFold(format, "json") {
		printJSON(rows)
		return
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	_ = w.Write([]string{"STUDYID", "RDOMAIN", "USUBJID", "IDVAR", "IDVARVAL", "QNAM", "QLABEL", "QVAL", "QORIG", "QEVAL"})
	for _, r := range rows {
		_ = w.Write([]string{r.STUDYID, r.RDOMAIN, r.USUBJID, r.IDVAR, r.IDVARVAL, r.QNAM, r.QLABEL, r.QVAL, r.QORIG, r.QEVAL})
	}
}
