package catalog

import (
	"sort"
	"strings"
)

// Catalog is the immutable, process-lifetime standards registry: domains,
// their variables, and codelists. It is built once by Load/LoadFromDir and
// is safe for concurrent read-only use from then on (spec §5: "does not
// mutate the standards catalog").
type Catalog struct {
	domains       map[string]*Domain
	domainOrder   []string
	codelists     map[string]*Codelist
	codelistOrder []string
}

// New builds a Catalog directly from in-memory domains and codelists,
// bypassing the embedded/disk loaders. Useful for composing a catalog
// programmatically (e.g. a *_STANDARDS_DIR override merged with
// built-ins) and for tests that need a Catalog without a filesystem.
func New(domains []Domain, codelists []Codelist) *Catalog {
	byName := make(map[string]*Domain, len(domains))
	order := make([]string, 0, len(domains))
	for _, d := range domains {
		d := d
		key := strings.ToUpper(d.Name)
		byName[key] = &d
		order = append(order, key)
	}

	clByCode := make(map[string]*Codelist, len(codelists))
	clOrder := make([]string, 0, len(codelists))
	for _, cl := range codelists {
		cl := cl
		key := strings.ToUpper(cl.Code)
		clByCode[key] = &cl
		clOrder = append(clOrder, key)
	}

	return &Catalog{domains: byName, domainOrder: order, codelists: clByCode, codelistOrder: clOrder}
}

// GetDomain returns the named domain (case-insensitive).
func (c *Catalog) GetDomain(name string) (Domain, error) {
	d, ok := c.domains[strings.ToUpper(name)]
	if !ok {
		return Domain{}, &NotFoundError{Kind: "domain", Key: name}
	}
	return *d, nil
}

// Domains iterates every registered domain in catalog load order.
func (c *Catalog) Domains() []Domain {
	out := make([]Domain, 0, len(c.domainOrder))
	for _, name := range c.domainOrder {
		out = append(out, *c.domains[name])
	}
	return out
}

// GetCodelist returns the named top-level codelist (case-insensitive).
func (c *Catalog) GetCodelist(code string) (Codelist, error) {
	cl, ok := c.codelists[strings.ToUpper(code)]
	if !ok {
		return Codelist{}, &NotFoundError{Kind: "codelist", Key: code}
	}
	return *cl, nil
}

// Codelists iterates every registered codelist: in input order for a
// Catalog built by New; for one built by Load or LoadFromDir the order
// is not defined.
func (c *Catalog) Codelists() []Codelist {
	out := make([]Codelist, 0, len(c.codelistOrder))
	for _, code := range c.codelistOrder {
		out = append(out, *c.codelists[code])
	}
	return out
}

// ResolvedCodelist is a codelist narrowed to a sub-code selection, e.g.
// "VSTESTCD;SYSBP" picks the single SYSBP term out of VSTESTCD while
// keeping the parent's Extensible flag for severity derivation.
type ResolvedCodelist struct {
	Codelist
	SubCode string
}

// ResolveCodelist supports both plain codes ("C66731") and sub-coded
// references ("VSTESTCD;SYSBP"), the latter narrowing Terms to the
// matching submission value only.
func (c *Catalog) ResolveCodelist(ref string) (ResolvedCodelist, error) {
	code, sub, hasSub := strings.Cut(ref, ";")
	cl, err := c.GetCodelist(code)
	if err != nil {
		return ResolvedCodelist{}, err
	}
	if !hasSub || sub == "" {
		return ResolvedCodelist{Codelist: cl}, nil
	}

	narrowed := cl
	narrowed.Terms = nil
	for _, t := range cl.Terms {
		if equalFold(t.SubmissionValue, sub) {
			narrowed.Terms = append(narrowed.Terms, t)
		}
	}
	return ResolvedCodelist{Codelist: narrowed, SubCode: sub}, nil
}

// MatchMode toggles how aggressively raw values are normalized before
// comparison against submission values/synonyms (spec §4.1, §6
// ct_matching option).
type MatchMode int

const (
	// Lenient drops punctuation/whitespace differences before comparing.
	Lenient MatchMode = iota
	// Strict only case-folds and trims; no punctuation stripping.
	Strict
)

// FindSubmissionValue returns the submission value of the term whose
// submission value or any synonym equals raw under normalization, or
// ("", false) when no term matches.
func (cl Codelist) FindSubmissionValue(raw string, mode MatchMode) (string, bool) {
	target := normalizeTerm(raw, mode)
	if target == "" {
		return "", false
	}
	for _, t := range cl.Terms {
		if normalizeTerm(t.SubmissionValue, mode) == target {
			return t.SubmissionValue, true
		}
		for _, syn := range t.Synonyms {
			if normalizeTerm(syn, mode) == target {
				return t.SubmissionValue, true
			}
		}
	}
	return "", false
}

// normalizeTerm implements spec §4.1's normalization pipeline:
// lowercase -> trim -> (lenient only) collapse whitespace and drop
// non-alphanumerics. Strict mode only case-folds and trims, per spec
// §6's "skips the lenient whitespace/punctuation pass".
func normalizeTerm(s string, mode MatchMode) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if mode == Strict {
		return s
	}
	s = strings.Join(strings.Fields(s), " ")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SortedCodes returns every codelist code in the catalog, sorted.
func (c *Catalog) SortedCodes() []string {
	out := append([]string(nil), c.codelistOrder...)
	sort.Strings(out)
	return out
}
