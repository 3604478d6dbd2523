// Package supp builds the supplemental-qualifier sidecar for a domain's
// unmapped, user-included source columns (spec §4.5).
package supp

import (
	"sort"
	"strings"

	"github.com/rubentalstra/trial-submission-studio/internal/frame"
)

// Action is the user-level decision for an unmapped source column.
type Action string

const (
	Pending Action = "pending"
	Include Action = "include"
	Skip    Action = "skip"
)

// Override carries the user's SUPP authoring decisions for one unmapped
// source column (spec §6 "Project persistence").
type Override struct {
	Column string
	Action Action
	QNAM   string // explicit override; computed by the sanitizer when empty
	QLABEL string
	QORIG  string // default "CRF"
	QEVAL  string
}

// Row is one sidecar record.
type Row struct {
	STUDYID  string
	RDOMAIN  string
	USUBJID  string
	IDVAR    string
	IDVARVAL string
	QNAM     string
	QLABEL   string
	QVAL     string
	QORIG    string
	QEVAL    string
}

const qlabelMaxLen = 40

// Build assembles the supplemental-qualifier sidecar (spec §4.5
// "Algorithm"). source holds the raw, unmapped columns; usubjid is the
// already §4.4-prefixed subject id per row; labels maps source column
// name -> human label; idVar/idVarVal supply the parent's identifying
// variable, when configured, for every row.
func Build(studyID, parentDomain string, source *frame.Frame, usubjid []string, labels map[string]string, idVar string, idVarVal []string, overrides map[string]Override) []Row {
	type key struct{ usubjid, idvar, idvarval, qnam string }
	seen := make(map[key]bool)
	var rows []Row

	for _, col := range source.Columns {
		ov, ok := overrides[col.Name]
		if !ok || ov.Action != Include {
			continue
		}

		qnam := ov.QNAM
		if qnam == "" {
			qnam = SanitizeQNAM(col.Name)
		}
		qlabel := ov.QLABEL
		if qlabel == "" {
			qlabel = labels[col.Name]
		}
		if len(qlabel) > qlabelMaxLen {
			qlabel = qlabel[:qlabelMaxLen]
		}
		qorig := ov.QORIG
		if qorig == "" {
			qorig = "CRF"
		}

		for i, v := range col.Values {
			if frame.IsMissing(v) {
				continue
			}
			subject := ""
			if i < len(usubjid) {
				subject = usubjid[i]
			}
			rowIDVar := idVar
			rowIDVarVal := ""
			if idVarVal != nil && i < len(idVarVal) {
				rowIDVarVal = idVarVal[i]
			}
			if rowIDVarVal == "" {
				rowIDVar = ""
			}

			k := key{subject, rowIDVar, rowIDVarVal, qnam}
			if seen[k] {
				continue
			}
			seen[k] = true

			rows = append(rows, Row{
				STUDYID:  studyID,
				RDOMAIN:  parentDomain,
				USUBJID:  subject,
				IDVAR:    rowIDVar,
				IDVARVAL: rowIDVarVal,
				QNAM:     qnam,
				QLABEL:   qlabel,
				QVAL:     v,
				QORIG:    qorig,
				QEVAL:    ov.QEVAL,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.USUBJID != b.USUBJID {
			return a.USUBJID < b.USUBJID
		}
		if a.IDVAR != b.IDVAR {
			return a.IDVAR < b.IDVAR
		}
		if a.IDVARVAL != b.IDVARVAL {
			return a.IDVARVAL < b.IDVARVAL
		}
		return a.QNAM < b.QNAM
	})
	return rows
}

// SanitizeQNAM implements spec §4.5's sanitizer: first 8 chars of the
// uppercased alphanumeric name, prefixed with 'Q' if it would otherwise
// start with a digit, falling back to "QVAL" if nothing survives.
// Repeated underscores in the source name collapse before stripping,
// matching visually-separated labels like "investigator__note".
func SanitizeQNAM(name string) string {
	collapsed := collapseUnderscores(name)

	var b strings.Builder
	for _, r := range strings.ToUpper(collapsed) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return "QVAL"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "Q" + s
	}
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		if r == '_' {
			if prevUnderscore {
				continue
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
