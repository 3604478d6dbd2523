// Package preview implements the thin preview-composition wrapper over
// the normalization pipeline (spec §4.7).
package preview

import (
	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/frame"
	"github.com/rubentalstra/trial-submission-studio/internal/pipeline"
)

// Build assembles the domain's pipeline and executes it under a context
// reflecting mappings and the current DM reference-start map, skipping
// any rule that targets a Permissible variable named in omitted (its
// column is still produced, all-missing, to preserve frame width).
func Build(source *frame.Frame, mappings map[string]string, omitted map[string]bool, domain catalog.Domain, studyID string, terminology *catalog.Catalog, referenceStarts map[string]string, opts pipeline.Options) (*frame.Frame, error) {
	p := pipeline.Build(domain)

	filtered := make([]pipeline.Rule, 0, len(p.Rules))
	for _, rule := range p.Rules {
		if omitted[rule.TargetVariable] {
			if v, ok := domain.Variable(rule.TargetVariable); ok && v.HasCore && v.Core == catalog.Permissible {
				filtered = append(filtered, pipeline.Rule{TargetVariable: rule.TargetVariable, Kind: pipeline.CopyDirect})
				continue
			}
		}
		filtered = append(filtered, rule)
	}
	p.Rules = filtered

	activeMappings := make(map[string]string, len(mappings))
	for variable, column := range mappings {
		if omitted[variable] {
			continue
		}
		activeMappings[variable] = column
	}

	ctx := pipeline.Context{
		StudyID:         studyID,
		DomainName:      domain.Name,
		Mappings:        activeMappings,
		ReferenceStarts: referenceStarts,
		Terminology:     terminology,
		Options:         opts,
	}
	return pipeline.Execute(source, p, ctx)
}
