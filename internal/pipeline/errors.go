package pipeline

import "fmt"

// ColumnNotFoundError is the one structural failure execution can
// raise: the mapping table names a source column that does not exist
// in the frame handed to Execute (spec §4.4 failure semantics).
type ColumnNotFoundError struct {
	Variable string
	Column   string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("pipeline: variable %q maps to missing source column %q", e.Variable, e.Column)
}
