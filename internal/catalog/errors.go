package catalog

import "fmt"

// DirectoryNotFoundError is returned when a catalog-root override points
// at a path that does not exist.
type DirectoryNotFoundError struct {
	Path string
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("catalog: standards directory not found: %s", e.Path)
}

// FileNotFoundError is returned when an expected catalog table is
// missing from the embedded or overridden filesystem.
type FileNotFoundError struct {
	File string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("catalog: file not found: %s", e.File)
}

// CsvReadError wraps an underlying encoding/csv failure with the file
// that produced it.
type CsvReadError struct {
	File string
	Err  error
}

func (e *CsvReadError) Error() string {
	return fmt.Sprintf("catalog: failed reading %s: %v", e.File, e.Err)
}

func (e *CsvReadError) Unwrap() error { return e.Err }

// InvalidValueError is returned when a cell in a catalog table violates
// an invariant (e.g. a domain name that isn't 2-4 characters long).
type InvalidValueError struct {
	Field string
	Value string
	File  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("catalog: invalid value for %s (%q) in %s", e.Field, e.Value, e.File)
}

// NotFoundError is returned by lookups on a successfully loaded catalog
// (get_domain / get_codelist with an unknown key). The catalog itself is
// total for lookups after a successful load per spec §4.1; this error
// type covers the caller-facing "no such key" case.
type NotFoundError struct {
	Kind string // "domain" or "codelist"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog: no such %s: %s", e.Kind, e.Key)
}
