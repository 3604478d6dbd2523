// Package session persists and restores per-(study, domain) mapping
// and SUPP-override state across process restarts (spec SPEC_FULL.md
// §4.11 "Project persistence → core"), grounded on the teacher's
// internal/feedback/store.go: local database/sql over a blank-imported
// modernc.org/sqlite driver, CREATE TABLE IF NOT EXISTS migrations run
// at open, log/slog for connection events.
package session

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/mapping"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
	"github.com/rubentalstra/trial-submission-studio/internal/sessiondiff"
	"github.com/rubentalstra/trial-submission-studio/internal/supp"
)

// Snapshot is a domain's persisted editing state.
type Snapshot struct {
	StudyID           string
	DomainName        string
	SourceContentHash string
	Bindings          map[string]mapping.PersistedBinding
	SuppOverrides     map[string]supp.Override
	UpdatedAt         time.Time
}

// Store manages session persistence in a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) a SQLite session database at dbPath. Parent
// directories are created automatically. An empty dbPath uses
// ":memory:", useful for tests.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("session: create dir %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("session: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("session.Open", "path", dbPath)
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		study_id            TEXT NOT NULL,
		domain_name         TEXT NOT NULL,
		source_content_hash TEXT NOT NULL DEFAULT '',
		bindings_json       TEXT NOT NULL DEFAULT '{}',
		supp_overrides_json TEXT NOT NULL DEFAULT '{}',
		updated_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (study_id, domain_name)
	)`)
	if err != nil {
		return fmt.Errorf("session: create table: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// HashSource derives the content hash Save/Restore key their
// re-scoring decision on.
func HashSource(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Save persists a domain's current mapping and SUPP-override state.
func (s *Store) Save(snap Snapshot) error {
	bindingsJSON, err := json.Marshal(snap.Bindings)
	if err != nil {
		return fmt.Errorf("session: marshal bindings: %w", err)
	}
	overridesJSON, err := json.Marshal(snap.SuppOverrides)
	if err != nil {
		return fmt.Errorf("session: marshal supp overrides: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO sessions (study_id, domain_name, source_content_hash, bindings_json, supp_overrides_json, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (study_id, domain_name) DO UPDATE SET
			source_content_hash = excluded.source_content_hash,
			bindings_json       = excluded.bindings_json,
			supp_overrides_json = excluded.supp_overrides_json,
			updated_at          = excluded.updated_at`,
		snap.StudyID, snap.DomainName, snap.SourceContentHash, string(bindingsJSON), string(overridesJSON),
	)
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot for (studyID, domainName), or
// (nil, nil) if none exists.
func (s *Store) Load(studyID, domainName string) (*Snapshot, error) {
	var hash, bindingsJSON, overridesJSON string
	var updatedAt time.Time

	err := s.db.QueryRow(
		`SELECT source_content_hash, bindings_json, supp_overrides_json, updated_at
		 FROM sessions WHERE study_id = ? AND domain_name = ?`,
		studyID, domainName,
	).Scan(&hash, &bindingsJSON, &overridesJSON, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}

	var bindings map[string]mapping.PersistedBinding
	if err := json.Unmarshal([]byte(bindingsJSON), &bindings); err != nil {
		return nil, fmt.Errorf("session: unmarshal bindings: %w", err)
	}
	var overrides map[string]supp.Override
	if err := json.Unmarshal([]byte(overridesJSON), &overrides); err != nil {
		return nil, fmt.Errorf("session: unmarshal supp overrides: %w", err)
	}

	return &Snapshot{
		StudyID:           studyID,
		DomainName:        domainName,
		SourceContentHash: hash,
		Bindings:          bindings,
		SuppOverrides:     overrides,
		UpdatedAt:         updatedAt,
	}, nil
}

// RestoreResult is what Restore hands back to the caller: the rebuilt
// mapping state plus, when the source changed underneath it, a diff of
// what the re-scoring pass changed.
type RestoreResult struct {
	State *mapping.State
	Diff  *sessiondiff.Diff // nil when the source content hash is unchanged
}

// Restore loads the persisted snapshot for (studyID, domainName) and
// rebuilds mapping state against the caller's current domain/columns
// via mapping.Restore, which re-scores and then reinstates the persisted
// decisions. If currentContentHash differs from the stored hash, a Diff
// is also produced so the caller can show exactly what moved; otherwise
// Diff is nil. Returns (nil, nil) if nothing was ever saved for this
// key.
func (s *Store) Restore(studyID, domainName string, domain catalog.Domain, columns []string, hints map[string]scoring.ColumnHint, threshold float64, currentContentHash string) (*RestoreResult, error) {
	snap, err := s.Load(studyID, domainName)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}

	restored := mapping.Restore(domain, studyID, columns, hints, threshold, snap.Bindings)

	result := &RestoreResult{State: restored}
	if snap.SourceContentHash != currentContentHash {
		result.Diff = sessiondiff.Render(snap.Bindings, restored.ToConfig())
	}
	return result, nil
}
