// Package store persists an append-only archive of codec/relay/upload
// operations to a modernc.org/sqlite database, schema-versioned with
// golang-migrate's iofs source driver. Purely observational: never
// required for correct codec or relay behavior.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jnweiger/ruida-laser/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a sqlite connection holding the job archive and relay session
// log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path, applies
// performance PRAGMAs, and migrates it to the latest schema version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply pragmas: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrateUp() error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("sub-filesystem: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Direction identifies which operation produced a job archive row.
type Direction string

const (
	DirectionUpload Direction = "upload"
	DirectionRelay  Direction = "relay"
	DirectionDecode Direction = "decode"
)

// Outcome identifies how a job archive row's operation concluded.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeChecksumMismatch Outcome = "checksum_mismatch"
	OutcomeTimeout          Outcome = "timeout"
	OutcomeParseError       Outcome = "parse_error"
)

// JobRecord summarizes one encode/decode/relay/upload operation.
type JobRecord struct {
	Direction  Direction
	ByteLength int
	CutMM      *float64
	TravelMM   *float64
	Outcome    Outcome
}

// LogJob appends a job archive row and returns its generated job ID.
func (s *Store) LogJob(ctx context.Context, rec JobRecord) (string, error) {
	jobID := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_archive (job_id, direction, byte_length, cut_mm, travel_mm, outcome) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, string(rec.Direction), rec.ByteLength, rec.CutMM, rec.TravelMM, string(rec.Outcome))
	if err != nil {
		return "", fmt.Errorf("store: log job: %w", err)
	}
	monitoring.Logf("store: logged job %s (%s, %d bytes, %s)", jobID, rec.Direction, rec.ByteLength, rec.Outcome)
	return jobID, nil
}

// LogRelaySession appends a relay session log row. Satisfies
// relay.SessionLogger.
func (s *Store) LogRelaySession(ctx context.Context, sessionID, clientIP, endReason string, start, end time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relay_session (session_id, client_ip, end_reason, started_at, ended_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, clientIP, endReason, start, end)
	if err != nil {
		return fmt.Errorf("store: log relay session: %w", err)
	}
	return nil
}
