package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrArchiveRunNotFound is returned when no audit row exists yet for an
// archive path.
var ErrArchiveRunNotFound = errors.New("archive run not found")

// RunStatus is the outcome of the most recent attempt to load an archive.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ArchiveRun is one archive directory's local audit record.
type ArchiveRun struct {
	ArchivePath    string
	Status         RunStatus
	FirstAttemptAt time.Time
	LastAttemptAt  time.Time
	CompletedAt    *time.Time
	AttemptCount   int
	RecordsWritten uint64
	LastError      string
}

// RecordAttempt marks the start of a load attempt against archivePath,
// creating the audit row on first sight and incrementing the attempt
// counter on every subsequent call.
func (s *Storage) RecordAttempt(archivePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	_, err := s.db.Exec(`
		INSERT INTO archive_runs (archive_path, status, first_attempt_at, last_attempt_at, attempt_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(archive_path) DO UPDATE SET
			status = excluded.status,
			last_attempt_at = excluded.last_attempt_at,
			attempt_count = attempt_count + 1
	`, archivePath, RunStatusRunning, now, now)
	if err != nil {
		return fmt.Errorf("recording attempt for %s: %w", archivePath, err)
	}
	return nil
}

// RecordSuccess marks archivePath as completed, recording how many records
// the attempt wrote.
func (s *Storage) RecordSuccess(archivePath string, recordsWritten uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	_, err := s.db.Exec(`
		UPDATE archive_runs
		SET status = ?, completed_at = ?, records_written = ?, last_error = NULL
		WHERE archive_path = ?
	`, RunStatusCompleted, now, recordsWritten, archivePath)
	if err != nil {
		return fmt.Errorf("recording success for %s: %w", archivePath, err)
	}
	return nil
}

// RecordFailure marks archivePath as failed, storing the error that ended
// the attempt so an operator can inspect it without re-running the loader.
func (s *Storage) RecordFailure(archivePath string, loadErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE archive_runs
		SET status = ?, last_error = ?
		WHERE archive_path = ?
	`, RunStatusFailed, loadErr.Error(), archivePath)
	if err != nil {
		return fmt.Errorf("recording failure for %s: %w", archivePath, err)
	}
	return nil
}

// GetArchiveRun returns the audit record for archivePath, or
// ErrArchiveRunNotFound if it has never been attempted.
func (s *Storage) GetArchiveRun(archivePath string) (*ArchiveRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT archive_path, status, first_attempt_at, last_attempt_at,
		       completed_at, attempt_count, records_written, last_error
		FROM archive_runs WHERE archive_path = ?
	`, archivePath)

	run, err := scanArchiveRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArchiveRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading archive run %s: %w", archivePath, err)
	}
	return run, nil
}

// ListFailedRuns returns every archive the local operator has attempted
// and failed, most recently attempted first — the working set for a
// `warehouse status` report.
func (s *Storage) ListFailedRuns() ([]*ArchiveRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT archive_path, status, first_attempt_at, last_attempt_at,
		       completed_at, attempt_count, records_written, last_error
		FROM archive_runs WHERE status = ? ORDER BY last_attempt_at DESC
	`, RunStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("listing failed runs: %w", err)
	}
	defer rows.Close()

	var out []*ArchiveRun
	for rows.Next() {
		run, err := scanArchiveRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning archive run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArchiveRun(row rowScanner) (*ArchiveRun, error) {
	var run ArchiveRun
	var status string
	var firstAttempt, lastAttempt int64
	var completedAt sql.NullInt64
	var lastError sql.NullString

	if err := row.Scan(
		&run.ArchivePath, &status, &firstAttempt, &lastAttempt,
		&completedAt, &run.AttemptCount, &run.RecordsWritten, &lastError,
	); err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	run.FirstAttemptAt = time.Unix(firstAttempt, 0)
	run.LastAttemptAt = time.Unix(lastAttempt, 0)
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		run.CompletedAt = &t
	}
	if lastError.Valid {
		run.LastError = lastError.String
	}
	return &run, nil
}
