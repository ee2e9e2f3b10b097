package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/thinhvd77/Tax/internal/model"
)

// ErrRunNotFound no run with the requested id
var ErrRunNotFound = errors.New("run not found")

// DefaultRunLimit page size of ListRuns when limit is not positive
const DefaultRunLimit = 50

// CreateRun records a run in the processing state together with its uploads.
func (s *Store) CreateRun(ctx context.Context, run model.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = model.RunProcessing
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, kind, label, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, string(run.Kind), run.Label, string(run.Status), run.CreatedAt); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	if err := insertFiles(ctx, tx, run.ID, run.Files); err != nil {
		return err
	}
	return tx.Commit()
}

// CompleteRun marks a run succeeded, stores its stats and replaces the file list
// with the classified one.
func (s *Store) CompleteRun(ctx context.Context, id string, stats model.RunStats, files []model.FileAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET
			status = ?,
			employees = ?,
			no_contract = ?,
			total_tax = ?,
			warnings = ?,
			completed_at = ?
		WHERE id = ?
	`, string(model.RunSucceeded), stats.Employees, stats.NoContract, stats.TotalTax, stats.Warnings, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}

	if len(files) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM run_files WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("failed to clear run files: %w", err)
		}
		if err := insertFiles(ctx, tx, id, files); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// FailRun marks a run failed with the error message
func (s *Store) FailRun(ctx context.Context, id string, message string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`, string(model.RunFailed), message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to fail run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// ListRuns newest runs first, without their file lists
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, label, status, employees, no_contract, total_tax, warnings,
			error_message, created_at, completed_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs failed: %w", err)
	}
	defer rows.Close()

	out := make([]model.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run failed: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs failed: %w", err)
	}
	return out, nil
}

// GetRun one run with its files
func (s *Store) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, label, status, employees, no_contract, total_tax, warnings,
			error_message, created_at, completed_at
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("query run failed: %w", err)
	}

	files, err := s.db.QueryContext(ctx, `
		SELECT filename, role, size FROM run_files WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run files failed: %w", err)
	}
	defer files.Close()
	for files.Next() {
		var (
			f    model.FileAssignment
			role string
		)
		if err := files.Scan(&f.Filename, &role, &f.Size); err != nil {
			return nil, fmt.Errorf("scan run file failed: %w", err)
		}
		f.Role = model.FileRole(role)
		run.Files = append(run.Files, f)
	}
	if err := files.Err(); err != nil {
		return nil, fmt.Errorf("iterate run files failed: %w", err)
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (model.Run, error) {
	var (
		run       model.Run
		kind      string
		status    string
		completed sql.NullTime
	)
	err := sc.Scan(&run.ID, &kind, &run.Label, &status, &run.Employees, &run.NoContract,
		&run.TotalTax, &run.Warnings, &run.ErrorMessage, &run.CreatedAt, &completed)
	if err != nil {
		return run, err
	}
	run.Kind = model.RunKind(kind)
	run.Status = model.RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return run, nil
}

func insertFiles(ctx context.Context, tx *sql.Tx, runID string, files []model.FileAssignment) error {
	for i, f := range files {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_files (run_id, position, filename, role, size)
			VALUES (?, ?, ?, ?, ?)
		`, runID, i, f.Filename, string(f.Role), f.Size); err != nil {
			return fmt.Errorf("failed to record run file %q: %w", f.Filename, err)
		}
	}
	return nil
}
