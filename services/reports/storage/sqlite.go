package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iulianpascalau/newrelic-audits/services/reports/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const defaultNumHistory = 100

var log = logger.GetOrCreate("storage")

// ErrResultNotFound signals that no results were stored for the requested audit and target
var ErrResultNotFound = errors.New("audit result not found")

// sqliteStorage is the sqlite implementation for the audit results storage
type sqliteStorage struct {
	db               *sql.DB
	retentionSeconds int
	numHistory       int
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
}

// NewSQLiteStorage creates the database, schema, and starts the retention cleaner
func NewSQLiteStorage(dbPath string, retentionSeconds int, numHistory int) (*sqliteStorage, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases consistent across queries
	db.SetMaxOpenConns(1)

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if numHistory <= 0 {
		numHistory = defaultNumHistory
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &sqliteStorage{
		db:               db,
		retentionSeconds: retentionSeconds,
		numHistory:       numHistory,
		cancelFunc:       cancel,
	}

	s.startRetentionCleaner(ctx)

	return s, nil
}

func prepareDirectories(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

// cleanRetainedResults executes the retention cleanup query synchronously.
func (s *sqliteStorage) cleanRetainedResults(ctx context.Context) error {
	nowSec := time.Now().Unix()
	cutoff := nowSec - int64(s.retentionSeconds)
	_, err := s.db.ExecContext(ctx, "DELETE FROM audit_results WHERE recorded_at < ?", cutoff)
	return err
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		audit  TEXT NOT NULL,
		target TEXT NOT NULL,
		PRIMARY KEY (audit, target)
	);

	CREATE TABLE IF NOT EXISTS audit_results (
		audit       TEXT    NOT NULL,
		target      TEXT    NOT NULL,
		auditor     TEXT    NOT NULL,
		outcome     TEXT    NOT NULL,
		parameters  TEXT    NOT NULL DEFAULT '',
		error       TEXT    NOT NULL DEFAULT '',
		started_at  INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL,
		FOREIGN KEY (audit, target) REFERENCES audits(audit, target) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_audit_results_key ON audit_results(audit, target);
	CREATE INDEX IF NOT EXISTS idx_audit_results_recorded_at ON audit_results(recorded_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveResult upserts the (audit, target) pair, inserts the result, and prunes old entries beyond numHistory
func (s *sqliteStorage) SaveResult(ctx context.Context, auditor string, result common.AuditResult, recordedAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audits (audit, target)
		VALUES (?, ?)
		ON CONFLICT(audit, target) DO NOTHING
	`, result.Audit, result.Target)
	if err != nil {
		return fmt.Errorf("failed to upsert audit definition: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_results (audit, target, auditor, outcome, parameters, error, started_at, finished_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.Audit, result.Target, auditor, result.Outcome, string(result.Parameters), result.Error,
		result.StartedAt.UnixMilli(), result.FinishedAt.UnixMilli(), recordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit result: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM audit_results
		WHERE audit = ? AND target = ?
		  AND rowid NOT IN (
			  SELECT rowid FROM audit_results
			  WHERE audit = ? AND target = ?
			  ORDER BY recorded_at DESC, rowid DESC
			  LIMIT ?
		  )
	`, result.Audit, result.Target, result.Audit, result.Target, s.numHistory)
	if err != nil {
		return fmt.Errorf("failed to trim audit history: %w", err)
	}

	return tx.Commit()
}

// GetLatestResults fetches the most recent result for each (audit, target) pair
func (s *sqliteStorage) GetLatestResults(ctx context.Context) ([]common.StoredResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT audit, target, auditor, outcome, parameters, error, started_at, finished_at, recorded_at
		FROM (
			SELECT *, ROW_NUMBER() OVER(PARTITION BY audit, target ORDER BY recorded_at DESC, rowid DESC) AS rn
			FROM audit_results
		)
		WHERE rn = 1
		ORDER BY audit, target
	`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.StoredResult, 0)
	for rows.Next() {
		r, errScan := scanResult(rows)
		if errScan != nil {
			return nil, errScan
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetResultHistory returns all retained results of one audit against one target
func (s *sqliteStorage) GetResultHistory(ctx context.Context, audit string, target string) (*common.ResultHistory, error) {
	var found int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM audits WHERE audit = ? AND target = ?", audit, target).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT audit, target, auditor, outcome, parameters, error, started_at, finished_at, recorded_at
		FROM audit_results
		WHERE audit = ? AND target = ?
		ORDER BY recorded_at, rowid
	`, audit, target)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	h := &common.ResultHistory{
		Audit:   audit,
		Target:  target,
		History: make([]common.StoredResult, 0),
	}
	for rows.Next() {
		r, errScan := scanResult(rows)
		if errScan != nil {
			return nil, errScan
		}
		h.History = append(h.History, r)
	}

	return h, rows.Err()
}

// DeleteResults forcefully deletes an (audit, target) pair and all its results
func (s *sqliteStorage) DeleteResults(ctx context.Context, audit string, target string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM audits WHERE audit = ? AND target = ?", audit, target)
	return err
}

func scanResult(rows *sql.Rows) (common.StoredResult, error) {
	var r common.StoredResult
	var params string
	var startedAt, finishedAt int64

	err := rows.Scan(&r.Audit, &r.Target, &r.Auditor, &r.Outcome, &params, &r.Error, &startedAt, &finishedAt, &r.RecordedAt)
	if err != nil {
		return common.StoredResult{}, err
	}

	if len(params) > 0 {
		r.Parameters = []byte(params)
	}
	r.StartedAt = time.UnixMilli(startedAt).UTC()
	r.FinishedAt = time.UnixMilli(finishedAt).UTC()

	return r, nil
}

func (s *sqliteStorage) startRetentionCleaner(ctx context.Context) {
	s.wg.Add(1)

	// max(RetentionSeconds/10, 60)
	intervalSec := s.retentionSeconds / 10
	if intervalSec < 60 {
		intervalSec = 60
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Debug("running retention cleanup")

				err := s.cleanRetainedResults(ctx)
				if err != nil {
					log.Warn("failed to cleanup retained audit results", "error", err)
				}
			}
		}
	}()
}

// Close closes the database and stops background routines
func (s *sqliteStorage) Close() error {
	s.cancelFunc()
	s.wg.Wait()
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteStorage) IsInterfaceNil() bool {
	return s == nil
}
