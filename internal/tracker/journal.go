// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	log "github.com/sirupsen/logrus"

	"github.com/thinkmate/mindrouter/internal/scenario"
)

// Journal persists provider outcomes to SQLite so reliability history
// survives restarts and can be inspected with ordinary SQL tooling.
// The in-memory ring never reads from it.
type Journal struct {
	db            *sql.DB
	dbPath        string
	retentionDays int
	enabled       bool
	mu            sync.RWMutex
}

// NewJournal creates a journal backed by the SQLite file at dbPath.
// retentionDays <= 0 defaults to 90.
func NewJournal(dbPath string, retentionDays int) (*Journal, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &Journal{dbPath: dbPath, retentionDays: retentionDays}, nil
}

// Initialize opens the database and creates the schema.
func (j *Journal) Initialize(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", j.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		provider_id TEXT NOT NULL,
		scenario TEXT NOT NULL,
		response_time_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		satisfaction REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_timestamp ON outcomes(timestamp);
	CREATE INDEX IF NOT EXISTS idx_outcomes_provider ON outcomes(provider_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_scenario ON outcomes(scenario);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create journal schema: %w", err)
	}

	j.db = db
	j.enabled = true
	log.Infof("Outcome journal initialized (db: %s, retention: %d days)", j.dbPath, j.retentionDays)

	go j.cleanupOldRecords(context.Background())
	return nil
}

// IsEnabled reports whether Initialize has completed.
func (j *Journal) IsEnabled() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.enabled
}

// Append stores one outcome row.
func (j *Journal) Append(ctx context.Context, m Metric) error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if !j.enabled {
		return fmt.Errorf("outcome journal not enabled")
	}

	query := `
	INSERT INTO outcomes (timestamp, provider_id, scenario, response_time_ms, success, satisfaction)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		m.Timestamp,
		m.ProviderID,
		string(m.Scenario),
		m.ResponseTime.Milliseconds(),
		boolToInt(m.Success),
		m.Satisfaction,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}
	return nil
}

// Recent retrieves the newest rows, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Metric, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if !j.enabled {
		return nil, fmt.Errorf("outcome journal not enabled")
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
	SELECT timestamp, provider_id, scenario, response_time_ms, success, satisfaction
	FROM outcomes
	ORDER BY timestamp DESC
	LIMIT ?
	`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		var (
			m          Metric
			scen       string
			latencyMs  int64
			successInt int
		)
		if err := rows.Scan(&m.Timestamp, &m.ProviderID, &scen, &latencyMs, &successInt, &m.Satisfaction); err != nil {
			log.Warnf("Failed to scan outcome row: %v", err)
			continue
		}
		m.Scenario = scenarioFromString(scen)
		m.ResponseTime = time.Duration(latencyMs) * time.Millisecond
		m.Success = successInt == 1
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcome rows: %w", err)
	}
	return out, nil
}

// Cleanup removes rows older than the retention period. Exposed so a
// scheduled maintenance job can invoke it.
func (j *Journal) Cleanup(ctx context.Context) {
	j.cleanupOldRecords(ctx)
}

// cleanupOldRecords must be called without holding j.mu.
func (j *Journal) cleanupOldRecords(ctx context.Context) {
	if !j.IsEnabled() {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)
	result, err := j.db.ExecContext(ctx, "DELETE FROM outcomes WHERE created_at < ?", cutoff)
	if err != nil {
		log.Warnf("Failed to cleanup old outcome rows: %v", err)
		return
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		log.Infof("Cleaned up %d old outcome rows (older than %d days)", n, j.retentionDays)
	}
}

// Shutdown runs a final cleanup and closes the database.
func (j *Journal) Shutdown(ctx context.Context) error {
	if j.IsEnabled() {
		j.cleanupOldRecords(ctx)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.enabled {
		return nil
	}
	if j.db != nil {
		if err := j.db.Close(); err != nil {
			return fmt.Errorf("failed to close journal database: %w", err)
		}
	}
	j.enabled = false
	log.Info("Outcome journal shut down")
	return nil
}

func scenarioFromString(s string) scenario.Scenario {
	sc := scenario.Scenario(s)
	if !sc.Valid() {
		return scenario.ScenarioGeneral
	}
	return sc
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
