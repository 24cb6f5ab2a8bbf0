// Package storage persists an audit trail of served predictions. The trail
// feeds the stats endpoint and offline data-quality review; losing it must
// never fail a prediction.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Record is one served prediction, stripped of the raw answers. Only the
// outcome and data-quality signals are kept.
type Record struct {
	ID            string
	Variant       string
	Vulnerable    bool
	Probability   float64
	Threshold     float64
	RiskLevel     string
	FallbackCount int
	LatencyMs     int64
	CreatedAt     time.Time
}

// Stats aggregates the audit trail for the stats endpoint.
type Stats struct {
	TotalPredictions int64            `json:"total_predictions"`
	VulnerableCount  int64            `json:"vulnerable_count"`
	ByRiskLevel      map[string]int64 `json:"by_risk_level"`
	ByVariant        map[string]int64 `json:"by_variant"`
	TotalFallbacks   int64            `json:"total_fallbacks"`
	AvgProbability   float64          `json:"avg_probability"`
	AvgLatencyMs     float64          `json:"avg_latency_ms"`
}

// Store is a SQLite-backed audit log. Writes happen off the request path;
// a nil *Store is a valid no-op sink so the service runs without storage.
type Store struct {
	db     *sql.DB
	insert *sql.Stmt
}

// New opens (or creates) the audit database under dataDir.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vulnerability_monitor.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping audit database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate audit database: %w", err)
	}

	s.insert, err = db.Prepare(`INSERT INTO predictions (
		id, variant, vulnerable, probability, threshold, risk_level,
		fallback_count, latency_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	slog.Info("audit store initialized", "path", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id TEXT PRIMARY KEY,
			variant TEXT NOT NULL,
			vulnerable BOOLEAN NOT NULL,
			probability REAL NOT NULL,
			threshold REAL NOT NULL,
			risk_level TEXT NOT NULL,
			fallback_count INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_risk ON predictions(risk_level)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_variant ON predictions(variant)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SavePrediction appends one record. A zero ID gets a fresh UUID and a zero
// timestamp gets the current time.
func (s *Store) SavePrediction(rec Record) error {
	if s == nil {
		return nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.insert.Exec(
		rec.ID, rec.Variant, rec.Vulnerable, rec.Probability, rec.Threshold,
		rec.RiskLevel, rec.FallbackCount, rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prediction record: %w", err)
	}
	return nil
}

// SaveAsync records off the request path. Failures are logged, never
// surfaced: the prediction has already been served.
func (s *Store) SaveAsync(rec Record) {
	if s == nil {
		return
	}
	go func() {
		if err := s.SavePrediction(rec); err != nil {
			slog.Warn("audit record not saved", "error", err)
		}
	}()
}

// Stats aggregates the full trail.
func (s *Store) Stats() (Stats, error) {
	stats := Stats{
		ByRiskLevel: make(map[string]int64),
		ByVariant:   make(map[string]int64),
	}
	if s == nil {
		return stats, nil
	}

	row := s.db.QueryRow(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN vulnerable THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(fallback_count), 0),
		COALESCE(AVG(probability), 0),
		COALESCE(AVG(latency_ms), 0)
	FROM predictions`)
	if err := row.Scan(
		&stats.TotalPredictions, &stats.VulnerableCount,
		&stats.TotalFallbacks, &stats.AvgProbability, &stats.AvgLatencyMs,
	); err != nil {
		return stats, fmt.Errorf("aggregate predictions: %w", err)
	}

	if err := s.countBy("risk_level", stats.ByRiskLevel); err != nil {
		return stats, err
	}
	if err := s.countBy("variant", stats.ByVariant); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *Store) countBy(column string, into map[string]int64) error {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT %s, COUNT(*) FROM predictions GROUP BY %s`, column, column))
	if err != nil {
		return fmt.Errorf("group by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

// Close releases the prepared statement and the connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	if s.insert != nil {
		if err := s.insert.Close(); err != nil {
			slog.Warn("closing insert statement", "error", err)
		}
	}
	return s.db.Close()
}
