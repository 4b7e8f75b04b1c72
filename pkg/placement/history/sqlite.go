package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"
)

// SQLiteStore persists records in a local SQLite database
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	prepared map[string]*sql.Stmt
}

// NewSQLiteStore opens (creating if needed) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer keeps append order stable
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:       db,
		dbPath:   dbPath,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	klog.V(2).InfoS("Opened deployment history store", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deployment_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plan_id TEXT NOT NULL,
		plan TEXT NOT NULL,
		region TEXT NOT NULL,
		carbon_intensity REAL NOT NULL,
		replicas INTEGER NOT NULL,
		energy_kwh_per_hour REAL NOT NULL,
		co2_grams_per_hour REAL NOT NULL,
		cost_per_hour REAL NOT NULL,
		deployed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plan_id ON deployment_records(plan_id);
	CREATE INDEX IF NOT EXISTS idx_region ON deployment_records(region);
	`

	_, err := s.db.Exec(schema)
	return err
}

const recordColumns = `plan_id, plan, region, carbon_intensity, replicas,
	energy_kwh_per_hour, co2_grams_per_hour, cost_per_hour, deployed_at`

func (s *SQLiteStore) prepareStatements() error {
	statements := map[string]string{
		"insert": `
			INSERT INTO deployment_records (` + recordColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
		"select_all": `
			SELECT ` + recordColumns + `
			FROM deployment_records
			ORDER BY id ASC
		`,
		"select_latest": `
			SELECT ` + recordColumns + `
			FROM deployment_records
			WHERE plan_id = ?
			ORDER BY id DESC
			LIMIT 1
		`,
	}

	for name, query := range statements {
		stmt, err := s.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		s.prepared[name] = stmt
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.prepared["insert"].ExecContext(ctx,
		rec.PlanID,
		rec.Plan,
		rec.Region,
		rec.CarbonIntensity,
		rec.Replicas,
		rec.EnergyKWhPerHour,
		rec.CO2GramsPerHour,
		rec.CostPerHour,
		rec.DeployedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert deployment record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.prepared["select_all"].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployment records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Latest(ctx context.Context, planID string) (Record, error) {
	rec, err := scanRecord(s.prepared["select_latest"].QueryRowContext(ctx, planID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec        Record
		deployedAt time.Time
	)
	err := row.Scan(
		&rec.PlanID,
		&rec.Plan,
		&rec.Region,
		&rec.CarbonIntensity,
		&rec.Replicas,
		&rec.EnergyKWhPerHour,
		&rec.CO2GramsPerHour,
		&rec.CostPerHour,
		&deployedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("failed to scan deployment record: %w", err)
	}
	rec.DeployedAt = deployedAt.UTC()
	return rec, nil
}

// Close releases prepared statements and the database handle
func (s *SQLiteStore) Close() error {
	for _, stmt := range s.prepared {
		stmt.Close()
	}
	return s.db.Close()
}
