// Package store persists polar runs in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// RunRow describes one polar run.
type RunRow struct {
	ID         int64
	Shape      string
	Speed      float64
	TexSize    int
	SliceCount int
	LiftC      float64
	DragC      float64
	RefArea    float64
	CreatedAt  time.Time
}

// PointRow is one angle of attack within a run.
type PointRow struct {
	RunID   int64
	Angle   float64 // Degrees
	Lift    float64
	Drag    float64
	TorqueX float64
	CL      float64
	CD      float64
	Dropped int
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// Pragmas are per connection
	conn.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		shape TEXT NOT NULL,
		speed REAL NOT NULL,
		tex_size INTEGER NOT NULL,
		slice_count INTEGER NOT NULL,
		lift_c REAL NOT NULL,
		drag_c REAL NOT NULL,
		ref_area REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS points (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		angle REAL NOT NULL,
		lift REAL NOT NULL,
		drag REAL NOT NULL,
		torque_x REAL NOT NULL,
		cl REAL NOT NULL,
		cd REAL NOT NULL,
		dropped INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, angle)
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun inserts a run and returns its ID.
func (db *DB) CreateRun(r RunRow) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO runs (shape, speed, tex_size, slice_count, lift_c, drag_c, ref_area)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Shape, r.Speed, r.TexSize, r.SliceCount, r.LiftC, r.DragC, r.RefArea,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// AddPoint records one angle of attack. A repeated angle replaces the
// previous point.
func (db *DB) AddPoint(p PointRow) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO points (run_id, angle, lift, drag, torque_x, cl, cd, dropped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RunID, p.Angle, p.Lift, p.Drag, p.TorqueX, p.CL, p.CD, p.Dropped,
	)
	if err != nil {
		return fmt.Errorf("inserting point: %w", err)
	}
	return nil
}

// GetRun returns the run with the given ID, or nil if absent.
func (db *DB) GetRun(id int64) (*RunRow, error) {
	r := &RunRow{}
	err := db.conn.QueryRow(
		`SELECT id, shape, speed, tex_size, slice_count, lift_c, drag_c, ref_area, created_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Shape, &r.Speed, &r.TexSize, &r.SliceCount, &r.LiftC, &r.DragC, &r.RefArea, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %d: %w", id, err)
	}
	return r, nil
}

// Points returns a run's points ordered by angle.
func (db *DB) Points(runID int64) ([]PointRow, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, angle, lift, drag, torque_x, cl, cd, dropped
		 FROM points WHERE run_id = ? ORDER BY angle`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading points: %w", err)
	}
	defer rows.Close()

	var result []PointRow
	for rows.Next() {
		var p PointRow
		if err := rows.Scan(&p.RunID, &p.Angle, &p.Lift, &p.Drag, &p.TorqueX, &p.CL, &p.CD, &p.Dropped); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// LatestRun returns the most recent run for a shape, or nil if none.
func (db *DB) LatestRun(shape string) (*RunRow, error) {
	var id int64
	err := db.conn.QueryRow(`SELECT id FROM runs WHERE shape = ? ORDER BY id DESC LIMIT 1`, shape).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding latest %s run: %w", shape, err)
	}
	return db.GetRun(id)
}

// DeleteRun removes a run and its points.
func (db *DB) DeleteRun(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting run %d: %w", id, err)
	}
	return nil
}
