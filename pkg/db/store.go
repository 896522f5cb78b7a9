package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// CreateRun inserts a new run row.
func CreateRun(db DBExecutor, r Run) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("run id must be non-empty")
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := db.Exec(`INSERT INTO runs (id, weighting, panels, buffer_times, started_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Weighting, r.Panels, r.BufferTimes, r.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stamps the run as complete with its cutout count.
func FinishRun(db DBExecutor, runID string, count int) error {
	res, err := db.Exec(`UPDATE runs SET finished_at = ?, cutout_count = ? WHERE id = ?`, time.Now(), count, runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun loads a run by id.
func GetRun(db DBExecutor, runID string) (Run, error) {
	var r Run
	var finished sql.NullTime
	err := db.QueryRow(`SELECT id, weighting, panels, buffer_times, started_at, finished_at, cutout_count FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &r.Weighting, &r.Panels, &r.BufferTimes, &r.StartedAt, &finished, &r.CutoutCount)
	if err != nil {
		return Run{}, err
	}
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return r, nil
}

// RecordCutout stores a cutout, replacing any earlier record of the same TCE in the run.
func RecordCutout(db DBExecutor, c Cutout) (int64, error) {
	if c.RunID == "" {
		return 0, fmt.Errorf("runID must be non-empty")
	}
	if c.TCEID <= 0 {
		return 0, fmt.Errorf("tceID must be positive, got %d", c.TCEID)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	var id int64
	err := db.QueryRow(`INSERT INTO cutouts (run_id, tce_id, class, class_row, kepid, synthetic_id, quarter, midtime, source_path, image_path, samples, empty_panels, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, tce_id) DO UPDATE SET
	  image_path = excluded.image_path,
	  samples = excluded.samples,
	  empty_panels = excluded.empty_panels,
	  created_at = excluded.created_at
	RETURNING id`,
		c.RunID, c.TCEID, c.Class, c.ClassRow, c.KepID, nullableString(c.SyntheticID), c.Quarter, c.MidTime,
		c.SourcePath, nullableString(c.ImagePath), c.Samples, c.EmptyPanels, c.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert cutout %d: %w", c.TCEID, err)
	}
	return id, nil
}

// nullableString returns nil for "" else the value.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// GetCutoutsByRun returns the cutouts of a run in TCE id order.
func GetCutoutsByRun(db DBExecutor, runID string) ([]Cutout, error) {
	rows, err := db.Query(`SELECT id, run_id, tce_id, class, class_row, kepid, synthetic_id, quarter, midtime, source_path, image_path, samples, empty_panels, created_at
	FROM cutouts WHERE run_id = ? ORDER BY tce_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Cutout
	for rows.Next() {
		var c Cutout
		var synID, quarter, img sql.NullString
		if err := rows.Scan(&c.ID, &c.RunID, &c.TCEID, &c.Class, &c.ClassRow, &c.KepID, &synID, &quarter, &c.MidTime,
			&c.SourcePath, &img, &c.Samples, &c.EmptyPanels, &c.CreatedAt); err != nil {
			return nil, err
		}
		if synID.Valid {
			c.SyntheticID = synID.String
		}
		if quarter.Valid {
			c.Quarter = quarter.String
		}
		if img.Valid {
			c.ImagePath = img.String
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
