package pipeline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/japaniel/tcecutouts/pkg/db"
)

// Recorder receives one record per processed TCE.
type Recorder interface {
	Record(ctx context.Context, c db.Cutout) error
	Close() error
}

// Ledger records cutouts of a single run into the SQLite ledger, batching
// the inserts.
type Ledger struct {
	conn  *sql.DB
	runID string
	bw    *BatchWriter
	count int
}

// NewLedger registers run and returns a recorder for it. An empty run.ID gets
// a fresh UUID.
func NewLedger(conn *sql.DB, run db.Run, batchSize int) (*Ledger, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if err := db.CreateRun(conn, run); err != nil {
		return nil, err
	}
	return &Ledger{
		conn:  conn,
		runID: run.ID,
		bw:    NewBatchWriter(conn, batchSize),
	}, nil
}

// RunID identifies the run in the ledger.
func (l *Ledger) RunID() string { return l.runID }

// Record queues c for insertion under this run.
func (l *Ledger) Record(ctx context.Context, c db.Cutout) error {
	c.RunID = l.runID
	l.count++
	return l.bw.Submit(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := db.RecordCutout(tx, c)
		return err
	})
}

// Close commits pending records and marks the run finished.
func (l *Ledger) Close() error {
	// flush even when the run was cancelled so finished cutouts stay recorded
	if err := l.bw.Close(context.Background()); err != nil {
		return err
	}
	return db.FinishRun(l.conn, l.runID, l.count)
}

// Report is what the ledger holds for a run.
type Report struct {
	Run             db.Run
	Cutouts         []db.Cutout
	WithEmptyPanels int
}

// Report reads back the run and its cutouts. Call it after Close.
func (l *Ledger) Report() (Report, error) {
	run, err := db.GetRun(l.conn, l.runID)
	if err != nil {
		return Report{}, fmt.Errorf("get run %s: %w", l.runID, err)
	}
	cutouts, err := db.GetCutoutsByRun(l.conn, l.runID)
	if err != nil {
		return Report{}, fmt.Errorf("get cutouts of run %s: %w", l.runID, err)
	}
	rep := Report{Run: run, Cutouts: cutouts}
	for _, c := range cutouts {
		if c.EmptyPanels > 0 {
			rep.WithEmptyPanels++
		}
	}
	return rep, nil
}
