package db

import "time"

// Run is one invocation of the cutout pipeline.
type Run struct {
	ID          string
	Weighting   string
	Panels      int
	BufferTimes string
	StartedAt   time.Time
	FinishedAt  *time.Time
	CutoutCount int
}

// Cutout records the figure produced for one TCE within a run.
type Cutout struct {
	ID          int64
	RunID       string
	TCEID       int
	Class       string
	ClassRow    int
	KepID       int64
	SyntheticID string
	Quarter     string
	MidTime     float64
	SourcePath  string
	ImagePath   string // empty when the figure was only displayed
	Samples     int
	EmptyPanels int
	CreatedAt   time.Time
}
