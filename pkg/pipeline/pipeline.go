// Package pipeline turns TCE catalogs into cutout figures and ID-augmented catalogs.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/japaniel/tcecutouts/pkg/catalog"
	"github.com/japaniel/tcecutouts/pkg/config"
	"github.com/japaniel/tcecutouts/pkg/db"
	"github.com/japaniel/tcecutouts/pkg/lightcurve"
	"github.com/japaniel/tcecutouts/pkg/render"
)

// Batch is one class's sorted catalog and the candidates drawn from it.
type Batch struct {
	Class      Class
	Table      *catalog.Table
	Candidates []catalog.Candidate
}

// Summary reports what a run produced.
type Summary struct {
	Processed int
	Images    int
	Catalogs  []string
}

// Pipeline processes batches strictly in order on the calling goroutine.
type Pipeline struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives the per-TCE progress lines.
	Out io.Writer
	// Viewer shows figures when they are not written to disk.
	Viewer render.Viewer
	// Recorder, if set, gets a record of every processed TCE.
	Recorder Recorder
	// Limit caps the candidates processed per class; 0 means all.
	Limit int
}

// New creates a Pipeline writing progress to stdout.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		Config: cfg,
		Logger: zerolog.Nop(),
		Out:    os.Stdout,
		Viewer: &render.CommandViewer{Command: cfg.Viewer.Command},
	}
}

// Classes returns the TCE classes in processing order: real, then synthetic.
func Classes(cfg *config.Config) []Class {
	return []Class{
		MDwarfs{DataDir: cfg.LightCurveDir},
		Synthetics{DataDir: cfg.SyntheticDir},
	}
}

// LoadBatches reads and sorts the catalog of every class. A non-empty only
// keeps the class of that name.
func LoadBatches(cfg *config.Config, only string) ([]Batch, error) {
	var batches []Batch
	for _, cl := range Classes(cfg) {
		if only != "" && cl.Name() != only {
			continue
		}
		path := cfg.MDwarfCatalog()
		if cl.Kind() == catalog.Synthetic {
			path = cfg.SyntheticCatalog()
		}
		tbl, cands, err := catalog.Load(path, cl.Kind())
		if err != nil {
			return nil, fmt.Errorf("load %s catalog: %w", cl.Name(), err)
		}
		batches = append(batches, Batch{Class: cl, Table: tbl, Candidates: cands})
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("no class named %q", only)
	}
	return batches, nil
}

// ImagePath is where the figure of TCE id is written.
func ImagePath(root, class string, panels, id int) string {
	return filepath.Join(root, class, fmt.Sprintf("%dpanel", panels), fmt.Sprintf("tce%05d.png", id))
}

// CatalogPath is where the ID-augmented catalog of class is written.
func CatalogPath(root, class string) string {
	return filepath.Join(root, class+"tces.dat")
}

// Run processes every candidate of every batch. TCE ids start at 1 and
// increase by one per candidate across all batches. After each batch its
// catalog, with a tceid column appended, is written when enabled. The first
// error stops the run; figures already written are kept.
func (p *Pipeline) Run(ctx context.Context, batches []Batch) (Summary, error) {
	var sum Summary
	total := 0
	for _, b := range batches {
		total += p.count(b)
	}

	id := 0
	for _, b := range batches {
		name := b.Class.Name()
		n := p.count(b)
		ids := make([]int, 0, n)
		p.Logger.Info().Str("class", name).Int("candidates", n).Msg("processing class")

		for j, c := range b.Candidates[:n] {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			id++
			c.TCEID = id
			ids = append(ids, id)

			rec, err := p.process(ctx, b.Class, c)
			if err != nil {
				return sum, fmt.Errorf("%s row %d (kepid %d, tce %05d): %w", name, j, c.KepID, id, err)
			}
			sum.Processed++
			if rec.ImagePath != "" {
				sum.Images++
			}
			fmt.Fprintf(p.Out, "%.2f%% completed. Datatype = %s. j = %d. TCE ID = %05d.\n",
				100*float64(id)/float64(total), name, j, id)

			rec.ClassRow = c.Row
			if p.Recorder != nil {
				if err := p.Recorder.Record(ctx, rec); err != nil {
					return sum, fmt.Errorf("record tce %05d: %w", id, err)
				}
			}
		}

		if p.Config.WriteTCEFiles {
			path := CatalogPath(p.Config.OutputDir, name)
			if err := writeCatalog(b.Table, ids, path); err != nil {
				return sum, fmt.Errorf("write %s catalog: %w", name, err)
			}
			sum.Catalogs = append(sum.Catalogs, path)
			p.Logger.Info().Str("class", name).Str("path", path).Int("rows", len(ids)).Msg("catalog written")
		}
	}
	return sum, nil
}

func (p *Pipeline) count(b Batch) int {
	if p.Limit > 0 && p.Limit < len(b.Candidates) {
		return p.Limit
	}
	return len(b.Candidates)
}

// writeCatalog writes the first len(ids) rows of tbl plus their ids. tbl is
// left untouched.
func writeCatalog(tbl *catalog.Table, ids []int, path string) error {
	out := &catalog.Table{
		Header: append([]string(nil), tbl.Header...),
		Rows:   make([][]string, len(ids)),
	}
	for r := range ids {
		out.Rows[r] = append([]string(nil), tbl.Rows[r]...)
	}
	if err := out.AddIntColumn(catalog.ColTCEID, ids); err != nil {
		return err
	}
	return out.WriteFile(path)
}

// process extracts, draws and outputs one candidate.
func (p *Pipeline) process(ctx context.Context, cl Class, c catalog.Candidate) (db.Cutout, error) {
	cfg := p.Config
	rec := db.Cutout{
		TCEID:       c.TCEID,
		Class:       cl.Name(),
		KepID:       c.KepID,
		SyntheticID: c.SyntheticID,
		Quarter:     cl.Quarter(c),
		MidTime:     c.MidTime,
	}

	src, err := cl.SourcePath(c)
	if err != nil {
		return rec, err
	}
	rec.SourcePath = src
	series, err := lightcurve.ReadFITS(src, cfg.Extension, cfg.TimeColumn, cfg.FluxColumn)
	if err != nil {
		return rec, err
	}

	w := lightcurve.Window{Mid: c.MidTime, Start: c.Start, End: c.End}
	fig := &render.Figure{Panels: make([]render.Panel, 0, len(cfg.BufferTimes))}
	for _, b := range cfg.BufferTimes {
		cut := lightcurve.Cut(series, w, b)
		if cut.Empty() {
			rec.EmptyPanels++
			p.Logger.Debug().Int("tce", c.TCEID).Float64("buffer", b).Msg("empty window")
		}
		rec.Samples += len(cut.Hours)
		fig.Panels = append(fig.Panels, render.NewPanel(cut, w))
	}
	if cfg.Titles {
		fig.Panels[0].Title = cl.Label(c)
	}

	opts := render.Options{Width: cfg.Image.Width, PanelHeight: cfg.Image.PanelHeight, DPI: cfg.Image.DPI}
	switch {
	case cfg.WriteFigures:
		path := ImagePath(cfg.OutputDir, cl.Name(), len(fig.Panels), c.TCEID)
		if err := fig.SavePNG(path, opts); err != nil {
			return rec, fmt.Errorf("save %s: %w", path, err)
		}
		rec.ImagePath = path
	case cfg.Plot && p.Viewer != nil:
		if err := p.Viewer.Show(ctx, fig, opts); err != nil {
			return rec, fmt.Errorf("show figure: %w", err)
		}
	}
	return rec, nil
}
