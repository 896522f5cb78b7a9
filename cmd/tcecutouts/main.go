package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/japaniel/tcecutouts/pkg/config"
	"github.com/japaniel/tcecutouts/pkg/db"
	"github.com/japaniel/tcecutouts/pkg/logging"
	"github.com/japaniel/tcecutouts/pkg/pipeline"
	"github.com/japaniel/tcecutouts/pkg/render"
)

func main() {
	configFlag := flag.String("config", "", "Path to YAML config (defaults are used when empty)")
	onlyFlag := flag.String("only", "", "Process a single class: mdwarfs or synthetics")
	limitFlag := flag.Int("limit", 0, "Process at most this many TCEs per class (0 = all)")
	noFiguresFlag := flag.Bool("no-figures", false, "Do not write PNG figures")
	noCatalogsFlag := flag.Bool("no-catalogs", false, "Do not write TCE catalogs with IDs")
	unweightedFlag := flag.Bool("unweighted", false, "Use the nonweighted TCE catalogs")
	ledgerFlag := flag.String("ledger", "", "Override the SQLite ledger path (\"off\" disables it)")
	flag.Parse()

	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	if *noFiguresFlag {
		cfg.WriteFigures = false
	}
	if *noCatalogsFlag {
		cfg.WriteTCEFiles = false
	}
	if *unweightedFlag {
		cfg.Weighting = false
	}
	switch *ledgerFlag {
	case "":
	case "off":
		cfg.Ledger.Path = ""
	default:
		cfg.Ledger.Path = *ledgerFlag
	}

	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	batches, err := pipeline.LoadBatches(cfg, *onlyFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalogs")
	}
	for _, b := range batches {
		log.Info().Str("class", b.Class.Name()).Int("rows", len(b.Candidates)).Msg("catalog loaded")
	}

	p := pipeline.New(cfg)
	p.Logger = log
	p.Limit = *limitFlag

	var ledger *pipeline.Ledger
	if cfg.Ledger.Path != "" {
		conn, err := db.Open(cfg.Ledger.Path)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Ledger.Path).Msg("failed to open ledger")
		}
		defer conn.Close()
		ledger, err = openLedger(conn, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start run")
		}
		p.Recorder = ledger
		log.Info().Str("run", ledger.RunID()).Str("ledger", cfg.Ledger.Path).Msg("run registered")
	}

	start := time.Now()
	var sum pipeline.Summary
	var runErr error
	if cfg.Plot && !cfg.WriteFigures && cfg.Viewer.Mode == "window" {
		sum, runErr = runWithWindow(ctx, cancel, p, batches)
	} else {
		sum, runErr = p.Run(ctx, batches)
	}
	if ledger != nil {
		if err := ledger.Close(); err != nil {
			log.Error().Err(err).Msg("failed to finalize ledger")
		} else if rep, err := ledger.Report(); err != nil {
			log.Error().Err(err).Msg("failed to read ledger")
		} else {
			log.Info().
				Str("run", rep.Run.ID).
				Int("cutouts", rep.Run.CutoutCount).
				Int("with_empty_panels", rep.WithEmptyPanels).
				Msg("ledger updated")
		}
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Int("processed", sum.Processed).Msg("run failed")
	}

	log.Info().
		Int("processed", sum.Processed).
		Int("images", sum.Images).
		Strs("catalogs", sum.Catalogs).
		Dur("elapsed", time.Since(start)).
		Msg("processing complete")
}

// runWithWindow runs the pipeline on a worker goroutine while the fyne event
// loop owns the main goroutine. The loop exits when the run finishes; quitting
// the app first cancels the run.
func runWithWindow(ctx context.Context, cancel context.CancelFunc, p *pipeline.Pipeline, batches []pipeline.Batch) (pipeline.Summary, error) {
	a := app.NewWithID("tcecutouts")
	p.Viewer = render.NewWindowViewer(a, "tcecutouts")

	var sum pipeline.Summary
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		sum, err = p.Run(ctx, batches)
		fyne.Do(a.Quit)
	}()
	a.Run()
	cancel()
	<-done
	return sum, err
}

func openLedger(conn *sql.DB, cfg *config.Config) (*pipeline.Ledger, error) {
	bufs := make([]string, len(cfg.BufferTimes))
	for i, b := range cfg.BufferTimes {
		bufs[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}
	return pipeline.NewLedger(conn, db.Run{
		Weighting:   cfg.WeightName(),
		Panels:      len(cfg.BufferTimes),
		BufferTimes: strings.Join(bufs, ","),
	}, cfg.Ledger.BatchSize)
}
