package main_test

import (
	"context"
	"database/sql"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/japaniel/tcecutouts/pkg/catalog"
	"github.com/japaniel/tcecutouts/pkg/lightcurve"

	_ "github.com/mattn/go-sqlite3"
)

func TestCLI_DefaultLayout(t *testing.T) {
	tmp := t.TempDir()

	// Lay out inputs the way the defaults expect them, relative to the working dir.
	mdwarfs := "kepid userxmid userxmin userxmax datalocation fits\n" +
		"12345 100.0 99.9 100.1 kplr012345_Q5.dat /mast/012345/kplr012345_llc.fits\n"
	synthetics := "kepid userxmid userxmin userxmax datalocation syntheticid\n" +
		"12345 100.2 100.1 100.3 syn_Q5-x.dat 8\n"
	if err := os.WriteFile(filepath.Join(tmp, "allmdwarfweightedtce.dat"), []byte(mdwarfs), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "synweightedtce.dat"), []byte(synthetics), 0644); err != nil {
		t.Fatal(err)
	}
	var s lightcurve.Series
	for i := 0; i <= 100; i++ {
		s.Time = append(s.Time, 99.0+0.02*float64(i))
		s.Flux = append(s.Flux, 1000+float64(i%3))
	}
	for _, p := range []string{
		filepath.Join(tmp, "lightcurvedata", "012345", "kplr012345_llc.fits"),
		filepath.Join(tmp, "Mdwarfsynthetics", "synthetic_8.fits"),
	} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := lightcurve.WriteFITS(p, "LIGHTCURVE", "TIME", "PDCSAP_FLUX", s); err != nil {
			t.Fatalf("write fits: %v", err)
		}
	}
	cfgPath := filepath.Join(tmp, "cutouts.yaml")
	if err := os.WriteFile(cfgPath, []byte("buffer_times: [0.5, 1.5]\nimage:\n  dpi: 30\n  width: 4\n  panel_height: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// Build the CLI binary (use full import path so it builds correctly regardless of the current working directory)
	bin := filepath.Join(tmp, "tcecutouts.bin")
	build := exec.Command("go", "build", "-o", bin, "github.com/japaniel/tcecutouts/cmd/tcecutouts")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("failed to build CLI: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, "-config", cfgPath)
	cmd.Dir = tmp
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		t.Fatalf("cli timed out, output:\n%s", out)
	}
	if err != nil {
		t.Fatalf("cli failed: %v\noutput:\n%s", err, out)
	}

	outStr := string(out)
	for _, want := range []string{
		"50.00% completed. Datatype = mdwarfs. j = 0. TCE ID = 00001.",
		"100.00% completed. Datatype = synthetics. j = 0. TCE ID = 00002.",
		"processing complete",
		"ledger updated",
	} {
		if !strings.Contains(outStr, want) {
			t.Fatalf("output missing %q:\n%s", want, outStr)
		}
	}

	for _, p := range []string{
		filepath.Join(tmp, "round2cutouts", "mdwarfs", "2panel", "tce00001.png"),
		filepath.Join(tmp, "round2cutouts", "synthetics", "2panel", "tce00002.png"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing figure: %v", err)
		}
	}
	tbl, err := catalog.Read(filepath.Join(tmp, "round2cutouts", "synthetics"+"tces.dat"))
	if err != nil {
		t.Fatalf("missing output catalog: %v", err)
	}
	if id, _ := tbl.Int(0, catalog.ColTCEID); id != 2 {
		t.Fatalf("synthetic tceid = %d, want 2", id)
	}

	dbConn, err := sql.Open("sqlite3", filepath.Join(tmp, "round2cutouts", "cutouts.db"))
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	defer dbConn.Close()
	var cnt int
	if err := dbConn.QueryRow("SELECT COUNT(*) FROM cutouts").Scan(&cnt); err != nil {
		t.Fatalf("ledger query failed: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 ledger rows, found %d", cnt)
	}
}

func TestCLI_MissingCatalogFails(t *testing.T) {
	tmp := t.TempDir()
	bin := filepath.Join(tmp, "tcecutouts.bin")
	build := exec.Command("go", "build", "-o", bin, "github.com/japaniel/tcecutouts/cmd/tcecutouts")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("failed to build CLI: %v", err)
	}
	cmd := exec.Command(bin, "-ledger", "off")
	cmd.Dir = tmp
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure without catalogs, output:\n%s", out)
	}
	if !strings.Contains(string(out), "failed to load catalogs") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
