package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func TestCreateAndFinishRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if err := CreateRun(db, Run{ID: "run-1", Weighting: "weighted", Panels: 3, BufferTimes: "0.5,1.5,5"}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := CreateRun(db, Run{ID: "run-1", Weighting: "weighted", Panels: 3}); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
	if err := FinishRun(db, "run-1", 7); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	r, err := GetRun(db, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if r.CutoutCount != 7 || r.FinishedAt == nil || r.Panels != 3 {
		t.Fatalf("unexpected run %+v", r)
	}
	if err := FinishRun(db, "missing", 1); err == nil {
		t.Fatal("expected error for unknown run")
	}
	if err := CreateRun(db, Run{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestRecordCutoutUpsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if err := CreateRun(db, Run{ID: "run-2", Weighting: "nonweighted", Panels: 2}); err != nil {
		t.Fatal(err)
	}
	c := Cutout{RunID: "run-2", TCEID: 1, Class: "mdwarfs", KepID: 100, Quarter: "Q2", MidTime: 120,
		SourcePath: "lightcurvedata/000000100/a.fits", ImagePath: "round2cutouts/mdwarfs/2panel/tce00001.png", Samples: 40}
	id1, err := RecordCutout(db, c)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	c.EmptyPanels = 1
	id2, err := RecordCutout(db, c)
	if err != nil {
		t.Fatalf("record again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same row, got %d and %d", id1, id2)
	}
	if _, err := RecordCutout(db, Cutout{RunID: "run-2", TCEID: 2, Class: "synthetics", KepID: 9, SyntheticID: "12", MidTime: 1, SourcePath: "Mdwarfsynthetics/synthetic_12.fits"}); err != nil {
		t.Fatalf("record synthetic: %v", err)
	}
	if _, err := RecordCutout(db, Cutout{RunID: "run-2", TCEID: 0}); err == nil {
		t.Fatal("expected error for zero tce id")
	}

	got, err := GetCutoutsByRun(db, "run-2")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cutouts, got %d", len(got))
	}
	if got[0].EmptyPanels != 1 || got[0].ImagePath == "" {
		t.Fatalf("upsert did not update row: %+v", got[0])
	}
	if got[1].SyntheticID != "12" || got[1].ImagePath != "" {
		t.Fatalf("unexpected synthetic row: %+v", got[1])
	}
}
