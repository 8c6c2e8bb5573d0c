package journal

import (
	"context"
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "marquee-journal-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries`).Scan(&count); err != nil {
		t.Fatalf("entries table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, op := range []string{"set_cell", "delete_cell", "save_image"} {
		e := Entry{Op: op, Target: "cell_1", Success: i != 1, At: base.Add(time.Duration(i) * time.Minute)}
		if i == 1 {
			e.Kind = "not_found"
		}
		if err := db.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := db.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Op != "save_image" || got[1].Op != "delete_cell" {
		t.Errorf("order = %s, %s; want newest first", got[0].Op, got[1].Op)
	}
	if got[1].Success || got[1].Kind != "not_found" {
		t.Errorf("failed entry = %+v", got[1])
	}
	if got[0].ID == "" {
		t.Error("ID should be generated")
	}
}

func TestRecentDefaultLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for i := 0; i < DefaultLimit+5; i++ {
		if err := db.Record(ctx, Entry{Op: "set_config", Success: true}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != DefaultLimit {
		t.Errorf("got %d entries, want %d", len(got), DefaultLimit)
	}
}

func TestTrackChecksum(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	changed, err := db.TrackChecksum(ctx, "config/cellsConfig.json", "aaa")
	if err != nil || !changed {
		t.Fatalf("first track = %v, %v; want changed", changed, err)
	}
	changed, err = db.TrackChecksum(ctx, "config/cellsConfig.json", "aaa")
	if err != nil || changed {
		t.Fatalf("same checksum = %v, %v; want unchanged", changed, err)
	}
	changed, err = db.TrackChecksum(ctx, "config/cellsConfig.json", "bbb")
	if err != nil || !changed {
		t.Fatalf("new checksum = %v, %v; want changed", changed, err)
	}

	if err := db.ForgetChecksum(ctx, "config/cellsConfig.json"); err != nil {
		t.Fatal(err)
	}
	changed, _ = db.TrackChecksum(ctx, "config/cellsConfig.json", "bbb")
	if !changed {
		t.Error("forgotten document should count as changed")
	}
}
