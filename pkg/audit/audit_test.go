package audit

import (
	"path/filepath"
	"testing"
)

func TestRecordAndList(t *testing.T) {
	rec := Open(filepath.Join(t.TempDir(), "audit.db"))
	defer rec.Close()

	rec.Record("node-a", "10.0.0.1", "reserved")
	rec.Record("node-a", "ledger", "reclaimed")
	rec.Record("node-b", "admin", "released")

	entries, err := rec.List(10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first.
	if entries[0].XnodeID != "node-b" || entries[0].Event != "released" {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
}

func TestListLimit(t *testing.T) {
	rec := Open(filepath.Join(t.TempDir(), "audit.db"))
	defer rec.Close()

	for i := 0; i < 5; i++ {
		rec.Record("node-a", "test", "reserved")
	}
	entries, err := rec.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestBrokenRecorderIsSilent(t *testing.T) {
	rec := &Recorder{}
	rec.Record("node-a", "test", "reserved")
	entries, err := rec.List(10)
	if err != nil || entries != nil {
		t.Fatalf("broken recorder: %v %v", entries, err)
	}

	var nilRec *Recorder
	nilRec.Record("node-a", "test", "reserved")
	nilRec.Close()
}
