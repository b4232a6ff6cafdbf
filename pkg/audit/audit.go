// Package audit keeps an append-only sqlite trail of reservation lifecycle
// events. Everything here is best-effort: a broken database must never take
// the reservation path down with it.
package audit

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	XnodeID   string `json:"xnode_id"`
	Actor     string `json:"actor"`
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
}

// Recorder writes and lists audit entries. A Recorder with a nil db (failed
// Open) silently drops records.
type Recorder struct {
	db *sql.DB
}

// Open initializes the audit database at path, creating the schema if needed.
// Failures are logged and yield a drop-everything Recorder.
func Open(path string) *Recorder {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("audit init mkdir failed: %v", err)
		return &Recorder{}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Printf("audit open failed: %v", err)
		return &Recorder{}
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Printf("audit ping failed: %v", err)
		_ = db.Close()
		return &Recorder{}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS reservation_events(xnode_id TEXT, actor TEXT, event TEXT, ts INTEGER); CREATE INDEX IF NOT EXISTS idx_reservation_events_xnode ON reservation_events(xnode_id);`); err != nil {
		log.Printf("audit init schema failed: %v", err)
		_ = db.Close()
		return &Recorder{}
	}
	return &Recorder{db: db}
}

// Record appends an event. Failures are logged, never returned.
func (r *Recorder) Record(xnodeID, actor, event string) {
	if r == nil || r.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, `INSERT INTO reservation_events(xnode_id, actor, event, ts) VALUES(?,?,?,?)`,
		xnodeID, actor, event, time.Now().Unix()); err != nil {
		log.Printf("audit record failed for %s/%s: %v", xnodeID, event, err)
	}
}

// List returns the most recent entries, newest first.
func (r *Recorder) List(limit int) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT xnode_id, actor, event, ts FROM reservation_events ORDER BY ts DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.XnodeID, &e.Actor, &e.Event, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (r *Recorder) Close() {
	if r != nil && r.db != nil {
		_ = r.db.Close()
	}
}
