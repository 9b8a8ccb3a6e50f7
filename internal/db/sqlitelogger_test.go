package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"
)

// captureHandler records log records for assertion in tests.
type captureHandler struct {
	mu      sync.Mutex
	records []map[string]slog.Value
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := map[string]slog.Value{"msg": slog.StringValue(r.Message)}
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.records = append(h.records, m)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) recordsFor(t *testing.T, msg string) []map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]slog.Value
	for _, m := range h.records {
		if m["msg"].String() == msg {
			out = append(out, m)
		}
	}
	return out
}

func (h *captureHandler) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}

func openLogged(t *testing.T) (*sql.DB, *captureHandler) {
	t.Helper()
	handler := &captureHandler{}
	connector, err := NewLoggingConnector(":memory:", slog.New(handler))
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db, handler
}

func lastSQL(t *testing.T, h *captureHandler) map[string]slog.Value {
	t.Helper()
	recs := h.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected at least one sql log record")
	}
	return recs[len(recs)-1]
}

func TestNewLoggingConnector(t *testing.T) {
	conn, err := NewLoggingConnector(":memory:", nil)
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	if conn.(*loggingConnector).logger == nil {
		t.Fatal("nil logger not replaced by default")
	}

	if _, err := NewLoggingConnector("", nil); err == nil {
		t.Fatal("empty dsn: error = nil, want non-nil")
	}

	if _, err := conn.Driver().Open(":memory:"); err == nil {
		t.Fatal("Driver().Open: error = nil, want non-nil")
	}
}

func TestLoggingConnector_ExecAndQueryLogged(t *testing.T) {
	db, handler := openLogged(t)

	if _, err := db.Exec(`CREATE TABLE stations (station TEXT PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	got := lastSQL(t, handler)
	if got["op"].String() != "exec" {
		t.Errorf("op = %q, want exec", got["op"].String())
	}
	if got["sql"].String() != `CREATE TABLE stations (station TEXT PRIMARY KEY, name TEXT)` {
		t.Errorf("sql = %q", got["sql"].String())
	}
	if _, ok := got["duration_ms"]; !ok {
		t.Error("expected duration_ms attribute")
	}

	handler.reset()
	var one int
	if err := db.QueryRow(`SELECT 1`).Scan(&one); err != nil {
		t.Fatalf("query row: %v", err)
	}
	got = lastSQL(t, handler)
	if got["op"].String() != "query" || got["sql"].String() != `SELECT 1` {
		t.Errorf("got op=%q sql=%q", got["op"].String(), got["sql"].String())
	}
}

func TestLoggingConnector_ArgsFormatted(t *testing.T) {
	db, handler := openLogged(t)

	if _, err := db.Exec(`CREATE TABLE measurements (station TEXT, date TEXT, prcp REAL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	handler.reset()

	if _, err := db.Exec(`INSERT INTO measurements VALUES (?, ?, ?)`, "USC00519397", "2015-09-01", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got := lastSQL(t, handler)
	args, ok := got["args"].Any().([]string)
	if !ok {
		t.Fatalf("args = %#v, want []string", got["args"].Any())
	}
	want := []string{"USC00519397", "2015-09-01", "NULL"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestLoggingConnector_ErrorLogged(t *testing.T) {
	db, handler := openLogged(t)

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t VALUES (1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	handler.reset()

	if _, err := db.Exec(`INSERT INTO t VALUES (1)`); err == nil {
		t.Fatal("duplicate insert: error = nil, want constraint error")
	}
	got := lastSQL(t, handler)
	if _, ok := got["error"]; !ok {
		t.Error("expected error attribute on failed exec")
	}
}

func TestLoggingConnector_TransactionLogged(t *testing.T) {
	db, handler := openLogged(t)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.Exec(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("exec in tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var sawBegin bool
	for _, rec := range handler.recordsFor(t, "sql") {
		if rec["op"].String() == "begin" {
			sawBegin = true
		}
	}
	if !sawBegin {
		t.Error("expected begin record")
	}
}
