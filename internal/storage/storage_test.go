package storage

import "testing"

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(&Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewCreatesSchema(t *testing.T) {
	s := newTestStorage(t)

	var name string
	err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'archive_runs'`).Scan(&name)
	if err != nil {
		t.Fatalf("archive_runs table not created: %v", err)
	}
}

func TestNewIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := New(&Config{DataDir: dir})
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	s1.Close()

	s2, err := New(&Config{DataDir: dir})
	if err != nil {
		t.Fatalf("second New against same data dir: %v", err)
	}
	defer s2.Close()
}
