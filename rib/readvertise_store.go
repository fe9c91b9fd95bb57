package rib

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ndnfwd/corefwd/core"
)

// ReadvertiseStore persists which readvertised prefixes have been
// successfully announced to a Destination, so a restart does not
// re-announce routes the far end already has. This is the durable
// rendition of readvertise.cpp's in-memory ReadvertisedRouteContainer.
type ReadvertiseStore struct {
	db *sql.DB
}

// OpenReadvertiseStore opens (creating if necessary) a sqlite-backed
// store at path.
func OpenReadvertiseStore(path string) (*ReadvertiseStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS announced_routes (
		prefix TEXT PRIMARY KEY,
		announced INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &ReadvertiseStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *ReadvertiseStore) Close() error {
	return s.db.Close()
}

// IsAnnounced reports whether prefix was last recorded as
// successfully announced.
func (s *ReadvertiseStore) IsAnnounced(prefix string) bool {
	var announced int
	err := s.db.QueryRow("SELECT announced FROM announced_routes WHERE prefix=?", prefix).Scan(&announced)
	if err != nil {
		return false
	}
	return announced != 0
}

// MarkAnnounced records prefix as successfully announced.
func (s *ReadvertiseStore) MarkAnnounced(prefix string) {
	_, err := s.db.Exec(
		`INSERT INTO announced_routes (prefix, announced) VALUES (?, 1)
		 ON CONFLICT(prefix) DO UPDATE SET announced=1`, prefix)
	if err != nil {
		core.Log.Warn(logReadvertise, "failed to persist announced route", "prefix", prefix, "error", err)
	}
}

// MarkWithdrawn forgets prefix, so a future re-announcement is not
// skipped as already-done.
func (s *ReadvertiseStore) MarkWithdrawn(prefix string) {
	_, err := s.db.Exec("DELETE FROM announced_routes WHERE prefix=?", prefix)
	if err != nil {
		core.Log.Warn(logReadvertise, "failed to clear withdrawn route", "prefix", prefix, "error", err)
	}
}
