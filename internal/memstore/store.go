// Package memstore is a reference SQLite implementation of the episodic
// memory contract. The behavior core only ever sees world.Memory; hosts
// with their own storage substitute their implementation.
package memstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	summary    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_episodes_agent
ON episodes(agent_id, created_at);

CREATE TABLE IF NOT EXISTS knowledge (
	agent_id TEXT NOT NULL,
	topic    TEXT NOT NULL,
	body     TEXT NOT NULL,
	PRIMARY KEY (agent_id, topic)
);
`

// #endregion schema

// #region store

// Store persists episodes and knowledge in SQLite.
type Store struct {
	db *sql.DB
}

var _ world.Memory = (*Store)(nil)

// NewStore opens a SQLite database and runs migrations.
// Use ":memory:" for an ephemeral store.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region episodes

// AddEpisode appends one episode.
func (s *Store) AddEpisode(ep world.Episode) error {
	at := ep.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO episodes (agent_id, kind, summary, created_at) VALUES (?, ?, ?, ?)`,
		ep.AgentID, ep.Kind, ep.Summary, at.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("add episode: %w", err)
	}
	return nil
}

// RecentEpisodes returns up to limit episodes for one agent, newest first.
func (s *Store) RecentEpisodes(agentID string, limit int) ([]world.Episode, error) {
	rows, err := s.db.Query(
		`SELECT kind, summary, created_at FROM episodes
		 WHERE agent_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		agentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent episodes: %w", err)
	}
	defer rows.Close()

	var out []world.Episode
	for rows.Next() {
		ep := world.Episode{AgentID: agentID}
		var created string
		if err := rows.Scan(&ep.Kind, &ep.Summary, &created); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		ep.At, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, ep)
	}
	return out, rows.Err()
}

// #endregion episodes

// #region knowledge

// SetKnowledge upserts a knowledge entry for one agent and topic.
func (s *Store) SetKnowledge(agentID, topic, body string) error {
	_, err := s.db.Exec(
		`INSERT INTO knowledge (agent_id, topic, body) VALUES (?, ?, ?)
		 ON CONFLICT(agent_id, topic) DO UPDATE SET body = excluded.body`,
		agentID, topic, body,
	)
	if err != nil {
		return fmt.Errorf("set knowledge: %w", err)
	}
	return nil
}

// Knowledge looks up the stored body for one topic.
func (s *Store) Knowledge(agentID, topic string) (string, bool) {
	var body string
	err := s.db.QueryRow(
		`SELECT body FROM knowledge WHERE agent_id = ? AND topic = ?`,
		agentID, topic,
	).Scan(&body)
	if err != nil {
		return "", false
	}
	return body, true
}

// #endregion knowledge
