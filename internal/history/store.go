// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/morganforge/studypal/internal/model"
)

// =============================================================================
// DURABLE STORE
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	user_msg   TEXT NOT NULL,
	bot_json   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
`

// Store persists chat turns in a local SQLite database. It is append-only
// per session; there is no pagination.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history store: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history store: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append writes one turn.
func (s *Store) Append(session string, turn model.ChatTurn) error {
	bot, err := turn.MarshalBot()
	if err != nil {
		return fmt.Errorf("history store: encode bot segments: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO turns (session_id, user_msg, bot_json, created_at) VALUES (?, ?, ?, ?)`,
		session, turn.User, string(bot), time.Now().UTC(),
	)
	return err
}

// Load returns every turn for a session in insertion order.
func (s *Store) Load(session string) ([]model.ChatTurn, error) {
	rows, err := s.db.Query(
		`SELECT user_msg, bot_json FROM turns WHERE session_id = ? ORDER BY id`,
		session,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []model.ChatTurn
	for rows.Next() {
		var user, botJSON string
		if err := rows.Scan(&user, &botJSON); err != nil {
			return nil, err
		}
		var bot []model.Segment
		if err := json.Unmarshal([]byte(botJSON), &bot); err != nil {
			return nil, fmt.Errorf("history store: decode bot segments: %w", err)
		}
		turns = append(turns, model.ChatTurn{User: user, Bot: bot})
	}
	return turns, rows.Err()
}

// Clear deletes every turn for a session.
func (s *Store) Clear(session string) error {
	_, err := s.db.Exec(`DELETE FROM turns WHERE session_id = ?`, session)
	return err
}
