// Package journal persists an append-only record of every executed
// action to SQLite, one database per data directory. The journal is a
// diagnostic artifact: the agent never reads it back at runtime, but
// the CLI's diagnose commands and post-mortems do.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"grindbot/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS action_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	ts TEXT NOT NULL,
	character TEXT NOT NULL,
	goal TEXT NOT NULL,
	action TEXT NOT NULL,
	success INTEGER NOT NULL,
	error_kind TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	cooldown_seconds INTEGER NOT NULL DEFAULT 0,
	data TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_action_log_character ON action_log(character, id);
CREATE INDEX IF NOT EXISTS idx_action_log_session ON action_log(session_id, id);
`

// Entry is one journaled action execution.
type Entry struct {
	SessionID       string
	Timestamp       time.Time
	Character       string
	Goal            string
	Action          string
	Success         bool
	ErrorKind       string
	Error           string
	CooldownSeconds int
	Data            map[string]any
}

// Journal is an open action journal. Safe for use from the single loop
// goroutine; the CLI opens its own read-only handle.
type Journal struct {
	db        *sql.DB
	sessionID string
}

// Open opens or creates the journal database and starts a new session.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// The loop is the only writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	j := &Journal{db: db, sessionID: uuid.NewString()}
	logging.Journal("journal opened at %s, session %s", path, j.sessionID)
	return j, nil
}

// SessionID returns this run's session identifier.
func (j *Journal) SessionID() string { return j.sessionID }

// Record appends one entry. Journal failures are logged, not fatal; the
// agent keeps playing without its diary.
func (j *Journal) Record(e Entry) error {
	if e.SessionID == "" {
		e.SessionID = j.sessionID
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	data := "{}"
	if len(e.Data) > 0 {
		if raw, err := json.Marshal(e.Data); err == nil {
			data = string(raw)
		}
	}

	_, err := j.db.Exec(`
		INSERT INTO action_log
		(session_id, ts, character, goal, action, success, error_kind, error, cooldown_seconds, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Timestamp.Format(time.RFC3339Nano), e.Character, e.Goal,
		e.Action, boolToInt(e.Success), e.ErrorKind, e.Error, e.CooldownSeconds, data)
	if err != nil {
		return fmt.Errorf("journal record: %w", err)
	}
	return nil
}

// Recent returns the latest n entries for a character, newest first.
func (j *Journal) Recent(character string, n int) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT session_id, ts, character, goal, action, success, error_kind, error, cooldown_seconds, data
		FROM action_log WHERE character = ? ORDER BY id DESC LIMIT ?`,
		character, n)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts, data string
		var success int
		if err := rows.Scan(&e.SessionID, &ts, &e.Character, &e.Goal, &e.Action,
			&success, &e.ErrorKind, &e.Error, &e.CooldownSeconds, &data); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		e.Success = success != 0
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Timestamp = parsed
		}
		if data != "" && data != "{}" {
			_ = json.Unmarshal([]byte(data), &e.Data)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats summarizes success and failure counts per action name.
type Stats struct {
	Action    string
	Successes int
	Failures  int
}

// ActionStats aggregates per-action outcomes for a character.
func (j *Journal) ActionStats(character string) ([]Stats, error) {
	rows, err := j.db.Query(`
		SELECT action,
			SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END),
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END)
		FROM action_log WHERE character = ?
		GROUP BY action ORDER BY action`, character)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	var out []Stats
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.Action, &s.Successes, &s.Failures); err != nil {
			return nil, fmt.Errorf("journal stats scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	logging.Journal("journal closed, session %s", j.sessionID)
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
