// Package journal keeps durable history of migrations in SQLite database.
package journal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"bsmig/rules"
)

const (
	// fixed width so text ordering matches time ordering
	timeLayout   = "2006-01-02T15:04:05.000000000Z"
	defaultLimit = 20
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	destination TEXT NOT NULL,
	success     INTEGER NOT NULL,
	changes     INTEGER NOT NULL,
	affected    INTEGER NOT NULL,
	warnings    INTEGER NOT NULL,
	errors      INTEGER NOT NULL,
	started     TEXT NOT NULL,
	elapsed     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started ON runs (started);
CREATE TABLE IF NOT EXISTS changes (
	run_id      TEXT NOT NULL REFERENCES runs (run_id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	type        TEXT NOT NULL,
	rule        TEXT NOT NULL,
	element     TEXT NOT NULL,
	selector    TEXT NOT NULL,
	old_class   TEXT NOT NULL,
	new_class   TEXT NOT NULL,
	description TEXT NOT NULL,
	warning     TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// ErrClosed is returned by operations on closed journal.
var ErrClosed = errors.New("journal is closed")

// Entry describes single migrated file.
type Entry struct {
	RunID       string        `yaml:"run_id"`
	Source      string        `yaml:"source"`
	Destination string        `yaml:"destination"`
	Success     bool          `yaml:"success"`
	Changes     int           `yaml:"changes"`
	Affected    int           `yaml:"affected"`
	Warnings    int           `yaml:"warnings"`
	Errors      int           `yaml:"errors"`
	Started     time.Time     `yaml:"started"`
	Elapsed     time.Duration `yaml:"elapsed"`
}

// Journal is safe for concurrent use.
type Journal struct {
	log  *zap.Logger
	path string

	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open opens or creates journal database at path.
func Open(path string, log *zap.Logger) (*Journal, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("unable to open journal: %w", err)
	}
	if err := sqlitex.ExecuteScript(conn, "PRAGMA foreign_keys = ON;"+schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to open journal: %w", err)
	}
	j := &Journal{log: log.Named("journal"), path: path, conn: conn}
	j.log.Debug("Journal opened", zap.String("path", path))
	return j, nil
}

// Path returns location of the database.
func (j *Journal) Path() string {
	return j.path
}

// Close releases database connection, it is safe to call it more than once.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.conn == nil {
		return nil
	}
	err := j.conn.Close()
	j.conn = nil
	if err != nil {
		return fmt.Errorf("unable to close journal: %w", err)
	}
	return nil
}

// Record stores run and all its change entries. Either everything is stored
// or nothing is.
func (j *Journal) Record(e Entry, changes []rules.Change) (err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.conn == nil {
		return ErrClosed
	}

	defer sqlitex.Save(j.conn)(&err)

	err = sqlitex.Execute(j.conn, `INSERT INTO runs
		(run_id, source, destination, success, changes, affected, warnings, errors, started, elapsed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			e.RunID, e.Source, e.Destination, boolToInt(e.Success),
			e.Changes, e.Affected, e.Warnings, e.Errors,
			e.Started.UTC().Format(timeLayout), int64(e.Elapsed),
		}})
	if err != nil {
		return fmt.Errorf("unable to record run %s: %w", e.RunID, err)
	}

	for i, c := range changes {
		err = sqlitex.Execute(j.conn, `INSERT INTO changes
			(run_id, seq, type, rule, element, selector, old_class, new_class, description, warning)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				e.RunID, i, string(c.Type), c.Rule, c.Element, c.Selector,
				c.OldClass, c.NewClass, c.Description, c.Warning,
			}})
		if err != nil {
			return fmt.Errorf("unable to record change %d of run %s: %w", i, e.RunID, err)
		}
	}
	j.log.Debug("Run recorded", zap.String("id", e.RunID), zap.Int("changes", len(changes)))
	return nil
}

// Recent returns up to limit latest runs, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.conn == nil {
		return nil, ErrClosed
	}

	var out []Entry
	err := sqlitex.Execute(j.conn, `SELECT
		run_id, source, destination, success, changes, affected, warnings, errors, started, elapsed
		FROM runs ORDER BY started DESC, rowid DESC LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				started, err := time.Parse(timeLayout, stmt.ColumnText(8))
				if err != nil {
					return fmt.Errorf("bad start time of run %s: %w", stmt.ColumnText(0), err)
				}
				out = append(out, Entry{
					RunID:       stmt.ColumnText(0),
					Source:      stmt.ColumnText(1),
					Destination: stmt.ColumnText(2),
					Success:     stmt.ColumnInt64(3) != 0,
					Changes:     int(stmt.ColumnInt64(4)),
					Affected:    int(stmt.ColumnInt64(5)),
					Warnings:    int(stmt.ColumnInt64(6)),
					Errors:      int(stmt.ColumnInt64(7)),
					Started:     started,
					Elapsed:     time.Duration(stmt.ColumnInt64(9)),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to read journal: %w", err)
	}
	return out, nil
}

// Changes returns change entries of the run in recording order.
func (j *Journal) Changes(runID string) ([]rules.Change, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.conn == nil {
		return nil, ErrClosed
	}

	out := []rules.Change{}
	err := sqlitex.Execute(j.conn, `SELECT
		type, rule, element, selector, old_class, new_class, description, warning
		FROM changes WHERE run_id = ? ORDER BY seq`,
		&sqlitex.ExecOptions{
			Args: []any{runID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				out = append(out, rules.Change{
					Type:        rules.ChangeType(stmt.ColumnText(0)),
					Rule:        stmt.ColumnText(1),
					Element:     stmt.ColumnText(2),
					Selector:    stmt.ColumnText(3),
					OldClass:    stmt.ColumnText(4),
					NewClass:    stmt.ColumnText(5),
					Description: stmt.ColumnText(6),
					Warning:     stmt.ColumnText(7),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to read changes of run %s: %w", runID, err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
