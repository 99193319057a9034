package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding finalized interview sessions. Each
// session is persisted as a single self-contained JSON document keyed by its
// identifier, plus a few indexed columns for listing.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "prepvox.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// SaveSession persists a finalized session in a single transaction. Saving the
// same session identifier again replaces the prior record wholesale, so a
// re-run finalization overwrites rather than appends. The write is atomic:
// either the full document lands or nothing does.
func (s *Store) SaveSession(sess Session) error {
	doc, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing session %s: %w", sess.ID, err)
	}

	var score float64
	if sess.Feedback != nil {
		score = sess.Feedback.OverallScore
	}
	var total int
	if sess.Meta != nil {
		total = sess.Meta.TotalQuestions
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO sessions (session_id, role, created_at, total_questions, overall_score, document)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Role, sess.CreatedAt.UTC().Format(time.RFC3339), total, score, string(doc),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}

	return tx.Commit()
}

// GetSession loads the full session document for the given identifier.
func (s *Store) GetSession(id string) (Session, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM sessions WHERE session_id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(doc), &sess); err != nil {
		return Session{}, fmt.Errorf("parsing session document %s: %w", id, err)
	}
	return sess, nil
}

// GetSessionDocument returns the raw persisted JSON document for inspection.
func (s *Store) GetSessionDocument(id string) ([]byte, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM sessions WHERE session_id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

// ListSessions returns summaries of recent sessions, newest first.
func (s *Store) ListSessions(limit int) ([]SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT session_id, role, created_at, total_questions, overall_score
		FROM sessions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var createdAt string
		if err := rows.Scan(&sum.ID, &sum.Role, &createdAt, &sum.TotalQuestions, &sum.OverallScore); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		sum.CreatedAt = t
		results = append(results, sum)
	}
	return results, rows.Err()
}

// DeleteSession removes a persisted session.
func (s *Store) DeleteSession(id string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
