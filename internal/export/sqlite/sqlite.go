// Package sqlite writes portable snapshots of the security event audit
// log for offline review.
package sqlite

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/phishguard/phishguard/internal/database/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// batchSize bounds the number of rows per insert transaction.
const batchSize = 1000

// Exporter handles exporting security events to SQLite snapshot files.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes events to a freshly named snapshot database and returns
// its path. Each call produces a new file so snapshots never clobber each
// other.
func (e *Exporter) Export(events []*types.SecurityEvent) (string, error) {
	filename := fmt.Sprintf("security_events_%s_%s.db",
		time.Now().UTC().Format("20060102"), uuid.New().String()[:8])
	path := filepath.Join(e.outDir, filename)

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return "", fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	err = sqlitex.Execute(conn, `
		CREATE TABLE security_events (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			threat_level TEXT NOT NULL,
			details TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create table: %w", err)
	}

	// Insert records in batches
	for i := 0; i < len(events); i += batchSize {
		end := min(i+batchSize, len(events))

		err = sqlitex.Execute(conn, "BEGIN TRANSACTION", nil)
		if err != nil {
			return "", fmt.Errorf("failed to begin transaction: %w", err)
		}

		for _, event := range events[i:end] {
			err = sqlitex.Execute(conn,
				"INSERT INTO security_events (id, user_id, action, threat_level, details, created_at) VALUES (?, ?, ?, ?, ?, ?)",
				&sqlitex.ExecOptions{
					Args: []any{
						event.ID,
						int64(event.UserID),
						event.Action.String(),
						event.ThreatLevel.String(),
						event.Details,
						event.CreatedAt.UTC().Format(time.RFC3339),
					},
				})
			if err != nil {
				return "", fmt.Errorf("failed to insert record: %w", err)
			}
		}

		err = sqlitex.Execute(conn, "COMMIT", nil)
		if err != nil {
			return "", fmt.Errorf("failed to commit transaction: %w", err)
		}
	}

	return path, nil
}
