package sqlite

import (
	"testing"
	"time"

	"github.com/phishguard/phishguard/internal/database/types"
	"github.com/phishguard/phishguard/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

type exportedRow struct {
	userID      int64
	action      string
	threatLevel string
	details     string
}

// readSnapshot reads all rows back from a snapshot file in insert order.
func readSnapshot(t *testing.T, path string) []exportedRow {
	t.Helper()

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var rows []exportedRow
	err = sqlitex.ExecuteTransient(conn,
		"SELECT user_id, action, threat_level, details FROM security_events ORDER BY id",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rows = append(rows, exportedRow{
					userID:      stmt.ColumnInt64(0),
					action:      stmt.ColumnText(1),
					threatLevel: stmt.ColumnText(2),
					details:     stmt.ColumnText(3),
				})
				return nil
			},
		})
	require.NoError(t, err)

	return rows
}

func TestExporter_Export(t *testing.T) {
	e := New(t.TempDir())

	events := []*types.SecurityEvent{
		{
			ID:          1,
			UserID:      123,
			Action:      enum.EventActionThreatDetected,
			ThreatLevel: enum.ThreatLevelHigh,
			Details:     `[{"category":"shortened-link"}]`,
			CreatedAt:   time.Now(),
		},
		{
			ID:          2,
			UserID:      456,
			Action:      enum.EventActionMessageChecked,
			ThreatLevel: enum.ThreatLevelLow,
			Details:     "details with ' single quote",
			CreatedAt:   time.Now(),
		},
	}

	path, err := e.Export(events)
	require.NoError(t, err)

	rows := readSnapshot(t, path)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(123), rows[0].userID)
	assert.Equal(t, "threat_detected", rows[0].action)
	assert.Equal(t, "high", rows[0].threatLevel)
	assert.Equal(t, events[0].Details, rows[0].details)

	assert.Equal(t, int64(456), rows[1].userID)
	assert.Equal(t, "message_checked", rows[1].action)
	assert.Equal(t, events[1].Details, rows[1].details)
}

func TestExporter_EmptyExport(t *testing.T) {
	e := New(t.TempDir())

	path, err := e.Export(nil)
	require.NoError(t, err)

	rows := readSnapshot(t, path)
	assert.Empty(t, rows)
}

func TestExporter_SnapshotsDoNotClobber(t *testing.T) {
	e := New(t.TempDir())

	events := []*types.SecurityEvent{
		{ID: 1, UserID: 123, Action: enum.EventActionPhoneCheck, ThreatLevel: enum.ThreatLevelLow},
	}

	first, err := e.Export(events)
	require.NoError(t, err)

	second, err := e.Export(events)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, readSnapshot(t, first), 1)
	assert.Len(t, readSnapshot(t, second), 1)
}
