package models

import (
	"context"
	"fmt"
	"time"

	"github.com/phishguard/phishguard/internal/database/dbretry"
	"github.com/phishguard/phishguard/internal/database/types"
	"github.com/phishguard/phishguard/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// EventModel handles database operations for the security event audit log.
type EventModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewEvent creates a repository with database access for the append-only
// security event log.
func NewEvent(db *bun.DB, logger *zap.Logger) *EventModel {
	return &EventModel{
		db:     db,
		logger: logger.Named("db_event"),
	}
}

// Log stores a security event in the database. Audit failures are logged
// but never propagated; losing an audit row must not fail the decision
// that produced it.
func (m *EventModel) Log(ctx context.Context, event *types.SecurityEvent) {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(event).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to log security event: %w", err)
		}

		return nil
	})
	if err != nil {
		m.logger.Error("Failed to log security event",
			zap.Error(err),
			zap.Uint64("userID", event.UserID),
			zap.String("action", event.Action.String()),
			zap.String("threatLevel", event.ThreatLevel.String()))

		return
	}

	m.logger.Debug("Logged security event",
		zap.Uint64("userID", event.UserID),
		zap.String("action", event.Action.String()),
		zap.String("threatLevel", event.ThreatLevel.String()))
}

// GetStats returns audit activity for the given reporting window.
func (m *EventModel) GetStats(ctx context.Context, since time.Time) (*types.EventStats, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.EventStats, error) {
		var rows []struct {
			ThreatLevel enum.ThreatLevel `bun:"threat_level"`
			Count       int64            `bun:"count"`
		}

		err := m.db.NewSelect().
			Model((*types.SecurityEvent)(nil)).
			Column("threat_level").
			ColumnExpr("COUNT(*) AS count").
			Where("created_at > ?", since).
			Group("threat_level").
			Scan(ctx, &rows)
		if err != nil {
			return nil, fmt.Errorf("failed to get event stats: %w", err)
		}

		stats := &types.EventStats{}
		for _, row := range rows {
			stats.TotalChecks += row.Count

			switch row.ThreatLevel {
			case enum.ThreatLevelHigh:
				stats.HighThreats = row.Count
			case enum.ThreatLevelMedium:
				stats.MediumThreat = row.Count
			case enum.ThreatLevelLow:
				stats.LowThreats = row.Count
			}
		}

		return stats, nil
	})
}

// GetRecent returns events recorded after the given time, oldest first.
// Used by the export tool to snapshot the audit log.
func (m *EventModel) GetRecent(ctx context.Context, since time.Time) ([]*types.SecurityEvent, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.SecurityEvent, error) {
		var events []*types.SecurityEvent

		err := m.db.NewSelect().
			Model(&events).
			Where("created_at > ?", since).
			Order("created_at ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent events: %w", err)
		}

		return events, nil
	})
}
