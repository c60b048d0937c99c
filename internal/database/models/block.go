package models

import (
	"context"
	"fmt"
	"time"

	"github.com/phishguard/phishguard/internal/database/dbretry"
	"github.com/phishguard/phishguard/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// BlockModel handles database operations for blocked users.
type BlockModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBlock creates a new BlockModel instance.
func NewBlock(db *bun.DB, logger *zap.Logger) *BlockModel {
	return &BlockModel{
		db:     db,
		logger: logger.Named("db_block"),
	}
}

// BlockUser creates or updates a block record for a user.
func (m *BlockModel) BlockUser(ctx context.Context, record *types.BlockedUser) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(record).
			On("CONFLICT (user_id) DO UPDATE").
			Set("reason = EXCLUDED.reason").
			Set("blocked_until = EXCLUDED.blocked_until").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to block user: %w", err)
		}

		return nil
	})
}

// UnblockUser removes a block record for a user.
// Returns true if a block was removed, false if the user wasn't blocked.
func (m *BlockModel) UnblockUser(ctx context.Context, userID uint64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewDelete().
			Model((*types.BlockedUser)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to unblock user: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}

		return affected > 0, nil
	})
}

// IsBlocked checks if a user is currently blocked. A row with a null
// blocked_until is an indefinite block; an expiry strictly in the future
// is still in force.
func (m *BlockModel) IsBlocked(ctx context.Context, userID uint64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.BlockedUser)(nil)).
			Where("user_id = ?", userID).
			Where("blocked_until IS NULL OR blocked_until > ?", time.Now()).
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check block status: %w", err)
		}

		return exists, nil
	})
}

// CountActive returns the number of users currently on the blocklist.
func (m *BlockModel) CountActive(ctx context.Context) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		count, err := m.db.NewSelect().
			Model((*types.BlockedUser)(nil)).
			Where("blocked_until IS NULL OR blocked_until > ?", time.Now()).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count blocked users: %w", err)
		}

		return int64(count), nil
	})
}
