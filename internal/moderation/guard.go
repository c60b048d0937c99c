package moderation

import (
	"context"

	"github.com/phishguard/phishguard/internal/database"
)

// Guard answers whether a user is currently barred from having their
// messages analyzed or acted upon.
type Guard interface {
	IsBlocked(ctx context.Context, userID uint64) (bool, error)
}

// dbGuard checks block status against the blocklist table. It is
// read-only and never caches results across calls; the storage layer is
// the single source of truth under concurrent access.
type dbGuard struct {
	db database.Client
}

// NewGuard creates a database-backed blocklist guard.
func NewGuard(db database.Client) Guard {
	return &dbGuard{db: db}
}

func (g *dbGuard) IsBlocked(ctx context.Context, userID uint64) (bool, error) {
	blocked, err := g.db.Model().Block().IsBlocked(ctx, userID)
	if err != nil {
		// Fail closed: unknown state reads as blocked so callers deny
		return true, err
	}

	return blocked, nil
}
