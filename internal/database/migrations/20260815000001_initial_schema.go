package migrations

import (
	"context"
	"fmt"

	"github.com/phishguard/phishguard/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.BlockedUser)(nil),
			(*types.SecurityEvent)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		// Lookups hit blocked_users by expiry and security_events by recency
		indexes := []struct {
			model   any
			name    string
			columns []string
		}{
			{(*types.BlockedUser)(nil), "idx_blocked_users_blocked_until", []string{"blocked_until"}},
			{(*types.SecurityEvent)(nil), "idx_security_events_created_at", []string{"created_at"}},
			{(*types.SecurityEvent)(nil), "idx_security_events_user_id", []string{"user_id"}},
		}

		for _, idx := range indexes {
			q := db.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				IfNotExists()
			for _, col := range idx.columns {
				q = q.Column(col)
			}

			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.name, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.SecurityEvent)(nil),
			(*types.BlockedUser)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
