package types_test

import (
	"testing"
	"time"

	"github.com/phishguard/phishguard/internal/database/types"
	"github.com/stretchr/testify/assert"
)

func TestBlockedUserIsActive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("indefinite block is active", func(t *testing.T) {
		t.Parallel()

		record := &types.BlockedUser{UserID: 123}
		assert.True(t, record.IsActive(now))
		assert.True(t, record.IsIndefinite())
	})

	t.Run("future expiry is active", func(t *testing.T) {
		t.Parallel()

		until := now.Add(time.Hour)
		record := &types.BlockedUser{UserID: 123, BlockedUntil: &until}
		assert.True(t, record.IsActive(now))
		assert.False(t, record.IsIndefinite())
	})

	t.Run("expiry exactly now is no longer active", func(t *testing.T) {
		t.Parallel()

		until := now
		record := &types.BlockedUser{UserID: 123, BlockedUntil: &until}
		assert.False(t, record.IsActive(now))
	})

	t.Run("past expiry is inactive", func(t *testing.T) {
		t.Parallel()

		until := now.Add(-time.Minute)
		record := &types.BlockedUser{UserID: 123, BlockedUntil: &until}
		assert.False(t, record.IsActive(now))
	})

	t.Run("repeated checks agree", func(t *testing.T) {
		t.Parallel()

		until := now.Add(time.Hour)
		active := &types.BlockedUser{UserID: 123, BlockedUntil: &until}
		lapsed := &types.BlockedUser{UserID: 456, BlockedUntil: &now}

		// Checking never mutates the record, so the answer is stable
		for i := 0; i < 3; i++ {
			assert.True(t, active.IsActive(now))
			assert.False(t, lapsed.IsActive(now))
		}
	})
}
