package types

import "time"

// BlockedUser represents a user barred from having messages analyzed or
// acted upon. A row with a nil BlockedUntil is an indefinite block.
type BlockedUser struct {
	UserID       uint64     `bun:",pk"`        // Discord user ID
	Reason       string     `bun:",type:text"` // Reason for the block
	BlockedUntil *time.Time `bun:",nullzero"`  // When the block lapses (null for indefinite)
	CreatedAt    time.Time  `bun:",notnull"`   // When the block was issued
}

// IsActive reports whether the block is still in force at the given instant.
// A block whose expiry equals the instant exactly is no longer active.
func (b *BlockedUser) IsActive(now time.Time) bool {
	return b.BlockedUntil == nil || b.BlockedUntil.After(now)
}

// IsIndefinite checks if the block has no expiry.
func (b *BlockedUser) IsIndefinite() bool {
	return b.BlockedUntil == nil
}
