package database

import (
	"github.com/phishguard/phishguard/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	block *models.BlockModel
	event *models.EventModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		block: models.NewBlock(db, logger),
		event: models.NewEvent(db, logger),
	}
}

// Block returns the blocklist model repository.
func (r *Repository) Block() *models.BlockModel {
	return r.block
}

// Event returns the security event model repository.
func (r *Repository) Event() *models.EventModel {
	return r.event
}
