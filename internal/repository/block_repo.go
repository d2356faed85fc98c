package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/tripmate-match/internal/db"
)

// BlockRepository reads block relations owned by the moderation service.
type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// ExistsBetween reports whether a or b has blocked the other.
func (r *BlockRepository) ExistsBetween(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup block: %w", err)
	}
	return count > 0, nil
}
