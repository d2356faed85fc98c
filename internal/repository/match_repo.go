package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/tripmate-match/internal/db"
	svcErr "github.com/oggyb/tripmate-match/internal/errors"
)

// MatchRepository stores canonical match rows.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent inserts m unless its (user1_id, user2_id) pair already has a
// row. The unique index decides the winner of concurrent inserts; the loser
// gets created=false and should read the winner's row with FindByPair.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, m *db.Match) (bool, error) {
	if m.User1ID >= m.User2ID {
		return false, fmt.Errorf("%w: match pair must be canonical", svcErr.ErrInvalidArgument)
	}

	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("insert match: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindByPair loads the match for two users in any argument order.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b string) (*db.Match, error) {
	user1, user2 := db.CanonicalPair(a, b)

	var m db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", user1, user2).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	return &m, nil
}

// ListActiveForUser returns the user's active matches, newest first.
// Matches whose counterpart is blocked in either direction are hidden.
func (r *MatchRepository) ListActiveForUser(ctx context.Context, userID string, limit int) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Table("matches m").
		Select("m.*").
		Where("(m.user1_id = ? OR m.user2_id = ?) AND m.is_active = ?", userID, userID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = m.user1_id AND b.blocked_id = m.user2_id)
				   OR (b.blocker_id = m.user2_id AND b.blocked_id = m.user1_id)
			)`).
		Order("m.matched_at DESC, m.id DESC").
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}
