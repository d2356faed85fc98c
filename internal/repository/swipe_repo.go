package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/tripmate-match/internal/db"
	svcErr "github.com/oggyb/tripmate-match/internal/errors"
	"github.com/oggyb/tripmate-match/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to like/pass/super_like decisions.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// InsertIfAbsent writes a swipe unless a row already exists for the ordered
// (swiper_id, swiped_id) pair.
//
// Behavior:
//   - The primary key is the arbiter: a concurrent or repeated insert for the
//     same pair affects zero rows instead of failing.
//   - The existing row is never touched, so the first direction sticks.
//   - Returns created=true only for the call that actually wrote the row.
func (r *SwipeRepository) InsertIfAbsent(ctx context.Context, swipe *db.Swipe) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(swipe)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("insert swipe: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Get loads the swipe for an ordered pair.
// Returns svcErr.ErrNotFound when the pair has no decision yet.
func (r *SwipeRepository) Get(ctx context.Context, swiperID, swipedID string) (*db.Swipe, error) {
	var s db.Swipe
	err := r.db.WithContext(ctx).
		Where("swiper_id = ? AND swiped_id = ?", swiperID, swipedID).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get swipe: %w", err)
	}
	return &s, nil
}

// HasPositive reports whether swiper liked or super-liked swiped.
// Used to find the mirrored swipe during match detection.
func (r *SwipeRepository) HasPositive(ctx context.Context, swiperID, swipedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ? AND swiped_id = ? AND direction IN ?", swiperID, swipedID, db.PositiveDirections).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup mirrored swipe: %w", err)
	}
	return count > 0, nil
}

// pendingLikes selects positive swipes on recipientID that recipientID has
// not answered in any direction yet.
func (r *SwipeRepository) pendingLikes(ctx context.Context, recipientID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.swiped_id = ? AND s.direction IN ?", recipientID, db.PositiveDirections).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes r
				WHERE r.swiper_id = s.swiped_id
				  AND r.swiped_id = s.swiper_id
			)`)
}

// CountUnseenPending counts likes on recipientID that are still pending and
// have not been viewed.
//
// Behavior:
//   - direction IN (like, super_like), is_seen = false.
//   - Excludes likes the recipient already answered (match or pass).
//   - Backed by idx_swipes_unseen; Redis caches the result upstream.
func (r *SwipeRepository) CountUnseenPending(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.pendingLikes(ctx, recipientID).
		Where("s.is_seen = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unseen likes: %w", err)
	}
	return count, nil
}

// ListPending returns pending likes on recipientID, newest first.
//
// Behavior:
//   - Same predicate as CountUnseenPending but includes seen rows.
//   - Ordered by created_at DESC, swiper_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListPending(ctx, id, nil, 20) // first 20 people waiting on an answer
func (r *SwipeRepository) ListPending(
	ctx context.Context,
	recipientID string,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", svcErr.ErrInvalidArgument, err)
	}

	query := r.pendingLikes(ctx, recipientID).
		Select("s.*").
		Order("s.created_at DESC, s.swiper_id DESC").
		Limit(limit + 1)

	if !cursor.IsZero() {
		ts := cursor.CreatedAt()
		query = query.Where(
			"(s.created_at < ? OR (s.created_at = ? AND s.swiper_id < ?))",
			ts, ts, cursor.SwiperID,
		)
	}

	var swipes []db.Swipe
	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, fmt.Errorf("list pending likes: %w", err)
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			SwiperID:    last.SwiperID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// MarkSeen flips is_seen on positive swipes received by swipedID.
// An empty swiperIDs marks every unseen like. This is the only write path
// that ever changes an existing swipe row.
func (r *SwipeRepository) MarkSeen(ctx context.Context, swipedID string, swiperIDs []string) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiped_id = ? AND is_seen = ? AND direction IN ?", swipedID, false, db.PositiveDirections)
	if len(swiperIDs) > 0 {
		q = q.Where("swiper_id IN ?", swiperIDs)
	}

	res := q.UpdateColumn("is_seen", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark likes seen: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
