package likes

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/oggyb/tripmate-match/internal/app"
	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PendingLike is someone waiting for an answer.
type PendingLike struct {
	SwiperID  string       `json:"swiperId"`
	Direction db.Direction `json:"direction"`
	IsSeen    bool         `json:"isSeen"`
	LikedAt   int64        `json:"likedAt"` // unix millis
}

// Service answers "who liked me" questions on top of the swipe ledger.
type Service struct {
	appCtx *app.AppContext
	swipes *repository.SwipeRepository
	group  singleflight.Group
}

// NewService creates the likes service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		swipes: repository.NewSwipeRepository(appCtx.DB),
	}
}

// UnseenCount returns how many likes and super likes userID received, has
// not seen yet, and has not answered.
//
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:unseen:<id>).
//  2. On a miss, falls back to the DB; concurrent misses for the same user
//     share one query.
//  3. On DB fetch, stores the count with the configured TTL unless it was
//     invalidated while the query ran.
//
// Example:
//
//	svc.UnseenCount(ctx, "7d1c...")
func (s *Service) UnseenCount(ctx context.Context, userID string) (int64, error) {
	s.appCtx.Logger.Debug("UnseenCount called", "user", userID)

	userID, err := db.ParseID("user_id", userID)
	if err != nil {
		return 0, err
	}

	// try cache first
	if s.appCtx.RedisCache != nil {
		n, ok, err := s.appCtx.RedisCache.GetUnseenLikes(ctx, userID)
		switch {
		case err != nil:
			s.appCtx.Metrics.ObserveUnseenCache("error")
			s.appCtx.Logger.Warn("unseen likes cache read failed", "user", userID, "err", err)
		case ok:
			s.appCtx.Metrics.ObserveUnseenCache("hit")
			return n, nil
		default:
			s.appCtx.Metrics.ObserveUnseenCache("miss")
		}
	}

	// fallback: DB
	v, err, _ := s.group.Do(userID, func() (any, error) {
		cacheable := s.appCtx.RedisCache != nil
		var version int64
		if cacheable {
			var verr error
			if version, verr = s.appCtx.RedisCache.UnseenLikesVersion(ctx, userID); verr != nil {
				s.appCtx.Logger.Warn("unseen likes version read failed", "user", userID, "err", verr)
				cacheable = false
			}
		}

		count, err := s.swipes.CountUnseenPending(ctx, userID)
		if err != nil {
			return int64(0), err
		}

		// skipped when a swipe or MarkSeen invalidated the count meanwhile
		if cacheable {
			if _, err := s.appCtx.RedisCache.SetUnseenLikes(ctx, userID, count, version); err != nil {
				s.appCtx.Logger.Warn("unseen likes cache write failed", "user", userID, "err", err)
			}
		}
		return count, nil
	})
	if err != nil {
		s.appCtx.Logger.Error("CountUnseenPending failed", "user", userID, "err", err)
		return 0, err
	}
	return v.(int64), nil
}

// ListPending returns likes on userID still waiting for an answer, newest
// first, seen or not.
//
// Behavior:
//   - Supports cursor-based pagination with pageToken.
//   - limit <= 0 means 20; values above 100 are capped.
func (s *Service) ListPending(ctx context.Context, userID string, pageToken *string, limit int) ([]PendingLike, *string, error) {
	s.appCtx.Logger.Debug("ListPending called", "user", userID, "token", pageToken != nil)

	userID, err := db.ParseID("user_id", userID)
	if err != nil {
		return nil, nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	rows, next, err := s.swipes.ListPending(ctx, userID, pageToken, limit)
	if err != nil {
		return nil, nil, err
	}

	out := make([]PendingLike, 0, len(rows))
	for _, r := range rows {
		out = append(out, PendingLike{
			SwiperID:  r.SwiperID,
			Direction: r.Direction,
			IsSeen:    r.IsSeen,
			LikedAt:   r.CreatedAt.UnixMilli(),
		})
	}
	return out, next, nil
}
