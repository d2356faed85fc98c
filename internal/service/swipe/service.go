package swipe

import (
	"context"

	"github.com/oggyb/tripmate-match/internal/app"
	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/repository"
)

const maxMatchesPage = 100

// Result is what a client learns from a swipe.
//
// Created is about the swipe row; a retried call returns Created=false but
// still reports the match if one exists.
type Result struct {
	Created   bool
	Direction db.Direction
	IsMatch   bool
	Match     *db.Match
}

// Service records swipes and detects matches, then keeps the unseen-likes
// cache and the notification stream in step.
type Service struct {
	appCtx   *app.AppContext
	ledger   *Ledger
	detector *Detector
	matches  *repository.MatchRepository
}

// NewService creates the swipe service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	swipes := repository.NewSwipeRepository(appCtx.DB)
	matches := repository.NewMatchRepository(appCtx.DB)
	return &Service{
		appCtx: appCtx,
		ledger: NewLedger(
			repository.NewUserRepository(appCtx.DB),
			repository.NewBlockRepository(appCtx.DB),
			swipes,
		),
		detector: NewDetector(swipes, matches),
		matches:  matches,
	}
}

// Swipe records the decision, then runs match detection on the stored row.
//
// Behavior:
//   - Ledger errors are returned as is; nothing else runs.
//   - Detection uses the stored direction, so a retry after a lost response
//     sees the same match.
//   - Cache invalidation and notifications only follow a newly written row,
//     and their failures are logged, never returned.
//
// Example:
//
//	svc.Swipe(ctx, aliceID, bobID, db.DirectionLike)
func (s *Service) Swipe(ctx context.Context, swiperID, swipedID string, direction db.Direction) (Result, error) {
	log := s.appCtx.Logger
	log.Debug("Swipe called", "swiper", swiperID, "swiped", swipedID, "direction", direction)

	rec, err := s.ledger.RecordSwipe(ctx, swiperID, swipedID, direction)
	if err != nil {
		log.Debug("RecordSwipe rejected", "swiper", swiperID, "swiped", swipedID, "err", err)
		return Result{}, err
	}
	s.appCtx.Metrics.ObserveSwipe(string(rec.Swipe.Direction), rec.Created)

	det, err := s.detector.Detect(ctx, rec.Swipe)
	if err != nil {
		// the swipe is durable; a retry will rerun detection
		log.Error("Detect failed", "swiper", rec.Swipe.SwiperID, "swiped", rec.Swipe.SwipedID, "err", err)
		return Result{}, err
	}

	if rec.Created {
		s.afterNewSwipe(ctx, rec.Swipe, det)
	}

	log.Debug("Swipe result", "created", rec.Created, "is_match", det.IsMatch, "match_created", det.Created)

	return Result{
		Created:   rec.Created,
		Direction: rec.Swipe.Direction,
		IsMatch:   det.IsMatch,
		Match:     det.Match,
	}, nil
}

func (s *Service) afterNewSwipe(ctx context.Context, sw db.Swipe, det DetectResult) {
	log := s.appCtx.Logger

	// a like changes the target's badge; any answer can clear one of the
	// swiper's pending likes
	if s.appCtx.RedisCache != nil {
		if err := s.appCtx.RedisCache.InvalidateUnseenLikes(ctx, sw.SwipedID, sw.SwiperID); err != nil {
			log.Warn("unseen likes invalidation failed", "swiper", sw.SwiperID, "swiped", sw.SwipedID, "err", err)
		}
	}

	if det.Created {
		s.appCtx.Metrics.ObserveMatch()
		if err := s.appCtx.Notifier.MatchCreated(ctx, *det.Match); err != nil {
			log.Warn("match notification failed", "match", det.Match.ID, "err", err)
		}
		return
	}

	if sw.Direction.Positive() && !det.IsMatch {
		if err := s.appCtx.Notifier.LikeReceived(ctx, sw); err != nil {
			log.Warn("like notification failed", "swiper", sw.SwiperID, "swiped", sw.SwipedID, "err", err)
		}
	}
}

// MarkSeen clears likes from userID's unseen badge. Called by the
// notification side once the likes were displayed.
func (s *Service) MarkSeen(ctx context.Context, userID string, swiperIDs []string) (int64, error) {
	s.appCtx.Logger.Debug("MarkSeen called", "user", userID, "swipers", len(swiperIDs))

	n, err := s.ledger.MarkSeen(ctx, userID, swiperIDs)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.appCtx.RedisCache != nil {
		id, _ := db.ParseID("user_id", userID)
		if err := s.appCtx.RedisCache.InvalidateUnseenLikes(ctx, id); err != nil {
			s.appCtx.Logger.Warn("unseen likes invalidation failed", "user", id, "err", err)
		}
	}
	return n, nil
}

// ListMatches returns userID's active matches, newest first. Matches with a
// counterpart blocked in either direction are left out.
func (s *Service) ListMatches(ctx context.Context, userID string, limit int) ([]db.Match, error) {
	s.appCtx.Logger.Debug("ListMatches called", "user", userID, "limit", limit)

	userID, err := db.ParseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxMatchesPage {
		limit = maxMatchesPage
	}
	return s.matches.ListActiveForUser(ctx, userID, limit)
}
