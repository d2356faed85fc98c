package swipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oggyb/tripmate-match/internal/db"
	svcErr "github.com/oggyb/tripmate-match/internal/errors"
	"github.com/oggyb/tripmate-match/internal/repository"
)

// LedgerResult is the outcome of RecordSwipe. Swipe is always the stored row:
// the new one when Created, the original one otherwise.
type LedgerResult struct {
	Created bool
	Swipe   db.Swipe
}

// Ledger records swipe decisions. Each ordered pair is written at most once
// and never overwritten; only is_seen changes afterwards, through MarkSeen.
type Ledger struct {
	users  *repository.UserRepository
	blocks *repository.BlockRepository
	swipes *repository.SwipeRepository
	now    func() time.Time
}

func NewLedger(users *repository.UserRepository, blocks *repository.BlockRepository, swipes *repository.SwipeRepository) *Ledger {
	return &Ledger{users: users, blocks: blocks, swipes: swipes, now: time.Now}
}

// RecordSwipe stores swiperID's decision about swipedID.
//
// Behavior:
//   - Malformed ids or an unknown direction give ErrInvalidArgument.
//   - Swiping on yourself, or on a missing, inactive or banned user gives
//     ErrInvalidTarget.
//   - A missing, inactive or banned swiper gives ErrSwiperUnavailable.
//     Shadow-banned swipers are allowed.
//   - A block in either direction gives ErrBlocked; nothing is written.
//   - A repeat for an existing pair returns the original row with
//     Created=false, whatever direction was sent this time.
func (l *Ledger) RecordSwipe(ctx context.Context, swiperID, swipedID string, direction db.Direction) (LedgerResult, error) {
	swiperID, err := db.ParseID("swiper_id", swiperID)
	if err != nil {
		return LedgerResult{}, err
	}
	swipedID, err = db.ParseID("swiped_id", swipedID)
	if err != nil {
		return LedgerResult{}, err
	}
	if !direction.Valid() {
		return LedgerResult{}, fmt.Errorf("%w: unknown direction %q", svcErr.ErrInvalidArgument, direction)
	}
	if swiperID == swipedID {
		return LedgerResult{}, fmt.Errorf("%w: cannot swipe on yourself", svcErr.ErrInvalidTarget)
	}

	swiper, err := l.users.Get(ctx, swiperID)
	if errors.Is(err, svcErr.ErrNotFound) {
		return LedgerResult{}, svcErr.ErrSwiperUnavailable
	}
	if err != nil {
		return LedgerResult{}, err
	}
	if !swiper.IsActive || swiper.IsBanned {
		return LedgerResult{}, svcErr.ErrSwiperUnavailable
	}

	target, err := l.users.Get(ctx, swipedID)
	if errors.Is(err, svcErr.ErrNotFound) {
		return LedgerResult{}, fmt.Errorf("%w: target does not exist", svcErr.ErrInvalidTarget)
	}
	if err != nil {
		return LedgerResult{}, err
	}
	if !target.IsActive || target.IsBanned {
		return LedgerResult{}, fmt.Errorf("%w: target unavailable", svcErr.ErrInvalidTarget)
	}

	blocked, err := l.blocks.ExistsBetween(ctx, swiperID, swipedID)
	if err != nil {
		return LedgerResult{}, err
	}
	if blocked {
		return LedgerResult{}, svcErr.ErrBlocked
	}

	row := db.Swipe{
		SwiperID:  swiperID,
		SwipedID:  swipedID,
		Direction: direction,
		CreatedAt: l.now().UTC().Truncate(time.Millisecond),
	}
	created, err := l.swipes.InsertIfAbsent(ctx, &row)
	if err != nil {
		return LedgerResult{}, err
	}
	if created {
		return LedgerResult{Created: true, Swipe: row}, nil
	}

	existing, err := l.swipes.Get(ctx, swiperID, swipedID)
	if err != nil {
		return LedgerResult{}, fmt.Errorf("read existing swipe: %w", err)
	}
	return LedgerResult{Created: false, Swipe: *existing}, nil
}

// MarkSeen flags likes received by swipedID as seen. An empty swiperIDs
// marks all of them. Returns how many rows changed.
func (l *Ledger) MarkSeen(ctx context.Context, swipedID string, swiperIDs []string) (int64, error) {
	swipedID, err := db.ParseID("user_id", swipedID)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(swiperIDs))
	for _, raw := range swiperIDs {
		id, err := db.ParseID("swiper_ids", raw)
		if err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	return l.swipes.MarkSeen(ctx, swipedID, ids)
}
