package swipe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/repository"
)

// DetectResult reports whether a swipe completed a mutual like. Created is
// true only for the call whose insert produced the match row.
type DetectResult struct {
	IsMatch bool
	Created bool
	Match   *db.Match
}

// Detector turns mirrored positive swipes into exactly one Match per pair.
// It holds no locks: the unique (user1_id, user2_id) index decides races.
type Detector struct {
	swipes  *repository.SwipeRepository
	matches *repository.MatchRepository
	now     func() time.Time
}

func NewDetector(swipes *repository.SwipeRepository, matches *repository.MatchRepository) *Detector {
	return &Detector{swipes: swipes, matches: matches, now: time.Now}
}

// Detect must run after s is durable. like and super_like count the same.
func (d *Detector) Detect(ctx context.Context, s db.Swipe) (DetectResult, error) {
	if !s.Direction.Positive() {
		return DetectResult{}, nil
	}

	mirrored, err := d.swipes.HasPositive(ctx, s.SwipedID, s.SwiperID)
	if err != nil {
		return DetectResult{}, err
	}
	if !mirrored {
		return DetectResult{}, nil
	}

	user1, user2 := db.CanonicalPair(s.SwiperID, s.SwipedID)
	m := db.Match{
		ID:        uuid.NewString(),
		User1ID:   user1,
		User2ID:   user2,
		MatchedAt: d.now().UTC().Truncate(time.Millisecond),
		IsActive:  true,
	}
	created, err := d.matches.CreateIfAbsent(ctx, &m)
	if err != nil {
		return DetectResult{}, err
	}
	if created {
		return DetectResult{IsMatch: true, Created: true, Match: &m}, nil
	}

	// lost the race, or a retry: report the row that won
	existing, err := d.matches.FindByPair(ctx, user1, user2)
	if err != nil {
		return DetectResult{}, fmt.Errorf("read existing match: %w", err)
	}
	return DetectResult{IsMatch: true, Created: false, Match: existing}, nil
}
