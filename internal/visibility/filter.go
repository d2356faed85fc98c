// Package visibility decides which users a requester may be shown.
//
// A candidate C is visible to requester R when all of these hold:
//   - C is not R
//   - C is active and not banned
//   - C is not shadow-banned (flag set with no expiry, or expiry in the future)
//   - neither R nor C has blocked the other
//   - R has never swiped on C, in any direction
//
// A swipe from C to R does not hide C. Shadow bans only hide the banned user
// as a candidate; they never restrict what that user can do.
package visibility

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/tripmate-match/internal/repository"
)

const alias = repository.CandidateAlias

// Scope returns a gorm scope enforcing the visibility rules for requesterID
// as of now. The query it is applied to must select users under
// repository.CandidateAlias.
func Scope(requesterID string, now time.Time) func(*gorm.DB) *gorm.DB {
	now = now.UTC()
	return func(tx *gorm.DB) *gorm.DB {
		return tx.
			Where(alias+".id <> ?", requesterID).
			Where(alias+".is_active = ? AND "+alias+".is_banned = ?", true, false).
			Where("("+alias+".is_shadow_banned = ? OR ("+alias+".shadow_ban_until IS NOT NULL AND "+alias+".shadow_ban_until <= ?))", false, now).
			Where(`NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = `+alias+`.id)
				   OR (b.blocker_id = `+alias+`.id AND b.blocked_id = ?)
			)`, requesterID, requesterID).
			Where(`NOT EXISTS (
				SELECT 1 FROM swipes sw
				WHERE sw.swiper_id = ? AND sw.swiped_id = `+alias+`.id
			)`, requesterID)
	}
}

// Filter applies Scope to explicit id lists.
type Filter struct {
	users *repository.UserRepository
	now   func() time.Time
}

func NewFilter(users *repository.UserRepository) *Filter {
	return &Filter{users: users, now: time.Now}
}

// Apply keeps the ids in candidateIDs that requesterID may see, preserving
// their input order. It only reads.
func (f *Filter) Apply(ctx context.Context, requesterID string, candidateIDs []string) ([]string, error) {
	if len(candidateIDs) == 0 {
		return []string{}, nil
	}

	users, err := f.users.FindCandidates(ctx, candidateIDs, Scope(requesterID, f.now()))
	if err != nil {
		return nil, fmt.Errorf("visibility filter: %w", err)
	}

	visible := make(map[string]struct{}, len(users))
	for _, u := range users {
		visible[u.ID] = struct{}{}
	}

	out := make([]string, 0, len(visible))
	for _, id := range candidateIDs {
		if _, ok := visible[id]; ok {
			out = append(out, id)
			delete(visible, id)
		}
	}
	return out, nil
}
