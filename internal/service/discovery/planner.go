// Package discovery assembles the candidate deck shown to a requester.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/tripmate-match/internal/app"
	"github.com/oggyb/tripmate-match/internal/config"
	"github.com/oggyb/tripmate-match/internal/db"
	svcErr "github.com/oggyb/tripmate-match/internal/errors"
	"github.com/oggyb/tripmate-match/internal/geo"
	"github.com/oggyb/tripmate-match/internal/repository"
	"github.com/oggyb/tripmate-match/internal/visibility"
)

const (
	maxFetchRounds = 4
	fetchGrowth    = 4
)

// Filters narrows a discovery query. Zero values mean "no constraint".
type Filters struct {
	// Origin overrides the requester's stored location.
	Origin *geo.Point
	// MaxDistanceKm overrides the profile radius; it is clamped to the
	// configured bounds either way.
	MaxDistanceKm *float64

	UserType      db.UserType
	IsGuide       *bool
	HasCar        *bool
	HasMotorcycle *bool
	Gender        string
	OnlyVerified  bool
	// Languages matches candidates speaking at least one of them.
	Languages []string
}

// ProfileSummary is the slice of a profile shown on a discovery card.
type ProfileSummary struct {
	DisplayName   string      `json:"displayName"`
	UserType      db.UserType `json:"userType"`
	Gender        string      `json:"gender,omitempty"`
	IsGuide       bool        `json:"isGuide"`
	IsVerified    bool        `json:"isVerified"`
	HasCar        bool        `json:"hasCar"`
	HasMotorcycle bool        `json:"hasMotorcycle"`
	Languages     []string    `json:"languages,omitempty"`
	Interests     []string    `json:"interests,omitempty"`
}

// CandidateView is one discovery result.
type CandidateView struct {
	UserID         string         `json:"userId"`
	DistanceKm     float64        `json:"distanceKm"`
	ProfileSummary ProfileSummary `json:"profileSummary"`
}

// Planner runs discovery: spatial lookup, then one SQL query applying
// visibility and caller filters, then distance ordering.
type Planner struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	index  geo.Index
	cfg    config.DiscoveryConfig
	now    func() time.Time
}

// NewPlanner creates a planner reading from the AppContext's database and
// geo index.
func NewPlanner(appCtx *app.AppContext) *Planner {
	return newPlanner(appCtx, appCtx.Geo)
}

func newPlanner(appCtx *app.AppContext, index geo.Index) *Planner {
	return &Planner{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		index:  index,
		cfg:    appCtx.Config.Discovery,
		now:    time.Now,
	}
}

// Discover returns up to limit candidates for requesterID, nearest first.
//
// Behavior:
//   - Unknown requester gives ErrNotFound; banned or inactive requester gives
//     ErrRequesterUnavailable.
//   - Without Filters.Origin and without a stored location the call fails
//     with ErrNoLocationSet.
//   - limit <= 0 means the configured default; anything above the configured
//     maximum is capped.
//   - Fewer survivors than limit is not an error; the shorter list is
//     returned as is.
//   - Reads only. Transient storage errors are retried once.
func (p *Planner) Discover(ctx context.Context, requesterID string, f Filters, limit int) ([]CandidateView, error) {
	start := p.now()
	log := p.appCtx.Logger

	requesterID, err := db.ParseID("user_id", requesterID)
	if err != nil {
		return nil, err
	}
	log.Debug("Discover called", "requester", requesterID, "limit", limit)

	requester, err := readOnce(ctx, log, "load requester", func(ctx context.Context) (*db.User, error) {
		return p.users.Get(ctx, requesterID)
	})
	if err != nil {
		return nil, err
	}
	if !requester.IsActive || requester.IsBanned {
		return nil, svcErr.ErrRequesterUnavailable
	}

	origin, err := p.origin(requester, f)
	if err != nil {
		return nil, err
	}
	if err := validateFilters(f); err != nil {
		return nil, err
	}

	radius := p.radius(requester, f)
	limit = p.clampLimit(limit)

	scopes := []func(*gorm.DB) *gorm.DB{visibility.Scope(requesterID, p.now())}
	scopes = append(scopes, filterScopes(f)...)

	// Each round asks the index for a wider window of nearest users and
	// checks only the ones not seen yet. It stops once limit candidates
	// survive, the index has nothing further within the radius, or after
	// maxFetchRounds.
	var hits []geo.Hit
	eligible := make(map[string]*db.User)
	checked := make(map[string]struct{})
	count := limit * p.overFetch()
	for round := 1; ; round++ {
		hits, err = readOnce(ctx, log, "geo query", func(ctx context.Context) ([]geo.Hit, error) {
			return p.index.QueryWithinRadius(ctx, origin, radius, count)
		})
		if err != nil {
			return nil, fmt.Errorf("query geo index: %w", err)
		}

		fresh := make([]string, 0, len(hits))
		for _, h := range hits {
			if _, ok := checked[h.UserID]; !ok {
				checked[h.UserID] = struct{}{}
				fresh = append(fresh, h.UserID)
			}
		}
		if len(fresh) > 0 {
			users, err := readOnce(ctx, log, "load candidates", func(ctx context.Context) ([]db.User, error) {
				return p.users.FindCandidates(ctx, fresh, scopes...)
			})
			if err != nil {
				return nil, fmt.Errorf("load candidates: %w", err)
			}
			for i := range users {
				if len(f.Languages) > 0 && !speaksAny(users[i].Languages, f.Languages) {
					continue
				}
				eligible[users[i].ID] = &users[i]
			}
		}

		if len(eligible) >= limit || len(hits) < count || round == maxFetchRounds {
			log.Debug("geo fetch done", "requester", requesterID, "rounds", round, "window", count)
			break
		}
		count *= fetchGrowth
	}

	out := make([]CandidateView, 0, min(limit, len(eligible)))
	for _, h := range hits {
		u, ok := eligible[h.UserID]
		if !ok {
			continue
		}
		out = append(out, CandidateView{
			UserID:         u.ID,
			DistanceKm:     h.DistanceKm,
			ProfileSummary: summarize(u),
		})
		if len(out) == limit {
			break
		}
	}

	p.appCtx.Metrics.ObserveDiscover(p.now().Sub(start).Seconds(), len(out))
	log.Debug("Discover result", "requester", requesterID, "hits", len(hits), "returned", len(out), "radius_km", radius)
	return out, nil
}

func (p *Planner) origin(requester *db.User, f Filters) (geo.Point, error) {
	if f.Origin != nil {
		if err := f.Origin.Validate(); err != nil {
			return geo.Point{}, err
		}
		return *f.Origin, nil
	}
	if !requester.HasLocation() {
		return geo.Point{}, svcErr.ErrNoLocationSet
	}
	return geo.Point{Lat: *requester.Latitude, Lon: *requester.Longitude}, nil
}

func (p *Planner) radius(requester *db.User, f Filters) float64 {
	r := p.cfg.DefaultRadiusKm
	if requester.MaxDistanceKm > 0 {
		r = requester.MaxDistanceKm
	}
	if f.MaxDistanceKm != nil && *f.MaxDistanceKm > 0 {
		r = *f.MaxDistanceKm
	}
	if p.cfg.MinRadiusKm > 0 && r < p.cfg.MinRadiusKm {
		r = p.cfg.MinRadiusKm
	}
	if p.cfg.MaxRadiusKm > 0 && r > p.cfg.MaxRadiusKm {
		r = p.cfg.MaxRadiusKm
	}
	return r
}

func (p *Planner) clampLimit(limit int) int {
	if limit <= 0 {
		limit = p.cfg.DefaultLimit
	}
	if limit <= 0 {
		limit = 20
	}
	if p.cfg.MaxLimit > 0 && limit > p.cfg.MaxLimit {
		limit = p.cfg.MaxLimit
	}
	return limit
}

func (p *Planner) overFetch() int {
	if p.cfg.OverFetchFactor < 1 {
		return 1
	}
	return p.cfg.OverFetchFactor
}

func validateFilters(f Filters) error {
	switch f.UserType {
	case "", db.UserTypeTourist, db.UserTypeLocal, db.UserTypeBoth:
	default:
		return fmt.Errorf("%w: unknown user_type %q", svcErr.ErrInvalidArgument, f.UserType)
	}
	if f.MaxDistanceKm != nil && *f.MaxDistanceKm < 0 {
		return fmt.Errorf("%w: max_distance must not be negative", svcErr.ErrInvalidArgument)
	}
	return nil
}

// filterScopes turns the SQL-expressible filters into gorm scopes on the
// candidate alias.
func filterScopes(f Filters) []func(*gorm.DB) *gorm.DB {
	const u = repository.CandidateAlias
	var scopes []func(*gorm.DB) *gorm.DB
	add := func(cond string, args ...any) {
		scopes = append(scopes, func(tx *gorm.DB) *gorm.DB { return tx.Where(cond, args...) })
	}

	switch f.UserType {
	case db.UserTypeTourist, db.UserTypeLocal:
		// "both" presents as either
		add(u+".user_type IN ?", []db.UserType{f.UserType, db.UserTypeBoth})
	case db.UserTypeBoth:
		add(u+".user_type = ?", db.UserTypeBoth)
	}
	if f.IsGuide != nil {
		add(u+".is_guide = ?", *f.IsGuide)
	}
	if f.HasCar != nil {
		add(u+".has_car = ?", *f.HasCar)
	}
	if f.HasMotorcycle != nil {
		add(u+".has_motorcycle = ?", *f.HasMotorcycle)
	}
	if g := strings.TrimSpace(f.Gender); g != "" {
		add("LOWER("+u+".gender) = ?", strings.ToLower(g))
	}
	if f.OnlyVerified {
		add(u+".is_verified = ?", true)
	}
	return scopes
}

func speaksAny(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(w)) {
				return true
			}
		}
	}
	return false
}

func summarize(u *db.User) ProfileSummary {
	return ProfileSummary{
		DisplayName:   u.DisplayName,
		UserType:      u.UserType,
		Gender:        u.Gender,
		IsGuide:       u.IsGuide,
		IsVerified:    u.IsVerified,
		HasCar:        u.HasCar,
		HasMotorcycle: u.HasMotorcycle,
		Languages:     u.Languages,
		Interests:     u.Interests,
	}
}
