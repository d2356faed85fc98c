// Package location keeps user positions in the database and the geo index
// in step.
package location

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/tripmate-match/internal/app"
	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/geo"
	"github.com/oggyb/tripmate-match/internal/repository"
)

const reindexBatch = 500

type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	now    func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		now:    time.Now,
	}
}

// UpdateLocation stores a new position for userID and indexes it. The row is
// written first; if indexing then fails the call errors and can simply be
// repeated. Positions beyond the GEO band are stored but taken out of the
// index, so the user stops being discoverable instead of lingering at the
// previous point.
func (s *Service) UpdateLocation(ctx context.Context, userID string, lat, lon float64) (time.Time, error) {
	s.appCtx.Logger.Debug("UpdateLocation called", "user", userID)

	userID, err := db.ParseID("user_id", userID)
	if err != nil {
		return time.Time{}, err
	}
	p := geo.Point{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return time.Time{}, err
	}

	at := s.now().UTC().Truncate(time.Millisecond)
	if err := s.users.UpdateLocation(ctx, userID, lat, lon, at); err != nil {
		return time.Time{}, err
	}

	if p.Indexable() {
		err = s.appCtx.Geo.Upsert(ctx, userID, p)
	} else {
		s.appCtx.Logger.Info("location outside indexable band, removing from index", "user", userID, "lat", lat)
		err = s.appCtx.Geo.Remove(ctx, userID)
	}
	s.appCtx.Metrics.ObserveIndexUpdate(err)
	if err != nil {
		s.appCtx.Logger.Error("geo index update failed", "user", userID, "err", err)
		return time.Time{}, fmt.Errorf("index location: %w", err)
	}
	return at, nil
}

// Reindex rebuilds the geo index from the users table and returns how many
// users were indexed.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	var locs []geo.Located
	err := s.users.EachLocated(ctx, reindexBatch, func(batch []db.User) error {
		for _, u := range batch {
			locs = append(locs, geo.Located{
				UserID: u.ID,
				Point:  geo.Point{Lat: *u.Latitude, Lon: *u.Longitude},
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	n, err := s.appCtx.Geo.Rebuild(ctx, locs)
	if err != nil {
		return 0, err
	}
	s.appCtx.Logger.Info("geo index rebuilt", "users", n, "skipped", len(locs)-n)
	return n, nil
}
