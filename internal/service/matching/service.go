package matching

import (
	"context"

	"github.com/oggyb/tripmate-match/internal/app"
	"github.com/oggyb/tripmate-match/internal/db"
	svcErr "github.com/oggyb/tripmate-match/internal/errors"
	"github.com/oggyb/tripmate-match/internal/geo"
	"github.com/oggyb/tripmate-match/internal/service/discovery"
	"github.com/oggyb/tripmate-match/internal/service/likes"
	"github.com/oggyb/tripmate-match/internal/service/location"
	"github.com/oggyb/tripmate-match/internal/service/swipe"
)

// Service implements the MatchingService gRPC API.
// It translates wire messages to the domain services and domain errors to
// gRPC status codes.
type Service struct {
	appCtx   *app.AppContext
	planner  *discovery.Planner
	swipes   *swipe.Service
	likes    *likes.Service
	location *location.Service
}

// NewMatchingService creates the service with dependencies from AppContext.
func NewMatchingService(appCtx *app.AppContext) *Service {
	return NewMatchingServiceWith(
		appCtx,
		discovery.NewPlanner(appCtx),
		swipe.NewService(appCtx),
		likes.NewService(appCtx),
		location.NewService(appCtx),
	)
}

// NewMatchingServiceWith lets transports share already built domain services.
func NewMatchingServiceWith(
	appCtx *app.AppContext,
	planner *discovery.Planner,
	swipes *swipe.Service,
	likesSvc *likes.Service,
	locationSvc *location.Service,
) *Service {
	return &Service{
		appCtx:   appCtx,
		planner:  planner,
		swipes:   swipes,
		likes:    likesSvc,
		location: locationSvc,
	}
}

var _ MatchingServer = (*Service)(nil)

// Discover returns eligible candidates near the requester, nearest first.
func (s *Service) Discover(ctx context.Context, req *DiscoverRequest) (*DiscoverResponse, error) {
	f, err := FiltersFromRequest(req)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	views, err := s.planner.Discover(ctx, req.UserID, f, req.Limit)
	if err != nil {
		s.logFailure("Discover", err, "user", req.UserID)
		return nil, svcErr.Map(err)
	}
	return &DiscoverResponse{Candidates: views}, nil
}

// FiltersFromRequest validates the wire filters and builds the planner's.
func FiltersFromRequest(req *DiscoverRequest) (discovery.Filters, error) {
	f := discovery.Filters{
		MaxDistanceKm: req.MaxDistanceKm,
		UserType:      db.UserType(req.UserType),
		IsGuide:       req.IsGuide,
		HasCar:        req.HasCar,
		HasMotorcycle: req.HasMotorcycle,
		Gender:        req.Gender,
		OnlyVerified:  req.OnlyVerified,
		Languages:     req.Languages,
	}
	switch {
	case req.Lat != nil && req.Lon != nil:
		f.Origin = &geo.Point{Lat: *req.Lat, Lon: *req.Lon}
	case req.Lat != nil || req.Lon != nil:
		return discovery.Filters{}, svcErr.InvalidArgument("lat and lon must be given together")
	}
	return f, nil
}

// Swipe records a decision and reports a resulting match.
func (s *Service) Swipe(ctx context.Context, req *SwipeRequest) (*SwipeResponse, error) {
	res, err := s.swipes.Swipe(ctx, req.SwiperID, req.SwipedID, db.Direction(req.Direction))
	if err != nil {
		s.logFailure("Swipe", err, "swiper", req.SwiperID, "swiped", req.SwipedID)
		return nil, svcErr.Map(err)
	}
	return &SwipeResponse{
		Created:   res.Created,
		IsMatch:   res.IsMatch,
		Direction: string(res.Direction),
		Match:     toMatchView(res.Match),
	}, nil
}

// UnseenLikesCount returns the "new likes" badge count.
func (s *Service) UnseenLikesCount(ctx context.Context, req *UnseenLikesCountRequest) (*UnseenLikesCountResponse, error) {
	n, err := s.likes.UnseenCount(ctx, req.UserID)
	if err != nil {
		s.logFailure("UnseenLikesCount", err, "user", req.UserID)
		return nil, svcErr.Map(err)
	}
	return &UnseenLikesCountResponse{Count: n}, nil
}

// MarkSeen flags received likes as seen.
func (s *Service) MarkSeen(ctx context.Context, req *MarkSeenRequest) (*MarkSeenResponse, error) {
	n, err := s.swipes.MarkSeen(ctx, req.UserID, req.SwiperIDs)
	if err != nil {
		s.logFailure("MarkSeen", err, "user", req.UserID)
		return nil, svcErr.Map(err)
	}
	return &MarkSeenResponse{Updated: n}, nil
}

// ListPendingLikes pages through likes still waiting for an answer.
func (s *Service) ListPendingLikes(ctx context.Context, req *ListPendingLikesRequest) (*ListPendingLikesResponse, error) {
	items, next, err := s.likes.ListPending(ctx, req.UserID, req.PageToken, req.Limit)
	if err != nil {
		s.logFailure("ListPendingLikes", err, "user", req.UserID)
		return nil, svcErr.Map(err)
	}
	return &ListPendingLikesResponse{Likes: items, NextPageToken: next}, nil
}

// ListMatches returns the user's active matches.
func (s *Service) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	matches, err := s.swipes.ListMatches(ctx, req.UserID, req.Limit)
	if err != nil {
		s.logFailure("ListMatches", err, "user", req.UserID)
		return nil, svcErr.Map(err)
	}
	resp := &ListMatchesResponse{Matches: make([]MatchView, 0, len(matches))}
	for i := range matches {
		resp.Matches = append(resp.Matches, *toMatchView(&matches[i]))
	}
	return resp, nil
}

// UpdateLocation refreshes the user's position.
func (s *Service) UpdateLocation(ctx context.Context, req *UpdateLocationRequest) (*UpdateLocationResponse, error) {
	at, err := s.location.UpdateLocation(ctx, req.UserID, req.Lat, req.Lon)
	if err != nil {
		s.logFailure("UpdateLocation", err, "user", req.UserID)
		return nil, svcErr.Map(err)
	}
	return &UpdateLocationResponse{UpdatedAt: at}, nil
}

// logFailure logs unexpected errors loudly and client errors at debug.
func (s *Service) logFailure(method string, err error, args ...any) {
	args = append(args, "err", err)
	if svcErr.IsClientError(err) {
		s.appCtx.Logger.Debug(method+" rejected", args...)
		return
	}
	s.appCtx.Logger.Error(method+" failed", args...)
}
