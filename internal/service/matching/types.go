package matching

import (
	"time"

	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/service/discovery"
	"github.com/oggyb/tripmate-match/internal/service/likes"
)

// Request and response messages. They travel as JSON (see codec.go), so
// field names are the wire contract.

type DiscoverRequest struct {
	UserID        string   `json:"userId"`
	MaxDistanceKm *float64 `json:"maxDistanceKm,omitempty"`
	UserType      string   `json:"userType,omitempty"`
	IsGuide       *bool    `json:"isGuide,omitempty"`
	HasCar        *bool    `json:"hasCar,omitempty"`
	HasMotorcycle *bool    `json:"hasMotorcycle,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	OnlyVerified  bool     `json:"onlyVerified,omitempty"`
	Languages     []string `json:"languages,omitempty"`
	// Lat and Lon override the stored location; both or neither.
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
	Limit int      `json:"limit,omitempty"`
}

type DiscoverResponse struct {
	Candidates []discovery.CandidateView `json:"candidates"`
}

type SwipeRequest struct {
	SwiperID  string `json:"swiperId"`
	SwipedID  string `json:"swipedId"`
	Direction string `json:"direction"`
}

type SwipeResponse struct {
	Created   bool       `json:"created"`
	IsMatch   bool       `json:"isMatch"`
	Direction string     `json:"direction"`
	Match     *MatchView `json:"match,omitempty"`
}

// MatchView is the client-facing shape of a match.
type MatchView struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1Id"`
	User2ID   string    `json:"user2Id"`
	MatchedAt time.Time `json:"matchedAt"`
}

func toMatchView(m *db.Match) *MatchView {
	if m == nil {
		return nil
	}
	return &MatchView{ID: m.ID, User1ID: m.User1ID, User2ID: m.User2ID, MatchedAt: m.MatchedAt.UTC()}
}

type UnseenLikesCountRequest struct {
	UserID string `json:"userId"`
}

type UnseenLikesCountResponse struct {
	Count int64 `json:"count"`
}

type MarkSeenRequest struct {
	UserID    string   `json:"userId"`
	SwiperIDs []string `json:"swiperIds,omitempty"`
}

type MarkSeenResponse struct {
	Updated int64 `json:"updated"`
}

type ListPendingLikesRequest struct {
	UserID    string  `json:"userId"`
	PageToken *string `json:"pageToken,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

type ListPendingLikesResponse struct {
	Likes         []likes.PendingLike `json:"likes"`
	NextPageToken *string             `json:"nextPageToken,omitempty"`
}

type ListMatchesRequest struct {
	UserID string `json:"userId"`
	Limit  int    `json:"limit,omitempty"`
}

type ListMatchesResponse struct {
	Matches []MatchView `json:"matches"`
}

type UpdateLocationRequest struct {
	UserID string  `json:"userId"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

type UpdateLocationResponse struct {
	UpdatedAt time.Time `json:"updatedAt"`
}
