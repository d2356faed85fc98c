package db

import (
	"time"
)

// Direction is the decision a swiper made about a target.
type Direction string

const (
	DirectionLike      Direction = "like"
	DirectionPass      Direction = "pass"
	DirectionSuperLike Direction = "super_like"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionLike, DirectionPass, DirectionSuperLike:
		return true
	}
	return false
}

// Positive reports whether d expresses interest (like or super_like).
// Both count the same for match purposes.
func (d Direction) Positive() bool {
	return d == DirectionLike || d == DirectionSuperLike
}

// PositiveDirections lists the directions that can take part in a match.
var PositiveDirections = []Direction{DirectionLike, DirectionSuperLike}

// UserType is how a traveller presents themselves.
type UserType string

const (
	UserTypeTourist UserType = "tourist"
	UserTypeLocal   UserType = "local"
	UserTypeBoth    UserType = "both"
)

// User table. Owned by the profile service; the engine only ever writes the
// location columns.
//
// Ids are canonical lowercase UUID strings. Comparing them byte-wise gives
// the same order as comparing the raw UUID bytes, which is the total order
// used for Match pairs.
type User struct {
	ID          string `gorm:"primaryKey;size:36"`
	DisplayName string `gorm:"size:64;not null"`

	Latitude           *float64
	Longitude          *float64
	MaxDistanceKm      float64 `gorm:"not null"`
	LastLocationUpdate *time.Time

	IsActive       bool `gorm:"not null"`
	IsBanned       bool `gorm:"not null"`
	IsShadowBanned bool `gorm:"not null"`
	ShadowBanUntil *time.Time
	IsVerified     bool `gorm:"not null"`

	UserType      UserType `gorm:"size:16;not null"`
	IsGuide       bool     `gorm:"not null"`
	HasCar        bool     `gorm:"not null"`
	HasMotorcycle bool     `gorm:"not null"`
	Gender        string   `gorm:"size:16"`
	Languages     []string `gorm:"serializer:json;type:text"`
	Interests     []string `gorm:"serializer:json;type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// HasLocation reports whether the user ever shared a position.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// ShadowBannedAt reports whether the shadow ban is in force at t.
func (u *User) ShadowBannedAt(t time.Time) bool {
	if !u.IsShadowBanned {
		return false
	}
	return u.ShadowBanUntil == nil || u.ShadowBanUntil.After(t)
}

// Swipe represents a swiper's decision on a swiped user.
//
// Composite PK: (SwiperID, SwipedID)
//   - One row per ordered pair; rows are never overwritten.
//
// Indexes:
//   - idx_swipes_unseen(swiped_id, is_seen, direction)
//     Serves the unseen-likes count and the pending likes list.
//   - PK prefix (swiper_id, swiped_id)
//     O(1) lookup for the mirrored swipe in match detection.
type Swipe struct {
	SwiperID  string    `gorm:"primaryKey;size:36"`
	SwipedID  string    `gorm:"primaryKey;size:36;index:idx_swipes_unseen,priority:1"`
	Direction Direction `gorm:"size:16;not null;index:idx_swipes_unseen,priority:3"`
	IsSeen    bool      `gorm:"not null;index:idx_swipes_unseen,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	Swiper *User `gorm:"foreignKey:SwiperID;references:ID;constraint:OnDelete:CASCADE"`
	Swiped *User `gorm:"foreignKey:SwipedID;references:ID;constraint:OnDelete:CASCADE"`
}

// Block is a directed block relation, read-only to the engine. Either
// direction hides the pair from each other.
type Block struct {
	BlockerID string    `gorm:"primaryKey;size:36"`
	BlockedID string    `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Blocker *User `gorm:"foreignKey:BlockerID;references:ID;constraint:OnDelete:CASCADE"`
	Blocked *User `gorm:"foreignKey:BlockedID;references:ID;constraint:OnDelete:CASCADE"`
}

// Match is the canonical row for a mutual like. User1ID < User2ID always,
// which makes idx_match_pair symmetric in the two users.
type Match struct {
	ID              string    `gorm:"primaryKey;size:36"`
	User1ID         string    `gorm:"size:36;not null;uniqueIndex:idx_match_pair,priority:1"`
	User2ID         string    `gorm:"size:36;not null;uniqueIndex:idx_match_pair,priority:2;index"`
	MatchedAt       time.Time `gorm:"not null"`
	IsActive        bool      `gorm:"not null"`
	LastInteraction *time.Time

	User1 *User `gorm:"foreignKey:User1ID;references:ID;constraint:OnDelete:CASCADE"`
	User2 *User `gorm:"foreignKey:User2ID;references:ID;constraint:OnDelete:CASCADE"`
}

// CanonicalPair orders two ids so the smaller comes first.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Models lists every table owned or read by the engine, in migration order.
func Models() []any {
	return []any{&User{}, &Swipe{}, &Block{}, &Match{}}
}
