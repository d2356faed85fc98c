package db

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedOptions controls the demo dataset.
type SeedOptions struct {
	Users     int
	CenterLat float64
	CenterLon float64
	// SpreadKm is the max distance of a seeded user from the center.
	SpreadKm float64
	Seed     int64
}

// DefaultSeedOptions scatters 40 users within 60 km of Philadelphia.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{Users: 40, CenterLat: 39.9526, CenterLon: -75.1652, SpreadKm: 60, Seed: time.Now().UnixNano()}
}

var (
	seedLanguages = []string{"en", "es", "fr", "de", "it", "pt"}
	seedInterests = []string{"hiking", "food", "museums", "nightlife", "beaches", "photography", "history"}
	seedUserTypes = []UserType{UserTypeTourist, UserTypeLocal, UserTypeBoth}
)

// SeedTestData resets the database and populates it with demo users and swipes.
//
// Behavior:
//  1. Clears existing data in `matches`, `swipes`, `blocks` and `users`.
//  2. Creates opts.Users located users around the center.
//  3. Generates a handful of swipes per user (~60% likes), never creating
//     matches directly; matches only come from the engine.
//
// Returns the created users so the caller can index their locations.
func SeedTestData(db *gorm.DB, opts SeedOptions) ([]User, error) {
	if opts.Users <= 0 {
		opts.Users = 40
	}
	if opts.SpreadKm <= 0 {
		opts.SpreadKm = 60
	}
	r := rand.New(rand.NewSource(opts.Seed))

	// --- Fresh start ---
	for _, table := range []string{"matches", "swipes", "blocks", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	now := time.Now().UTC()
	users := make([]User, 0, opts.Users)
	for i := 1; i <= opts.Users; i++ {
		lat, lon := offsetPoint(opts.CenterLat, opts.CenterLon, r.Float64()*opts.SpreadKm, r.Float64()*360)
		gender := "male"
		if i%2 == 0 {
			gender = "female"
		}
		users = append(users, User{
			ID:                 uuid.NewString(),
			DisplayName:        fmt.Sprintf("traveller%d", i),
			Latitude:           &lat,
			Longitude:          &lon,
			MaxDistanceKm:      float64(20 + r.Intn(80)),
			LastLocationUpdate: &now,
			IsActive:           true,
			IsVerified:         r.Intn(100) < 40,
			UserType:           seedUserTypes[r.Intn(len(seedUserTypes))],
			IsGuide:            r.Intn(100) < 15,
			HasCar:             r.Intn(100) < 30,
			HasMotorcycle:      r.Intn(100) < 10,
			Gender:             gender,
			Languages:          pick(r, seedLanguages, 1+r.Intn(2)),
			Interests:          pick(r, seedInterests, 2+r.Intn(3)),
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}

	// --- Seed swipes ---
	seen := make(map[[2]int]bool)
	var swipes []Swipe
	for a := range users {
		for j := 0; j < 5; j++ {
			b := r.Intn(len(users))
			if a == b || seen[[2]int{a, b}] {
				continue
			}
			seen[[2]int{a, b}] = true

			dir := DirectionPass
			switch n := r.Intn(100); {
			case n < 10:
				dir = DirectionSuperLike
			case n < 60:
				dir = DirectionLike
			}
			swipes = append(swipes, Swipe{SwiperID: users[a].ID, SwipedID: users[b].ID, Direction: dir})
		}
	}
	if len(swipes) > 0 {
		if err := db.Create(&swipes).Error; err != nil {
			return nil, fmt.Errorf("failed to seed swipes: %w", err)
		}
	}

	return users, nil
}

// offsetPoint moves distanceKm from (lat, lon) along bearingDeg on a sphere.
// Precision is irrelevant for demo data.
func offsetPoint(lat, lon, distanceKm, bearingDeg float64) (float64, float64) {
	const earthRadiusKm = 6371.0
	toRad := math.Pi / 180

	d := distanceKm / earthRadiusKm
	brng := bearingDeg * toRad
	lat1 := lat * toRad
	lon1 := lon * toRad

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	return lat2 / toRad, lon2 / toRad
}

func pick(r *rand.Rand, from []string, n int) []string {
	idx := r.Perm(len(from))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, from[i])
	}
	return out
}
