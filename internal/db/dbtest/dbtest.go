// Package dbtest spins up throwaway SQLite databases with the engine schema.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/tripmate-match/internal/db"
)

// Open returns an isolated in-memory SQLite database, migrated, with foreign
// keys enforced. A single connection is used so concurrent callers queue
// instead of hitting "database is locked".
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// UserOpt tweaks a fixture user.
type UserOpt func(*db.User)

// At places the user at lat/lon.
func At(lat, lon float64) UserOpt {
	return func(u *db.User) {
		u.Latitude = &lat
		u.Longitude = &lon
		now := time.Now().UTC()
		u.LastLocationUpdate = &now
	}
}

// Radius sets the user's default search radius.
func Radius(km float64) UserOpt {
	return func(u *db.User) { u.MaxDistanceKm = km }
}

// NewUser inserts an active, visible user and returns it.
func NewUser(t *testing.T, database *gorm.DB, opts ...UserOpt) db.User {
	t.Helper()

	u := db.User{
		ID:            uuid.NewString(),
		DisplayName:   "traveller",
		MaxDistanceKm: 50,
		IsActive:      true,
		UserType:      db.UserTypeBoth,
		Gender:        "female",
		Languages:     []string{"en"},
	}
	for _, opt := range opts {
		opt(&u)
	}
	require.NoError(t, database.Create(&u).Error)
	return u
}

// Block inserts a blocker → blocked relation.
func Block(t *testing.T, database *gorm.DB, blockerID, blockedID string) {
	t.Helper()
	require.NoError(t, database.Create(&db.Block{BlockerID: blockerID, BlockedID: blockedID}).Error)
}

// Swipe inserts a raw swipe row, bypassing the ledger.
func Swipe(t *testing.T, database *gorm.DB, swiperID, swipedID string, dir db.Direction) {
	t.Helper()
	require.NoError(t, database.Create(&db.Swipe{SwiperID: swiperID, SwipedID: swipedID, Direction: dir}).Error)
}
