package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/tripmate-match/internal/db"
	svcErr "github.com/oggyb/tripmate-match/internal/errors"
)

// CandidateAlias is the table alias FindCandidates gives the users table.
// Scopes passed to it must reference columns through this alias.
const CandidateAlias = "u"

// UserRepository reads profiles owned by the profile service and refreshes
// the location columns, the only user fields the engine writes.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get loads a user by id. Returns svcErr.ErrNotFound for unknown ids.
func (r *UserRepository) Get(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// FindCandidates loads the users in ids that satisfy every scope. The users
// table is aliased as CandidateAlias so scopes can correlate subqueries.
// Result order is unspecified.
func (r *UserRepository) FindCandidates(
	ctx context.Context,
	ids []string,
	scopes ...func(*gorm.DB) *gorm.DB,
) ([]db.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []db.User
	err := r.db.WithContext(ctx).
		Table("users "+CandidateAlias).
		Select(CandidateAlias+".*").
		Where(CandidateAlias+".id IN ?", ids).
		Scopes(scopes...).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	return users, nil
}

// UpdateLocation atomically replaces the user's position. Each user is the
// single writer of their own location, so a plain row update is enough.
func (r *UserRepository) UpdateLocation(ctx context.Context, id string, lat, lon float64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"latitude":             lat,
			"longitude":            lon,
			"last_location_update": at,
		})
	if res.Error != nil {
		return fmt.Errorf("update location: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.ErrNotFound
	}
	return nil
}

// EachLocated streams every user that has a location, in batches.
func (r *UserRepository) EachLocated(ctx context.Context, batchSize int, fn func([]db.User) error) error {
	var batch []db.User
	res := r.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	if res.Error != nil {
		return fmt.Errorf("scan located users: %w", res.Error)
	}
	return nil
}
