package geo

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the GEO set holding every located user.
const DefaultKey = "geo:users"

// Redis measures on a sphere, which overstates north-south distances near the
// equator by up to about 0.6%. The search circle is widened by this factor so
// nothing inside the ellipsoidal radius is missed, then trimmed exactly.
const sphericalSlack = 1.01

// Hit is one user found by a radius query.
type Hit struct {
	UserID     string
	DistanceKm float64
	Point      Point
}

// Located pairs a user with their last known position.
type Located struct {
	UserID string
	Point  Point
}

// Index answers "who is within r km of p", nearest first.
type Index interface {
	QueryWithinRadius(ctx context.Context, origin Point, radiusKm float64, limit int) ([]Hit, error)
}

// RedisIndex stores positions in a Redis GEO sorted set.
type RedisIndex struct {
	client redis.Cmdable
	key    string
}

// NewRedisIndex binds the index to key on client. An empty key means DefaultKey.
func NewRedisIndex(client redis.Cmdable, key string) *RedisIndex {
	if key == "" {
		key = DefaultKey
	}
	return &RedisIndex{client: client, key: key}
}

// Upsert places userID at p, replacing any previous position. GEOADD is a
// single atomic command, so readers see either the old or the new point.
func (x *RedisIndex) Upsert(ctx context.Context, userID string, p Point) error {
	if err := p.indexable(); err != nil {
		return err
	}
	err := x.client.GeoAdd(ctx, x.key, &redis.GeoLocation{
		Name:      userID,
		Longitude: p.Lon,
		Latitude:  p.Lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd %s: %w", userID, err)
	}
	return nil
}

// Remove drops userID from the index. Removing an absent user is a no-op.
func (x *RedisIndex) Remove(ctx context.Context, userID string) error {
	if err := x.client.ZRem(ctx, x.key, userID).Err(); err != nil {
		return fmt.Errorf("geo remove %s: %w", userID, err)
	}
	return nil
}

// QueryWithinRadius returns users within radiusKm of origin, ordered by
// ellipsoidal distance ascending, at most limit of them (limit <= 0 means
// no cap). An empty area yields an empty slice.
func (x *RedisIndex) QueryWithinRadius(ctx context.Context, origin Point, radiusKm float64, limit int) ([]Hit, error) {
	if err := origin.indexable(); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return []Hit{}, nil
	}

	q := &redis.GeoRadiusQuery{
		Radius:    radiusKm * sphericalSlack,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}
	if limit > 0 {
		q.Count = limit
	}

	locs, err := x.client.GeoRadius(ctx, x.key, origin.Lon, origin.Lat, q).Result()
	if err != nil {
		return nil, fmt.Errorf("georadius: %w", err)
	}

	hits := make([]Hit, 0, len(locs))
	for _, loc := range locs {
		p := Point{Lat: loc.Latitude, Lon: loc.Longitude}
		d := DistanceKm(origin, p)
		if d > radiusKm {
			continue
		}
		hits = append(hits, Hit{UserID: loc.Name, DistanceKm: d, Point: p})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return hits[i].UserID < hits[j].UserID
	})
	return hits, nil
}

// Rebuild replaces the whole index with locs. The new set is written under a
// scratch key and renamed over the live one, so queries never see a partial
// index.
func (x *RedisIndex) Rebuild(ctx context.Context, locs []Located) (int, error) {
	scratch := x.key + ":rebuild"
	if err := x.client.Del(ctx, scratch).Err(); err != nil {
		return 0, fmt.Errorf("clear scratch index: %w", err)
	}

	members := make([]*redis.GeoLocation, 0, len(locs))
	for _, l := range locs {
		if err := l.Point.indexable(); err != nil {
			continue
		}
		members = append(members, &redis.GeoLocation{Name: l.UserID, Longitude: l.Point.Lon, Latitude: l.Point.Lat})
	}

	if len(members) == 0 {
		if err := x.client.Del(ctx, x.key).Err(); err != nil {
			return 0, fmt.Errorf("clear index: %w", err)
		}
		return 0, nil
	}

	const chunk = 500
	for start := 0; start < len(members); start += chunk {
		end := min(start+chunk, len(members))
		if err := x.client.GeoAdd(ctx, scratch, members[start:end]...).Err(); err != nil {
			return 0, fmt.Errorf("fill scratch index: %w", err)
		}
	}

	if err := x.client.Rename(ctx, scratch, x.key).Err(); err != nil {
		return 0, fmt.Errorf("swap index: %w", err)
	}
	return len(members), nil
}

// Size reports how many users are indexed.
func (x *RedisIndex) Size(ctx context.Context) (int64, error) {
	return x.client.ZCard(ctx, x.key).Result()
}
