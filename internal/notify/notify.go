// Package notify hands match and like events to the delivery service.
// Delivery itself (push, sockets) happens elsewhere; this package only
// publishes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/tripmate-match/internal/db"
)

// DefaultChannel is the pub/sub channel events are published on.
const DefaultChannel = "notify:events"

const (
	EventMatchCreated = "match_created"
	EventLikeReceived = "like_received"
)

// Event is the JSON envelope put on the channel.
type Event struct {
	Type       string    `json:"type"`
	At         time.Time `json:"at"`
	Recipients []string  `json:"recipients"`

	MatchID   string `json:"match_id,omitempty"`
	SwiperID  string `json:"swiper_id,omitempty"`
	SwipedID  string `json:"swiped_id,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// Notifier is called once per newly created match or positive swipe.
type Notifier interface {
	MatchCreated(ctx context.Context, m db.Match) error
	LikeReceived(ctx context.Context, s db.Swipe) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) MatchCreated(context.Context, db.Match) error { return nil }
func (Nop) LikeReceived(context.Context, db.Swipe) error { return nil }

// RedisNotifier publishes events with PUBLISH.
type RedisNotifier struct {
	client  redis.Cmdable
	channel string
	now     func() time.Time
}

func NewRedisNotifier(client redis.Cmdable, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel, now: time.Now}
}

// MatchCreated tells both users about their new match.
func (n *RedisNotifier) MatchCreated(ctx context.Context, m db.Match) error {
	return n.publish(ctx, Event{
		Type:       EventMatchCreated,
		At:         m.MatchedAt,
		Recipients: []string{m.User1ID, m.User2ID},
		MatchID:    m.ID,
	})
}

// LikeReceived tells the swiped user someone is interested.
func (n *RedisNotifier) LikeReceived(ctx context.Context, s db.Swipe) error {
	at := s.CreatedAt
	if at.IsZero() {
		at = n.now().UTC()
	}
	return n.publish(ctx, Event{
		Type:       EventLikeReceived,
		At:         at,
		Recipients: []string{s.SwipedID},
		SwiperID:   s.SwiperID,
		SwipedID:   s.SwipedID,
		Direction:  string(s.Direction),
	})
}

func (n *RedisNotifier) publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	return nil
}
