// Package events publishes what happened in the social graph, posts being
// created, liked and users being followed, for whoever downstream cares.
//
// Publishing never changes the outcome of the request that triggered it: a
// failure is logged and dropped.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type Kind string

const (
	KindPostCreated  Kind = "post_created"
	KindPostLiked    Kind = "post_liked"
	KindUserFollowed Kind = "user_followed"
)

// Event is the message put on the wire.
type Event struct {
	Kind       Kind      `json:"kind"`
	UserID     int64     `json:"user_id"` // The user doing the thing
	PostID     int64     `json:"post_id,omitempty"`
	TargetID   int64     `json:"target_user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func PostCreated(authorID, postID int64, at time.Time) Event {
	return Event{Kind: KindPostCreated, UserID: authorID, PostID: postID, OccurredAt: at}
}

func PostLiked(userID, postID int64, at time.Time) Event {
	return Event{Kind: KindPostLiked, UserID: userID, PostID: postID, OccurredAt: at}
}

func UserFollowed(followerID, followingID int64, at time.Time) Event {
	return Event{Kind: KindUserFollowed, UserID: followerID, TargetID: followingID, OccurredAt: at}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// MessageWriter is the part of [kafka.Writer] the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	BatchTimeout time.Duration // How long a write waits for others to batch with
}

// KafkaPublisher writes events to a topic, keyed by the acting user so that a
// user's events stay in order on one partition.
type KafkaPublisher struct {
	w MessageWriter
}

func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	// kafka-go otherwise holds a lone message for a full second before flushing
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 5 * time.Millisecond
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	byts, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("error marshalling event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.UserID, 10)),
		Value: byts,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(e.Kind)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("error writing %s event: %w", e.Kind, err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// LogPublisher only logs events, for when there's no broker configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	slog.DebugContext(ctx, "event", "kind", e.Kind, "user_id", e.UserID, "post_id", e.PostID, "target_user_id", e.TargetID)
	return nil
}

func (LogPublisher) Close() error { return nil }

// Emit publishes without letting a failure reach the caller.
func Emit(ctx context.Context, p Publisher, e Event) {
	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "error publishing event", "kind", e.Kind, "err", err)
	}
}
