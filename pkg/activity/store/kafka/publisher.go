// Package kafka streams activities to a Kafka topic with franz-go and
// reads them back for projections.
//
// Records are JSON encoded and keyed by trackable, so every activity of one
// entity lands on the same partition in order.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"keeptrack/pkg/activity"
	"keeptrack/pkg/platform/circuit"
	"keeptrack/pkg/platform/sentinel"
)

const (
	HeaderActivityID  = "activity_id"
	HeaderActivityKey = "activity_key"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher implements activity.Store by producing to a topic. A circuit
// breaker sheds appends while the cluster keeps failing.
type Publisher struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithBreaker replaces the default breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

// WithLogger sets the logger for breaker transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher builds a publisher for topic.
func NewPublisher(producer Producer, topic string, opts ...Option) (*Publisher, error) {
	if producer == nil {
		return nil, errors.New("kafka: producer is required")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	p := &Publisher{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("kafka:" + topic),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Append implements activity.Store. It returns sentinel.ErrUnavailable
// without producing while the circuit is open.
func (p *Publisher) Append(ctx context.Context, record *activity.Record) error {
	if !p.breaker.Allow() {
		return fmt.Errorf("kafka topic %s: %w", p.topic, sentinel.ErrUnavailable)
	}

	msg, err := Encode(p.topic, record)
	if err != nil {
		return err
	}

	if err := p.producer.ProduceSync(ctx, msg).FirstErr(); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "activity stream circuit opened",
				"topic", p.topic,
				"error", err,
			)
		}
		return fmt.Errorf("produce activity: %w", err)
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "activity stream circuit closed", "topic", p.topic)
	}
	return nil
}

// Encode builds the Kafka record for an activity.
func Encode(topic string, record *activity.Record) (*kgo.Record, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal activity: %w", err)
	}
	return &kgo.Record{
		Topic:     topic,
		Key:       []byte(record.Trackable.String()),
		Value:     body,
		Timestamp: record.CreatedAt,
		Headers: []kgo.RecordHeader{
			{Key: HeaderActivityID, Value: []byte(record.ID.String())},
			{Key: HeaderActivityKey, Value: []byte(record.Key)},
		},
	}, nil
}

// Decode parses a record produced by Encode.
func Decode(r *kgo.Record) (*activity.Record, error) {
	var rec activity.Record
	if err := json.Unmarshal(r.Value, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal activity at %s/%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
	}
	return &rec, nil
}

// EnsureTopic creates topic when it does not exist yet.
func EnsureTopic(ctx context.Context, admin *kadm.Client, topic string, partitions int32, replicationFactor int16) error {
	resp, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if r, ok := resp[topic]; ok && r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, r.Err)
	}
	return nil
}
