// Package kafkanotify publishes reminders to a Kafka topic for downstream mailers.
package kafkanotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/reminder"
)

const schemaVersion = "1.0"

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	PerSecond    float64
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements reminder.Notifier on top of a kafka writer.
type Publisher struct {
	writer  messageWriter
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// Event is the payload written for every reminder.
type Event struct {
	NotificationID int64     `json:"notification_id"`
	OrderID        int64     `json:"order_id"`
	Milestone      string    `json:"milestone"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewPublisher creates a publisher writing to cfg.Topic.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(writer, cfg.PerSecond, logger), nil
}

func newPublisher(w messageWriter, perSecond float64, logger *slog.Logger) *Publisher {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	return &Publisher{
		writer:  w,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
		now:     time.Now,
	}
}

// Send publishes msg keyed by notification id so retries land on one partition.
func (p *Publisher) Send(ctx context.Context, msg reminder.Message) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit: %v", domainErrors.ErrNotifierTransient, err)
	}

	event := Event{
		NotificationID: msg.NotificationID,
		OrderID:        msg.OrderID,
		Milestone:      string(msg.Milestone),
		Recipient:      msg.Recipient,
		Subject:        msg.Subject,
		Body:           msg.Body,
		Timestamp:      p.now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: encode event: %v", domainErrors.ErrNotifierPermanent, err)
	}

	kafkaMsg := kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.NotificationID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "milestone", Value: []byte(msg.Milestone)},
			{Key: "schema_version", Value: []byte(schemaVersion)},
		},
		Time: event.Timestamp,
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		p.logger.Warn("failed to publish reminder",
			slog.Int64("notification_id", msg.NotificationID),
			slog.String("error", err.Error()),
		)
		if rejectedForSize(err) {
			return fmt.Errorf("%w: publish: %v", domainErrors.ErrNotifierPermanent, err)
		}
		return fmt.Errorf("%w: publish: %v", domainErrors.ErrNotifierTransient, err)
	}

	p.logger.Debug("published reminder", slog.Int64("notification_id", msg.NotificationID))
	return nil
}

// rejectedForSize reports whether the broker or writer refused the message as
// too large; resending the same payload can never succeed.
func rejectedForSize(err error) bool {
	var batch kafka.WriteErrors
	if errors.As(err, &batch) {
		for _, e := range batch {
			if e != nil && rejectedForSize(e) {
				return true
			}
		}
		return false
	}
	return errors.Is(err, kafka.MessageSizeTooLarge)
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
