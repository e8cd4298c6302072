package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event represents one message from the ingest stream.
type Event struct {
	// MessageID is the Redis Stream message ID.
	MessageID string
	EventID   string
	EventType string
	// Source is the service that produced the event.
	Source    string
	CreatedAt time.Time
	Payload   json.RawMessage
	Metadata  map[string]string
}

// EventHandler processes events from the stream.
type EventHandler interface {
	HandleEvent(ctx context.Context, event Event) error
}

// Consumer consumes events from Redis Streams.
type Consumer struct {
	client  *redis.Client
	config  Config
	handler EventHandler
	logger  *slog.Logger
	done    chan struct{}
	stop    context.CancelFunc
}

// NewConsumer creates a new Redis Streams consumer. A disabled config yields a no-op consumer.
func NewConsumer(config Config, handler EventHandler, logger *slog.Logger) (*Consumer, error) {
	if !config.Enabled {
		return newConsumer(nil, config, handler, logger), nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, err
	}
	return newConsumer(redis.NewClient(opts), config, handler, logger), nil
}

func newConsumer(client *redis.Client, config Config, handler EventHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		client:  client,
		config:  config,
		handler: handler,
		logger:  logger,
	}
}

// Start creates the consumer group if needed and consumes in the background until ctx ends or Stop is called.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.config.Enabled {
		c.logger.Info("consumer disabled, not starting")
		return nil
	}

	if err := c.ensureConsumerGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("starting consumer",
		"stream", c.config.StreamKey,
		"group", c.config.GroupName,
		"consumer", c.config.ConsumerName,
	)

	loopCtx, cancel := context.WithCancel(ctx)
	c.stop = cancel
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.consumeLoop(loopCtx)
	}()
	return nil
}

// Stop ends the consume loop, waits for the in-flight batch and closes the client.
func (c *Consumer) Stop() {
	if c.stop != nil {
		c.stop()
		<-c.done
	}
	if c.client != nil {
		_ = c.client.Close()
	}
}

func (c *Consumer) IsEnabled() bool {
	return c.config.Enabled
}

// Ping checks the Redis connection.
func (c *Consumer) Ping(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *Consumer) ensureConsumerGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.config.StreamKey, c.config.GroupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			c.logger.Info("consumer stopping")
			return
		}
		if err := c.readAndProcess(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error("error processing events", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.config.ErrorBackoff):
			}
		}
	}
}

// readAndProcess first reclaims messages another delivery left pending for
// longer than ClaimIdleTime, then reads one new batch for this consumer.
// Every message that was handled or can never succeed is acknowledged.
func (c *Consumer) readAndProcess(ctx context.Context) error {
	claimed, err := c.claimIdle(ctx)
	if err != nil {
		return err
	}
	if len(claimed) > 0 {
		c.logger.Info("reclaimed pending events", "count", len(claimed))
		c.process(ctx, claimed)
		return nil
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.config.GroupName,
		Consumer: c.config.ConsumerName,
		Streams:  []string{c.config.StreamKey, ">"},
		Count:    c.config.BatchSize,
		Block:    c.config.BlockTimeout,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range streams {
		c.process(ctx, stream.Messages)
	}
	return nil
}

func (c *Consumer) claimIdle(ctx context.Context) ([]redis.XMessage, error) {
	if c.config.ClaimIdleTime <= 0 {
		return nil, nil
	}
	messages, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.config.StreamKey,
		Group:    c.config.GroupName,
		Consumer: c.config.ConsumerName,
		MinIdle:  c.config.ClaimIdleTime,
		Start:    "0-0",
		Count:    c.config.BatchSize,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return messages, err
}

func (c *Consumer) process(ctx context.Context, messages []redis.XMessage) {
	for _, message := range messages {
		event := parseEvent(message)

		if err := c.handler.HandleEvent(ctx, event); err != nil {
			if !errors.Is(err, ErrInvalidPayload) {
				c.logger.Error("failed to process event, leaving pending",
					"message_id", message.ID,
					"event_type", event.EventType,
					"error", err,
				)
				continue
			}
			c.logger.Warn("dropping invalid event",
				"message_id", message.ID,
				"event_type", event.EventType,
				"error", err,
			)
		}

		if err := c.client.XAck(ctx, c.config.StreamKey, c.config.GroupName, message.ID).Err(); err != nil {
			c.logger.Error("failed to acknowledge message",
				"message_id", message.ID,
				"error", err,
			)
		}
	}
}

// parseEvent converts a Redis Stream message to an Event.
func parseEvent(message redis.XMessage) Event {
	event := Event{
		MessageID: message.ID,
		Metadata:  make(map[string]string),
	}

	if v, ok := message.Values["event_id"].(string); ok {
		event.EventID = v
	}
	if v, ok := message.Values["event_type"].(string); ok {
		event.EventType = v
	}
	if v, ok := message.Values["source"].(string); ok {
		event.Source = v
	}
	if v, ok := message.Values["created_at"].(string); ok {
		event.CreatedAt, _ = time.Parse(time.RFC3339, v)
	}
	if v, ok := message.Values["payload"].(string); ok {
		event.Payload = json.RawMessage(v)
	}
	if v, ok := message.Values["metadata"].(string); ok {
		_ = json.Unmarshal([]byte(v), &event.Metadata)
	}

	return event
}
