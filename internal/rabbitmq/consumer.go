package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/config"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/types"
)

const (
	prefetch      = 16
	handleTimeout = 10 * time.Second
)

// Consumer reads JSON observations from a durable queue with manual acks.
type Consumer struct {
	cfg    config.AMQPConfig
	logger *slog.Logger

	mu      sync.RWMutex
	handler func(ctx context.Context, obs types.Observation) error
}

func NewConsumer(cfg config.AMQPConfig, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{cfg: cfg, logger: logger.With("component", "amqp")}
}

func (c *Consumer) SetMessageHandler(handler func(ctx context.Context, obs types.Observation) error) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

// Run consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Error("amqp connection close", "error", err)
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.cfg.Queue, err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("amqp qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}
	c.logger.Info("consuming amqp queue", "queue", c.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			c.process(ctx, d)
		}
	}
}

// process acks stored observations, drops undecodable or invalid ones and
// requeues those that failed for any other reason.
func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	var obs types.Observation
	if err := json.Unmarshal(d.Body, &obs); err != nil {
		c.logger.Warn("failed to parse observation", "error", err, "payload", string(d.Body))
		c.nack(d, false)
		return
	}

	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler == nil {
		c.logger.Warn("no message handler set, requeueing")
		c.nack(d, true)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()
	if err := handler(hctx, obs); err != nil {
		if errors.Is(err, types.ErrInvalidObservation) {
			c.logger.Warn("observation rejected", "station", obs.Station, "date", obs.Date, "error", err)
			c.nack(d, false)
			return
		}
		c.logger.Error("observation handler failed", "station", obs.Station, "date", obs.Date, "error", err)
		c.nack(d, !d.Redelivered)
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.Error("amqp ack", "error", err)
	}
}

func (c *Consumer) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.logger.Error("amqp nack", "error", err)
	}
}
