package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/config"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/types"
)

const handleTimeout = 10 * time.Second

var errStopped = errors.New("subscriber stopped")

// Subscriber receives JSON observations from an MQTT topic. It subscribes on
// every (re)connect so a broker restart does not silently drop the topic.
type Subscriber struct {
	client mqtt.Client
	cfg    config.MQTTConfig
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool
	handler   func(ctx context.Context, obs types.Observation) error

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func NewSubscriber(cfg config.MQTTConfig, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Subscriber{
		cfg:    cfg,
		logger: logger.With("component", "mqtt"),
		ctx:    ctx,
		cancel: cancel,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		s.setConnected(true)
		s.logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
		if err := s.subscribe(c); err != nil {
			s.logger.Error("mqtt subscribe failed", "topic", cfg.Topic, "error", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		s.logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// SetMessageHandler must be called before Connect; queued messages can arrive
// right after CONNACK.
func (s *Subscriber) SetMessageHandler(handler func(ctx context.Context, obs types.Observation) error) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// Connect blocks until the first connection succeeds, ctx is done or the
// subscriber is stopped. When ctx ends first the client keeps retrying in the
// background and subscribes once it gets through.
func (s *Subscriber) Connect(ctx context.Context) error {
	if s.ctx.Err() != nil {
		return errStopped
	}
	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()

	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			s.client.Disconnect(0)
			return errStopped
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *Subscriber) subscribe(c mqtt.Client) error {
	const qos = byte(1)
	token := c.Subscribe(s.cfg.Topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", s.cfg.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.cfg.Topic, err)
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.cfg.Topic, "qos", qos)
	return nil
}

// handleMessage decodes and dispatches one payload. Bad payloads are logged
// and dropped; redelivering them would fail the same way.
func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var obs types.Observation
	if err := json.Unmarshal(payload, &obs); err != nil {
		s.logger.Warn("failed to parse observation", "topic", topic, "error", err, "payload", string(payload))
		return
	}

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		s.logger.Warn("no message handler set, dropping observation", "topic", topic)
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, handleTimeout)
	defer cancel()
	if err := handler(ctx, obs); err != nil {
		level := slog.LevelError
		if errors.Is(err, types.ErrInvalidObservation) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "observation rejected",
			"topic", topic,
			"station", obs.Station,
			"date", obs.Date,
			"error", err,
		)
		return
	}
	s.logger.Debug("processed observation", "station", obs.Station, "date", obs.Date)
}

func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect is idempotent.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() {
		s.cancel()

		if s.IsConnected() {
			s.client.Unsubscribe(s.cfg.Topic).WaitTimeout(2 * time.Second)
		}
		s.client.Disconnect(250)

		s.setConnected(false)
		s.logger.Info("mqtt subscriber disconnected")
	})
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
