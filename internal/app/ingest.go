package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/config"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/db"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/migrate"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/service"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/mqtt"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/rabbitmq"
)

var ErrNoTransport = errors.New("no ingestion transport configured (set MQTT_BROKER or AMQP_URL)")

const amqpRetryInterval = 5 * time.Second

// RunIngest stores observations from MQTT and/or AMQP until ctx is cancelled.
func RunIngest(ctx context.Context, cfg config.Config) error {
	if cfg.MQTT.Broker == "" && cfg.AMQP.URL == "" {
		return ErrNoTransport
	}
	slog.Info("ingest config loaded",
		"dbDriver", cfg.DB.Driver,
		"mqttBroker", cfg.MQTT.Broker,
		"mqttPort", cfg.MQTT.Port,
		"mqttTopic", cfg.MQTT.Topic,
		"amqpQueue", cfg.AMQP.Queue,
		"amqpEnabled", cfg.AMQP.URL != "",
	)

	dbConn, err := db.Open(cfg.DB, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if cfg.DB.Migrate {
		if _, err := migrate.Run(ctx, dbConn); err != nil {
			return err
		}
	}

	var (
		sources    []service.ObservationSource
		subscriber *mqtt.Subscriber
		consumer   *rabbitmq.Consumer
	)
	if cfg.MQTT.Broker != "" {
		subscriber = mqtt.NewSubscriber(cfg.MQTT, slog.Default())
		sources = append(sources, subscriber)
	}
	if cfg.AMQP.URL != "" {
		consumer = rabbitmq.NewConsumer(cfg.AMQP, slog.Default())
		sources = append(sources, consumer)
	}
	// Handlers must be set before connecting; the broker may deliver queued
	// messages immediately.
	climate.RegisterIngestion(dbConn, slog.Default(), sources...)

	var wg sync.WaitGroup
	if subscriber != nil {
		defer subscriber.Disconnect()
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := subscriber.Connect(connectCtx)
		cancel()
		if err != nil {
			// paho keeps retrying in the background.
			slog.Warn("mqtt connection failed, retrying in background", "error", err)
		}
	}
	if consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runConsumer(ctx, consumer)
		}()
	}

	<-ctx.Done()
	slog.Info("ingest shutting down")
	wg.Wait()
	return ctx.Err()
}

// runConsumer reconnects after broker failures until ctx is cancelled.
func runConsumer(ctx context.Context, c *rabbitmq.Consumer) {
	for {
		err := c.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("amqp consumer stopped, reconnecting", "error", err, "in", amqpRetryInterval)
		select {
		case <-ctx.Done():
			return
		case <-time.After(amqpRetryInterval):
		}
	}
}
