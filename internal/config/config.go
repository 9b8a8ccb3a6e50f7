package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	DB      DBConfig
	Climate ClimateConfig
	MQTT    MQTTConfig
	AMQP    AMQPConfig
}

type DBConfig struct {
	Driver string
	// DSN is required for postgres and mysql. For sqlite3 it overrides Path.
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

// ClimateConfig selects the reporting station and the fixed report window.
type ClimateConfig struct {
	StationPattern string
	WindowEnd      string
	WindowDays     int
}

type MQTTConfig struct {
	Broker   string
	Port     int
	ClientID string
	Topic    string
}

type AMQPConfig struct {
	URL   string
	Queue string
}

// LoadFromEnv reads configuration from the environment. When CONFIG_FILE names
// a YAML file its values replace the defaults; environment variables win over both.
func LoadFromEnv() (Config, error) {
	file, err := loadFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		return Config{}, err
	}

	appEnv := setting("APP_ENV", file.AppEnv, "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(setting("LOG_LEVEL", file.LogLevel, "info"))
	if err != nil {
		return Config{}, err
	}

	dbCfg, err := loadDB(file.DB)
	if err != nil {
		return Config{}, err
	}

	climateCfg, err := loadClimate(file.Climate)
	if err != nil {
		return Config{}, err
	}

	mqttPortStr := setting("MQTT_PORT", file.MQTT.Port, "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil || mqttPort <= 0 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q", mqttPortStr)
	}

	return Config{
		AppEnv:   appEnv,
		LogLevel: level,
		HTTPAddr: setting("HTTP_ADDR", file.HTTPAddr, ":8080"),
		DB:       dbCfg,
		Climate:  climateCfg,
		MQTT: MQTTConfig{
			Broker:   setting("MQTT_BROKER", file.MQTT.Broker, ""),
			Port:     mqttPort,
			ClientID: setting("MQTT_CLIENT_ID", file.MQTT.ClientID, "hawaii-ingest"),
			Topic:    setting("MQTT_TOPIC", file.MQTT.Topic, "climate/measurements"),
		},
		AMQP: AMQPConfig{
			URL:   setting("AMQP_URL", file.AMQP.URL, ""),
			Queue: setting("AMQP_QUEUE", file.AMQP.Queue, "climate.measurements"),
		},
	}, nil
}

func loadDB(file fileDB) (DBConfig, error) {
	driver := setting("DB_DRIVER", file.Driver, "sqlite3")
	dsn := setting("DB_DSN", file.DSN, "")
	switch driver {
	case "sqlite3":
	case "postgres", "mysql":
		if dsn == "" {
			return DBConfig{}, fmt.Errorf("DB_DSN is required for DB_DRIVER %q", driver)
		}
	default:
		return DBConfig{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, postgres, mysql)", driver)
	}

	maxOpenConnsStr := setting("DB_MAX_OPEN_CONNS", file.MaxOpenConns, "4")
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return DBConfig{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := setting("DB_MAX_IDLE_CONNS", file.MaxIdleConns, "4")
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return DBConfig{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := setting("DB_CONN_MAX_LIFETIME", file.ConnMaxLifetime, "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return DBConfig{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	migrateStr := setting("DB_MIGRATE", file.Migrate, "false")
	migrate, err := strconv.ParseBool(migrateStr)
	if err != nil {
		return DBConfig{}, fmt.Errorf("invalid DB_MIGRATE %q: %w", migrateStr, err)
	}

	return DBConfig{
		Driver:          driver,
		DSN:             dsn,
		Path:            setting("SQLITE_PATH", file.SQLitePath, "hawaii.sqlite"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		Migrate:         migrate,
	}, nil
}

func loadClimate(file fileClimate) (ClimateConfig, error) {
	windowEnd := setting("CLIMATE_WINDOW_END", file.WindowEnd, "2015-09-01")
	if _, err := time.Parse(time.DateOnly, windowEnd); err != nil {
		return ClimateConfig{}, fmt.Errorf("invalid CLIMATE_WINDOW_END %q: %w", windowEnd, err)
	}

	windowDaysStr := setting("CLIMATE_WINDOW_DAYS", file.WindowDays, "365")
	windowDays, err := strconv.Atoi(windowDaysStr)
	if err != nil || windowDays <= 0 {
		return ClimateConfig{}, fmt.Errorf("invalid CLIMATE_WINDOW_DAYS %q (want positive integer)", windowDaysStr)
	}

	return ClimateConfig{
		StationPattern: setting("CLIMATE_STATION_PATTERN", file.StationPattern, "HONOLULU"),
		WindowEnd:      windowEnd,
		WindowDays:     windowDays,
	}, nil
}

// setting returns the trimmed env value, then the file value, then def.
func setting(env, fromFile, def string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	if v := strings.TrimSpace(fromFile); v != "" {
		return v
	}
	return def
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
