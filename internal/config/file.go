package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config as raw strings so the same parsing and validation
// applies to values from the file and from the environment.
type fileConfig struct {
	AppEnv   string      `yaml:"app_env"`
	LogLevel string      `yaml:"log_level"`
	HTTPAddr string      `yaml:"http_addr"`
	DB       fileDB      `yaml:"db"`
	Climate  fileClimate `yaml:"climate"`
	MQTT     fileMQTT    `yaml:"mqtt"`
	AMQP     fileAMQP    `yaml:"amqp"`
}

type fileDB struct {
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	SQLitePath      string `yaml:"sqlite_path"`
	MaxOpenConns    string `yaml:"max_open_conns"`
	MaxIdleConns    string `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	Migrate         string `yaml:"migrate"`
}

type fileClimate struct {
	StationPattern string `yaml:"station_pattern"`
	WindowEnd      string `yaml:"window_end"`
	WindowDays     string `yaml:"window_days"`
}

type fileMQTT struct {
	Broker   string `yaml:"broker"`
	Port     string `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

type fileAMQP struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// loadFile returns an empty fileConfig when path is empty.
func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, fmt.Errorf("CONFIG_FILE %q not found", path)
		}
		return fc, fmt.Errorf("read CONFIG_FILE %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse CONFIG_FILE %q: %w", path, err)
	}
	return fc, nil
}
