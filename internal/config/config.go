package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every externally tunable option.  Values come from an
// optional YAML file, then environment variables (ATTENDD_*) override the
// file, then defaults fill the rest.
type Config struct {
	// Terminal connection
	DeviceAddr       string `yaml:"device_addr"`
	DevicePort       int    `yaml:"device_port"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"`
	SocketInport     int    `yaml:"socket_inport"`
	Driver           string `yaml:"driver"` // "sim" until a hardware driver lands

	// Live ingestion
	ReconnectIntervalMs int `yaml:"reconnect_interval_ms"`

	// Reconciliation
	CheckoutGapMinutes int    `yaml:"checkout_gap_minutes"`
	Timezone           string `yaml:"timezone"` // IANA name or "Local"

	// Storage
	Env    string `yaml:"env"` // "dev" | "prod"
	DBPath string `yaml:"db_path"`

	// HTTP API
	HTTPAddr string `yaml:"http_addr"`

	// MQTT notifier; empty broker disables publishing
	MQTTBroker string `yaml:"mqtt_broker"`
	MQTTTopic  string `yaml:"mqtt_topic"`
}

func defaults() Config {
	return Config{
		DeviceAddr:          "10.0.4.105",
		DevicePort:          4370,
		ConnectTimeoutMs:    10000,
		SocketInport:        4000,
		Driver:              "sim",
		ReconnectIntervalMs: 5000,
		CheckoutGapMinutes:  5,
		Timezone:            "Local",
		Env:                 "dev",
		DBPath:              "./data/attendd.db",
		HTTPAddr:            ":8080",
		MQTTTopic:           "attendd/records",
	}
}

// Load reads path (if non-empty) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DeviceAddr = getenvDefault("ATTENDD_DEVICE_ADDR", cfg.DeviceAddr)
	cfg.DevicePort = getenvInt("ATTENDD_DEVICE_PORT", cfg.DevicePort)
	cfg.ConnectTimeoutMs = getenvInt("ATTENDD_CONNECT_TIMEOUT_MS", cfg.ConnectTimeoutMs)
	cfg.SocketInport = getenvInt("ATTENDD_SOCKET_INPORT", cfg.SocketInport)
	cfg.Driver = getenvDefault("ATTENDD_DRIVER", cfg.Driver)

	cfg.ReconnectIntervalMs = getenvInt("ATTENDD_RECONNECT_INTERVAL_MS", cfg.ReconnectIntervalMs)
	cfg.CheckoutGapMinutes = getenvInt("ATTENDD_CHECKOUT_GAP_MINUTES", cfg.CheckoutGapMinutes)
	cfg.Timezone = getenvDefault("ATTENDD_TIMEZONE", cfg.Timezone)

	cfg.Env = strings.ToLower(getenvDefault("ATTENDD_ENV", cfg.Env))
	cfg.DBPath = getenvDefault("ATTENDD_DB_PATH", cfg.DBPath)

	cfg.HTTPAddr = getenvDefault("ATTENDD_HTTP_ADDR", cfg.HTTPAddr)

	cfg.MQTTBroker = getenvDefault("ATTENDD_MQTT_BROKER", cfg.MQTTBroker)
	cfg.MQTTTopic = getenvDefault("ATTENDD_MQTT_TOPIC", cfg.MQTTTopic)
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
