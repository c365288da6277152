// Package config loads the bridge's YAML configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

type BridgeConfig struct {
	Soundbar SoundbarConfig `yaml:"soundbar"`
	HTTP     HTTPConfig     `yaml:"http"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Poll     PollConfig     `yaml:"poll"`
}

// ---- SOUNDBAR LINK ----

type SoundbarConfig struct {
	Address string `yaml:"address"` // Bluetooth MAC
	Name    string `yaml:"name"`    // fallback device name
	TTY     string `yaml:"tty"`     // bound rfcomm device node
	PIN     string `yaml:"pin"`
}

// ---- HTTP API ----

type HTTPConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"` // empty disables auth
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker    string `yaml:"broker"` // empty disables the MQTT layer
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	BaseTopic string `yaml:"base_topic"`
	ClientID  string `yaml:"client_id"`
}

// ---- POLL / TIMING ----

type PollConfig struct {
	IntervalMs       int `yaml:"interval_ms"`
	ReconnectDelayMs int `yaml:"reconnect_delay_ms"`
	StatusTimeoutMs  int `yaml:"status_timeout_ms"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result. An empty path yields a config built
// from defaults and environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables, the standard
// Docker pattern.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BRIDGE_BT_ADDRESS"); v != "" {
		cfg.Bridge.Soundbar.Address = v
	}
	if v := os.Getenv("BRIDGE_BT_NAME"); v != "" {
		cfg.Bridge.Soundbar.Name = v
	}
	if v := os.Getenv("BRIDGE_BT_TTY"); v != "" {
		cfg.Bridge.Soundbar.TTY = v
	}
	if v := os.Getenv("BRIDGE_BT_PIN"); v != "" {
		cfg.Bridge.Soundbar.PIN = v
	}
	if v := os.Getenv("BRIDGE_HTTP_ADDR"); v != "" {
		cfg.Bridge.HTTP.Addr = v
	}
	if v := os.Getenv("BRIDGE_API_KEY"); v != "" {
		cfg.Bridge.HTTP.APIKey = v
	}
	if v := os.Getenv("BRIDGE_MQTT_BROKER"); v != "" {
		cfg.Bridge.MQTT.Broker = v
	}
	if v := os.Getenv("BRIDGE_MQTT_USERNAME"); v != "" {
		cfg.Bridge.MQTT.Username = v
	}
	if v := os.Getenv("BRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.Bridge.MQTT.Password = v
	}
	if v := os.Getenv("BRIDGE_MQTT_BASE_TOPIC"); v != "" {
		cfg.Bridge.MQTT.BaseTopic = v
	}
	if v := os.Getenv("BRIDGE_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Bridge.Poll.IntervalMs = ms
		}
	}
}
