package config

// Normalize fills defaults. It is allowed to mutate configuration and runs
// before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Bridge.Soundbar.Name == "" {
		cfg.Bridge.Soundbar.Name = "YAS207 Yamaha"
	}
	if cfg.Bridge.Soundbar.TTY == "" {
		cfg.Bridge.Soundbar.TTY = "/dev/rfcomm0"
	}
	if cfg.Bridge.Soundbar.PIN == "" {
		cfg.Bridge.Soundbar.PIN = "1234"
	}

	if cfg.Bridge.HTTP.Addr == "" {
		cfg.Bridge.HTTP.Addr = ":8080"
	}

	if cfg.Bridge.MQTT.BaseTopic == "" {
		cfg.Bridge.MQTT.BaseTopic = "yasbridge"
	}
	if cfg.Bridge.MQTT.ClientID == "" {
		cfg.Bridge.MQTT.ClientID = "yasbridge"
	}

	if cfg.Bridge.Poll.IntervalMs <= 0 {
		cfg.Bridge.Poll.IntervalMs = 2000
	}
	if cfg.Bridge.Poll.ReconnectDelayMs <= 0 {
		cfg.Bridge.Poll.ReconnectDelayMs = 10000
	}
	if cfg.Bridge.Poll.StatusTimeoutMs <= 0 {
		cfg.Bridge.Poll.StatusTimeoutMs = 3000
	}
}
