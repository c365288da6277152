package config

import (
	"fmt"
	"regexp"
	"strings"
)

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// Validate checks configuration correctness. It performs declarative
// validation only and MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	sb := cfg.Bridge.Soundbar
	if sb.Address == "" && sb.Name == "" {
		return fmt.Errorf("soundbar: either address or name must be set")
	}
	if sb.Address != "" && !macPattern.MatchString(sb.Address) {
		return fmt.Errorf("soundbar: address %q is not a valid MAC", sb.Address)
	}

	if b := cfg.Bridge.MQTT.Broker; b != "" {
		if !strings.Contains(b, "://") {
			return fmt.Errorf("mqtt: broker %q must include a scheme (tcp://, ssl://)", b)
		}
	}

	if cfg.Bridge.Poll.IntervalMs < 100 {
		return fmt.Errorf("poll: interval_ms %d below minimum of 100", cfg.Bridge.Poll.IntervalMs)
	}

	return nil
}
