package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	manufacturer = "Yamaha"
	deviceModel  = "YAS soundbar"
)

// Version is stamped at build time.
var Version = "dev"

// deviceInfo is the shared device block for all discovery configs.
func (b *Bridge) deviceInfo() map[string]any {
	return map[string]any{
		"identifiers":  []string{b.opts.ClientID},
		"name":         "YAS Soundbar",
		"manufacturer": manufacturer,
		"model":        deviceModel,
		"sw_version":   Version,
	}
}

// discoveryBase carries the fields every entity config shares.
func (b *Bridge) discoveryBase(name, objectID string) map[string]any {
	return map[string]any{
		"name":               name,
		"unique_id":          fmt.Sprintf("%s_%s", b.opts.ClientID, objectID),
		"availability_topic": b.availabilityTopic(),
		"device":             b.deviceInfo(),
	}
}

// publishDiscovery announces every entity to Home Assistant. Configs are
// retained so entities survive a Home Assistant restart.
func (b *Bridge) publishDiscovery() {
	state := b.stateTopic()
	command := b.topic("command")

	type entity struct {
		component string
		objectID  string
		payload   map[string]any
	}

	onOffSwitch := func(name, objectID, field, onCmd, offCmd string) entity {
		p := b.discoveryBase(name, objectID)
		p["state_topic"] = state
		p["value_template"] = fmt.Sprintf("{{ 'ON' if value_json.%s else 'OFF' }}", field)
		p["command_topic"] = command
		p["payload_on"] = onCmd
		p["payload_off"] = offCmd
		return entity{"switch", objectID, p}
	}

	entities := []entity{
		onOffSwitch("Power", "power", "power", "power_on", "power_off"),
		onOffSwitch("Mute", "mute", "muted", "mute_on", "mute_off"),
		onOffSwitch("Clear Voice", "clear_voice", "clear_voice", "clearvoice_on", "clearvoice_off"),
		onOffSwitch("Bass Extension", "bass_ext", "bass_ext", "bass_ext_on", "bass_ext_off"),
	}

	volume := b.discoveryBase("Volume", "volume")
	volume["state_topic"] = state
	volume["value_template"] = "{{ value_json.volume }}"
	volume["command_topic"] = b.topic("set_volume")
	volume["min"] = 0
	volume["max"] = 50
	volume["step"] = 1
	entities = append(entities, entity{"number", "volume", volume})

	subwoofer := b.discoveryBase("Subwoofer", "subwoofer")
	subwoofer["state_topic"] = state
	subwoofer["value_template"] = "{{ value_json.subwoofer }}"
	subwoofer["command_topic"] = b.topic("set_subwoofer")
	subwoofer["min"] = 0
	subwoofer["max"] = 32
	subwoofer["step"] = 4
	entities = append(entities, entity{"number", "subwoofer", subwoofer})

	input := b.discoveryBase("Input", "input")
	input["state_topic"] = state
	input["value_template"] = "{{ value_json.input }}"
	input["command_topic"] = command
	input["command_template"] = "set_input_{{ value }}"
	input["options"] = []string{"hdmi", "analog", "bluetooth", "tv"}
	entities = append(entities, entity{"select", "input", input})

	surround := b.discoveryBase("Surround", "surround")
	surround["state_topic"] = state
	surround["value_template"] = "{{ value_json.surround }}"
	surround["command_topic"] = command
	surround["command_template"] = "set_surround_{{ value }}"
	surround["options"] = []string{"3d", "tv", "stereo", "movie", "music", "sports", "game"}
	entities = append(entities, entity{"select", "surround", surround})

	btStatus := b.discoveryBase("Bluetooth Status", "bt_status")
	btStatus["state_topic"] = b.btStatusTopic()
	btStatus["entity_category"] = "diagnostic"
	entities = append(entities, entity{"sensor", "bt_status", btStatus})

	for _, e := range entities {
		configTopic := fmt.Sprintf("homeassistant/%s/%s/%s/config", e.component, b.opts.ClientID, e.objectID)
		payload, err := json.Marshal(e.payload)
		if err != nil {
			log.Error().Err(err).Str("entity", e.objectID).Msg("marshal discovery payload")
			continue
		}
		b.publish(configTopic, true, payload)
	}
}
