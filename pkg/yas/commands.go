package yas

import "sort"

// Command payloads in hex, without framing. These are the IR-derived codes the
// soundbar accepts over its SPP link; they are vendor constants, not derived.
var commands = map[string]string{
	// Power management
	"power_toggle": "4078cc",
	"power_on":     "40787e",
	"power_off":    "40787f",

	// Input management
	"set_input_hdmi":      "40784a",
	"set_input_analog":    "4078d1",
	"set_input_bluetooth": "407829",
	"set_input_tv":        "4078df",

	// Surround management
	"set_surround_3d":     "4078c9",
	"set_surround_tv":     "407ef1",
	"set_surround_stereo": "407850",
	"set_surround_movie":  "4078d9",
	"set_surround_music":  "4078da",
	"set_surround_sports": "4078db",
	"set_surround_game":   "4078dc",
	"surround_toggle":     "4078b4",
	"clearvoice_toggle":   "40785c",
	"clearvoice_on":       "407e80",
	"clearvoice_off":      "407e82",
	"bass_ext_toggle":     "40788b",
	"bass_ext_on":         "40786e",
	"bass_ext_off":        "40786f",

	// Volume management
	"subwoofer_up":   "40784c",
	"subwoofer_down": "40784d",
	"mute_toggle":    "40789c",
	"mute_on":        "407ea2",
	"mute_off":       "407ea3",
	"volume_up":      "40781e",
	"volume_down":    "40781f",

	// Extra
	"bluetooth_standby_toggle": "407834",
	"dimmer":                   "4078ba",

	// Status report
	"report_status": "0305",
}

// IsValidCommand reports whether name is a known command.
func IsValidCommand(name string) bool {
	_, ok := commands[name]
	return ok
}

// CommandNames returns all known command names, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
