package yas

// Input identifies the active input source.
type Input string

const (
	InputHDMI      Input = "hdmi"
	InputAnalog    Input = "analog"
	InputBluetooth Input = "bluetooth"
	InputTV        Input = "tv"
	InputUnknown   Input = "unknown"
)

// Surround identifies the active surround program.
type Surround string

const (
	Surround3D      Surround = "3d"
	SurroundTV      Surround = "tv"
	SurroundStereo  Surround = "stereo"
	SurroundMovie   Surround = "movie"
	SurroundMusic   Surround = "music"
	SurroundSports  Surround = "sports"
	SurroundGame    Surround = "game"
	SurroundUnknown Surround = "unknown"
)

var inputCodes = map[byte]Input{
	0x00: InputHDMI,
	0x0C: InputAnalog,
	0x05: InputBluetooth,
	0x07: InputTV,
}

var surroundCodes = map[uint16]Surround{
	0x000D: Surround3D,
	0x000A: SurroundTV,
	0x0100: SurroundStereo,
	0x0003: SurroundMovie,
	0x0008: SurroundMusic,
	0x0009: SurroundSports,
	0x000C: SurroundGame,
}

// Status is a snapshot of the soundbar's state decoded from one status
// report. Valid is false when the response was missing, truncated, or not a
// status frame; callers must not trust the other fields in that case.
type Status struct {
	Power      bool     `json:"power"`
	Input      Input    `json:"input"`
	Muted      bool     `json:"muted"`
	Volume     int      `json:"volume"`
	Subwoofer  int      `json:"subwoofer"`
	Surround   Surround `json:"surround"`
	BassExt    bool     `json:"bass_ext"`
	ClearVoice bool     `json:"clear_voice"`
	Valid      bool     `json:"-"`
}

// InvalidStatus returns the zero-information snapshot used for failed reads.
func InvalidStatus() Status {
	return Status{Input: InputUnknown, Surround: SurroundUnknown}
}

// Status frame layout (byte offsets into the raw response):
//
//	0-1  prefix cc aa
//	2    length (0x0d)
//	3    message type, 0x05 = status report
//	5    power flag
//	6    input source code
//	7    mute flag
//	8    volume (raw 0-255, device range 0-50)
//	9    subwoofer level (device range 0-32, stepped by 4)
//	13-14  surround program code, big-endian
//	15   packed flags: high nibble 0x2 = bass extension, low nibble 0x4 = clear voice
const statusMinLen = 16

const statusReportType = 0x05

// DecodeStatus decodes a raw status response. It is total: framing problems
// yield Valid=false, while unknown input or surround codes decode to the
// "unknown" enum value with the rest of the snapshot intact. A single
// unrecognized field must not discard an otherwise valid report.
func DecodeStatus(raw []byte) Status {
	status := InvalidStatus()

	if len(raw) < statusMinLen {
		return status
	}
	if raw[3] != statusReportType {
		return status
	}

	status.Valid = true
	status.Power = raw[5] == 0x01

	if input, ok := inputCodes[raw[6]]; ok {
		status.Input = input
	}

	status.Muted = raw[7] == 0x01
	status.Volume = int(raw[8])
	status.Subwoofer = int(raw[9])

	surroundCode := uint16(raw[13])<<8 | uint16(raw[14])
	if surround, ok := surroundCodes[surroundCode]; ok {
		status.Surround = surround
	}

	// Vendor-specific packed nibbles; preserved exactly, not derived.
	status.BassExt = raw[15]>>4 == 0x2
	status.ClearVoice = raw[15]&0x0F == 0x4

	return status
}

// Equal reports field-level equality of two snapshots.
func (s Status) Equal(o Status) bool {
	return s.Power == o.Power &&
		s.Input == o.Input &&
		s.Muted == o.Muted &&
		s.Volume == o.Volume &&
		s.Subwoofer == o.Subwoofer &&
		s.Surround == o.Surround &&
		s.BassExt == o.BassExt &&
		s.ClearVoice == o.ClearVoice
}
