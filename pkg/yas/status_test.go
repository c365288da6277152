package yas

import "testing"

// statusFrame builds a well-formed 16-byte status response.
func statusFrame(power, input, muted, volume, subwoofer byte, surround uint16, flags byte) []byte {
	return []byte{
		0xCC, 0xAA, 0x0D, statusReportType, 0x00,
		power, input, muted, volume, subwoofer,
		0x20, 0x20, 0x00,
		byte(surround >> 8), byte(surround),
		flags,
	}
}

func TestDecodeStatus_Full(t *testing.T) {
	raw := statusFrame(0x01, 0x0C, 0x01, 23, 16, 0x0100, 0x24)

	st := DecodeStatus(raw)
	if !st.Valid {
		t.Fatal("expected valid status")
	}
	if !st.Power {
		t.Error("power should be on")
	}
	if st.Input != InputAnalog {
		t.Errorf("input=%q want analog", st.Input)
	}
	if !st.Muted {
		t.Error("muted should be true")
	}
	if st.Volume != 23 {
		t.Errorf("volume=%d want 23", st.Volume)
	}
	if st.Subwoofer != 16 {
		t.Errorf("subwoofer=%d want 16", st.Subwoofer)
	}
	if st.Surround != SurroundStereo {
		t.Errorf("surround=%q want stereo", st.Surround)
	}
	if !st.BassExt {
		t.Error("bass_ext should be true for high nibble 0x2")
	}
	if !st.ClearVoice {
		t.Error("clear_voice should be true for low nibble 0x4")
	}
}

func TestDecodeStatus_TooShort(t *testing.T) {
	for n := 0; n < statusMinLen; n++ {
		st := DecodeStatus(make([]byte, n))
		if st.Valid {
			t.Fatalf("length %d should decode invalid", n)
		}
	}
}

func TestDecodeStatus_WrongType(t *testing.T) {
	raw := statusFrame(0x01, 0x00, 0x00, 10, 8, 0x000D, 0x00)
	raw[3] = 0x06

	if st := DecodeStatus(raw); st.Valid {
		t.Fatal("non-status type marker should decode invalid")
	}
}

func TestDecodeStatus_UnknownInputIsLenient(t *testing.T) {
	raw := statusFrame(0x01, 0xEE, 0x00, 10, 8, 0x0003, 0x00)

	st := DecodeStatus(raw)
	if !st.Valid {
		t.Fatal("unknown input code must not invalidate the snapshot")
	}
	if st.Input != InputUnknown {
		t.Errorf("input=%q want unknown", st.Input)
	}
	if st.Surround != SurroundMovie {
		t.Errorf("surround=%q want movie", st.Surround)
	}
	if st.Volume != 10 {
		t.Errorf("volume=%d want 10", st.Volume)
	}
}

func TestDecodeStatus_UnknownSurroundIsLenient(t *testing.T) {
	raw := statusFrame(0x00, 0x07, 0x00, 5, 4, 0xBEEF, 0x00)

	st := DecodeStatus(raw)
	if !st.Valid {
		t.Fatal("unknown surround code must not invalidate the snapshot")
	}
	if st.Surround != SurroundUnknown {
		t.Errorf("surround=%q want unknown", st.Surround)
	}
	if st.Input != InputTV {
		t.Errorf("input=%q want tv", st.Input)
	}
}

func TestDecodeStatus_FlagNibbles(t *testing.T) {
	cases := []struct {
		flags      byte
		bassExt    bool
		clearVoice bool
	}{
		{0x24, true, true},
		{0x20, true, false},
		{0x04, false, true},
		{0x00, false, false},
		{0x14, false, true},
	}
	for _, tc := range cases {
		st := DecodeStatus(statusFrame(0x01, 0x00, 0x00, 0, 0, 0x000D, tc.flags))
		if st.BassExt != tc.bassExt || st.ClearVoice != tc.clearVoice {
			t.Errorf("flags %#x: bass=%v voice=%v want %v/%v",
				tc.flags, st.BassExt, st.ClearVoice, tc.bassExt, tc.clearVoice)
		}
	}
}

func TestStatus_Equal(t *testing.T) {
	a := DecodeStatus(statusFrame(0x01, 0x00, 0x00, 20, 8, 0x000D, 0x24))
	b := DecodeStatus(statusFrame(0x01, 0x00, 0x00, 20, 8, 0x000D, 0x24))
	if !a.Equal(b) {
		t.Fatal("identical snapshots should compare equal")
	}

	c := b
	c.Volume = 21
	if a.Equal(c) {
		t.Fatal("differing volume should compare unequal")
	}
}
