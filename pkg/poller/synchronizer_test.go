package poller

import (
	"context"
	"testing"
	"time"

	"github.com/hwalsh/yasbridge/pkg/bus"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

type fakeLink struct {
	connected bool
	statuses  []yas.Status // consumed by successive RequestStatus calls
	commands  []string
}

func (l *fakeLink) Connected() bool { return l.connected }

func (l *fakeLink) RequestStatus(context.Context) yas.Status {
	if len(l.statuses) == 0 {
		return yas.InvalidStatus()
	}
	st := l.statuses[0]
	if len(l.statuses) > 1 {
		l.statuses = l.statuses[1:]
	}
	return st
}

func (l *fakeLink) SendCommand(_ context.Context, name string) error {
	l.commands = append(l.commands, name)
	return nil
}

func validStatus(volume, subwoofer int) yas.Status {
	return yas.Status{
		Power:     true,
		Input:     yas.InputHDMI,
		Volume:    volume,
		Subwoofer: subwoofer,
		Surround:  yas.SurroundStereo,
		Valid:     true,
	}
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time        { return c.now }
func (c *testClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

func newTestSync(link *fakeLink) (*Synchronizer, *bus.Bus, *testClock) {
	b := bus.New()
	clk := &testClock{now: time.Unix(1000, 0)}
	s := New(Config{}, link, b, WithClock(clk.Now, clk.Sleep))
	return s, b, clk
}

func countCommands(cmds []string, name string) int {
	n := 0
	for _, c := range cmds {
		if c == name {
			n++
		}
	}
	return n
}

func TestTick_NotConnectedDoesNothing(t *testing.T) {
	link := &fakeLink{connected: false, statuses: []yas.Status{validStatus(10, 8)}}
	s, b, _ := newTestSync(link)
	events, unsub := b.Subscribe()
	defer unsub()

	s.Tick(context.Background())
	if _, ok := s.Last(); ok {
		t.Error("cache should stay empty while disconnected")
	}
	select {
	case e := <-events:
		t.Errorf("unexpected event %+v", e)
	default:
	}
}

func TestTick_SuppressesDuplicateEvents(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(10, 8)}}
	s, b, clk := newTestSync(link)
	events, unsub := b.Subscribe()
	defer unsub()

	ctx := context.Background()
	clk.now = clk.now.Add(3 * time.Second)
	s.Tick(ctx) // first valid poll emits
	clk.now = clk.now.Add(3 * time.Second)
	s.Tick(ctx) // identical poll must not

	if got := len(events); got != 1 {
		t.Fatalf("events=%d want exactly 1 for two identical polls", got)
	}
}

func TestTick_EmitsOnFieldChange(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(10, 8), validStatus(11, 8)}}
	s, b, clk := newTestSync(link)
	events, unsub := b.Subscribe()
	defer unsub()

	ctx := context.Background()
	clk.now = clk.now.Add(3 * time.Second)
	s.Tick(ctx)
	clk.now = clk.now.Add(3 * time.Second)
	s.Tick(ctx)

	if got := len(events); got != 2 {
		t.Fatalf("events=%d want 2", got)
	}
	last, ok := s.Last()
	if !ok || last.Volume != 11 {
		t.Errorf("cached volume=%d want 11", last.Volume)
	}
}

func TestTick_InvalidPollLeavesCache(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(10, 8), yas.InvalidStatus()}}
	s, _, clk := newTestSync(link)

	ctx := context.Background()
	clk.now = clk.now.Add(3 * time.Second)
	s.Tick(ctx)
	clk.now = clk.now.Add(3 * time.Second)
	s.Tick(ctx)

	last, ok := s.Last()
	if !ok || last.Volume != 10 {
		t.Errorf("cache=%+v want the earlier valid snapshot", last)
	}
}

func TestTick_RespectsPollInterval(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(10, 8)}}
	s, b, clk := newTestSync(link)
	events, unsub := b.Subscribe()
	defer unsub()

	ctx := context.Background()
	clk.now = clk.now.Add(3 * time.Second)
	s.Tick(ctx)
	s.Tick(ctx) // same instant: not due
	clk.now = clk.now.Add(time.Second)
	s.Tick(ctx) // 1s later: still not due

	if got := len(events); got != 1 {
		t.Fatalf("events=%d want 1", got)
	}
}

func TestSetVolume_StepCount(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(10, 8), validStatus(25, 8)}}
	s, _, _ := newTestSync(link)

	final, err := s.SetVolume(context.Background(), 25)
	if err != nil {
		t.Fatalf("SetVolume err=%v", err)
	}
	if got := countCommands(link.commands, "volume_up"); got != 15 {
		t.Errorf("volume_up count=%d want 15", got)
	}
	if final.Volume != 25 {
		t.Errorf("final volume=%d want 25", final.Volume)
	}
}

func TestSetVolume_Down(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(25, 8), validStatus(20, 8)}}
	s, _, _ := newTestSync(link)

	if _, err := s.SetVolume(context.Background(), 20); err != nil {
		t.Fatal(err)
	}
	if got := countCommands(link.commands, "volume_down"); got != 5 {
		t.Errorf("volume_down count=%d want 5", got)
	}
}

func TestSetVolume_CapOnCorruptCurrent(t *testing.T) {
	// A corrupt status byte can report an out-of-range current volume; the
	// burst must still be bounded.
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(200, 8), validStatus(0, 8)}}
	s, _, _ := newTestSync(link)

	if _, err := s.SetVolume(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if got := countCommands(link.commands, "volume_down"); got != 50 {
		t.Errorf("volume_down count=%d want cap of 50", got)
	}
}

func TestSetVolume_RejectsOutOfRangeTarget(t *testing.T) {
	link := &fakeLink{connected: true}
	s, _, _ := newTestSync(link)

	if _, err := s.SetVolume(context.Background(), 51); err == nil {
		t.Error("expected range error for target 51")
	}
	if _, err := s.SetVolume(context.Background(), -1); err == nil {
		t.Error("expected range error for target -1")
	}
	if len(link.commands) != 0 {
		t.Errorf("commands issued despite rejection: %v", link.commands)
	}
}

func TestSetVolume_NoOpWhenAtTarget(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(30, 8)}}
	s, b, _ := newTestSync(link)
	events, unsub := b.Subscribe()
	defer unsub()

	if _, err := s.SetVolume(context.Background(), 30); err != nil {
		t.Fatal(err)
	}
	if len(link.commands) != 0 {
		t.Errorf("commands=%v want none", link.commands)
	}
	select {
	case e := <-events:
		t.Errorf("unexpected event %+v", e)
	default:
	}
}

func TestSetSubwoofer_DividesByFour(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(10, 8), validStatus(10, 20)}}
	s, _, _ := newTestSync(link)

	if _, err := s.SetSubwoofer(context.Background(), 20); err != nil {
		t.Fatal(err)
	}
	if got := countCommands(link.commands, "subwoofer_up"); got != 3 {
		t.Errorf("subwoofer_up count=%d want 3 for 8->20", got)
	}
}

func TestSetSubwoofer_Down(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(10, 20), validStatus(10, 8)}}
	s, _, _ := newTestSync(link)

	if _, err := s.SetSubwoofer(context.Background(), 8); err != nil {
		t.Fatal(err)
	}
	if got := countCommands(link.commands, "subwoofer_down"); got != 3 {
		t.Errorf("subwoofer_down count=%d want 3 for 20->8", got)
	}
}

func TestSetSubwoofer_RoundsStepCountDown(t *testing.T) {
	// 8 -> 18 is a raw difference of 10; integer division by 4 gives 2.
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(10, 8), validStatus(10, 16)}}
	s, _, _ := newTestSync(link)

	if _, err := s.SetSubwoofer(context.Background(), 18); err != nil {
		t.Fatal(err)
	}
	if got := countCommands(link.commands, "subwoofer_up"); got != 2 {
		t.Errorf("subwoofer_up count=%d want 2", got)
	}
}

func TestStep_EmitsFinalEvent(t *testing.T) {
	link := &fakeLink{connected: true, statuses: []yas.Status{validStatus(10, 8), validStatus(12, 8)}}
	s, b, _ := newTestSync(link)
	events, unsub := b.Subscribe()
	defer unsub()

	if _, err := s.SetVolume(context.Background(), 12); err != nil {
		t.Fatal(err)
	}
	select {
	case e := <-events:
		if e.Type != bus.TypeStatus {
			t.Errorf("event type=%q want status", e.Type)
		}
	default:
		t.Error("expected a final change event")
	}
}
