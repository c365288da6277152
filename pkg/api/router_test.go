package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hwalsh/yasbridge/pkg/bluetooth"
	"github.com/hwalsh/yasbridge/pkg/bus"
	"github.com/hwalsh/yasbridge/pkg/schema"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

type fakeLink struct {
	connected bool
	status    yas.Status
	commands  []string
	resets    int
	forced    int
}

func (l *fakeLink) Connected() bool { return l.connected }
func (l *fakeLink) Paired() bool    { return true }
func (l *fakeLink) State() (bluetooth.State, string) {
	if l.connected {
		return bluetooth.StateConnected, ""
	}
	return bluetooth.StateDisconnected, ""
}
func (l *fakeLink) Stats() bluetooth.Stats { return bluetooth.Stats{} }
func (l *fakeLink) SendCommand(_ context.Context, name string) error {
	if !l.connected {
		return bluetooth.ErrNotConnected
	}
	l.commands = append(l.commands, name)
	return nil
}
func (l *fakeLink) RequestStatus(context.Context) yas.Status { return l.status }
func (l *fakeLink) ResetPairing(context.Context) error {
	l.resets++
	return nil
}
func (l *fakeLink) ForceReconnect() { l.forced++ }

type fakeStepper struct {
	last    yas.Status
	have    bool
	volumes []int
	subs    []int
}

func (s *fakeStepper) Last() (yas.Status, bool) { return s.last, s.have }
func (s *fakeStepper) SetVolume(_ context.Context, target int) (yas.Status, error) {
	s.volumes = append(s.volumes, target)
	return s.last, nil
}
func (s *fakeStepper) SetSubwoofer(_ context.Context, target int) (yas.Status, error) {
	s.subs = append(s.subs, target)
	return s.last, nil
}

func connectedStatus() yas.Status {
	return yas.Status{Power: true, Input: yas.InputHDMI, Volume: 20, Surround: yas.SurroundStereo, Valid: true}
}

func newTestRouter(link *fakeLink, stepper *fakeStepper, apiKey string) *Router {
	return NewRouter(link, stepper, bus.New(), schema.NewStateValidator(), nil, apiKey)
}

func doRequest(r *Router, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func TestStatus_ServesCachedSnapshot(t *testing.T) {
	link := &fakeLink{connected: true}
	stepper := &fakeStepper{last: connectedStatus(), have: true}
	r := newTestRouter(link, stepper, "")

	w := doRequest(r, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", w.Code)
	}
	var resp struct {
		Status yas.Status `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status.Volume != 20 {
		t.Errorf("volume=%d want 20", resp.Status.Volume)
	}
}

func TestStatus_NotConnectedIs503(t *testing.T) {
	r := newTestRouter(&fakeLink{}, &fakeStepper{}, "")

	w := doRequest(r, http.MethodGet, "/status", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status=%d want 503", w.Code)
	}
}

func TestSendCommand_UnknownIs400(t *testing.T) {
	link := &fakeLink{connected: true}
	r := newTestRouter(link, &fakeStepper{}, "")

	w := doRequest(r, http.MethodGet, "/send_command?cmd=warp_drive", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status=%d want 400", w.Code)
	}
	if len(link.commands) != 0 {
		t.Errorf("commands=%v want none", link.commands)
	}
}

func TestSendCommand_Valid(t *testing.T) {
	link := &fakeLink{connected: true}
	r := newTestRouter(link, &fakeStepper{}, "")

	w := doRequest(r, http.MethodGet, "/send_command?cmd=power_on", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want 200, body=%s", w.Code, w.Body.String())
	}
	if len(link.commands) != 1 || link.commands[0] != "power_on" {
		t.Errorf("commands=%v want [power_on]", link.commands)
	}
}

func TestSendCommand_NotConnectedIs503(t *testing.T) {
	r := newTestRouter(&fakeLink{}, &fakeStepper{}, "")

	w := doRequest(r, http.MethodGet, "/send_command?cmd=power_on", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status=%d want 503", w.Code)
	}
}

func TestSetState_AppliesFields(t *testing.T) {
	link := &fakeLink{connected: true, status: connectedStatus()}
	stepper := &fakeStepper{last: connectedStatus()}
	r := newTestRouter(link, stepper, "")

	w := doRequest(r, http.MethodPost, "/state", `{"power":"ON","volume":30,"input":"tv"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want 200, body=%s", w.Code, w.Body.String())
	}
	if len(stepper.volumes) != 1 || stepper.volumes[0] != 30 {
		t.Errorf("volumes=%v want [30]", stepper.volumes)
	}
	found := map[string]bool{}
	for _, cmd := range link.commands {
		found[cmd] = true
	}
	if !found["power_on"] || !found["set_input_tv"] {
		t.Errorf("commands=%v want power_on and set_input_tv", link.commands)
	}
}

func TestSetState_RejectsUnknownField(t *testing.T) {
	link := &fakeLink{connected: true}
	r := newTestRouter(link, &fakeStepper{}, "")

	w := doRequest(r, http.MethodPost, "/state", `{"treble":3}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status=%d want 400", w.Code)
	}
}

func TestAPIKey_Enforced(t *testing.T) {
	link := &fakeLink{connected: true}
	stepper := &fakeStepper{last: connectedStatus(), have: true}
	r := newTestRouter(link, stepper, "secret")

	if w := doRequest(r, http.MethodGet, "/status", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no key: status=%d want 401", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/status?api_key=secret", ""); w.Code != http.StatusOK {
		t.Errorf("query key: status=%d want 200", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("bearer key: status=%d want 200", w.Code)
	}

	// Health stays open for probes.
	if w := doRequest(r, http.MethodGet, "/health", ""); w.Code == http.StatusUnauthorized {
		t.Error("health should not require a key")
	}
}

func TestResetPairingAndReconnect(t *testing.T) {
	link := &fakeLink{connected: true}
	r := newTestRouter(link, &fakeStepper{}, "")

	if w := doRequest(r, http.MethodGet, "/reset_pairing", ""); w.Code != http.StatusOK {
		t.Errorf("reset_pairing status=%d", w.Code)
	}
	if link.resets != 1 {
		t.Errorf("resets=%d want 1", link.resets)
	}
	if w := doRequest(r, http.MethodGet, "/reconnect", ""); w.Code != http.StatusOK {
		t.Errorf("reconnect status=%d", w.Code)
	}
	if link.forced != 1 {
		t.Errorf("forced=%d want 1", link.forced)
	}
}

func TestDebug_ReportsLinkState(t *testing.T) {
	link := &fakeLink{connected: true}
	r := newTestRouter(link, &fakeStepper{}, "")

	w := doRequest(r, http.MethodGet, "/debug", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["link_state"] != "connected" {
		t.Errorf("link_state=%v want connected", resp["link_state"])
	}
}
