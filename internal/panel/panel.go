// Package panel holds the control panel the user sees: control values,
// the status line, connect button and mute label. The remote engine renders
// into it and reads values back from it; front ends subscribe to changes.
package panel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chaz8081/ampremote/internal/remote"
	"github.com/google/uuid"
)

// AckGlow is how long a channel shows as acknowledged after a write.
const AckGlow = 600 * time.Millisecond

var (
	// ErrOutOfRange is returned by Input for a value outside the channel range.
	ErrOutOfRange = errors.New("panel: value out of range")
	// ErrControlsDisabled is returned by Input while controls are disabled.
	ErrControlsDisabled = errors.New("panel: controls disabled")
)

// Event types published to subscribers.
const (
	EventState = "state"
	EventAck   = "ack"
)

// Event is published on every visible change.
type Event struct {
	Type string
	At   time.Time
	Data any // Snapshot for EventState, AckData for EventAck
}

// AckData identifies the acknowledged channel.
type AckData struct {
	Channel string `json:"channel"`
}

// Snapshot is a copy of everything the panel shows.
type Snapshot struct {
	Values          map[string]int  `json:"values"`
	Status          string          `json:"status"`
	ConnectLabel    string          `json:"connect_label"`
	ConnectEnabled  bool            `json:"connect_enabled"`
	ControlsEnabled bool            `json:"controls_enabled"`
	Muted           bool            `json:"muted"`
	MuteLabel       string          `json:"mute_label"`
	Acked           map[string]bool `json:"acked"`
}

// Panel is safe for concurrent use.
type Panel struct {
	mu              sync.Mutex
	values          map[remote.ChannelID]remote.Value
	status          string
	connectLabel    string
	connectEnabled  bool
	controlsEnabled bool
	muted           bool
	ackUntil        map[remote.ChannelID]time.Time
	subs            map[string]chan Event
	now             func() time.Time
}

// New returns a panel with the power-on defaults: volume 50, source 1,
// flat tone.
func New() *Panel {
	return &Panel{
		values: map[remote.ChannelID]remote.Value{
			remote.Volume:  50,
			remote.Channel: 1,
			remote.Treble:  0,
			remote.Bass:    0,
		},
		status:         "Not connected",
		connectLabel:   "Connect",
		connectEnabled: true,
		ackUntil:       make(map[remote.ChannelID]time.Time),
		subs:           make(map[string]chan Event),
		now:            time.Now,
	}
}

// Compile-time checks that Panel serves the remote engine.
var (
	_ remote.Renderer    = (*Panel)(nil)
	_ remote.ValueReader = (*Panel)(nil)
)

// Input records a value entered by the user. Out-of-range values are
// rejected here so the engine can treat values as opaque.
func (p *Panel) Input(ch remote.ChannelID, v remote.Value) error {
	if lo, hi := ch.Range(); v < lo || v > hi {
		return fmt.Errorf("%w: %s value %d outside %d..%d", ErrOutOfRange, ch, v, lo, hi)
	}
	p.mu.Lock()
	if !p.controlsEnabled {
		p.mu.Unlock()
		return ErrControlsDisabled
	}
	p.values[ch] = v
	p.mu.Unlock()
	p.publishState()
	return nil
}

func (p *Panel) Value(ch remote.ChannelID) remote.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[ch]
}

func (p *Panel) RenderValue(ch remote.ChannelID, v remote.Value) {
	p.mu.Lock()
	p.values[ch] = v
	p.mu.Unlock()
	p.publishState()
}

func (p *Panel) SetStatus(text string) {
	p.mu.Lock()
	p.status = "Status: " + text
	p.mu.Unlock()
	p.publishState()
}

func (p *Panel) SetConnectButton(label string, enabled bool) {
	p.mu.Lock()
	p.connectLabel, p.connectEnabled = label, enabled
	p.mu.Unlock()
	p.publishState()
}

func (p *Panel) SetControlsEnabled(enabled bool) {
	p.mu.Lock()
	p.controlsEnabled = enabled
	p.mu.Unlock()
	p.publishState()
}

func (p *Panel) RenderMute(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()
	p.publishState()
}

// ShowAck lights the channel for AckGlow. A repeat ack restarts the glow.
func (p *Panel) ShowAck(ch remote.ChannelID) {
	p.mu.Lock()
	at := p.now()
	p.ackUntil[ch] = at.Add(AckGlow)
	p.mu.Unlock()
	p.publish(Event{Type: EventAck, At: at, Data: AckData{Channel: ch.String()}})
}

// Snapshot returns the current panel contents.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Panel) snapshotLocked() Snapshot {
	now := p.now()
	s := Snapshot{
		Values:          make(map[string]int, len(p.values)),
		Status:          p.status,
		ConnectLabel:    p.connectLabel,
		ConnectEnabled:  p.connectEnabled,
		ControlsEnabled: p.controlsEnabled,
		Muted:           p.muted,
		MuteLabel:       "Mute",
		Acked:           make(map[string]bool),
	}
	if p.muted {
		s.MuteLabel = "Unmute"
	}
	for ch, v := range p.values {
		s.Values[ch.String()] = int(v)
	}
	for ch, until := range p.ackUntil {
		if now.Before(until) {
			s.Acked[ch.String()] = true
		}
	}
	return s
}

// Subscribe registers a listener and returns its id and event channel.
// Events are dropped for a listener whose buffer is full.
func (p *Panel) Subscribe(buf int) (string, <-chan Event) {
	if buf <= 0 {
		buf = 32
	}
	id := uuid.NewString()
	ch := make(chan Event, buf)
	p.mu.Lock()
	p.subs[id] = ch
	p.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (p *Panel) Unsubscribe(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.subs[id]; ok {
		delete(p.subs, id)
		close(ch)
	}
}

func (p *Panel) publishState() {
	p.mu.Lock()
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(Event{Type: EventState, At: p.now(), Data: snap})
}

func (p *Panel) publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
