package panel

import (
	"errors"
	"testing"
	"time"

	"github.com/chaz8081/ampremote/internal/remote"
)

func TestDefaults(t *testing.T) {
	p := New()
	snap := p.Snapshot()

	want := map[string]int{"volume": 50, "channel": 1, "treble": 0, "bass": 0}
	for name, v := range want {
		if snap.Values[name] != v {
			t.Errorf("Values[%s] = %d, want %d", name, snap.Values[name], v)
		}
	}
	if snap.ControlsEnabled {
		t.Error("controls should start disabled")
	}
	if snap.ConnectLabel != "Connect" || !snap.ConnectEnabled {
		t.Errorf("connect button = %q/%v", snap.ConnectLabel, snap.ConnectEnabled)
	}
	if snap.MuteLabel != "Mute" {
		t.Errorf("MuteLabel = %q, want Mute", snap.MuteLabel)
	}
}

func TestInputValidatesRange(t *testing.T) {
	p := New()
	p.SetControlsEnabled(true)

	tests := []struct {
		ch      remote.ChannelID
		v       remote.Value
		wantErr bool
	}{
		{remote.Volume, 0, false},
		{remote.Volume, 100, false},
		{remote.Volume, 101, true},
		{remote.Bass, -10, false},
		{remote.Treble, 11, true},
		{remote.Channel, 0, true},
		{remote.Channel, 4, false},
	}
	for _, tt := range tests {
		err := p.Input(tt.ch, tt.v)
		if (err != nil) != tt.wantErr {
			t.Errorf("Input(%v, %d) error = %v, wantErr %v", tt.ch, tt.v, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Input(%v, %d) error = %v, want ErrOutOfRange", tt.ch, tt.v, err)
		}
	}
	if p.Value(remote.Volume) != 100 {
		t.Errorf("Value(volume) = %d, want 100", p.Value(remote.Volume))
	}
}

func TestInputRejectedWhileDisabled(t *testing.T) {
	p := New()
	if err := p.Input(remote.Volume, 20); !errors.Is(err, ErrControlsDisabled) {
		t.Errorf("Input() error = %v, want ErrControlsDisabled", err)
	}
	if p.Value(remote.Volume) != 50 {
		t.Error("disabled input changed the value")
	}
}

func TestStatusAndMuteLabel(t *testing.T) {
	p := New()
	p.SetStatus("Connected to AMP-1")
	p.RenderMute(true)

	snap := p.Snapshot()
	if snap.Status != "Status: Connected to AMP-1" {
		t.Errorf("Status = %q", snap.Status)
	}
	if !snap.Muted || snap.MuteLabel != "Unmute" {
		t.Errorf("mute = %v/%q, want true/Unmute", snap.Muted, snap.MuteLabel)
	}
}

func TestAckGlowExpires(t *testing.T) {
	p := New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.ShowAck(remote.Bass)
	if !p.Snapshot().Acked["bass"] {
		t.Fatal("bass not acked right after ShowAck")
	}

	now = now.Add(AckGlow / 2)
	p.ShowAck(remote.Bass)
	now = now.Add(AckGlow - time.Millisecond)
	if !p.Snapshot().Acked["bass"] {
		t.Error("repeat ack should restart the glow")
	}

	now = now.Add(2 * time.Millisecond)
	if p.Snapshot().Acked["bass"] {
		t.Error("glow should have expired")
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	p := New()
	id, events := p.Subscribe(8)

	p.RenderValue(remote.Treble, 6)
	p.ShowAck(remote.Treble)

	ev := <-events
	if ev.Type != EventState {
		t.Fatalf("first event = %q, want state", ev.Type)
	}
	if snap := ev.Data.(Snapshot); snap.Values["treble"] != 6 {
		t.Errorf("snapshot treble = %d, want 6", snap.Values["treble"])
	}
	ev = <-events
	if ev.Type != EventAck || ev.Data.(AckData).Channel != "treble" {
		t.Errorf("second event = %+v, want treble ack", ev)
	}

	p.Unsubscribe(id)
	if _, ok := <-events; ok {
		t.Error("channel not closed after Unsubscribe")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	p := New()
	_, events := p.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			p.RenderValue(remote.Volume, remote.Value(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishing blocked on a full subscriber")
	}
	if len(events) != 1 {
		t.Errorf("buffered events = %d, want 1", len(events))
	}
}
