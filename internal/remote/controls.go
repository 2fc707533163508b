package remote

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ControlChanged is called after the panel value for ch changed. Volume
// changes go through the mute coupling first. When connected, a debounced
// write is scheduled that reads the panel value at send time.
func (m *Remote) ControlChanged(ch ChannelID) error {
	m.mu.Lock()
	if ch == Volume {
		wasMuted := m.mute.Muted()
		m.mute.SetVolume(m.values.Value(Volume))
		if muted := m.mute.Muted(); muted != wasMuted {
			m.ui.RenderMute(muted)
		}
	}
	connected := m.state == Connected
	m.mu.Unlock()

	if !connected {
		slog.Debug("[REMOTE] panel-only change, not connected", "channel", ch)
		return ErrNotConnected
	}
	if _, ok := m.Resolve(ch); !ok {
		slog.Warn("[REMOTE] change ignored, endpoint missing", "channel", ch)
		return ErrNoEndpoint
	}
	m.sched.RequestWrite(ch, Deferred(func() Value { return m.values.Value(ch) }))
	return nil
}

// ToggleMute flips mute and writes the resulting volume immediately.
func (m *Remote) ToggleMute(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Connected || m.session == nil {
		m.mu.Unlock()
		slog.Warn("[REMOTE] mute toggle ignored: not connected")
		return ErrNotConnected
	}
	if _, ok := m.session.registry.Resolve(Volume); !ok {
		m.setStatusLocked(statusFor(StatusRejected, "Error (Volume control unavailable)"))
		m.mu.Unlock()
		slog.Error("[REMOTE] mute toggle failed: volume endpoint unavailable")
		return ErrNoEndpoint
	}

	v := m.mute.Toggle(m.values.Value(Volume))
	muted := m.mute.Muted()
	m.ui.RenderValue(Volume, v)
	m.ui.RenderMute(muted)
	m.mu.Unlock()

	slog.Info("[REMOTE] mute toggled", "muted", muted, "volume", int(v))
	return m.sched.WriteNow(ctx, Volume, v)
}

// Nudge steps ch by delta within its range and writes the result
// immediately. Stepping volume while muted unmutes, except at zero.
func (m *Remote) Nudge(ctx context.Context, ch ChannelID, delta int) error {
	m.mu.Lock()
	if m.state != Connected {
		m.mu.Unlock()
		slog.Warn("[REMOTE] nudge ignored: not connected", "channel", ch)
		return ErrNotConnected
	}

	next := ch.Clamp(m.values.Value(ch) + Value(delta))
	if ch == Volume {
		wasMuted := m.mute.Muted()
		v, ok := m.mute.Step(next)
		if !ok {
			m.mu.Unlock()
			return nil
		}
		next = v
		if muted := m.mute.Muted(); muted != wasMuted {
			m.ui.RenderMute(muted)
		}
	}
	m.ui.RenderValue(ch, next)
	m.mu.Unlock()

	return m.sched.WriteNow(ctx, ch, next)
}

// ApplyPreset shows the preset's bass and treble on the panel and, when
// connected, writes both at once without debouncing.
func (m *Remote) ApplyPreset(ctx context.Context, name string) error {
	p, ok := LookupPreset(name)
	if !ok {
		slog.Error("[REMOTE] preset not found", "preset", name)
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	slog.Info("[REMOTE] applying preset", "preset", name, "bass", int(p.Bass), "treble", int(p.Treble))
	m.ui.RenderValue(Bass, p.Bass)
	m.ui.RenderValue(Treble, p.Treble)

	if !m.connected() {
		slog.Info("[REMOTE] not connected, preset applied to panel only")
		return nil
	}

	var g errgroup.Group
	g.Go(func() error { return m.sched.WriteNow(ctx, Bass, p.Bass) })
	g.Go(func() error { return m.sched.WriteNow(ctx, Treble, p.Treble) })
	if err := g.Wait(); err != nil {
		if m.connected() {
			m.setStatus(statusFor(StatusWriteFailed, "Error applying preset %s", name))
		}
		return err
	}
	return nil
}
