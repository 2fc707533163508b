package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chaz8081/ampremote/internal/ble"
)

// Options configures a Remote.
type Options struct {
	Request   ble.RequestOptions
	Scheduler SchedulerOptions
	MinStep   Value // volume restored on unmute when none is known
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Request:   ble.DefaultRequestOptions(),
		Scheduler: SchedulerOptions{Debounce: DefaultDebounce},
		MinStep:   DefaultMinStep,
	}
}

// Session is the one active link: the selected device, its connection, the
// endpoint registry built for it, and the lost-link subscription.
type Session struct {
	Device      ble.Device
	conn        ble.Connection
	registry    *Registry
	unsubscribe func()
}

// owns reports whether ep is this session's endpoint for ch.
func (s *Session) owns(ch ChannelID, ep ble.Characteristic) bool {
	cur, ok := s.registry.Resolve(ch)
	return ok && ep != nil && cur == ep
}

// Remote owns the amplifier link. It is the only component that creates or
// clears the Session; the scheduler and sync see it read-only via Resolve.
type Remote struct {
	adapter ble.Adapter
	ui      Renderer
	values  ValueReader
	opts    Options
	sched   *Scheduler

	mu      sync.Mutex
	state   LinkState
	session *Session
	attempt *Session // in-flight Connect; cleared by any reset
	status  Status
	mute    *Mute
}

// New creates a disconnected Remote and renders its initial state.
func New(adapter ble.Adapter, ui Renderer, values ValueReader, opts Options) *Remote {
	m := &Remote{
		adapter: adapter,
		ui:      ui,
		values:  values,
		opts:    opts,
		mute:    NewMute(values.Value(Volume), opts.MinStep),
	}
	m.sched = NewScheduler(m, SchedulerHooks{
		Ack:    ui.ShowAck,
		Failed: m.writeFailed,
	}, opts.Scheduler)

	m.mu.Lock()
	m.renderDisconnectedLocked()
	m.mu.Unlock()
	return m
}

// State returns the current link state.
func (m *Remote) State() LinkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns the most recent status.
func (m *Remote) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Muted reports the mute flag.
func (m *Remote) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mute.Muted()
}

// Device returns the connected device, if any.
func (m *Remote) Device() (ble.Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ble.Device{}, false
	}
	return m.session.Device, true
}

// Scheduler exposes the write scheduler.
func (m *Remote) Scheduler() *Scheduler {
	return m.sched
}

// Resolve returns the endpoint for ch on the active link.
func (m *Remote) Resolve(ch ChannelID) (ble.Characteristic, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connected || m.session == nil {
		return nil, false
	}
	return m.session.registry.Resolve(ch)
}

// Connect selects a device, links to it, discovers all four endpoints and
// pushes the panel values to it. Any discovery failure abandons the attempt
// entirely and leaves the Remote disconnected with no endpoints.
func (m *Remote) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Disconnected {
		state := m.state
		m.setStatusLocked(statusFor(StatusRejected, "Error (Connection already %s)", state))
		m.mu.Unlock()
		slog.Warn("[REMOTE] connect rejected", "state", state)
		return ErrBusy
	}
	sess := &Session{}
	m.attempt = sess
	m.state = Connecting
	m.setStatusLocked(statusFor(StatusConnecting, "Connecting..."))
	m.ui.SetConnectButton("Connecting...", false)
	m.ui.SetControlsEnabled(false)
	m.mu.Unlock()

	slog.Info("[REMOTE] requesting device")
	dev, err := ble.RequestDevice(ctx, m.adapter, m.opts.Request)
	if err != nil {
		return m.connectFailed(sess, err)
	}
	sess.Device = dev

	slog.Info("[REMOTE] connecting", "name", dev.Name, "address", dev.Address)
	conn, err := m.adapter.Connect(ctx, dev.Address)
	if err != nil {
		return m.connectFailed(sess, err)
	}

	sess.conn = conn
	sess.unsubscribe = conn.OnDisconnect(func() { m.linkLost(sess) })

	svc, err := conn.DiscoverService(ctx, ble.ServiceUUID)
	if err != nil {
		return m.connectFailed(sess, fmt.Errorf("remote: discover service: %w", err))
	}

	reg, err := Populate(ctx, svc)
	if err != nil {
		return m.connectFailed(sess, err)
	}

	m.mu.Lock()
	if m.attempt != sess || m.state != Connecting || !conn.Connected() {
		m.mu.Unlock()
		return m.connectFailed(sess, ble.ErrLinkLost)
	}
	sess.registry = reg
	m.attempt = nil
	m.session = sess
	m.state = Connected
	name := dev.Name
	if name == "" {
		name = "device"
	}
	m.setStatusLocked(statusFor(StatusConnected, "Connected to %s", name))
	m.ui.SetConnectButton("Disconnect", true)
	m.ui.SetControlsEnabled(true)
	m.mu.Unlock()

	slog.Info("[REMOTE] connected", "name", dev.Name, "address", dev.Address)

	if err := m.SyncAll(ctx); err != nil {
		slog.Warn("[REMOTE] initial sync incomplete", "error", err)
	}
	return nil
}

// connectFailed unwinds a partial connect and reports err. An attempt that
// was superseded by a reset only releases its own link; the Remote may
// already belong to a newer attempt.
func (m *Remote) connectFailed(sess *Session, err error) error {
	if sess.unsubscribe != nil {
		sess.unsubscribe()
	}
	if sess.conn != nil && sess.conn.Connected() {
		if derr := sess.conn.Disconnect(); derr != nil {
			slog.Warn("[REMOTE] cleanup disconnect failed", "error", derr)
		}
	}

	m.mu.Lock()
	if m.attempt != sess {
		m.mu.Unlock()
		slog.Info("[REMOTE] superseded connect attempt abandoned", "error", err)
		return err
	}
	m.attempt = nil

	st := classifyConnectError(err)
	slog.Error("[REMOTE] connection failed", "kind", st.Kind, "error", err)

	m.state = Disconnected
	m.session = nil
	m.setStatusLocked(st)
	m.ui.SetConnectButton("Connect", true)
	m.ui.SetControlsEnabled(false)
	m.mu.Unlock()
	return err
}

func classifyConnectError(err error) Status {
	var derr *DiscoveryError
	switch {
	case errors.Is(err, ble.ErrCancelled):
		return statusFor(StatusCancelled, "Connection failed (User cancelled)")
	case errors.As(err, &derr):
		return channelStatus(StatusDiscoveryFailed, derr.Channel, "Connection failed (Missing characteristic: %s)", derr.Channel)
	default:
		return statusFor(StatusTransportError, "Connection failed (%v)", err)
	}
}

// Disconnect asks the transport to drop the link. The Remote reaches
// Disconnected only when the lost-link callback fires. Called without a
// live link it just resets to Disconnected.
func (m *Remote) Disconnect() {
	m.mu.Lock()
	sess := m.session
	if m.state != Connected || sess == nil || !sess.conn.Connected() {
		m.mu.Unlock()
		slog.Info("[REMOTE] disconnect called but not connected")
		m.HandleDisconnected()
		return
	}
	m.state = Disconnecting
	m.setStatusLocked(statusFor(StatusDisconnecting, "Disconnecting..."))
	m.ui.SetConnectButton("Disconnecting...", false)
	m.mu.Unlock()

	slog.Info("[REMOTE] disconnecting")
	if err := sess.conn.Disconnect(); err != nil {
		slog.Error("[REMOTE] disconnect failed", "error", err)
		m.HandleDisconnected()
		m.setStatus(statusFor(StatusTransportError, "Disconnect failed (%v)", err))
	}
}

// HandleDisconnected tears down all link state: subscription, connection,
// registry, pending writes and the mute flag. Safe to call at any time.
func (m *Remote) HandleDisconnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// linkLost is the lost-link callback for sess. Callbacks from a link that is
// no longer the active one are ignored.
func (m *Remote) linkLost(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != sess {
		slog.Debug("[REMOTE] stale disconnect ignored", "address", sess.Device.Address)
		return
	}
	slog.Warn("[REMOTE] device disconnected", "address", sess.Device.Address)
	m.resetLocked()
}

// resetLocked returns to Disconnected (caller must hold mu).
func (m *Remote) resetLocked() {
	m.attempt = nil
	if m.session != nil {
		m.session.unsubscribe()
		m.session = nil
	}
	m.sched.CancelAll()
	m.mute.Reset()
	m.renderDisconnectedLocked()
}

func (m *Remote) renderDisconnectedLocked() {
	m.state = Disconnected
	m.setStatusLocked(statusFor(StatusIdle, "Not connected"))
	m.ui.SetConnectButton("Connect", true)
	m.ui.SetControlsEnabled(false)
	m.ui.RenderMute(false)
}

// writeFailed reacts to a failed write. Link loss tears everything down;
// anything else only marks the channel. Failures of writes sent over an
// earlier link are ignored.
func (m *Remote) writeFailed(werr *WriteError) {
	m.mu.Lock()
	sess := m.session
	if sess == nil || !sess.owns(werr.Channel, werr.Endpoint) {
		m.mu.Unlock()
		slog.Debug("[REMOTE] stale write failure ignored", "channel", werr.Channel, "error", werr.Err)
		return
	}
	if !LinkLost(werr) {
		m.setStatusLocked(channelStatus(StatusWriteFailed, werr.Channel, "Error sending %s", werr.Channel))
		m.mu.Unlock()
		return
	}

	slog.Warn("[REMOTE] link lost during write", "channel", werr.Channel)
	m.resetLocked()
	m.setStatusLocked(channelStatus(StatusTransportError, werr.Channel, "Link lost while sending %s", werr.Channel))
	m.mu.Unlock()

	// The transport may not have noticed yet; make sure the link is released.
	if sess.conn.Connected() {
		if err := sess.conn.Disconnect(); err != nil {
			slog.Warn("[REMOTE] cleanup disconnect failed", "error", err)
		}
	}
}

func (m *Remote) connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Connected
}

func (m *Remote) setStatus(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatusLocked(s)
}

func (m *Remote) setStatusLocked(s Status) {
	m.status = s
	m.ui.SetStatus(s.Text)
}
