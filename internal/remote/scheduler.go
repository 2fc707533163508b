package remote

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/ampremote/internal/ble"
	"golang.org/x/time/rate"
)

// DefaultDebounce is the quiescence window before a requested write is sent.
const DefaultDebounce = 150 * time.Millisecond

// EndpointResolver looks up the current endpoint for a channel.
type EndpointResolver interface {
	Resolve(ch ChannelID) (ble.Characteristic, bool)
}

// SchedulerHooks receive write outcomes. Either may be nil.
type SchedulerHooks struct {
	Ack    func(ch ChannelID)
	Failed func(err *WriteError)
}

// SchedulerOptions configures the write scheduler.
type SchedulerOptions struct {
	Debounce        time.Duration // quiescence window (default 150ms)
	MaxWritesPerSec float64       // global write budget; 0 means unlimited
}

type pendingWrite struct {
	timer *time.Timer
	src   ValueSource
}

// Scheduler debounces and dispatches channel writes. Each channel has at
// most one pending write; a new request replaces it.
type Scheduler struct {
	endpoints EndpointResolver
	hooks     SchedulerHooks
	debounce  time.Duration
	limiter   *rate.Limiter

	mu      sync.Mutex
	pending map[ChannelID]*pendingWrite
}

// NewScheduler creates a scheduler writing to whatever endpoints resolves.
func NewScheduler(endpoints EndpointResolver, hooks SchedulerHooks, opts SchedulerOptions) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.MaxWritesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxWritesPerSec), 4)
	}
	return &Scheduler{
		endpoints: endpoints,
		hooks:     hooks,
		debounce:  opts.Debounce,
		limiter:   limiter,
		pending:   make(map[ChannelID]*pendingWrite),
	}
}

// RequestWrite schedules a write of src to ch once the debounce window
// passes without another request for the same channel. src is resolved when
// the timer fires.
func (s *Scheduler) RequestWrite(ch ChannelID, src ValueSource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(ch)
	p := &pendingWrite{src: src}
	p.timer = time.AfterFunc(s.debounce, func() { s.fire(ch, p) })
	s.pending[ch] = p
}

// WriteNow cancels any pending write for ch and writes v immediately.
func (s *Scheduler) WriteNow(ctx context.Context, ch ChannelID, v Value) error {
	s.Cancel(ch)
	return s.dispatch(ctx, ch, v)
}

// Cancel drops the pending write for ch, if any.
func (s *Scheduler) Cancel(ch ChannelID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(ch)
}

// CancelAll drops every pending write.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.pending {
		s.cancelLocked(ch)
	}
}

// Pending reports whether a debounced write is waiting for ch.
func (s *Scheduler) Pending(ch ChannelID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[ch]
	return ok
}

// cancelLocked stops ch's timer (caller must hold mu).
func (s *Scheduler) cancelLocked(ch ChannelID) {
	if p, ok := s.pending[ch]; ok {
		p.timer.Stop()
		delete(s.pending, ch)
	}
}

func (s *Scheduler) fire(ch ChannelID, p *pendingWrite) {
	s.mu.Lock()
	// A timer that lost the race with Cancel or a newer request must not send.
	if s.pending[ch] != p {
		s.mu.Unlock()
		return
	}
	delete(s.pending, ch)
	s.mu.Unlock()

	_ = s.dispatch(context.Background(), ch, p.src.Resolve())
}

func (s *Scheduler) dispatch(ctx context.Context, ch ChannelID, v Value) error {
	ep, ok := s.endpoints.Resolve(ch)
	if !ok {
		slog.Warn("[REMOTE] write skipped, no endpoint", "channel", ch)
		return ErrNoEndpoint
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return s.failed(ch, ep, err)
	}

	slog.Debug("[REMOTE] sending", "channel", ch, "value", int(v))
	if err := ep.Write(v.Encode()); err != nil {
		return s.failed(ch, ep, err)
	}

	if s.hooks.Ack != nil {
		s.hooks.Ack(ch)
	}
	return nil
}

func (s *Scheduler) failed(ch ChannelID, ep ble.Characteristic, err error) error {
	werr := &WriteError{Channel: ch, Endpoint: ep, Err: err}
	slog.Error("[REMOTE] write failed", "channel", ch, "error", err)
	if s.hooks.Failed != nil {
		s.hooks.Failed(werr)
	}
	return werr
}
