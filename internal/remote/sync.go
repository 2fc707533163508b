package remote

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// SyncAll pushes every panel value to the device. The source selection goes
// first and must finish before the other three are sent concurrently, since
// the firmware interprets the continuous controls per source. Failures are
// reported but nothing is rolled back.
func (m *Remote) SyncAll(ctx context.Context) error {
	if !m.connected() {
		slog.Warn("[REMOTE] sync aborted: not connected")
		return ErrNotConnected
	}
	slog.Info("[REMOTE] syncing all controls")

	chErr := m.sched.WriteNow(ctx, Channel, m.values.Value(Channel))
	if chErr != nil && !m.connected() {
		return chErr
	}

	var g errgroup.Group
	for _, ch := range []ChannelID{Volume, Treble, Bass} {
		ch := ch
		g.Go(func() error {
			return m.sched.WriteNow(ctx, ch, m.values.Value(ch))
		})
	}
	if err := errors.Join(chErr, g.Wait()); err != nil {
		if m.connected() {
			m.setStatus(statusFor(StatusSyncFailed, "Error syncing initial values."))
		}
		return err
	}

	slog.Info("[REMOTE] all controls synced")
	return nil
}
