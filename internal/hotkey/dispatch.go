package hotkey

import (
	"context"
	"log/slog"

	"github.com/chaz8081/ampremote/internal/remote"
)

// Controller is the part of the remote that hotkeys drive.
type Controller interface {
	Nudge(ctx context.Context, ch remote.ChannelID, delta int) error
	ToggleMute(ctx context.Context) error
}

// Dispatch applies hotkey events to ctl until events is closed or ctx is
// done. Volume actions move by step. Errors are logged; the remote already
// reports them through its status line.
func Dispatch(ctx context.Context, events <-chan Event, ctl Controller, step int) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var err error
			switch ev.Action {
			case ActionVolumeUp:
				err = ctl.Nudge(ctx, remote.Volume, step)
			case ActionVolumeDown:
				err = ctl.Nudge(ctx, remote.Volume, -step)
			case ActionMute:
				err = ctl.ToggleMute(ctx)
			}
			if err != nil {
				slog.Debug("[HOTKEY] action not applied", "action", ev.Action, "err", err)
			}
		}
	}
}
