package remote

import (
	"errors"
	"fmt"

	"github.com/chaz8081/ampremote/internal/ble"
)

var (
	// ErrNotConnected rejects an operation that needs an active link.
	ErrNotConnected = errors.New("remote: not connected")
	// ErrBusy rejects Connect while a link is already being set up or torn down.
	ErrBusy = errors.New("remote: connection in progress")
	// ErrNoEndpoint rejects an operation whose channel has no endpoint.
	ErrNoEndpoint = errors.New("remote: endpoint unavailable")
)

// DiscoveryError reports a channel the peripheral does not expose. A connect
// attempt that hits one is abandoned as a whole.
type DiscoveryError struct {
	Channel ChannelID
	Err     error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("remote: discover %s: %v", e.Channel, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// WriteError reports a single channel write that did not complete.
type WriteError struct {
	Channel  ChannelID
	Endpoint ble.Characteristic // the endpoint the write was sent to
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("remote: write %s: %v", e.Channel, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// LinkLost reports whether err means the transport dropped the link.
func LinkLost(err error) bool {
	return errors.Is(err, ble.ErrLinkLost)
}
