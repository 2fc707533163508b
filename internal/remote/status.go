package remote

import "fmt"

// LinkState is the lifecycle state of the amplifier link.
type LinkState int

const (
	Disconnected LinkState = iota
	Connecting
	Connected
	Disconnecting
)

func (s LinkState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	}
	return fmt.Sprintf("LinkState(%d)", int(s))
}

// StatusKind classifies the most recent lifecycle event or error.
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusConnecting
	StatusConnected
	StatusDisconnecting
	StatusCancelled
	StatusDiscoveryFailed
	StatusTransportError
	StatusWriteFailed
	StatusSyncFailed
	StatusRejected
)

func (k StatusKind) String() string {
	switch k {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnecting:
		return "disconnecting"
	case StatusCancelled:
		return "cancelled"
	case StatusDiscoveryFailed:
		return "discovery_failed"
	case StatusTransportError:
		return "transport_error"
	case StatusWriteFailed:
		return "write_failed"
	case StatusSyncFailed:
		return "sync_failed"
	case StatusRejected:
		return "rejected"
	}
	return fmt.Sprintf("StatusKind(%d)", int(k))
}

// Status is the single user-visible status line.
type Status struct {
	Kind    StatusKind
	Text    string
	Channel *ChannelID // set for discovery and write failures
}

func statusFor(kind StatusKind, format string, args ...any) Status {
	return Status{Kind: kind, Text: fmt.Sprintf(format, args...)}
}

func channelStatus(kind StatusKind, ch ChannelID, format string, args ...any) Status {
	s := statusFor(kind, format, args...)
	s.Channel = &ch
	return s
}
