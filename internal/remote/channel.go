// Package remote implements the amplifier link lifecycle and the engine that
// keeps the local control panel and the device in step: endpoint discovery,
// debounced writes, mute/volume coupling and bulk resync on connect.
package remote

import (
	"fmt"
	"strconv"

	"github.com/chaz8081/ampremote/internal/ble"
)

// ChannelID names one of the four control channels on the amplifier.
type ChannelID int

const (
	Volume ChannelID = iota
	Channel
	Treble
	Bass
)

var channelNames = [...]string{"volume", "channel", "treble", "bass"}

// Channels returns every channel in declaration order.
func Channels() []ChannelID {
	return []ChannelID{Volume, Channel, Treble, Bass}
}

func (c ChannelID) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return fmt.Sprintf("ChannelID(%d)", int(c))
	}
	return channelNames[c]
}

// ParseChannel maps a logical name ("volume", "bass", ...) to its ChannelID.
func ParseChannel(name string) (ChannelID, error) {
	for i, n := range channelNames {
		if n == name {
			return ChannelID(i), nil
		}
	}
	return 0, fmt.Errorf("remote: unknown channel %q", name)
}

// UUID returns the GATT characteristic UUID carrying this channel.
func (c ChannelID) UUID() string {
	switch c {
	case Volume:
		return ble.VolumeUUID
	case Channel:
		return ble.ChannelUUID
	case Treble:
		return ble.TrebleUUID
	case Bass:
		return ble.BassUUID
	}
	return ""
}

// Range returns the inclusive bounds used when stepping a channel.
func (c ChannelID) Range() (lo, hi Value) {
	switch c {
	case Volume:
		return 0, 100
	case Channel:
		return 1, 4
	default:
		return -10, 10
	}
}

// Clamp limits v to the channel's range.
func (c ChannelID) Clamp(v Value) Value {
	lo, hi := c.Range()
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Value is a control setting as sent to the device.
type Value int

// Encode returns the wire form: the decimal string as bytes.
func (v Value) Encode() []byte {
	return []byte(strconv.Itoa(int(v)))
}

// ValueSource yields the value to write. Deferred sources are resolved at
// the moment the write is issued, so debounced writes carry the freshest value.
type ValueSource interface {
	Resolve() Value
}

// Explicit is a ValueSource fixed at request time.
type Explicit Value

func (e Explicit) Resolve() Value { return Value(e) }

// Deferred reads the value when the write fires.
type Deferred func() Value

func (d Deferred) Resolve() Value { return d() }
