// Package ble provides the Bluetooth Low Energy transport for the amplifier
// remote. It hides the platform stack behind small interfaces so the control
// engine can be tested against in-memory fakes.
package ble

import (
	"context"
	"errors"
)

// Amplifier BLE UUIDs
const (
	ServiceUUID = "0000ffe0-0000-1000-8000-00805f9b34fb"
	VolumeUUID  = "0000ffe1-0000-1000-8000-00805f9b34fb"
	ChannelUUID = "0000ffe2-0000-1000-8000-00805f9b34fb"
	TrebleUUID  = "0000ffe3-0000-1000-8000-00805f9b34fb"
	BassUUID    = "0000ffe4-0000-1000-8000-00805f9b34fb"
)

var (
	// ErrCancelled is returned when no device was selected, either because
	// the request was aborted or nothing answered the scan.
	ErrCancelled = errors.New("ble: device request cancelled")
	// ErrLinkLost marks a failure caused by the link dropping underneath
	// an operation.
	ErrLinkLost = errors.New("ble: link lost")
)

// Characteristic is a write-capable GATT characteristic.
type Characteristic interface {
	// Write sends data. Where the platform stack supports it the call waits
	// for the peripheral to acknowledge the write.
	Write(data []byte) error
}

// Service is a discovered primary GATT service.
type Service interface {
	// DiscoverCharacteristic finds a characteristic by UUID.
	DiscoverCharacteristic(ctx context.Context, uuid string) (Characteristic, error)
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Name    string
	Address string
	RSSI    int
}

// Connection represents an active BLE link to a peripheral.
type Connection interface {
	// DiscoverService looks up a primary service by UUID.
	DiscoverService(ctx context.Context, uuid string) (Service, error)
	// Connected reports whether the transport still considers the link up.
	Connected() bool
	// Disconnect requests teardown. Completion is signalled through the
	// OnDisconnect callback, not by the return of this call.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the link drops. The
	// returned function removes the registration.
	OnDisconnect(callback func()) (cancel func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan discovers BLE peripherals advertising the given service UUID.
	// Returns discovered devices once ctx is done.
	Scan(ctx context.Context, serviceUUID string) ([]Device, error)
	// Connect establishes a connection to the device with the given address.
	Connect(ctx context.Context, address string) (Connection, error)
}
