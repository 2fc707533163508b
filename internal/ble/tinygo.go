package ble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"tinygo.org/x/bluetooth"
)

// TinyGoAdapter wraps tinygo-org/bluetooth (BlueZ on Linux, CoreBluetooth on
// macOS, WinRT on Windows). On macOS, device addresses are CoreBluetooth UUIDs
// rather than MAC addresses; Address fields carry whichever the platform uses.
// Characteristic writes wait for a response on macOS and Windows only; on
// Linux they are sent without response.
type TinyGoAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects the connections map.
	mu          sync.Mutex
	connections map[string]*tinyGoConnection // keyed by normalized address
}

// NewTinyGoAdapter creates a new BLE adapter on the platform default stack.
func NewTinyGoAdapter() *TinyGoAdapter {
	return &TinyGoAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*tinyGoConnection),
	}
}

func (a *TinyGoAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// tinygo/bluetooth reports peripheral disconnects through a single
	// adapter-level handler; route them to the matching connection.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		key := addressKey(device.Address.String())
		a.mu.Lock()
		conn, ok := a.connections[key]
		delete(a.connections, key)
		a.mu.Unlock()
		if ok {
			conn.lost()
		}
	})

	return nil
}

func (a *TinyGoAdapter) Scan(ctx context.Context, serviceUUID string) ([]Device, error) {
	uuid, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: parse service UUID: %w", err)
	}

	var mu sync.Mutex
	var devices []Device
	seen := make(map[string]bool)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.adapter.StopScan()
		case <-done:
		}
	}()

	err = a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if !result.HasServiceUUID(uuid) {
			return
		}
		addr := result.Address.String()
		mu.Lock()
		defer mu.Unlock()
		if seen[addr] {
			return
		}
		seen[addr] = true
		devices = append(devices, Device{
			Name:    result.LocalName(),
			Address: addr,
			RSSI:    int(result.RSSI),
		})
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	mu.Lock()
	defer mu.Unlock()
	return devices, nil
}

func (a *TinyGoAdapter) Connect(ctx context.Context, address string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(address)

	// tinygo/bluetooth's Connect blocks internally with its own timeout.
	// Wrap it so ctx cancellation returns control to the caller.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("ble: connect to %s: %w", address, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", address, result.err)
		}
		conn := &tinyGoConnection{
			device:    result.device,
			callbacks: make(map[uint64]func()),
		}
		conn.connected.Store(true)

		a.mu.Lock()
		a.connections[addressKey(address)] = conn
		a.mu.Unlock()

		slog.Debug("[BLE] link established", "address", address)
		return conn, nil
	}
}

// Compile-time check that TinyGoAdapter implements Adapter.
var _ Adapter = (*TinyGoAdapter)(nil)

func addressKey(addr string) string {
	return strings.ToLower(addr)
}

type tinyGoConnection struct {
	device    bluetooth.Device
	connected atomic.Bool

	mu        sync.Mutex
	nextID    uint64
	callbacks map[uint64]func()
}

func (c *tinyGoConnection) DiscoverService(ctx context.Context, uuid string) (Service, error) {
	svcUUID, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	svcs, err := await(ctx, func() ([]bluetooth.DeviceService, error) {
		return c.device.DiscoverServices([]bluetooth.UUID{svcUUID})
	})
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("ble: service %s not found", uuid)
	}
	return &tinyGoService{svc: svcs[0], conn: c}, nil
}

func (c *tinyGoConnection) Connected() bool {
	return c.connected.Load()
}

func (c *tinyGoConnection) Disconnect() error {
	return c.device.Disconnect()
}

func (c *tinyGoConnection) OnDisconnect(cb func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.callbacks[id] = cb
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.callbacks, id)
	}
}

// lost marks the link down and fires every registered callback.
func (c *tinyGoConnection) lost() {
	c.connected.Store(false)
	c.mu.Lock()
	cbs := make([]func(), 0, len(c.callbacks))
	for _, cb := range c.callbacks {
		cbs = append(cbs, cb)
	}
	c.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

type tinyGoService struct {
	svc  bluetooth.DeviceService
	conn *tinyGoConnection
}

func (s *tinyGoService) DiscoverCharacteristic(ctx context.Context, uuid string) (Characteristic, error) {
	charUUID, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	chars, err := await(ctx, func() ([]bluetooth.DeviceCharacteristic, error) {
		return s.svc.DiscoverCharacteristics([]bluetooth.UUID{charUUID})
	})
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("ble: characteristic %s not found", uuid)
	}
	return &tinyGoCharacteristic{char: chars[0], conn: s.conn}, nil
}

type tinyGoCharacteristic struct {
	char bluetooth.DeviceCharacteristic
	conn *tinyGoConnection
}

func (c *tinyGoCharacteristic) Write(data []byte) error {
	if !c.conn.Connected() {
		return ErrLinkLost
	}
	if err := writeCharacteristic(c.char, data); err != nil {
		if !c.conn.Connected() {
			return fmt.Errorf("%w: %v", ErrLinkLost, err)
		}
		return err
	}
	return nil
}

// await runs a blocking tinygo call and returns early if ctx is done.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
