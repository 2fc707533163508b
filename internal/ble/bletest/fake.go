// Package bletest provides in-memory fakes of the ble transport interfaces
// for use in tests.
package bletest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chaz8081/ampremote/internal/ble"
)

// Write is one recorded characteristic write.
type Write struct {
	UUID string
	Data string
	Seq  int       // global order in which writes started
	Done time.Time // when the write returned
}

// Characteristic records writes and can be told to fail or stall.
type Characteristic struct {
	uuid string
	conn *Connection

	mu    sync.Mutex
	err   error
	delay time.Duration
}

// FailWith makes every subsequent Write return err.
func (c *Characteristic) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// SetDelay makes every subsequent Write block for d before returning.
func (c *Characteristic) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

func (c *Characteristic) Write(data []byte) error {
	c.mu.Lock()
	err, delay := c.err, c.delay
	c.mu.Unlock()

	seq := c.conn.begin()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return err
	}
	c.conn.record(Write{UUID: c.uuid, Data: string(data), Seq: seq, Done: time.Now()})
	return nil
}

// Service serves a fixed set of characteristics.
type Service struct {
	chars map[string]*Characteristic
}

func (s *Service) DiscoverCharacteristic(_ context.Context, uuid string) (ble.Characteristic, error) {
	c, ok := s.chars[uuid]
	if !ok {
		return nil, fmt.Errorf("bletest: characteristic %s not found", uuid)
	}
	return c, nil
}

// Connection simulates a BLE link.
type Connection struct {
	mu              sync.Mutex
	services        map[string]*Service
	chars           map[string]*Characteristic
	callbacks       map[int]func()
	nextID          int
	connected       bool
	disconnectCalls int
	autoLost        bool
	seq             int
	writes          []Write
}

// NewConnection returns a connected link serving the amplifier service with
// the given characteristics. With no uuids, all four control characteristics
// are present.
func NewConnection(uuids ...string) *Connection {
	if len(uuids) == 0 {
		uuids = []string{ble.VolumeUUID, ble.ChannelUUID, ble.TrebleUUID, ble.BassUUID}
	}
	c := &Connection{
		chars:     make(map[string]*Characteristic),
		callbacks: make(map[int]func()),
		connected: true,
		autoLost:  true,
	}
	svc := &Service{chars: make(map[string]*Characteristic)}
	for _, u := range uuids {
		ch := &Characteristic{uuid: u, conn: c}
		svc.chars[u] = ch
		c.chars[u] = ch
	}
	c.services = map[string]*Service{ble.ServiceUUID: svc}
	return c
}

// Char returns the characteristic with the given UUID, or nil.
func (c *Connection) Char(uuid string) *Characteristic {
	return c.chars[uuid]
}

// RemoveService drops the amplifier service so discovery fails.
func (c *Connection) RemoveService() {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.services, ble.ServiceUUID)
}

// SetAutoLost controls whether Disconnect fires the lost-link callbacks
// (asynchronously, as a real stack does). Enabled by default.
func (c *Connection) SetAutoLost(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoLost = v
}

func (c *Connection) DiscoverService(_ context.Context, uuid string) (ble.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	svc, ok := c.services[uuid]
	if !ok {
		return nil, fmt.Errorf("bletest: service %s not found", uuid)
	}
	return svc, nil
}

func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Connection) Disconnect() error {
	c.mu.Lock()
	c.disconnectCalls++
	wasConnected := c.connected
	c.connected = false
	auto := c.autoLost
	c.mu.Unlock()
	if wasConnected && auto {
		go c.fire()
	}
	return nil
}

func (c *Connection) OnDisconnect(cb func()) func() {
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

// SimulateDisconnect drops the link and fires the callbacks synchronously.
func (c *Connection) SimulateDisconnect() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.fire()
}

func (c *Connection) fire() {
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

// Subscribers returns the number of registered disconnect callbacks.
func (c *Connection) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.callbacks)
}

// DisconnectCalls returns how many times Disconnect was called.
func (c *Connection) DisconnectCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectCalls
}

// Writes returns the completed writes in completion order.
func (c *Connection) Writes() []Write {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Write, len(c.writes))
	copy(out, c.writes)
	return out
}

// WritesTo returns the payloads written to one characteristic.
func (c *Connection) WritesTo(uuid string) []string {
	var out []string
	for _, w := range c.Writes() {
		if w.UUID == uuid {
			out = append(out, w.Data)
		}
	}
	return out
}

func (c *Connection) begin() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

func (c *Connection) record(w Write) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, w)
}

// Adapter simulates the BLE adapter.
type Adapter struct {
	mu         sync.Mutex
	Devices    []ble.Device
	EnableErr  error
	ScanErr    error
	ConnectErr error
	BlockScan  bool // Scan waits for ctx to be done

	next     *Connection
	latest   *Connection
	connects int
	hold     chan struct{}
}

// NewAdapter returns an adapter that advertises the given devices.
func NewAdapter(devices ...ble.Device) *Adapter {
	return &Adapter{Devices: devices}
}

// NextConnection sets the connection returned by the next Connect call.
func (a *Adapter) NextConnection(c *Connection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next = c
}

// HoldConnect makes the next Connect call block until release is called or
// its context is done.
func (a *Adapter) HoldConnect() (release func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	hold := make(chan struct{})
	a.hold = hold
	var once sync.Once
	return func() { once.Do(func() { close(hold) }) }
}

// Latest returns the most recently returned connection.
func (a *Adapter) Latest() *Connection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// Connects returns the number of Connect calls.
func (a *Adapter) Connects() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connects
}

func (a *Adapter) Enable() error { return a.EnableErr }

func (a *Adapter) Scan(ctx context.Context, _ string) ([]ble.Device, error) {
	if a.BlockScan {
		<-ctx.Done()
	}
	if a.ScanErr != nil {
		return nil, a.ScanErr
	}
	out := make([]ble.Device, len(a.Devices))
	copy(out, a.Devices)
	return out, nil
}

func (a *Adapter) Connect(ctx context.Context, _ string) (ble.Connection, error) {
	a.mu.Lock()
	a.connects++
	hold := a.hold
	a.hold = nil
	a.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ConnectErr != nil {
		return nil, a.ConnectErr
	}
	conn := a.next
	a.next = nil
	if conn == nil {
		conn = NewConnection()
	}
	a.latest = conn
	return conn, nil
}

var (
	_ ble.Adapter        = (*Adapter)(nil)
	_ ble.Connection     = (*Connection)(nil)
	_ ble.Service        = (*Service)(nil)
	_ ble.Characteristic = (*Characteristic)(nil)
)
