package ble_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chaz8081/ampremote/internal/ble"
	"github.com/chaz8081/ampremote/internal/ble/bletest"
)

func TestScanForDevices(t *testing.T) {
	adapter := bletest.NewAdapter(
		ble.Device{Name: "AMP-Kitchen", Address: "AA:BB:CC:DD:EE:01", RSSI: -70},
		ble.Device{Name: "AMP-Living", Address: "AA:BB:CC:DD:EE:02", RSSI: -40},
	)

	result, err := ble.ScanForDevices(adapter, time.Second)
	if err != nil {
		t.Fatalf("ScanForDevices() error = %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("got %d devices, want 2", len(result))
	}
	if result[0].Name != "AMP-Living" {
		t.Errorf("first device = %q, want strongest signal %q", result[0].Name, "AMP-Living")
	}
}

func TestScanForDevicesEnableError(t *testing.T) {
	adapter := bletest.NewAdapter()
	adapter.EnableErr = errors.New("powered off")

	if _, err := ble.ScanForDevices(adapter, time.Second); err == nil {
		t.Fatal("ScanForDevices() should fail when the adapter cannot be enabled")
	}
}

func TestRequestDevicePicksStrongest(t *testing.T) {
	adapter := bletest.NewAdapter(
		ble.Device{Name: "weak", Address: "01", RSSI: -90},
		ble.Device{Name: "strong", Address: "02", RSSI: -30},
		ble.Device{Name: "mid", Address: "03", RSSI: -60},
	)

	dev, err := ble.RequestDevice(context.Background(), adapter, ble.DefaultRequestOptions())
	if err != nil {
		t.Fatalf("RequestDevice() error = %v", err)
	}
	if dev.Name != "strong" {
		t.Errorf("Name = %q, want %q", dev.Name, "strong")
	}
}

func TestRequestDeviceByAddress(t *testing.T) {
	adapter := bletest.NewAdapter(
		ble.Device{Name: "a", Address: "AA:BB:CC:DD:EE:01", RSSI: -30},
		ble.Device{Name: "b", Address: "AA:BB:CC:DD:EE:02", RSSI: -80},
	)
	opts := ble.RequestOptions{Address: "aa:bb:cc:dd:ee:02", ScanTimeout: time.Second}

	dev, err := ble.RequestDevice(context.Background(), adapter, opts)
	if err != nil {
		t.Fatalf("RequestDevice() error = %v", err)
	}
	if dev.Name != "b" {
		t.Errorf("Name = %q, want %q", dev.Name, "b")
	}
}

func TestRequestDeviceCancelled(t *testing.T) {
	tests := []struct {
		name    string
		adapter *bletest.Adapter
		opts    ble.RequestOptions
		cancel  bool
	}{
		{
			name:    "nothing advertising",
			adapter: bletest.NewAdapter(),
			opts:    ble.RequestOptions{ScanTimeout: 10 * time.Millisecond},
		},
		{
			name:    "configured address absent",
			adapter: bletest.NewAdapter(ble.Device{Name: "other", Address: "01"}),
			opts:    ble.RequestOptions{Address: "02", ScanTimeout: 10 * time.Millisecond},
		},
		{
			name:    "caller cancelled",
			adapter: &bletest.Adapter{BlockScan: true},
			opts:    ble.RequestOptions{ScanTimeout: time.Minute},
			cancel:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				go func() {
					time.Sleep(10 * time.Millisecond)
					cancel()
				}()
			}

			_, err := ble.RequestDevice(ctx, tt.adapter, tt.opts)
			if !errors.Is(err, ble.ErrCancelled) {
				t.Errorf("RequestDevice() error = %v, want ErrCancelled", err)
			}
		})
	}
}

func TestRequestDeviceScanError(t *testing.T) {
	adapter := bletest.NewAdapter()
	adapter.ScanErr = errors.New("adapter busy")

	_, err := ble.RequestDevice(context.Background(), adapter, ble.DefaultRequestOptions())
	if err == nil {
		t.Fatal("RequestDevice() should fail on scan error")
	}
	if errors.Is(err, ble.ErrCancelled) {
		t.Errorf("scan error classified as cancellation: %v", err)
	}
}

func TestFakeConnectionDisconnectFiresCallbacks(t *testing.T) {
	conn := bletest.NewConnection()
	fired := make(chan struct{}, 1)
	cancel := conn.OnDisconnect(func() { fired <- struct{}{} })
	defer cancel()

	if err := conn.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("disconnect callback did not fire")
	}
	if conn.Connected() {
		t.Error("Connected() = true after Disconnect")
	}
}

func TestFakeConnectionCancelledSubscription(t *testing.T) {
	conn := bletest.NewConnection()
	called := false
	cancel := conn.OnDisconnect(func() { called = true })
	cancel()

	conn.SimulateDisconnect()
	if called {
		t.Error("cancelled subscription still received the disconnect")
	}
	if conn.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", conn.Subscribers())
	}
}
