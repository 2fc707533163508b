package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// RequestOptions configures device selection.
type RequestOptions struct {
	Address     string        // preferred device address; empty picks the strongest signal
	ScanTimeout time.Duration // how long to listen for advertisements
}

// DefaultRequestOptions returns sensible defaults for production use.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		ScanTimeout: 5 * time.Second,
	}
}

// ScanForDevices scans for amplifiers advertising the control service.
// Devices are returned strongest signal first.
func ScanForDevices(adapter Adapter, timeout time.Duration) ([]Device, error) {
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	devices, err := adapter.Scan(ctx, ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	sortByRSSI(devices)
	return devices, nil
}

// RequestDevice selects the amplifier to connect to. If ctx is cancelled
// before a device is chosen, or no matching device answers the scan, it
// returns an error wrapping ErrCancelled.
func RequestDevice(ctx context.Context, adapter Adapter, opts RequestOptions) (Device, error) {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 5 * time.Second
	}

	if err := adapter.Enable(); err != nil {
		return Device{}, fmt.Errorf("ble: enable adapter: %w", err)
	}

	scanCtx, cancel := context.WithTimeout(ctx, opts.ScanTimeout)
	defer cancel()

	devices, err := adapter.Scan(scanCtx, ServiceUUID)
	if ctx.Err() != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}
	if err != nil {
		return Device{}, fmt.Errorf("ble: scan: %w", err)
	}

	if opts.Address != "" {
		for _, d := range devices {
			if strings.EqualFold(d.Address, opts.Address) {
				return d, nil
			}
		}
		return Device{}, fmt.Errorf("%w: device %s not found", ErrCancelled, opts.Address)
	}

	if len(devices) == 0 {
		return Device{}, fmt.Errorf("%w: no amplifier found", ErrCancelled)
	}
	sortByRSSI(devices)
	slog.Debug("[BLE] selected device", "name", devices[0].Name, "address", devices[0].Address, "rssi", devices[0].RSSI)
	return devices[0], nil
}

func sortByRSSI(devices []Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].RSSI > devices[j].RSSI
	})
}
