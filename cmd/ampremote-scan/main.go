// Command ampremote-scan lists nearby amplifiers advertising the control
// service, strongest signal first.
//
// Usage:
//
//	go run ./cmd/ampremote-scan [--timeout 5s]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chaz8081/ampremote/internal/ble"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Second, "how long to scan")
	flag.Parse()

	fmt.Printf("Scanning for amplifiers for %s...\n", *timeout)

	devices, err := ble.ScanForDevices(ble.NewTinyGoAdapter(), *timeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if len(devices) == 0 {
		fmt.Println("No amplifiers found.")
		return
	}

	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %-20s %s  %d dBm\n", name, d.Address, d.RSSI)
	}
	fmt.Println("\nSet device.address in your config to pin one.")
}
