//go:build !darwin && !windows

package ble

import "tinygo.org/x/bluetooth"

// writeCharacteristic writes without response. BlueZ and the HCI backend in
// tinygo/bluetooth expose no acknowledged write, so only local and link
// errors are reported; a write the peripheral rejects still succeeds here.
func writeCharacteristic(char bluetooth.DeviceCharacteristic, data []byte) error {
	_, err := char.WriteWithoutResponse(data)
	return err
}
