//go:build darwin || windows

package ble

import "tinygo.org/x/bluetooth"

// writeCharacteristic writes with response, so a rejected write surfaces
// as an error.
func writeCharacteristic(char bluetooth.DeviceCharacteristic, data []byte) error {
	_, err := char.Write(data)
	return err
}
