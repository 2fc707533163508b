// Command test-hotkey is a manual test for the global hotkey listener.
// Run it, then press Ctrl+Alt+Up, Ctrl+Alt+Down or Ctrl+Alt+M to see events.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaz8081/ampremote/internal/config"
	"github.com/chaz8081/ampremote/internal/hotkey"
)

func main() {
	keys := config.Default().Hotkey
	fmt.Println("Listening for Ctrl+Alt+Up / Ctrl+Alt+Down / Ctrl+Alt+M...")
	fmt.Println("Press Ctrl+C to exit.")

	listener := hotkey.NewListener([]hotkey.Binding{
		{Action: hotkey.ActionVolumeUp, Keys: keys.VolumeUp},
		{Action: hotkey.ActionVolumeDown, Keys: keys.VolumeDown},
		{Action: hotkey.ActionMute, Keys: keys.Mute},
	})

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	// Read events
	go func() {
		for ev := range listener.Events() {
			switch ev.Action {
			case hotkey.ActionVolumeUp:
				fmt.Println(">>> VOLUME UP")
			case hotkey.ActionVolumeDown:
				fmt.Println("<<< VOLUME DOWN")
			case hotkey.ActionMute:
				fmt.Println("=== MUTE")
			}
		}
		fmt.Println("Event channel closed.")
	}()

	// Blocks until stopped
	listener.Start()
	fmt.Println("Done.")
}
