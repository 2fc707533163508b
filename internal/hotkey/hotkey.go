// Package hotkey provides global volume and mute hotkeys using gohook.
// Each binding is a key combo that fires one Action on key down.
package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// Action identifies what a hotkey does.
type Action int

const (
	// ActionVolumeUp raises the volume by one step.
	ActionVolumeUp Action = iota
	// ActionVolumeDown lowers the volume by one step.
	ActionVolumeDown
	// ActionMute toggles mute.
	ActionMute
)

func (a Action) String() string {
	switch a {
	case ActionVolumeUp:
		return "volume_up"
	case ActionVolumeDown:
		return "volume_down"
	case ActionMute:
		return "mute"
	default:
		return "unknown"
	}
}

// Binding maps a key combo to an action.
// Keys should be lowercase key names (e.g., ["ctrl", "alt", "up"]).
type Binding struct {
	Action Action
	Keys   []string
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Action Action
}

// Listener manages global hotkeys and emits action events.
type Listener struct {
	bindings []Binding
	ch       chan Event
	done     chan struct{}
	once     sync.Once
}

// NewListener creates a Listener for the given bindings. Bindings with no
// keys are ignored.
func NewListener(bindings []Binding) *Listener {
	l := &Listener{
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}
	for _, b := range bindings {
		if len(b.Keys) > 0 {
			l.bindings = append(l.bindings, b)
		}
	}
	return l
}

// Bindings returns the active bindings.
func (l *Listener) Bindings() []Binding {
	return l.bindings
}

// Events returns the channel that receives hotkey events.
// The channel is closed when Start returns.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening for the global hotkeys.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	for _, b := range l.bindings {
		hook.Register(hook.KeyDown, b.Keys, func(e hook.Event) {
			l.emit(b.Action)
		})
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// emit queues an event without blocking the hook thread.
func (l *Listener) emit(a Action) bool {
	select {
	case l.ch <- Event{Action: a}:
		return true
	default: // don't block if channel is full
		return false
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
