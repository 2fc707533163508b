package remote

// DefaultMinStep is the restore volume used when no non-zero volume is known.
const DefaultMinStep Value = 1

// Mute couples the mute flag to the volume channel. It remembers the last
// non-zero volume so unmuting can restore it. Callers check link
// preconditions; the machine itself never fails.
type Mute struct {
	muted   bool
	stored  Value
	minStep Value
}

// NewMute returns an unmuted machine that restores to initial. A minStep
// below 1 falls back to DefaultMinStep.
func NewMute(initial, minStep Value) *Mute {
	if minStep < 1 {
		minStep = DefaultMinStep
	}
	return &Mute{stored: initial, minStep: minStep}
}

// Muted reports the mute flag.
func (m *Mute) Muted() bool { return m.muted }

// Stored returns the volume an unmute would restore.
func (m *Mute) Stored() Value { return m.stored }

// SetVolume records a volume chosen on the panel and returns the value to
// write. Moving to zero mutes; moving above zero unmutes.
func (m *Mute) SetVolume(v Value) Value {
	switch {
	case v > 0:
		m.muted = false
		m.stored = v
	case !m.muted:
		m.ensureStored()
		m.muted = true
	}
	return v
}

// Toggle flips the mute flag given the volume currently shown and returns
// the volume to write immediately.
func (m *Mute) Toggle(current Value) Value {
	if m.muted {
		m.muted = false
		m.ensureStored()
		return m.stored
	}
	m.muted = true
	if current > 0 {
		m.stored = current
	}
	m.ensureStored()
	return 0
}

// Step applies the result of an increment or decrement. While muted a
// result of zero leaves everything as is and reports false.
func (m *Mute) Step(result Value) (Value, bool) {
	if m.muted && result <= 0 {
		return 0, false
	}
	return m.SetVolume(result), true
}

// Reset clears the mute flag; device-side mute does not survive a reconnect.
func (m *Mute) Reset() {
	m.muted = false
}

func (m *Mute) ensureStored() {
	if m.stored <= 0 {
		m.stored = m.minStep
	}
}
