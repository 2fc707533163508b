package remote

import (
	"errors"
	"sort"
)

// ErrUnknownPreset is returned for a preset name not in the table.
var ErrUnknownPreset = errors.New("remote: unknown preset")

// Preset is a named bass/treble pair.
type Preset struct {
	Bass   Value
	Treble Value
}

var presets = map[string]Preset{
	"flat":         {Bass: 0, Treble: 0},
	"rock":         {Bass: 4, Treble: 5},
	"pop":          {Bass: 2, Treble: 3},
	"jazz":         {Bass: -2, Treble: 4},
	"bass_boost":   {Bass: 8, Treble: -2},
	"treble_boost": {Bass: -2, Treble: 6},
}

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// Presets returns all preset names, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
