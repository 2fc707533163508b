package remote

import (
	"context"
	"sync"

	"github.com/chaz8081/ampremote/internal/ble"
	"golang.org/x/sync/errgroup"
)

// Registry maps each channel to its write endpoint for one link. It is
// built complete or not at all and never changes afterwards.
type Registry struct {
	endpoints map[ChannelID]ble.Characteristic
}

// Populate resolves every channel's characteristic on svc concurrently. The
// first missing channel fails the whole call with a *DiscoveryError; lookups
// still in flight run to completion and their results are dropped.
func Populate(ctx context.Context, svc ble.Service) (*Registry, error) {
	var mu sync.Mutex
	found := make(map[ChannelID]ble.Characteristic, len(Channels()))

	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range Channels() {
		ch := ch
		g.Go(func() error {
			char, err := svc.DiscoverCharacteristic(gctx, ch.UUID())
			if err != nil {
				return &DiscoveryError{Channel: ch, Err: err}
			}
			mu.Lock()
			found[ch] = char
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Registry{endpoints: found}, nil
}

// Resolve returns the endpoint for ch. A nil registry resolves nothing.
func (r *Registry) Resolve(ch ChannelID) (ble.Characteristic, bool) {
	if r == nil {
		return nil, false
	}
	ep, ok := r.endpoints[ch]
	return ep, ok
}
