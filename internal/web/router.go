// Package web implements the HTTP and WebSocket front end for the remote.
// Every button and slider of the control page maps to an endpoint, and /ws
// streams the panel as it changes.
package web

import (
	"context"
	"net/http"
	"sync"

	"github.com/chaz8081/ampremote/internal/panel"
	"github.com/chaz8081/ampremote/internal/remote"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Controller is the part of the remote engine the handlers drive.
type Controller interface {
	State() remote.LinkState
	Status() remote.Status
	Connect(ctx context.Context) error
	Disconnect()
	ControlChanged(ch remote.ChannelID) error
	Nudge(ctx context.Context, ch remote.ChannelID, delta int) error
	ToggleMute(ctx context.Context) error
	ApplyPreset(ctx context.Context, name string) error
}

// Panel is the control panel the handlers read and write.
type Panel interface {
	Snapshot() panel.Snapshot
	Input(ch remote.ChannelID, v remote.Value) error
	Subscribe(buf int) (string, <-chan panel.Event)
	Unsubscribe(id string)
}

// API serves the control endpoints.
type API struct {
	router http.Handler
	ctl    Controller
	panel  Panel

	stop chan struct{}
	once sync.Once
}

// NewRouter creates the HTTP handler for the remote.
func NewRouter(ctl Controller, p Panel) *API {
	a := &API{
		ctl:   ctl,
		panel: p,
		stop:  make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)

	r.Get("/api/state", a.getState)
	r.Get("/api/presets", a.getPresets)
	r.Post("/api/presets/{name}", a.applyPreset)

	r.Post("/api/connect", a.toggleConnect)
	r.Post("/api/disconnect", a.disconnect)

	r.Put("/api/controls/{channel}", a.setControl)
	r.Post("/api/controls/{channel}/nudge", a.nudgeControl)
	r.Post("/api/mute", a.toggleMute)

	r.Get("/ws", a.stateWS)

	a.router = r
	return a
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Close ends open WebSocket streams. It is safe to call multiple times.
func (a *API) Close() {
	a.once.Do(func() { close(a.stop) })
}
