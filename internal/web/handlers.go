package web

import (
	"errors"
	"net/http"

	"github.com/chaz8081/ampremote/internal/panel"
	"github.com/chaz8081/ampremote/internal/remote"
	"github.com/go-chi/chi/v5"
)

// stateResponse is returned by every successful call.
type stateResponse struct {
	Link   string         `json:"link"`
	Status string         `json:"status_kind"`
	Panel  panel.Snapshot `json:"panel"`
}

type valueRequest struct {
	Value *int `json:"value"`
}

type deltaRequest struct {
	Delta int `json:"delta"`
}

func (a *API) state() stateResponse {
	return stateResponse{
		Link:   a.ctl.State().String(),
		Status: a.ctl.Status().Kind.String(),
		Panel:  a.panel.Snapshot(),
	}
}

func (a *API) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.state())
}

func (a *API) getPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"presets": remote.Presets()})
}

func (a *API) applyPreset(w http.ResponseWriter, r *http.Request) {
	if err := a.ctl.ApplyPreset(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.state())
}

// toggleConnect is the single connect button: it connects when
// disconnected and disconnects when connected.
func (a *API) toggleConnect(w http.ResponseWriter, r *http.Request) {
	switch a.ctl.State() {
	case remote.Connected:
		a.ctl.Disconnect()
		writeJSON(w, http.StatusAccepted, a.state())
	case remote.Disconnected:
		if err := a.ctl.Connect(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a.state())
	default:
		writeError(w, remote.ErrBusy)
	}
}

func (a *API) disconnect(w http.ResponseWriter, r *http.Request) {
	a.ctl.Disconnect()
	writeJSON(w, http.StatusAccepted, a.state())
}

// setControl records a slider or selector value and schedules the write.
// It answers 202 when a write was scheduled and 200 for a panel-only change.
func (a *API) setControl(w http.ResponseWriter, r *http.Request) {
	ch, err := channelParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req valueRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Value == nil {
		writeError(w, badRequest("missing value"))
		return
	}

	if err := a.panel.Input(ch, remote.Value(*req.Value)); err != nil {
		writeError(w, err)
		return
	}
	// The panel keeps the value either way. Without a link it is a
	// panel-only change, sent by the next sync.
	switch err := a.ctl.ControlChanged(ch); {
	case errors.Is(err, remote.ErrNotConnected), errors.Is(err, remote.ErrNoEndpoint):
		writeJSON(w, http.StatusOK, a.state())
	case err != nil:
		writeError(w, err)
	default:
		writeJSON(w, http.StatusAccepted, a.state())
	}
}

func (a *API) nudgeControl(w http.ResponseWriter, r *http.Request) {
	ch, err := channelParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req deltaRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Delta == 0 {
		writeError(w, badRequest("delta must be non-zero"))
		return
	}

	if err := a.ctl.Nudge(r.Context(), ch, req.Delta); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.state())
}

func (a *API) toggleMute(w http.ResponseWriter, r *http.Request) {
	if err := a.ctl.ToggleMute(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.state())
}
