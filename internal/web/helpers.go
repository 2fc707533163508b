package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chaz8081/ampremote/internal/panel"
	"github.com/chaz8081/ampremote/internal/remote"
	"github.com/go-chi/chi/v5"
)

// requestError is a client mistake with its own HTTP status.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to an HTTP status and writes it as JSON.
func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Warn("[WEB] request failed", "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func errorStatus(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.Is(err, panel.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, remote.ErrUnknownPreset):
		return http.StatusNotFound
	case errors.Is(err, remote.ErrNotConnected),
		errors.Is(err, remote.ErrNoEndpoint),
		errors.Is(err, remote.ErrBusy),
		errors.Is(err, panel.ErrControlsDisabled):
		return http.StatusConflict
	default:
		// The device or transport failed; the status line has the detail.
		return http.StatusBadGateway
	}
}

// channelParam reads the {channel} path parameter.
func channelParam(r *http.Request) (remote.ChannelID, error) {
	ch, err := remote.ParseChannel(chi.URLParam(r, "channel"))
	if err != nil {
		return 0, badRequest(err.Error())
	}
	return ch, nil
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON: " + err.Error())
	}
	return nil
}
