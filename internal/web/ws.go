package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chaz8081/ampremote/internal/panel"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	// sendBuf is the per-client event queue. A client that falls further
	// behind than this misses intermediate states, not the latest one.
	sendBuf = 32
)

// envelope is the wire format for WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateWS streams panel events. The first message is the current state.
func (a *API) stateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[WEB] ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Subscribe before the snapshot so no change falls in between.
	id, events := a.panel.Subscribe(sendBuf)
	defer a.panel.Unsubscribe(id)

	slog.Debug("[WEB] ws client connected", "remote_addr", r.RemoteAddr)

	closed := make(chan struct{})
	go readPump(conn, closed)

	now := time.Now().UTC()
	if err := writeEnvelope(conn, envelope{Type: panel.EventState, Ts: &now, Data: a.panel.Snapshot()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			slog.Debug("[WEB] ws client gone", "remote_addr", r.RemoteAddr)
			return
		case <-a.stop:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			ts := ev.At.UTC()
			if err := writeEnvelope(conn, envelope{Type: ev.Type, Ts: &ts, Data: ev.Data}); err != nil {
				logClose("write", r.RemoteAddr, err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logClose("ping", r.RemoteAddr, err)
				return
			}
		}
	}
}

func writeEnvelope(conn *websocket.Conn, env envelope) error {
	msg, err := json.Marshal(env)
	if err != nil {
		slog.Warn("[WEB] ws marshal failed", "type", env.Type, "err", err)
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// readPump discards incoming messages so control frames are handled and
// closes done when the client goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func logClose(op, addr string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		slog.Debug("[WEB] ws closed", "op", op, "remote_addr", addr, "code", ce.Code)
		return
	}
	slog.Debug("[WEB] ws error", "op", op, "remote_addr", addr, "err", err)
}
