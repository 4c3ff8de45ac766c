package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/RoverGo/internal/debug"
	"github.com/cjeanneret/RoverGo/internal/logic/command"
	"github.com/cjeanneret/RoverGo/internal/logic/drive"
)

// ControlOptions tunes the /ws/control endpoint.
type ControlOptions struct {
	MaxMessageLen    int  // frames larger than this close the session with 1009
	Ack              bool // reply "ok" or "error: <reason>" after each message
	HoldOnDisconnect bool // keep the motors running when a session ends
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Drive       *drive.Drive
	Broadcaster *StatusBroadcaster
	Options     ControlOptions
	upgrader    websocket.Upgrader
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(d *drive.Drive, broadcaster *StatusBroadcaster, opts ControlOptions, staticFS fs.FS) *Handlers {
	if opts.MaxMessageLen <= 0 {
		opts.MaxMessageLen = command.MaxMessageLen
	}
	return &Handlers{
		Drive:       d,
		Broadcaster: broadcaster,
		Options:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The page is served by the robot itself, usually over its own access point.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		staticFS: staticFS,
	}
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleState returns the current drive state as JSON.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Drive.State())
}

// HandleControl upgrades to a WebSocket and applies every received message
// to the drive. A bad message never ends the session; an oversized one does.
func (h *Handlers) HandleControl(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		debug.Error(fmt.Errorf("websocket upgrade: %w", err))
		return
	}
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	debug.Session(remote, "opened")
	defer debug.Session(remote, "closed")

	if !h.Options.HoldOnDisconnect {
		defer func() {
			if err := h.Drive.SetEnable(false); err != nil {
				debug.Error(fmt.Errorf("session %s: stop on disconnect: %w", remote, err))
			}
		}()
	}

	conn.SetReadLimit(int64(h.Options.MaxMessageLen))

	// Close the session when the server shuts down; hijacked connections
	// are not tracked by http.Server.Shutdown.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-r.Context().Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				// gorilla has already sent close 1009 (message too big).
				debug.Error(fmt.Errorf("session %s: message exceeds %d bytes, closing", remote, h.Options.MaxMessageLen))
			case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				debug.Error(fmt.Errorf("session %s: read: %w", remote, err))
			}
			return
		}

		res, err := command.Handle(h.Drive, raw)
		if err != nil {
			debug.Error(fmt.Errorf("session %s: command %q dropped: %w", remote, res.Command, err))
		}

		if h.Options.Ack {
			if werr := conn.WriteMessage(websocket.TextMessage, []byte(ackText(res, err))); werr != nil {
				debug.Error(fmt.Errorf("session %s: write ack: %w", remote, werr))
				return
			}
		}
	}
}

func ackText(res command.Result, err error) string {
	switch {
	case err != nil:
		return "error: " + err.Error()
	case res.Diagnostic != nil:
		return "error: " + res.Diagnostic.Error()
	default:
		return "ok"
	}
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send the current state so a fresh page is in sync
	w.Write([]byte(": connected\n\n"))
	if initial, err := json.Marshal(StatusEvent{
		Time:  time.Now().Format(time.RFC3339),
		Level: "state",
		State: statePtr(h.Drive.State()),
	}); err == nil {
		w.Write([]byte("data: " + string(initial) + "\n\n"))
	}
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func statePtr(s drive.State) *drive.State { return &s }
