// Package devbridge relays every event emitted on the engine's event bus to
// connected local WebSocket clients, for devtools/inspection use (SPEC_FULL.md
// §6 "Devtools bridge"). The relay is one-way and read-only: the bridge never
// accepts input from a connected client, it only pushes a JSON-encoded
// voicepage.Event per bus emission. A production page never wires this up —
// it is strictly a local development aid, analogous to how glyphoxa's
// pkg/provider/s2s clients open a bidirectional realtime WebSocket, except
// here the server side is local and the direction is fixed one-way.
package devbridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/BlaiseCz/VoicePage/internal/eventbus"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

// writeTimeout bounds how long a single broadcast write may take before the
// bridge gives up on a slow or wedged client and drops it.
const writeTimeout = 2 * time.Second

// EventSource is the narrow slice of engine.Engine the bridge depends on,
// kept as an interface so tests can attach a bare eventbus.Bus instead of
// constructing a full engine.
type EventSource interface {
	On(listener eventbus.Listener) eventbus.Unsubscribe
}

// Bridge accepts WebSocket connections on ServeHTTP and pushes every
// subsequently emitted event to each connected client, independently. Use
// New; the zero value has no connection map or logger and is not usable.
type Bridge struct {
	log *slog.Logger

	mu     sync.Mutex
	conns  map[uint64]*websocket.Conn
	nextID uint64
}

// New creates an empty Bridge.
func New() *Bridge {
	return &Bridge{
		log:   slog.Default(),
		conns: make(map[uint64]*websocket.Conn),
	}
}

// Attach subscribes the bridge to src's event stream. The returned
// eventbus.Unsubscribe detaches it; calling it more than once is a no-op.
func (b *Bridge) Attach(src EventSource) eventbus.Unsubscribe {
	return src.On(b.broadcast)
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it
// as a broadcast target until the client disconnects or the request context
// is cancelled. It never reads application-level messages from the client.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		b.log.Warn("devbridge: accept failed", "error", err)
		return
	}

	id := b.add(conn)
	defer b.remove(id)

	// CloseRead spins a background reader that discards every incoming
	// frame and closes the connection on any read error (including a client
	// close), per coder/websocket's documented pattern for read-only
	// servers. Its returned context is done exactly when that happens.
	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
}

func (b *Bridge) add(conn *websocket.Conn) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.conns[id] = conn
	return id
}

func (b *Bridge) remove(id uint64) {
	b.mu.Lock()
	conn, ok := b.conns[id]
	delete(b.conns, id)
	b.mu.Unlock()
	if ok {
		conn.Close(websocket.StatusNormalClosure, "bridge closing")
	}
}

// broadcast is the eventbus.Listener wired in Attach. It must not block the
// emitting engine for long, so every write carries its own short deadline;
// a client that can't keep up is dropped rather than stalling emission.
func (b *Bridge) broadcast(e voicepage.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		b.log.Warn("devbridge: marshal event failed", "error", err)
		return
	}

	b.mu.Lock()
	targets := make(map[uint64]*websocket.Conn, len(b.conns))
	for id, conn := range b.conns {
		targets[id] = conn
	}
	b.mu.Unlock()

	for id, conn := range targets {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			b.log.Warn("devbridge: write failed, dropping client", "error", err)
			b.remove(id)
		}
	}
}

// Close disconnects every connected client.
func (b *Bridge) Close() {
	b.mu.Lock()
	conns := b.conns
	b.conns = make(map[uint64]*websocket.Conn)
	b.mu.Unlock()
	for _, conn := range conns {
		conn.Close(websocket.StatusNormalClosure, "bridge closing")
	}
}
