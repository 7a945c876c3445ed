package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cs2panel/internal/events"
)

type fakeConsole struct {
	bus     *events.Bus
	backlog []string

	mu   sync.Mutex
	cmds []string
}

// GetConsole publishes the newest backlog line to the bus before
// returning, modeling output that lands while a client is connecting.
func (f *fakeConsole) GetConsole(id uuid.UUID, n int) []string {
	if len(f.backlog) > 0 {
		f.bus.Publish(events.Key(events.KindConsole, id), f.backlog[len(f.backlog)-1])
	}
	return f.backlog
}

func (f *fakeConsole) SendRCON(id uuid.UUID, command string) (string, error) {
	f.mu.Lock()
	f.cmds = append(f.cmds, command)
	f.mu.Unlock()
	return "ok", nil
}

func (f *fakeConsole) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cmds...)
}

func dialConsole(t *testing.T, streams *Streams, id uuid.UUID) *websocket.Conn {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/instances/{id}/console", streams.HandleConsole)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/instances/" + id.String() + "/console"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readLine(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(msg)
}

func TestConsoleReplaysLineRacingConnectOnce(t *testing.T) {
	bus := events.NewBus()
	id := uuid.New()
	console := &fakeConsole{bus: bus, backlog: []string{"before", "racing"}}
	streams := NewStreams(bus, console)

	conn := dialConsole(t, streams, id)

	// The racing line must arrive exactly once, via the backlog.
	if got := readLine(t, conn); got != "before" {
		t.Fatalf("first frame = %q, want before", got)
	}
	if got := readLine(t, conn); got != "racing" {
		t.Fatalf("second frame = %q, want racing", got)
	}

	// The subscription is live once the backlog was written; the next
	// published line follows immediately, no duplicate in between.
	bus.Publish(events.Key(events.KindConsole, id), "after")
	if got := readLine(t, conn); got != "after" {
		t.Fatalf("third frame = %q, want after", got)
	}
}

func TestConsoleDispatchesCommands(t *testing.T) {
	bus := events.NewBus()
	id := uuid.New()
	console := &fakeConsole{bus: bus}
	streams := NewStreams(bus, console)

	conn := dialConsole(t, streams, id)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("  status  ")); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cmds := console.commands(); len(cmds) == 1 {
			if cmds[0] != "status" {
				t.Fatalf("command = %q, want status", cmds[0])
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("command never reached the console backend")
}
