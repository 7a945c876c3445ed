package ws

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cs2panel/internal/events"
	"cs2panel/internal/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	consoleBacklog = 200
)

var (
	errMissingKeys = errors.New("keys or instance query parameter required")
	errBadInstance = errors.New("invalid instance id")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Console is the slice of the manager the interactive console needs.
type Console interface {
	GetConsole(id uuid.UUID, n int) []string
	SendRCON(id uuid.UUID, command string) (string, error)
}

// Streams bridges the event bus onto websocket connections.
type Streams struct {
	Bus     *events.Bus
	Manager Console
}

func NewStreams(bus *events.Bus, m Console) *Streams {
	return &Streams{Bus: bus, Manager: m}
}

// HandleEvents streams bus events for the requested channel keys.
// Keys come either verbatim via ?keys=a,b,c or are built from
// ?instance=<id>&kinds=status,metrics. Without kinds every kind of
// the instance is subscribed, including completion channels.
func (s *Streams) HandleEvents(w http.ResponseWriter, r *http.Request) {
	keys, err := subscriptionKeys(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := s.Bus.Subscribe(keys...)
	defer sub.Unsubscribe()

	done := make(chan struct{})
	go discardReads(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	defer conn.Close()

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// HandleConsole is the interactive console socket for one instance.
// The recent backlog is replayed on connect, live output follows, and
// every text frame received from the client is executed as a command.
func (s *Streams) HandleConsole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid instance id", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Snapshot the backlog before subscribing: a line racing the
	// connect is then replayed or streamed, never both.
	backlog := s.Manager.GetConsole(id, consoleBacklog)

	sub := s.Bus.Subscribe(events.Key(events.KindConsole, id))
	defer sub.Unsubscribe()

	for _, line := range backlog {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			cmd := strings.TrimSpace(string(msg))
			if cmd == "" {
				continue
			}
			if _, err := s.Manager.SendRCON(id, cmd); err != nil {
				s.Bus.Publish(events.Key(events.KindConsole, id), "error: "+err.Error())
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			line, _ := ev.Payload.(string)
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func subscriptionKeys(r *http.Request) ([]string, error) {
	q := r.URL.Query()
	if raw := q.Get("keys"); raw != "" {
		return strings.Split(raw, ","), nil
	}
	instRaw := q.Get("instance")
	if instRaw == "" {
		return nil, errMissingKeys
	}
	id, err := uuid.Parse(instRaw)
	if err != nil {
		return nil, errBadInstance
	}
	kinds := []string{
		events.KindStatus, events.KindConsole, events.KindMetrics,
		events.KindProgress, events.KindBenchmark, events.KindInstall,
	}
	if raw := q.Get("kinds"); raw != "" {
		kinds = strings.Split(raw, ",")
	}
	var keys []string
	for _, kind := range kinds {
		keys = append(keys, events.Key(kind, id))
		if kind == events.KindProgress || kind == events.KindBenchmark {
			keys = append(keys, events.CompleteKey(kind, id), events.ErrorKey(kind, id))
		}
	}
	return keys, nil
}

// discardReads drains the connection so pongs are processed and a
// client close is noticed.
func discardReads(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
