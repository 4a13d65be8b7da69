package monitor

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/logging"
)

// Connection is one connected page.
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	closeOnce sync.Once
}

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// Hub is a display surface whose views broadcast events to every
// connected page. It keeps a dashboard so late joiners start from
// the current state.
type Hub struct {
	collector *EventCollector
	dashboard *Dashboard
	logger    logging.Logger

	mu          sync.RWMutex
	connections map[string]*Connection
}

// NewHub creates a hub feeding dashboard.
func NewHub(dashboard *Dashboard, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NullLogger{}
	}
	h := &Hub{
		collector:   NewEventCollector(0),
		dashboard:   dashboard,
		logger:      logger,
		connections: make(map[string]*Connection),
	}
	h.collector.OnEvent(dashboard.UpdateFromEvent)
	h.collector.OnEvent(h.broadcast)
	return h
}

// Surface returns a display surface bound to every hub view.
func (h *Hub) Surface() *display.Surface { return display.Bind(h) }

// Collector returns the hub's event collector.
func (h *Hub) Collector() *EventCollector { return h.collector }

// Dashboard returns the hub's dashboard.
func (h *Hub) Dashboard() *Dashboard { return h.dashboard }

// SetMeta broadcasts a meta update.
func (h *Hub) SetMeta(key, value string) {
	h.collector.Emit(Event{Type: EventMeta, Key: key, Value: value})
}

// RenderCases broadcasts the case list.
func (h *Hub) RenderCases(rows []display.Row) {
	h.collector.Emit(Event{Type: EventCases, Rows: rows})
}

// SetBigResult broadcasts the aggregate indicator.
func (h *Hub) SetBigResult(pass bool) {
	h.collector.Emit(Event{Type: EventBig, Pass: &pass})
}

// AppendLog broadcasts one log line.
func (h *Hub) AppendLog(line string) {
	h.collector.Emit(Event{Type: EventLog, Line: line})
}

// ShowCode broadcasts a drawn code as a PNG data URL.
func (h *Hub) ShowCode(code display.Code) {
	img := &CodeImage{Side: code.Side, Level: code.Level}
	if len(code.PNG) > 0 {
		img.Image = "data:image/png;base64," +
			base64.StdEncoding.EncodeToString(code.PNG)
	}
	h.collector.Emit(Event{Type: EventCode, Code: img})
}

// ShowBox broadcasts a drawn status box.
func (h *Hub) ShowBox(box display.Box) {
	h.collector.Emit(Event{Type: EventBox, Box: &box})
}

// Hide broadcasts overlay dismissal.
func (h *Hub) Hide() {
	h.collector.Emit(Event{Type: EventHide})
}

// SetStatus records and broadcasts the run status.
func (h *Hub) SetStatus(status string) {
	h.collector.Emit(Event{Type: EventStatus, Value: status})
}

// Notify broadcasts an error message to every page.
func (h *Hub) Notify(msg string) {
	h.collector.Emit(Event{Type: EventError, Message: msg})
}

// NewConnection wraps ws with a fresh id.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:   uuid.New().String(),
		Conn: ws,
		Send: make(chan []byte, 256),
	}
}

// Register adds conn and queues the current state for it.
func (h *Hub) Register(conn *Connection) {
	snap := h.dashboard.Snapshot()
	if data, err := json.Marshal(Event{
		Type:      EventState,
		State:     &snap,
		Timestamp: time.Now(),
	}); err == nil {
		conn.Send <- data
	}

	h.mu.Lock()
	h.connections[conn.ID] = conn
	h.mu.Unlock()
	h.logger.Debug("page connected", logging.StringField("conn", conn.ID))
}

// Unregister removes conn and closes its send queue.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	_, ok := h.connections[conn.ID]
	delete(h.connections, conn.ID)
	h.mu.Unlock()

	if ok {
		conn.close()
		h.logger.Debug("page disconnected", logging.StringField("conn", conn.ID))
	}
}

// Count returns the number of connected pages.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("event encode failed", logging.ErrorField(err))
		return
	}

	h.mu.RLock()
	var slow []*Connection
	for _, conn := range h.connections {
		select {
		case conn.Send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range slow {
		h.Unregister(conn)
		h.logger.Warn("page too slow, closed", logging.StringField("conn", conn.ID))
	}
}
