package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sellerdesk/taskd/internal/service"
	"github.com/sellerdesk/taskd/internal/task"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPongTimeout  = 60 * time.Second
	streamPingInterval = streamPongTimeout * 9 / 10

	// finished events buffered per connection before new ones are dropped
	streamEventBuffer = 64
)

// StreamHandler pushes the live task list over a websocket. A client gets the
// current list on connect and a fresh one after every change. Snapshots are
// coalesced: a slow client skips intermediate lists but always ends up with
// the latest one. Completed and failed tasks are additionally announced as
// task_finished events.
type StreamHandler struct {
	tasks    service.TaskService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(tasks service.TaskService, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		tasks: tasks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: logger.With("component", "task_stream"),
	}
}

// Stream handles GET /api/tasks/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	latest := make(chan []task.Task, 1)
	finished := make(chan task.Task, streamEventBuffer)

	unsubscribe := h.tasks.Subscribe(func(tasks []task.Task) {
		// keep only the newest snapshot
		select {
		case <-latest:
		default:
		}
		select {
		case latest <- tasks:
		default:
		}
	})
	defer unsubscribe()

	unsubscribeDone := h.tasks.OnTaskComplete(func(t task.Task) {
		select {
		case finished <- t:
		default:
			h.logger.Warn("stream client too slow, dropping task_finished event", "task_id", t.ID)
		}
	})
	defer unsubscribeDone()

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	h.logger.Debug("stream client connected", "remote_addr", r.RemoteAddr)
	defer h.logger.Debug("stream client disconnected", "remote_addr", r.RemoteAddr)

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		var msg StreamMessage
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case tasks := <-latest:
			msg = StreamMessage{Event: EventSnapshot, Tasks: tasksToResponse(tasks)}
		case t := <-finished:
			resp := taskToResponse(t)
			msg = StreamMessage{Event: EventTaskFinished, Task: &resp}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("stream write failed", "error", err)
			return
		}
	}
}

// readLoop discards client frames and closes closed when the connection ends.
func (h *StreamHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
