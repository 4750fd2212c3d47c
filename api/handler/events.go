package handler

import (
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/queueflow/backend/domain"
	"github.com/queueflow/backend/internal/hub"
	"github.com/queueflow/backend/pkg/httpcontext"
	"github.com/queueflow/backend/usecase/dispatch"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 20 * time.Second
)

// EventsHandler upgrades waiting-screen and dashboard connections to
// websockets fed by the notification hub. Each connection gets a snapshot
// first so a client never renders from events alone.
type EventsHandler struct {
	baseHandler
	dispatcher *dispatch.Dispatcher
	hub        *hub.Hub
	upgrader   websocket.FastHTTPUpgrader
}

func NewEventsHandler(dispatcher *dispatch.Dispatcher, h *hub.Hub, adapter *httpcontext.Adapter, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  dispatcher,
		hub:         h,
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*fasthttp.RequestCtx) bool { return true },
		},
	}
}

// SubscribeTicket streams lifecycle events for one ticket.
func (h *EventsHandler) SubscribeTicket(ctx *fasthttp.RequestCtx) {
	ticketID, ok := ctx.UserValue("id").(string)
	if !ok || ticketID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	view, err := h.dispatcher.Status(stdCtx, ticketID)
	cancel()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.serve(ctx, func() *hub.Subscriber { return h.hub.SubscribeTicket(ticketID) }, view)
}

// SubscribeDepartment streams every event of a department's queue.
func (h *EventsHandler) SubscribeDepartment(ctx *fasthttp.RequestCtx) {
	departmentID, ok := ctx.UserValue("id").(string)
	if !ok || departmentID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	queue, err := h.dispatcher.DepartmentQueue(stdCtx, departmentID)
	cancel()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.serve(ctx, func() *hub.Subscriber { return h.hub.SubscribeDepartment(departmentID) }, queue)
}

func (h *EventsHandler) serve(ctx *fasthttp.RequestCtx, subscribe func() *hub.Subscriber, snapshot interface{}) {
	err := h.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		sub := subscribe()
		defer h.hub.Unsubscribe(sub)

		if err := h.writeJSON(conn, map[string]interface{}{
			"type": "snapshot",
			"data": snapshot,
		}); err != nil {
			return
		}

		done := make(chan struct{})
		go h.readPump(conn, sub, done)
		h.writePump(conn, sub, done)
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}

// readPump drains client frames. Any inbound frame or pong counts as a
// heartbeat for the reaper.
func (h *EventsHandler) readPump(conn *websocket.Conn, sub *hub.Subscriber, done chan struct{}) {
	defer close(done)

	conn.SetPongHandler(func(string) error {
		sub.Heartbeat()
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		sub.Heartbeat()
	}
}

func (h *EventsHandler) writePump(conn *websocket.Conn, sub *hub.Subscriber, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event := <-sub.Events():
			if err := h.writeJSON(conn, map[string]interface{}{
				"type": "event",
				"data": event,
			}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-sub.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		case <-done:
			return
		}
	}
}

func (h *EventsHandler) writeJSON(conn *websocket.Conn, payload interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}
