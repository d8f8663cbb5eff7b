package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/command"
)

const socketWriteWait = 5 * time.Second

var changeUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type changeMessage struct {
	Event   string    `json:"event"`
	ID      string    `json:"id,omitempty"`
	Command string    `json:"command,omitempty"`
	At      time.Time `json:"at"`
	Source  string    `json:"source"`
}

func newChangeMessage(change command.Change) changeMessage {
	return changeMessage{
		Event:   realtimeEventChange,
		ID:      change.ID,
		Command: change.Command,
		At:      change.At,
		Source:  realtimeSourceServer,
	}
}

func heartbeatMessage() changeMessage {
	return changeMessage{Event: realtimeEventHeartbeat, At: time.Now().UTC(), Source: realtimeSourceServer}
}

// handleChangeStream serves committed changes as server-sent events. A
// heartbeat is sent right away and then on every tick.
func (h *httpHandler) handleChangeStream(c *gin.Context) {
	ctx := c.Request.Context()
	stream, cleanup := h.changes.Subscribe(ctx)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent(realtimeEventHeartbeat, heartbeatMessage())
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case change, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(realtimeEventChange, newChangeMessage(change))
			return true
		case <-ticker.C:
			c.SSEvent(realtimeEventHeartbeat, heartbeatMessage())
			return true
		}
	})
}

// handleChangeSocket serves the same feed over a websocket, one JSON message
// per change, with pings on every tick.
func (h *httpHandler) handleChangeSocket(c *gin.Context) {
	conn, err := changeUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("request_id", c.GetString(requestIDContextKey)), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	stream, cleanup := h.changes.Subscribe(ctx)
	defer cleanup()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(message changeMessage) error {
		if err := conn.SetWriteDeadline(time.Now().Add(socketWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(message)
	}
	if err := write(heartbeatMessage()); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(socketWriteWait))
			return
		case change, ok := <-stream:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(socketWriteWait))
				return
			}
			if err := write(newChangeMessage(change)); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait)); err != nil {
				return
			}
		}
	}
}
