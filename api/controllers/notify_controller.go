package controllers

import (
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/moyoez/shareintent-go/api/middlewares"
	"github.com/moyoez/shareintent-go/api/notifyhub"
	"github.com/moyoez/shareintent-go/notify"
	"github.com/moyoez/shareintent-go/tool"
)

// HandleNotifyWS upgrades the request to WebSocket, sends the current
// snapshot and registers the connection with the hub for later ones. Browser
// handshakes must come from one of allowedOrigins.
func (ctl *ShareIntentController) HandleNotifyWS(hub *notifyhub.Hub, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return middlewares.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
		},
	}
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer func() {
			// the hub closes connections it failed to write to
			if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				tool.DefaultLogger.Errorf("Failed to close WebSocket connection: %v", err)
			}
		}()

		hub.Register(conn)
		defer hub.Unregister(conn)

		if err := hub.Send(conn, notify.SnapshotNotification(ctl.ctrl.Snapshot())); err != nil {
			return
		}

		// Read loop to detect client close and keep connection alive
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
