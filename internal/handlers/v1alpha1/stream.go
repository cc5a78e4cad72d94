package v1alpha1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Callers are untrusted observers; the API carries no credentials worth
	// protecting from cross-origin pages.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// (GET /ws)
func (h *ServiceHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Named("stream_handler").Warnw("websocket upgrade failed", "error", err)
		return
	}

	sub := h.hub.Subscribe(conn)
	sub.Run()
}
