package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// ServeWS upgrades the request to a websocket and streams hub events to the
// client as JSON until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	events, cancel := h.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancelWrite()
			if err != nil {
				slog.Debug("websocket write failed, dropping client", "error", err)
				return
			}
		}
	}
}
