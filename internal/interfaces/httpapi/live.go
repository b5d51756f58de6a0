package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/live"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

type liveUpgrader struct {
	websocket.Upgrader
}

func newLiveUpgrader(allowedOrigins []string) liveUpgrader {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return liveUpgrader{websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || allowAll {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}}
}

// liveConn serializes writes; gorilla connections allow one concurrent writer.
type liveConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *liveConn) writeMessage(msg live.Message) error {
	payload, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, payload)
}

func (c *liveConn) write(messageType int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, payload)
}

// LiveGame upgrades to a websocket, sends the current snapshot and then
// relays every update published for the game until either side closes.
func (h *Handler) LiveGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LiveGame", gameAttr(r.PathValue("gameID")))
	defer span.End()

	if h.live == nil {
		writeError(ctx, w, unavailable("live service"))
		return
	}

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	current, err := h.live.Current(ctx, gameID)
	if err != nil {
		h.logger.WarnContext(ctx, "live snapshot failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		h.logger.WarnContext(ctx, "websocket upgrade failed", "game_id", gameID, "error", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := &liveConn{conn: ws}
	if err := conn.writeMessage(current); err != nil {
		h.logger.InfoContext(ctx, "live client gone before first message", "game_id", gameID, "error", err)
		return
	}

	go readPump(ws, cancel)
	go pingLoop(ctx, conn, cancel)

	h.logger.InfoContext(ctx, "live client connected", "game_id", gameID)
	err = h.live.Follow(ctx, gameID, conn.writeMessage)
	if err != nil {
		h.logger.InfoContext(ctx, "live relay stopped", "game_id", gameID, "error", err)
	}
	_ = conn.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	h.logger.InfoContext(ctx, "live client disconnected", "game_id", gameID)
}

// readPump drains client frames so pong and close control messages are
// processed. Any read error ends the relay.
func readPump(ws *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	ws.SetReadLimit(maxInboundSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func pingLoop(ctx context.Context, conn *liveConn, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.write(websocket.PingMessage, nil); err != nil {
				cancel()
				return
			}
		}
	}
}
