package playlist

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type updateMessage struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
}

// wsURL rewrites the REST base URL into the room's websocket endpoint.
func (m *Manager) wsURL() string {
	base := m.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/api/ws?roomId=" + url.QueryEscape(m.roomID) + "&nickname=" + url.QueryEscape(m.nickname)
}

// runWS maintains the websocket connection: connect, reconcile eagerly,
// then react to UPDATE frames until the socket drops, with a fixed delay
// before reconnecting.
func (m *Manager) runWS(ctx context.Context, onChange OnChange) {
	for {
		if ctx.Err() != nil {
			return
		}

		endpoint := m.wsURL()
		m.logger.Printf("connecting websocket: %s", endpoint)
		dialer := websocket.Dialer{HandshakeTimeout: m.wsTimeout}
		conn, _, err := dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			m.logger.Printf("websocket connect failed: %v", err)
			if !sleepCtx(ctx, m.reconnect) {
				return
			}
			continue
		}
		m.logger.Printf("websocket connected for room %s", m.roomID)

		// Eager reconciliation: an update may have happened while we were
		// disconnected. maybeFire keeps an unchanged singing key silent.
		if _, err := m.FetchPlaylist(ctx); err != nil {
			m.logger.Printf("initial fetch failed: %v", err)
		} else {
			m.maybeFire(onChange)
		}

		m.readLoop(ctx, conn, onChange)
		conn.Close()

		if !sleepCtx(ctx, m.reconnect) {
			return
		}
		m.logger.Printf("reconnecting websocket")
	}
}

// readLoop serves one connection until a read error, close frame, or ctx
// cancellation. The heartbeat goroutine sends protocol pings and fires a
// best-effort warm-up fetch to keep the HTTP connection pool alive.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn, onChange OnChange) {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-loopCtx.Done()
		conn.Close()
	}()

	go m.heartbeatLoop(loopCtx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				m.logger.Printf("websocket read error: %v", err)
			}
			return
		}

		var msg updateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			m.logger.Printf("bad websocket frame: %v", err)
			continue
		}
		if msg.Type != "UPDATE" {
			continue
		}

		if msg.Hash != m.currentHash() {
			if _, err := m.FetchPlaylist(ctx); err != nil {
				m.logger.Printf("reconcile fetch failed: %v", err)
				continue
			}
		}
		// Fires only on a singing-key transition. A hash-only change
		// (queue reorder, new entry) updates state without casting.
		m.maybeFire(onChange)
	}
}

func (m *Manager) heartbeatLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				m.logger.Printf("websocket ping failed: %v", err)
				conn.Close()
				return
			}
			if m.warmup {
				go func() {
					if _, err := m.FetchPlaylist(ctx); err != nil {
						m.logger.Printf("keep-alive fetch failed: %v", err)
					}
				}()
			}
		}
	}
}

// sleepCtx sleeps for d; false when ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
