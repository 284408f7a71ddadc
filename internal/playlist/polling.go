package playlist

import (
	"context"
	"time"
)

// runPolling reconciles on a fixed interval. Fallback for rooms where the
// websocket endpoint is unreachable (reverse proxies without upgrade
// support).
func (m *Manager) runPolling(ctx context.Context, onChange OnChange) {
	ticker := time.NewTicker(m.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.FetchPlaylist(ctx); err != nil {
				m.logger.Printf("polling fetch failed: %v", err)
				continue
			}
			m.maybeFire(onChange)
		}
	}
}
