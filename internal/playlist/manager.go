// Package playlist keeps the local view of one KTV room's queue in sync
// with the room server and reports when the currently-singing entry
// changes.
package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/starfreedomx/ktv-cast-go/internal/apperrors"
	"github.com/starfreedomx/ktv-cast-go/internal/config"
)

// emptyListHash is the sentinel sent before the server has handed us any
// snapshot hash.
const emptyListHash = "EMPTY_LIST_HASH"

// Song is one queue entry as the room server serializes it.
type Song struct {
	ID      json.Number `json:"id"`
	Title   string      `json:"title"`
	URL     string      `json:"url"`
	AddedBy string      `json:"addedBy,omitempty"`
}

// Entry is the engine-local view of a song: its canonical key plus title.
type Entry struct {
	Key   string
	Title string
}

type songList struct {
	Queued  []Song `json:"queued"`
	Singing *Song  `json:"singing"`
	Sung    []Song `json:"sung"`
}

type listInfoResponse struct {
	Changed bool      `json:"changed"`
	List    *songList `json:"list"`
	Hash    string    `json:"hash"`
}

type nextSongResponse struct {
	Success bool `json:"success"`
}

// OnChange receives the new singing key. Fired at most once per key
// transition; treated as fire-and-forget by the manager, but executed in
// the sync loop's goroutine so casts for consecutive songs never overlap.
type OnChange func(key string)

// Manager owns the room state cells and the sync loop.
type Manager struct {
	baseURL    string
	roomID     string
	nickname   string
	mode       config.SyncMode
	heartbeat  time.Duration
	pollEvery  time.Duration
	reconnect  time.Duration
	wsTimeout  time.Duration
	warmup     bool
	httpClient *http.Client
	logger     *log.Logger

	mu       sync.Mutex
	hash     string // "" until the first changed response
	queued   []Entry
	singing  *Entry
	lastCast string // last callback-observed singing key
}

// NewManager builds a manager for one room. baseURL has no trailing slash
// requirement; roomID is the server's room identifier.
func NewManager(baseURL, roomID string, cfg config.Config, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		baseURL:    strings.TrimRight(baseURL, "/"),
		roomID:     roomID,
		nickname:   cfg.Nickname,
		mode:       cfg.SyncMode,
		heartbeat:  time.Duration(cfg.KeepAliveIntervalSec) * time.Second,
		pollEvery:  time.Duration(cfg.PollingIntervalMs) * time.Millisecond,
		reconnect:  time.Duration(cfg.ReconnectDelaySec) * time.Second,
		wsTimeout:  time.Duration(cfg.WSConnectTimeoutMs) * time.Millisecond,
		warmup:     cfg.HeartbeatWarmupFetch,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Run drives the configured sync loop until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, onChange OnChange) {
	m.logger.Printf("playlist sync mode: %s", m.mode)
	if m.mode == config.SyncModePolling {
		m.runPolling(ctx, onChange)
		return
	}
	m.runWS(ctx, onChange)
}

// FetchPlaylist performs one hash-gated reconciliation against the room
// server and returns the current singing key ("" when nothing is
// singing). When the server reports no change the cells are untouched.
func (m *Manager) FetchPlaylist(ctx context.Context) (string, error) {
	m.mu.Lock()
	lastHash := m.hash
	m.mu.Unlock()
	if lastHash == "" {
		lastHash = emptyListHash
	}

	url := fmt.Sprintf("%s/api/songListInfo?roomId=%s&lastHash=%s", m.baseURL, m.roomID, lastHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch playlist: http %d", resp.StatusCode)
	}

	var payload listInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", apperrors.Wrap(apperrors.ErrorCodeParseFailed, "decode playlist", err)
	}

	if !payload.Changed {
		return m.SongPlaying(), nil
	}

	var queued []Entry
	var singing *Entry
	if payload.List != nil {
		queued = make([]Entry, 0, len(payload.List.Queued))
		for _, song := range payload.List.Queued {
			queued = append(queued, Entry{Key: KeyFromURL(song.URL), Title: song.Title})
		}
		if payload.List.Singing != nil {
			singing = &Entry{
				Key:   KeyFromURL(payload.List.Singing.URL),
				Title: payload.List.Singing.Title,
			}
		}
	}
	hash := payload.Hash
	if hash == "" {
		hash = emptyListHash
	}

	m.mu.Lock()
	m.queued = queued
	m.singing = singing
	m.hash = hash
	m.mu.Unlock()

	if singing == nil {
		return "", nil
	}
	m.logger.Printf("playlist updated: %d queued, singing %s, hash %s", len(queued), singing.Key, hash)
	return singing.Key, nil
}

// NextSong asks the server to advance the queue. On success one immediate
// reconciliation runs so local state reflects the new head.
func (m *Manager) NextSong(ctx context.Context) error {
	m.mu.Lock()
	hash := m.hash
	m.mu.Unlock()
	if hash == "" {
		hash = emptyListHash
	}

	body, err := json.Marshal(map[string]string{"idArrayHash": hash})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/nextSong?roomId=%s", m.baseURL, m.roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("next song: %w", err)
	}
	defer resp.Body.Close()

	var payload nextSongResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeParseFailed, "decode nextSong response", err)
	}
	if !payload.Success {
		return apperrors.New(apperrors.ErrorCodeUpstreamRejected, "room server rejected nextSong")
	}

	if _, err := m.FetchPlaylist(ctx); err != nil {
		m.logger.Printf("post-advance fetch failed: %v", err)
	}
	return nil
}

// SongPlaying returns the current singing key, "" when idle.
func (m *Manager) SongPlaying() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.singing == nil {
		return ""
	}
	return m.singing.Key
}

// CurrentTitle returns the singing entry's title, "" when idle.
func (m *Manager) CurrentTitle() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.singing == nil {
		return ""
	}
	return m.singing.Title
}

// Snapshot returns the queued keys in play order.
func (m *Manager) Snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, len(m.queued))
	for i, e := range m.queued {
		keys[i] = e.Key
	}
	return keys
}

func (m *Manager) currentHash() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hash
}

// maybeFire fires onChange iff the singing key moved away from the last
// callback-observed value. An empty key updates the marker without
// firing, so a song that returns after an idle gap casts again.
func (m *Manager) maybeFire(onChange OnChange) {
	m.mu.Lock()
	cur := ""
	if m.singing != nil {
		cur = m.singing.Key
	}
	fire := cur != m.lastCast
	m.lastCast = cur
	m.mu.Unlock()

	if fire && cur != "" && onChange != nil {
		m.logger.Printf("singing changed, casting %s", cur)
		onChange(cur)
	}
}
