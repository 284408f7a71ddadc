package engine

import (
	"context"
	"time"

	"github.com/starfreedomx/ktv-cast-go/internal/apperrors"
	"github.com/starfreedomx/ktv-cast-go/internal/config"
	"github.com/starfreedomx/ktv-cast-go/internal/dlna"
)

const opTimeout = 10 * time.Second

// Running reports whether a context is published.
func Running() bool {
	return current() != nil
}

// SearchDevices runs one discovery pass independent of any engine
// context; the FFI calls it before start.
func SearchDevices() ([]dlna.Device, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	controller := dlna.NewController(
		time.Duration(cfg.SoapTimeoutMs)*time.Millisecond,
		time.Duration(cfg.SSDPTimeoutMs)*time.Millisecond,
		nil,
	)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return controller.DiscoverDevices(ctx)
}

// TogglePause flips playback. The isPlaying flag is the source of truth;
// renderer transport state is only consulted at start. Returns the new
// playing state.
func TogglePause() (bool, error) {
	c := current()
	if c == nil {
		return false, apperrors.ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if c.isPlaying.Load() {
		if err := retryN(ctx, "Pause", 3, func(ctx context.Context) error {
			return c.controller.Pause(ctx, c.device)
		}); err != nil {
			return true, err
		}
		c.isPlaying.Store(false)
		return false, nil
	}

	if err := retryN(ctx, "Play", 3, func(ctx context.Context) error {
		return c.controller.Play(ctx, c.device)
	}); err != nil {
		return false, err
	}
	c.isPlaying.Store(true)
	return true, nil
}

// SetVolume clamps level to [0,100], transmits it, and returns the value
// actually set.
func SetVolume(level int) (int, error) {
	c := current()
	if c == nil {
		return -1, apperrors.ErrNotInitialized
	}
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := retryN(ctx, "SetVolume", 3, func(ctx context.Context) error {
		return c.controller.SetVolume(ctx, c.device, level)
	}); err != nil {
		return -1, err
	}
	return level, nil
}

func GetVolume() (int, error) {
	c := current()
	if c == nil {
		return -1, apperrors.ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return c.controller.GetVolume(ctx, c.device)
}

// Seek jumps to an absolute position in seconds.
func Seek(seconds int) error {
	c := current()
	if c == nil {
		return apperrors.ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return retryN(ctx, "Seek", 3, func(ctx context.Context) error {
		return c.controller.Seek(ctx, c.device, seconds)
	})
}

// NextSong asks the room server to advance the queue; the resulting cast
// arrives through the sync loop.
func NextSong() error {
	c := current()
	if c == nil {
		return apperrors.ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return c.manager.NextSong(ctx)
}

// QueryProgress returns the renderer's position in seconds, -1 when the
// engine is down or the renderer unreachable.
func QueryProgress() int {
	c := current()
	if c == nil {
		return -1
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	currentSecs, _, err := c.controller.PositionInfo(ctx, c.device)
	if err != nil {
		return -1
	}
	return currentSecs
}

// QueryTotalDuration returns the cached duration of the singing song, 0
// until the proxy has seen its movie header.
func QueryTotalDuration() int {
	c := current()
	if c == nil {
		return 0
	}
	key := c.manager.SongPlaying()
	if key == "" {
		return 0
	}
	if secs, ok := c.durations.Get(key); ok {
		return secs
	}
	return 0
}

// CurrentSongTitle returns the singing entry's title, "" when idle or
// uninitialized.
func CurrentSongTitle() string {
	c := current()
	if c == nil {
		return ""
	}
	return c.manager.CurrentTitle()
}
