package engine

import (
	"context"
	"time"
)

// positionReader is the controller slice the poller needs.
type positionReader interface {
	// PositionInfo returns (currentSeconds, totalSeconds).
	PositionInfo(ctx context.Context) (int, int, error)
}

// queueAdvancer is the playlist slice the poller needs.
type queueAdvancer interface {
	SongPlaying() string
	NextSong(ctx context.Context) error
}

// durationSource is the cache slice the poller needs.
type durationSource interface {
	Get(key string) (int, bool)
}

// Callbacks surface playback progress to the front-end. Both functions
// must be safe to call from the poller goroutine.
type Callbacks struct {
	SetLength   func(uint64)
	SetPosition func(uint64)
}

// StatusPoller reads renderer progress once per second and advances the
// queue when the current song is about to end.
type StatusPoller struct {
	position  positionReader
	queue     queueAdvancer
	durations durationSource
	callbacks Callbacks
	interval  time.Duration
	cooldown  time.Duration
}

func NewStatusPoller(position positionReader, queue queueAdvancer, durations durationSource, callbacks Callbacks, cooldown time.Duration) *StatusPoller {
	return &StatusPoller{
		position:  position,
		queue:     queue,
		durations: durations,
		callbacks: callbacks,
		interval:  time.Second,
		cooldown:  cooldown,
	}
}

// Run polls until ctx ends.
func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.tick(ctx) {
				// One song-end edge must yield exactly one advance; the
				// renderer needs a moment to transition.
				if !sleepCtx(ctx, p.cooldown) {
					return
				}
				ticker.Reset(p.interval)
			}
		}
	}
}

// tick performs one poll. Returns true when nextSong fired, telling the
// loop to apply the cooldown.
func (p *StatusPoller) tick(ctx context.Context) bool {
	total := 0
	if key := p.queue.SongPlaying(); key != "" {
		if cached, ok := p.durations.Get(key); ok {
			total = cached
		}
	}

	var current int
	err := retryUPnP(ctx, "GetPositionInfo", func(ctx context.Context) error {
		var err error
		current, _, err = p.position.PositionInfo(ctx)
		return err
	})
	if err != nil {
		return false
	}

	if total > 0 && p.callbacks.SetLength != nil {
		p.callbacks.SetLength(uint64(total))
	}
	if p.callbacks.SetPosition != nil {
		p.callbacks.SetPosition(uint64(current))
	}

	if shouldAdvance(total, current) {
		infof("song ending, advancing queue")
		if err := retryN(ctx, "nextSong", 3, p.queue.NextSong); err != nil {
			warnf("auto-advance failed: %v", err)
		}
		return true
	}
	return false
}

// shouldAdvance gates auto-advance: a known total, past the opening
// seconds (renderers report garbage while buffering), and within 2 s of
// the end.
func shouldAdvance(total, current int) bool {
	return total > 0 && current > 5 && total > current && total-current <= 2
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
