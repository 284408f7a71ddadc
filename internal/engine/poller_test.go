package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePosition struct {
	mu      sync.Mutex
	current int
	total   int
	err     error
}

func (f *fakePosition) PositionInfo(context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.total, f.err
}

func (f *fakePosition) set(current int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = current
}

type fakeQueue struct {
	mu       sync.Mutex
	key      string
	advances int
	err      error
}

func (f *fakeQueue) SongPlaying() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.key
}

func (f *fakeQueue) NextSong(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advances++
	return f.err
}

func (f *fakeQueue) advanceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advances
}

type fakeDurations map[string]int

func (f fakeDurations) Get(key string) (int, bool) {
	secs, ok := f[key]
	return secs, ok
}

func TestShouldAdvance(t *testing.T) {
	cases := []struct {
		total, current int
		want           bool
	}{
		{200, 199, true},
		{200, 198, true},
		{200, 197, false}, // more than 2 s left
		{200, 200, false}, // total must exceed current
		{200, 201, false}, // past the end, renderer glitch
		{0, 100, false},   // unknown total
		{6, 5, false},     // still inside the opening window
		{8, 6, true},      // short clip past the opening window
		{200, 3, false},   // buffering garbage
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, shouldAdvance(tc.total, tc.current),
			"total=%d current=%d", tc.total, tc.current)
	}
}

func TestTickAdvancesNearSongEnd(t *testing.T) {
	position := &fakePosition{current: 199}
	queue := &fakeQueue{key: "BV1a"}
	durations := fakeDurations{"BV1a": 200}

	poller := NewStatusPoller(position, queue, durations, Callbacks{}, time.Second)
	require.True(t, poller.tick(context.Background()))
	require.Equal(t, 1, queue.advanceCount())
}

func TestTickNoAdvanceMidSong(t *testing.T) {
	position := &fakePosition{current: 100}
	queue := &fakeQueue{key: "BV1a"}
	durations := fakeDurations{"BV1a": 200}

	poller := NewStatusPoller(position, queue, durations, Callbacks{}, time.Second)
	require.False(t, poller.tick(context.Background()))
	require.Equal(t, 0, queue.advanceCount())
}

func TestTickNoAdvanceWithoutCachedDuration(t *testing.T) {
	position := &fakePosition{current: 199}
	queue := &fakeQueue{key: "BV1a"}
	durations := fakeDurations{}

	poller := NewStatusPoller(position, queue, durations, Callbacks{}, time.Second)
	require.False(t, poller.tick(context.Background()))
	require.Equal(t, 0, queue.advanceCount())
}

func TestTickReportsProgressThroughCallbacks(t *testing.T) {
	position := &fakePosition{current: 42}
	queue := &fakeQueue{key: "BV1a"}
	durations := fakeDurations{"BV1a": 180}

	var gotLength, gotPosition uint64
	callbacks := Callbacks{
		SetLength:   func(v uint64) { gotLength = v },
		SetPosition: func(v uint64) { gotPosition = v },
	}

	poller := NewStatusPoller(position, queue, durations, callbacks, time.Second)
	require.False(t, poller.tick(context.Background()))
	require.Equal(t, uint64(180), gotLength)
	require.Equal(t, uint64(42), gotPosition)
}

func TestTick2xxPositionErrorReadsAsZero(t *testing.T) {
	position := &fakePosition{err: errors.New("GetPositionInfo: http 204")}
	queue := &fakeQueue{key: "BV1a"}
	durations := fakeDurations{"BV1a": 200}

	var gotPosition uint64
	poller := NewStatusPoller(position, queue, durations, Callbacks{
		SetPosition: func(v uint64) { gotPosition = v },
	}, time.Second)

	require.False(t, poller.tick(context.Background()))
	require.Equal(t, uint64(0), gotPosition)
	require.Equal(t, 0, queue.advanceCount())
}

func TestRunCooldownSuppressesDoubleAdvance(t *testing.T) {
	position := &fakePosition{current: 199}
	queue := &fakeQueue{key: "BV1a"}
	durations := fakeDurations{"BV1a": 200}

	poller := NewStatusPoller(position, queue, durations, Callbacks{}, 2*time.Second)
	poller.interval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	// The position stays pinned near the end; without the cooldown the
	// loop would advance on every tick.
	time.Sleep(400 * time.Millisecond)
	position.set(10)
	cancel()
	<-done

	require.Equal(t, 1, queue.advanceCount())
}
