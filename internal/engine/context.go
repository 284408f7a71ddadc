// Package engine binds one renderer, one playlist manager and one media
// proxy into the process-wide casting engine.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starfreedomx/ktv-cast-go/internal/apperrors"
	"github.com/starfreedomx/ktv-cast-go/internal/config"
	"github.com/starfreedomx/ktv-cast-go/internal/dlna"
	"github.com/starfreedomx/ktv-cast-go/internal/dlna/soap"
	"github.com/starfreedomx/ktv-cast-go/internal/playlist"
	"github.com/starfreedomx/ktv-cast-go/internal/proxy"
	"github.com/starfreedomx/ktv-cast-go/internal/resolver"
)

// rebindWait gives the old proxy listener time to fully release the port
// before a replacement context binds it again.
const rebindWait = 300 * time.Millisecond

// Context owns everything bound to one renderer for one room. Replaced
// atomically on device change.
type Context struct {
	cfg        config.Config
	controller *dlna.Controller
	device     *dlna.Device
	manager    *playlist.Manager
	durations  *proxy.DurationCache
	mediaProxy *proxy.Server
	localIP    string
	serverPort int
	isPlaying  atomic.Bool
	callbacks  Callbacks

	cancel context.CancelFunc
}

var (
	engineMu sync.RWMutex
	engine   *Context

	// starting rejects overlapping start calls instead of letting two
	// contexts race for the proxy port.
	starting atomic.Bool
)

// Start builds and publishes a new engine context. An existing context is
// reset first. baseURL is the room server origin, deviceLocation the
// renderer's description URL.
func Start(baseURL, roomID, deviceLocation string, callbacks Callbacks) error {
	if !starting.CompareAndSwap(false, true) {
		return apperrors.New(apperrors.ErrorCodeConflict, "engine start already in progress")
	}
	defer starting.Store(false)

	if hadPrevious := Reset(); hadPrevious {
		time.Sleep(rebindWait)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	InitLoggingNamed(cfg.LogLevel)

	controller := dlna.NewController(
		time.Duration(cfg.SoapTimeoutMs)*time.Millisecond,
		time.Duration(cfg.SSDPTimeoutMs)*time.Millisecond,
		nil,
	)

	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelSetup()
	device, err := controller.DeviceFromLocation(setupCtx, deviceLocation)
	if err != nil {
		return err
	}

	localIP := BestLocalIP(device.TargetIP())
	infof("casting callback IP: %s (renderer %s)", localIP, device.TargetIP())

	durations := proxy.NewDurationCache()
	bilibili := resolver.NewBilibili(time.Duration(cfg.ResolverTimeoutMs) * time.Millisecond)
	mediaProxy := proxy.NewServer(cfg.ProxyPort, bilibili, durations,
		time.Duration(cfg.ResolverTimeoutMs)*time.Millisecond, nil)
	if err := mediaProxy.Start(); err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeInternalError, "start media proxy", err)
	}

	manager := playlist.NewManager(baseURL, roomID, cfg, nil)

	runCtx, cancel := context.WithCancel(context.Background())
	ctxVal := &Context{
		cfg:        cfg,
		controller: controller,
		device:     device,
		manager:    manager,
		durations:  durations,
		mediaProxy: mediaProxy,
		localIP:    localIP,
		serverPort: cfg.ProxyPort,
		callbacks:  callbacks,
		cancel:     cancel,
	}

	// Renderer may already be playing something; seed the pause toggle
	// from its transport state once.
	if state, err := controller.TransportState(setupCtx, device); err == nil {
		ctxVal.isPlaying.Store(state == soap.StatePlaying)
	}

	go manager.Run(runCtx, func(key string) {
		ctxVal.cast(runCtx, key)
	})

	poller := NewStatusPoller(
		&devicePosition{controller: controller, device: device},
		manager,
		durations,
		callbacks,
		time.Duration(cfg.AutoAdvanceCooldownSec)*time.Second,
	)
	go poller.Run(runCtx)

	engineMu.Lock()
	engine = ctxVal
	engineMu.Unlock()

	infof("engine started for room %s on %q", roomID, device.FriendlyName)
	return nil
}

// Reset tears down the current context. Returns whether one existed.
func Reset() bool {
	engineMu.Lock()
	ctxVal := engine
	engine = nil
	engineMu.Unlock()

	if ctxVal == nil {
		return false
	}

	ctxVal.cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := ctxVal.mediaProxy.Shutdown(shutdownCtx); err != nil {
		warnf("proxy shutdown: %v", err)
	}
	infof("engine reset")
	return true
}

// cast points the renderer at the proxy URL for key and starts playback.
// Each step runs under the retry wrapper; serialization is guaranteed by
// the sync loop invoking this inline.
func (c *Context) cast(ctx context.Context, key string) {
	proxyURL := fmt.Sprintf("http://%s:%d/%s", c.localIP, c.serverPort, key)
	metadata := dlna.GenerateDIDLMetadata(c.manager.CurrentTitle(), "video/mp4", proxyURL, "")

	_ = retryUPnP(ctx, "Stop", func(ctx context.Context) error {
		return c.controller.Stop(ctx, c.device)
	})
	_ = retryUPnP(ctx, "SetAVTransportURI", func(ctx context.Context) error {
		return c.controller.SetAVTransportURI(ctx, c.device, proxyURL, metadata)
	})
	_ = retryUPnP(ctx, "Play", func(ctx context.Context) error {
		return c.controller.Play(ctx, c.device)
	})
	c.isPlaying.Store(true)
}

// devicePosition adapts (controller, device) to the poller's interface.
type devicePosition struct {
	controller *dlna.Controller
	device     *dlna.Device
}

func (d *devicePosition) PositionInfo(ctx context.Context) (int, int, error) {
	return d.controller.PositionInfo(ctx, d.device)
}

// current returns the published context or nil.
func current() *Context {
	engineMu.RLock()
	defer engineMu.RUnlock()
	return engine
}
