// Package proxy serves queue entries to the renderer. Each GET path is a
// queue-entry key; the upstream URL is resolved at fetch time so signed
// links never go stale on the renderer side.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starfreedomx/ktv-cast-go/internal/resolver"
)

const (
	desktopUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"
	siteReferer = "https://www.bilibili.com/"

	// sniffBudget caps how much of the first full-file response is kept
	// around for the moov scan.
	sniffBudget = 16 << 20
)

// Hop-by-hop headers never copied from upstream responses.
var skipResponseHeaders = map[string]struct{}{
	"Connection":        {},
	"Content-Encoding":  {},
	"Transfer-Encoding": {},
}

// Server is the embedded media proxy.
type Server struct {
	port            int
	resolver        resolver.Resolver
	cache           *DurationCache
	httpClient      *http.Client
	resolverTimeout time.Duration
	logger          *log.Logger

	httpServer *http.Server
}

// NewServer creates a proxy bound to 0.0.0.0:port once started.
func NewServer(port int, res resolver.Resolver, cache *DurationCache, resolverTimeout time.Duration, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		port:            port,
		resolver:        res,
		cache:           cache,
		resolverTimeout: resolverTimeout,
		logger:          logger,
		// No client timeout: streaming a whole song must outlive any
		// fixed deadline.
		httpClient: &http.Client{},
	}

	router := chi.NewRouter()
	router.Get("/*", s.handleStream)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the listener and serves in the background. Returns once the
// port is bound so callers know the renderer can reach us.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("media proxy stopped: %v", err)
		}
	}()
	s.logger.Printf("media proxy listening on %s", s.httpServer.Addr)
	return nil
}

// Shutdown closes the listener. In-flight streams are aborted; the
// renderer re-fetches after the next SetAVTransportURI anyway.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// parseKey splits a proxy path (minus leading slash) into the video id
// and 1-based page. Key shape: <bvid>[-page<N>].
func parseKey(key string) (string, int) {
	idx := strings.Index(key, "-page")
	if idx < 0 {
		return key, 0
	}
	page, err := strconv.Atoi(key[idx+len("-page"):])
	if err != nil || page < 1 {
		return key[:idx], 0
	}
	return key[:idx], page
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	if key == "" {
		http.NotFound(w, r)
		return
	}
	videoID, page := parseKey(key)
	s.logger.Printf("proxying %s (bvid=%s page=%d range=%q)", key, videoID, page, r.Header.Get("Range"))

	resolveCtx, cancel := context.WithTimeout(r.Context(), s.resolverTimeout)
	upstreamURL, headers, err := s.resolver.Resolve(resolveCtx, videoID, page)
	cancel()
	if err != nil {
		s.logger.Printf("resolve %s failed: %v", key, err)
		http.Error(w, "resolve failed", http.StatusInternalServerError)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		http.Error(w, "bad upstream url", http.StatusInternalServerError)
		return
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", desktopUA)
	}
	if req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", siteReferer)
	}
	// Renderer range requests are forwarded verbatim.
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Printf("upstream fetch for %s failed: %v", key, err)
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		if _, skip := skipResponseHeaders[http.CanonicalHeaderKey(name)]; skip {
			continue
		}
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	_, known := s.cache.Get(key)
	sniff := !known && r.Header.Get("Range") == "" && resp.StatusCode == http.StatusOK

	if !sniff {
		if _, err := io.Copy(w, resp.Body); err != nil {
			s.logger.Printf("stream %s interrupted: %v", key, err)
		}
		return
	}

	// First full-file fetch: tee the head of the stream and scan it for
	// the movie header once the copy finishes.
	var head bytes.Buffer
	tee := io.TeeReader(resp.Body, &cappedWriter{buf: &head, limit: sniffBudget})
	_, copyErr := io.Copy(w, tee)
	if copyErr != nil {
		s.logger.Printf("stream %s interrupted: %v", key, copyErr)
	}
	if secs, ok := ParseMP4Duration(head.Bytes()); ok {
		s.logger.Printf("cached duration for %s: %ds", key, secs)
		s.cache.Set(key, secs)
	}
}

// cappedWriter keeps the first limit bytes and discards the rest.
type cappedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (c *cappedWriter) Write(p []byte) (int, error) {
	remain := c.limit - c.buf.Len()
	if remain > 0 {
		if len(p) > remain {
			c.buf.Write(p[:remain])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}
