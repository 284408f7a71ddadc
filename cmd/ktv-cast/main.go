package main

import (
	"bufio"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/starfreedomx/ktv-cast-go/internal/engine"
)

func main() {
	log.SetOutput(os.Stderr)

	baseURL, roomID, err := promptRoomConfig()
	if err != nil {
		log.Fatalf("room config error: %v", err)
	}

	location, err := promptDeviceSelection()
	if err != nil {
		log.Fatalf("device selection error: %v", err)
	}

	var totalSecs, currentSecs atomic.Uint64
	callbacks := engine.Callbacks{
		SetLength:   func(v uint64) { totalSecs.Store(v) },
		SetPosition: func(v uint64) { currentSecs.Store(v) },
	}

	if err := engine.Start(baseURL, roomID, location, callbacks); err != nil {
		log.Fatalf("engine start error: %v", err)
	}
	defer engine.Reset()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	keyCh, restore := startKeyboardReader()
	defer restore()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-shutdownCh:
			fmt.Print("\r\n")
			return
		case key := <-keyCh:
			switch key {
			case 0x03: // Ctrl+C in raw mode
				fmt.Print("\r\n")
				return
			case 'p':
				if playing, err := engine.TogglePause(); err == nil {
					if playing {
						log.Printf("resumed")
					} else {
						log.Printf("paused")
					}
				}
			case 'n':
				go func() {
					if err := engine.NextSong(); err != nil {
						log.Printf("skip failed: %v", err)
					}
				}()
				log.Printf("skipping")
			}
		case <-ticker.C:
			drawProgress(currentSecs.Load(), totalSecs.Load())
		}
	}
}

// promptRoomConfig reads the room link and derives (baseURL, roomID).
// The room id comes from a roomId query parameter or the last path
// segment.
func promptRoomConfig() (string, string, error) {
	fmt.Println("=== KTV DLNA casting ===")
	fmt.Println("room link:")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", "", err
	}
	raw := strings.TrimSpace(line)
	if raw == "" {
		return "", "", fmt.Errorf("empty room link")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse room link: %w", err)
	}

	baseURL := parsed.Scheme + "://" + parsed.Host

	roomID := parsed.Query().Get("roomId")
	if roomID == "" {
		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if last := segments[len(segments)-1]; last != "" {
			roomID = last
		}
	}
	if roomID == "" {
		return "", "", fmt.Errorf("no room id in link")
	}
	if _, err := strconv.ParseUint(roomID, 10, 64); err != nil {
		return "", "", fmt.Errorf("room id %q is not numeric", roomID)
	}

	return baseURL, roomID, nil
}

// promptDeviceSelection discovers renderers and asks for an index.
func promptDeviceSelection() (string, error) {
	fmt.Println("searching for DLNA renderers...")
	devices, err := engine.SearchDevices()
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no DLNA renderers found")
	}

	for i, d := range devices {
		fmt.Printf("%d: %s at %s\n", i, d.FriendlyName, d.Location)
	}
	fmt.Print("device index: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 0 || idx >= len(devices) {
		return "", fmt.Errorf("invalid device index")
	}
	return devices[idx].Location, nil
}

// startKeyboardReader puts stdin in raw mode and streams key bytes. The
// returned restore func must run before exit or the shell is left raw.
func startKeyboardReader() (<-chan byte, func()) {
	keyCh := make(chan byte, 8)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not a terminal (piped input); keys just never arrive.
		return keyCh, func() {}
	}

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n > 0 {
				keyCh <- buf[0]
			}
		}
	}()

	return keyCh, func() { _ = term.Restore(fd, oldState) }
}

func drawProgress(current, total uint64) {
	const width = 40
	filled := 0
	if total > 0 {
		filled = int(current * width / total)
		if filled > width {
			filled = width
		}
	}
	bar := strings.Repeat("━", filled) + strings.Repeat(" ", width-filled)
	fmt.Printf("\r[%s] %02d:%02d / %02d:%02d",
		bar, current/60, current%60, total/60, total%60)
}
