// Package mobile is the flat foreign-function surface for the mobile
// shell. Every function maps to one binding-generated method; errors are
// folded into sentinel return values because exceptions do not cross the
// binding boundary usefully.
package mobile

import (
	"encoding/json"

	"github.com/starfreedomx/ktv-cast-go/internal/engine"
)

// DeviceItem is one discovered renderer as the shell displays it.
type DeviceItem struct {
	FriendlyName string `json:"friendlyName"`
	Location     string `json:"location"`
}

// InitLogging sets verbosity: 0 error, 1 warn, 2 info, 3 debug.
func InitLogging(level int) {
	engine.InitLogging(level)
}

// SearchDevices runs one discovery pass and returns the device list as a
// JSON array of {friendlyName, location}. Empty array when nothing
// answered or discovery failed.
func SearchDevices() string {
	devices, err := engine.SearchDevices()
	if err != nil {
		return "[]"
	}
	items := make([]DeviceItem, len(devices))
	for i, d := range devices {
		items[i] = DeviceItem{FriendlyName: d.FriendlyName, Location: d.Location}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// StartEngine binds the engine to a room and a renderer. Safe to call
// again with a new device location. Returns false on failure.
func StartEngine(baseURL, roomID, deviceLocation string) bool {
	err := engine.Start(baseURL, roomID, deviceLocation, engine.Callbacks{})
	return err == nil
}

// ResetEngine tears the engine down; the UI calls this before picking a
// new device.
func ResetEngine() {
	engine.Reset()
}

// QueryProgress returns playback position in seconds, -1 on error.
func QueryProgress() int {
	return engine.QueryProgress()
}

// QueryTotalDuration returns the current song's duration in seconds, 0
// when unknown.
func QueryTotalDuration() int {
	return engine.QueryTotalDuration()
}

// NextSong skips to the next queue entry. Fire-and-forget.
func NextSong() {
	_ = engine.NextSong()
}

// TogglePause returns 1 when now playing, 0 when paused, -1 on error.
func TogglePause() int {
	playing, err := engine.TogglePause()
	if err != nil {
		return -1
	}
	if playing {
		return 1
	}
	return 0
}

// SetVolume sets renderer volume (clamped to 0..100) and returns the
// applied level, -1 on error.
func SetVolume(level int) int {
	applied, err := engine.SetVolume(level)
	if err != nil {
		return -1
	}
	return applied
}

// GetVolume returns the renderer volume, -1 on error.
func GetVolume() int {
	level, err := engine.GetVolume()
	if err != nil {
		return -1
	}
	return level
}

// CurrentSongTitle returns the singing entry's title, "" when idle.
func CurrentSongTitle() string {
	return engine.CurrentSongTitle()
}
