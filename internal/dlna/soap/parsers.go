package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

func parseTextValue(payload []byte, element string) string {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == element {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					return strings.TrimSpace(value)
				}
			}
		}
	}
	return ""
}

func parseTransportInfo(payload []byte) TransportInfo {
	return TransportInfo{
		CurrentTransportState:  parseTextValue(payload, "CurrentTransportState"),
		CurrentTransportStatus: parseTextValue(payload, "CurrentTransportStatus"),
		CurrentSpeed:           parseTextValue(payload, "CurrentSpeed"),
	}
}

func parsePositionInfo(payload []byte) PositionInfo {
	trackStr := parseTextValue(payload, "Track")
	track, _ := strconv.Atoi(trackStr)

	return PositionInfo{
		Track:         track,
		TrackDuration: parseTextValue(payload, "TrackDuration"),
		TrackURI:      parseTextValue(payload, "TrackURI"),
		RelTime:       parseTextValue(payload, "RelTime"),
		AbsTime:       parseTextValue(payload, "AbsTime"),
	}
}

func parseVolume(payload []byte) VolumeInfo {
	volStr := parseTextValue(payload, "CurrentVolume")
	vol, _ := strconv.Atoi(volStr)
	return VolumeInfo{CurrentVolume: vol}
}

// ParseClockTime converts an AVTransport time value ("HH:MM:SS" with an
// optional fraction) into whole seconds. Empty values and the
// NOT_IMPLEMENTED sentinel map to 0.
func ParseClockTime(value string) int {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "NOT_IMPLEMENTED") {
		return 0
	}
	if dot := strings.IndexByte(value, '.'); dot >= 0 {
		value = value[:dot]
	}

	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	if h < 0 || m < 0 || s < 0 {
		return 0
	}
	return h*3600 + m*60 + s
}

// FormatClockTime renders whole seconds as HH:MM:SS for Seek targets.
func FormatClockTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
