package proxy

import "encoding/binary"

// ParseMP4Duration walks top-level MP4 boxes looking for moov/mvhd and
// returns the media duration in whole seconds. Works on a prefix of the
// file as long as it covers the moov atom.
func ParseMP4Duration(data []byte) (int, bool) {
	offset := 0
	for offset+8 <= len(data) {
		size := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		boxType := string(data[offset+4 : offset+8])
		headerLen := 8

		if size == 1 {
			// 64-bit largesize
			if offset+16 > len(data) {
				return 0, false
			}
			size64 := binary.BigEndian.Uint64(data[offset+8 : offset+16])
			if size64 > uint64(len(data)) {
				size = len(data) - offset
			} else {
				size = int(size64)
			}
			headerLen = 16
		} else if size == 0 {
			// box extends to end of file
			size = len(data) - offset
		}
		if size < headerLen {
			return 0, false
		}

		if boxType == "moov" {
			end := offset + size
			if end > len(data) {
				end = len(data)
			}
			return parseMoov(data[offset+headerLen : end])
		}

		offset += size
	}
	return 0, false
}

func parseMoov(data []byte) (int, bool) {
	offset := 0
	for offset+8 <= len(data) {
		size := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		boxType := string(data[offset+4 : offset+8])
		if size < 8 {
			return 0, false
		}
		if boxType == "mvhd" {
			end := offset + size
			if end > len(data) {
				end = len(data)
			}
			return parseMvhd(data[offset+8 : end])
		}
		offset += size
	}
	return 0, false
}

// parseMvhd reads timescale and duration from an mvhd fullbox body.
func parseMvhd(data []byte) (int, bool) {
	if len(data) < 4 {
		return 0, false
	}
	version := data[0]

	var timescale uint32
	var duration uint64
	switch version {
	case 0:
		// version/flags(4) creation(4) modification(4) timescale(4) duration(4)
		if len(data) < 20 {
			return 0, false
		}
		timescale = binary.BigEndian.Uint32(data[12:16])
		duration = uint64(binary.BigEndian.Uint32(data[16:20]))
	case 1:
		// version/flags(4) creation(8) modification(8) timescale(4) duration(8)
		if len(data) < 32 {
			return 0, false
		}
		timescale = binary.BigEndian.Uint32(data[20:24])
		duration = binary.BigEndian.Uint64(data[24:32])
	default:
		return 0, false
	}

	if timescale == 0 || duration == 0 {
		return 0, false
	}
	return int(duration / uint64(timescale)), true
}
