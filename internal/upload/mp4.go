package upload

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/sakanhub/listing/internal/model"
)

// MP4Prober reads the movie duration from an ISO base media file (mp4/mov)
// by walking the box tree to the moov/mvhd header. Other containers fail
// the probe and the file is rejected as undecodable.
type MP4Prober struct{}

// Duration implements DurationProber.
func (MP4Prober) Duration(ctx context.Context, f *model.File) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	moov, err := findBox(f.Data, "moov")
	if err != nil {
		return 0, err
	}
	mvhd, err := findBox(moov, "mvhd")
	if err != nil {
		return 0, err
	}
	return parseMvhd(mvhd)
}

// findBox scans sibling boxes in data and returns the payload of the first
// box with the given type.
func findBox(data []byte, boxType string) ([]byte, error) {
	offset := 0
	for offset+8 <= len(data) {
		size := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		name := string(data[offset+4 : offset+8])
		headerLen := 8

		if size == 1 {
			// 64-bit largesize follows the box type.
			if offset+16 > len(data) {
				return nil, errors.New("truncated box header")
			}
			size = int(binary.BigEndian.Uint64(data[offset+8 : offset+16]))
			headerLen = 16
		} else if size == 0 {
			// Box extends to end of data.
			size = len(data) - offset
		}

		if size < headerLen || offset+size > len(data) {
			return nil, fmt.Errorf("malformed box %q", name)
		}
		if name == boxType {
			return data[offset+headerLen : offset+size], nil
		}
		offset += size
	}
	return nil, fmt.Errorf("box %q not found", boxType)
}

// parseMvhd extracts timescale and duration from a movie header box.
func parseMvhd(payload []byte) (time.Duration, error) {
	if len(payload) < 4 {
		return 0, errors.New("truncated mvhd")
	}
	version := payload[0]

	var timescale uint32
	var duration uint64
	switch version {
	case 0:
		// version/flags, creation, modification, timescale, duration.
		if len(payload) < 20 {
			return 0, errors.New("truncated mvhd v0")
		}
		timescale = binary.BigEndian.Uint32(payload[12:16])
		duration = uint64(binary.BigEndian.Uint32(payload[16:20]))
	case 1:
		if len(payload) < 32 {
			return 0, errors.New("truncated mvhd v1")
		}
		timescale = binary.BigEndian.Uint32(payload[20:24])
		duration = binary.BigEndian.Uint64(payload[24:32])
	default:
		return 0, fmt.Errorf("unsupported mvhd version %d", version)
	}

	if timescale == 0 {
		return 0, errors.New("mvhd timescale is zero")
	}
	return time.Duration(float64(duration) / float64(timescale) * float64(time.Second)), nil
}
