package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidWAV is returned when audio is not telephony-ready PCM.
var ErrInvalidWAV = errors.New("invalid wav")

// Format is the PCM layout read from a WAV fmt chunk.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	DataBytes     uint32
}

// ParseWAV reads the fmt and data chunks of a RIFF/WAVE file.
func ParseWAV(data []byte) (Format, error) {
	var f Format
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return f, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidWAV)
	}

	var haveFmt, haveData bool
	for pos := 12; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			if id != "data" {
				return f, fmt.Errorf("%w: chunk %q truncated", ErrInvalidWAV, id)
			}
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return f, fmt.Errorf("%w: fmt chunk too short", ErrInvalidWAV)
			}
			c := data[body : body+size]
			f.AudioFormat = binary.LittleEndian.Uint16(c[0:2])
			f.Channels = binary.LittleEndian.Uint16(c[2:4])
			f.SampleRate = binary.LittleEndian.Uint32(c[4:8])
			f.BitsPerSample = binary.LittleEndian.Uint16(c[14:16])
			haveFmt = true
		case "data":
			f.DataBytes = uint32(size)
			haveData = true
		}
		pos = body + size + size%2
	}
	if !haveFmt {
		return f, fmt.Errorf("%w: no fmt chunk", ErrInvalidWAV)
	}
	if !haveData {
		return f, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
	}
	return f, nil
}

// ValidateWAV checks that data is mono 16-bit PCM at sampleRate with audio in it.
func ValidateWAV(data []byte, sampleRate int) error {
	f, err := ParseWAV(data)
	if err != nil {
		return err
	}
	switch {
	case f.AudioFormat != 1:
		return fmt.Errorf("%w: format %d is not PCM", ErrInvalidWAV, f.AudioFormat)
	case f.Channels != 1:
		return fmt.Errorf("%w: %d channels, want mono", ErrInvalidWAV, f.Channels)
	case int(f.SampleRate) != sampleRate:
		return fmt.Errorf("%w: %d Hz, want %d", ErrInvalidWAV, f.SampleRate, sampleRate)
	case f.BitsPerSample != 16:
		return fmt.Errorf("%w: %d bits per sample, want 16", ErrInvalidWAV, f.BitsPerSample)
	case f.DataBytes == 0:
		return fmt.Errorf("%w: no samples", ErrInvalidWAV)
	}
	return nil
}
