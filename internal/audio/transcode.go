// Package audio converts synthesized speech into the telephony WAV format.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSampleRate is what IVR platforms expect: 8 kHz, mono, 16-bit PCM.
const DefaultSampleRate = 8000

// Transcoder converts an encoded audio file into telephony WAV.
type Transcoder interface {
	Transcode(ctx context.Context, src []byte) ([]byte, error)
}

// FFmpegTranscoder shells out to an ffmpeg binary.
type FFmpegTranscoder struct {
	Path       string
	SampleRate int
	TempDir    string // defaults to the OS temp dir
}

// NewFFmpegTranscoder creates a transcoder using the ffmpeg at path.
func NewFFmpegTranscoder(path string, sampleRate int) *FFmpegTranscoder {
	if path == "" {
		path = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &FFmpegTranscoder{Path: path, SampleRate: sampleRate}
}

func (f *FFmpegTranscoder) args(in, out string) []string {
	return []string{
		"-y", "-i", in,
		"-ar", strconv.Itoa(f.SampleRate),
		"-ac", "1",
		"-acodec", "pcm_s16le",
		out,
	}
}

func (f *FFmpegTranscoder) Transcode(ctx context.Context, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("transcode: empty input")
	}
	dir, err := os.MkdirTemp(f.TempDir, "snapshot-audio-")
	if err != nil {
		return nil, fmt.Errorf("transcode temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "market.mp3")
	out := filepath.Join(dir, "market.wav")
	if err := os.WriteFile(in, src, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Path, f.args(in, out)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	wav, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return wav, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
