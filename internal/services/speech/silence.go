package speech

import (
	"bytes"
	"fmt"
	"os"
)

// Silent MP3 placeholder parameters: MPEG-1 Layer III, 44.1 kHz mono at
// 32 kbps. One frame carries 1152 samples, about 26 ms of audio in 104 bytes.
const (
	silentFrameBytes   = 104
	silentFrameSamples = 1152
	silentSampleRate   = 44100
)

// silentFrameHeader encodes sync + MPEG-1 Layer III, no CRC, 32 kbps,
// 44.1 kHz, no padding, mono.
var silentFrameHeader = [4]byte{0xff, 0xfb, 0x10, 0xc0}

// SilentMP3 returns a valid MP3 payload of silence at least duration seconds
// long. A non-positive duration yields a single frame so the file is never
// empty or undecodable.
func SilentMP3(duration float64) []byte {
	frameSeconds := float64(silentFrameSamples) / float64(silentSampleRate)
	frames := 1
	if duration > 0 {
		frames = int(duration/frameSeconds) + 1
	}

	frame := make([]byte, silentFrameBytes)
	copy(frame[:], silentFrameHeader[:])

	var buf bytes.Buffer
	buf.Grow(frames * silentFrameBytes)
	for i := 0; i < frames; i++ {
		buf.Write(frame)
	}
	return buf.Bytes()
}

// WriteSilence writes a silent MP3 placeholder of at least duration seconds
// to path.
func WriteSilence(path string, duration float64) error {
	if err := os.WriteFile(path, SilentMP3(duration), 0o644); err != nil {
		return fmt.Errorf("speech: write silence: %w", err)
	}
	return nil
}
