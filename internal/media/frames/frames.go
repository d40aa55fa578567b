// Package frames decodes a video into raw RGB24 frames by streaming ffmpeg's
// rawvideo output over a pipe.
package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"descant/internal/scenedetect"
)

// Reader streams decoded frames from a running ffmpeg process. It implements
// scenedetect.Source: frames arrive in presentation order and the stream is
// single-pass.
type Reader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	width  int
	height int
	index  int
	done   bool
}

// Open starts ffmpeg decoding the video at path into packed RGB24 frames of
// the given dimensions. Dimensions must match the probed video stream;
// ffmpeg emits exactly width*height*3 bytes per frame.
func Open(ctx context.Context, binary, path string, width, height int) (*Reader, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frames open: invalid dimensions %dx%d", width, height)
	}

	reader := &Reader{width: width, height: height}
	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-hide_banner",
		"-nostdin",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-")
	cmd.Stderr = &reader.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("frames open: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdout.Close()
		return nil, fmt.Errorf("frames open: start ffmpeg: %w", err)
	}

	reader.cmd = cmd
	reader.stdout = stdout
	return reader, nil
}

// Next returns the next decoded frame, or io.EOF once ffmpeg finishes. A
// decode failure surfaces ffmpeg's stderr in the returned error.
func (r *Reader) Next() (scenedetect.Frame, error) {
	if r.done {
		return scenedetect.Frame{}, io.EOF
	}

	pixels := make([]byte, r.width*r.height*3)
	n, err := io.ReadFull(r.stdout, pixels)
	switch {
	case err == nil:
		frame := scenedetect.Frame{Index: r.index, Width: r.width, Height: r.height, Pixels: pixels}
		r.index++
		return frame, nil
	case errors.Is(err, io.EOF) && n == 0:
		r.done = true
		if waitErr := r.wait(); waitErr != nil {
			return scenedetect.Frame{}, waitErr
		}
		return scenedetect.Frame{}, io.EOF
	default:
		r.done = true
		r.wait()
		return scenedetect.Frame{}, fmt.Errorf("frames next: truncated frame %d (%d of %d bytes): %w%s",
			r.index, n, len(pixels), err, r.stderrSuffix())
	}
}

// Close terminates the decode early and reaps the ffmpeg process.
func (r *Reader) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	r.stdout.Close()
	r.cmd.Wait()
	return nil
}

func (r *Reader) wait() error {
	r.stdout.Close()
	if err := r.cmd.Wait(); err != nil {
		return fmt.Errorf("frames: ffmpeg exited: %w%s", err, r.stderrSuffix())
	}
	return nil
}

func (r *Reader) stderrSuffix() string {
	detail := strings.TrimSpace(r.stderr.String())
	if detail == "" {
		return ""
	}
	return ": " + detail
}
