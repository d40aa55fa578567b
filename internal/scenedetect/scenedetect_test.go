package scenedetect

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

type sliceSource struct {
	frames []Frame
	pos    int
	closed bool
}

func (s *sliceSource) Next() (Frame, error) {
	if s.pos >= len(s.frames) {
		return Frame{}, io.EOF
	}
	frame := s.frames[s.pos]
	s.pos++
	return frame, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func solidFrame(index int, r, g, b uint8) Frame {
	const w, h = 4, 4
	pixels := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		pixels[i*3] = r
		pixels[i*3+1] = g
		pixels[i*3+2] = b
	}
	return Frame{Index: index, Width: w, Height: h, Pixels: pixels}
}

func colorBlockFrames() []Frame {
	// Three two-frame color blocks: black, mid gray, white.
	return []Frame{
		solidFrame(0, 0, 0, 0),
		solidFrame(1, 0, 0, 0),
		solidFrame(2, 128, 128, 128),
		solidFrame(3, 128, 128, 128),
		solidFrame(4, 255, 255, 255),
		solidFrame(5, 255, 255, 255),
	}
}

func TestDetectColorBlocks(t *testing.T) {
	src := &sliceSource{frames: colorBlockFrames()}
	detector := Detector{Threshold: 30, FPS: 2}

	cuts, err := detector.Detect(src)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !src.closed {
		t.Error("expected source to be closed")
	}
	if len(cuts) != 3 {
		t.Fatalf("expected 3 cuts, got %d", len(cuts))
	}
	wantFrames := []int{0, 2, 4}
	wantTimes := []float64{0.0, 1.0, 2.0}
	for i, cut := range cuts {
		if cut.FrameNumber != wantFrames[i] {
			t.Errorf("cut %d: frame %d, want %d", i, cut.FrameNumber, wantFrames[i])
		}
		if math.Abs(cut.Timestamp-wantTimes[i]) > 1e-9 {
			t.Errorf("cut %d: timestamp %v, want %v", i, cut.Timestamp, wantTimes[i])
		}
		if cut.Image == nil {
			t.Errorf("cut %d: missing image", i)
		}
	}
}

func TestDetectEmptySource(t *testing.T) {
	cuts, err := Detector{Threshold: 30, FPS: 24}.Detect(&sliceSource{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(cuts) != 0 {
		t.Fatalf("expected no cuts, got %d", len(cuts))
	}
}

func TestDetectSingleFrameAlwaysCuts(t *testing.T) {
	src := &sliceSource{frames: []Frame{solidFrame(0, 10, 20, 30)}}
	cuts, err := Detector{Threshold: 30, FPS: 24}.Detect(src)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(cuts) != 1 || cuts[0].FrameNumber != 0 || cuts[0].Timestamp != 0 {
		t.Fatalf("expected single cut at frame 0, got %+v", cuts)
	}
}

func TestDetectComparesAgainstImmediatePredecessor(t *testing.T) {
	// A slow ramp never crosses the threshold frame-to-frame even though
	// the total drift from frame 0 is large.
	frames := []Frame{
		solidFrame(0, 0, 0, 0),
		solidFrame(1, 20, 20, 20),
		solidFrame(2, 40, 40, 40),
		solidFrame(3, 60, 60, 60),
		solidFrame(4, 80, 80, 80),
	}
	cuts, err := Detector{Threshold: 30, FPS: 24}.Detect(&sliceSource{frames: frames})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(cuts) != 1 {
		t.Fatalf("expected only the initial cut, got %d", len(cuts))
	}
}

func TestDetectZeroFPSFallsBackToFrameIndex(t *testing.T) {
	src := &sliceSource{frames: colorBlockFrames()}
	cuts, err := Detector{Threshold: 30, FPS: 0}.Detect(src)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	for _, cut := range cuts {
		if cut.Timestamp != float64(cut.FrameNumber) {
			t.Errorf("frame %d: timestamp %v, want frame index fallback", cut.FrameNumber, cut.Timestamp)
		}
	}
}

func TestDetectIdempotent(t *testing.T) {
	detector := Detector{Threshold: 30, FPS: 2}
	first, err := detector.Detect(&sliceSource{frames: colorBlockFrames()})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	second, err := detector.Detect(&sliceSource{frames: colorBlockFrames()})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("runs disagree: %d vs %d cuts", len(first), len(second))
	}
	for i := range first {
		if first[i].FrameNumber != second[i].FrameNumber || first[i].Timestamp != second[i].Timestamp {
			t.Errorf("cut %d differs between runs", i)
		}
	}
}

func TestDetectShortPixelBuffer(t *testing.T) {
	bad := Frame{Index: 0, Width: 4, Height: 4, Pixels: make([]byte, 5)}
	_, err := Detector{Threshold: 30, FPS: 24}.Detect(&sliceSource{frames: []Frame{bad}})
	if err == nil {
		t.Fatal("expected an error for a short pixel buffer")
	}
}

type failingSource struct{ sliceSource }

func (f *failingSource) Next() (Frame, error) {
	if f.pos < len(f.frames) {
		return f.sliceSource.Next()
	}
	return Frame{}, errors.New("decoder exploded")
}

func TestDetectPropagatesDecodeError(t *testing.T) {
	_, err := Detector{Threshold: 30, FPS: 24}.Detect(&failingSource{})
	if err == nil {
		t.Fatal("expected decode error to propagate")
	}
}

func TestDetectDecodeErrorNamesFailingFrame(t *testing.T) {
	// Four frames decode (two color blocks, so only two cuts fire), then
	// the fifth decode fails. The error must name frame 4, not the cut
	// count.
	src := &failingSource{sliceSource{frames: []Frame{
		solidFrame(0, 0, 0, 0),
		solidFrame(1, 0, 0, 0),
		solidFrame(2, 255, 255, 255),
		solidFrame(3, 255, 255, 255),
	}}}
	_, err := Detector{Threshold: 30, FPS: 24}.Detect(src)
	if err == nil {
		t.Fatal("expected decode error to propagate")
	}
	if !strings.Contains(err.Error(), "decode frame 4") {
		t.Fatalf("expected error to name frame 4, got %q", err)
	}
}

func TestLuminanceWeights(t *testing.T) {
	frame := solidFrame(0, 255, 0, 0)
	lum := frame.Luminance()
	// BT.601 red weight: 299*255/1000 = 76.
	if lum[0] != 76 {
		t.Fatalf("expected luminance 76 for pure red, got %d", lum[0])
	}
}
