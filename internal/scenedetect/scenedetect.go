// Package scenedetect finds scene boundaries in a decoded frame stream by
// thresholding the mean absolute luminance difference between consecutive
// frames.
package scenedetect

import (
	"errors"
	"fmt"
	"image"
	"io"
)

// Frame is one decoded video frame in packed RGB24 layout.
type Frame struct {
	Index  int
	Width  int
	Height int
	Pixels []byte
}

// Luminance returns the frame's per-pixel luminance plane using the BT.601
// integer weighting (299r + 587g + 114b) / 1000.
func (f Frame) Luminance() []uint8 {
	plane := make([]uint8, f.Width*f.Height)
	for i := range plane {
		off := i * 3
		r := int(f.Pixels[off])
		g := int(f.Pixels[off+1])
		b := int(f.Pixels[off+2])
		plane[i] = uint8((299*r + 587*g + 114*b) / 1000)
	}
	return plane
}

// Image converts the frame to an image.RGBA for JPEG thumbnail encoding.
func (f Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < f.Width*f.Height; i++ {
		src := i * 3
		dst := i * 4
		img.Pix[dst] = f.Pixels[src]
		img.Pix[dst+1] = f.Pixels[src+1]
		img.Pix[dst+2] = f.Pixels[src+2]
		img.Pix[dst+3] = 0xff
	}
	return img
}

// Cut marks one detected scene boundary. The frame image rides along so the
// enrichment pipeline can caption it and write the thumbnail without a
// second decode pass.
type Cut struct {
	FrameNumber int
	Timestamp   float64
	Image       *image.RGBA
}

// Source yields decoded frames in presentation order. Next returns io.EOF
// after the final frame. Sources are single-pass; the detector never seeks.
type Source interface {
	Next() (Frame, error)
	Close() error
}

// Detector emits a scene cut whenever the mean absolute luminance difference
// between a frame and its immediate predecessor exceeds Threshold. The first
// decoded frame is always a cut. Comparing against the previous frame rather
// than the previous cut keeps sensitivity independent of how many cuts have
// already fired.
type Detector struct {
	// Threshold is on the 0-255 mean-absolute-difference scale.
	Threshold float64
	// FPS converts frame numbers to timestamps. When it is zero or
	// negative the timestamp degrades to the raw frame index.
	FPS float64
}

// Detect consumes the source and returns the ordered cut sequence. A source
// with zero frames yields an empty slice and no error.
func (d Detector) Detect(src Source) ([]Cut, error) {
	defer src.Close()

	var (
		cuts []Cut
		prev []uint8
	)
	for decoded := 0; ; decoded++ {
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			return cuts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", decoded, err)
		}
		if len(frame.Pixels) != frame.Width*frame.Height*3 {
			return nil, fmt.Errorf("frame %d: short pixel buffer (%d bytes for %dx%d)",
				frame.Index, len(frame.Pixels), frame.Width, frame.Height)
		}

		lum := frame.Luminance()
		if prev == nil {
			cuts = append(cuts, d.newCut(frame))
		} else if meanAbsDiff(lum, prev) > d.Threshold {
			cuts = append(cuts, d.newCut(frame))
		}
		prev = lum
	}
}

func (d Detector) newCut(frame Frame) Cut {
	ts := float64(frame.Index)
	if d.FPS > 0 {
		ts = float64(frame.Index) / d.FPS
	}
	return Cut{FrameNumber: frame.Index, Timestamp: ts, Image: frame.Image()}
}

func meanAbsDiff(a, b []uint8) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var total uint64
	for i := range a {
		diff := int(a[i]) - int(b[i])
		if diff < 0 {
			diff = -diff
		}
		total += uint64(diff)
	}
	return float64(total) / float64(len(a))
}
