package analysis

import (
	"context"

	"descant/internal/media/ffprobe"
	"descant/internal/media/frames"
	"descant/internal/scenedetect"
	"descant/internal/services"
)

// SceneDetector finds scene boundaries in a video file.
type SceneDetector interface {
	DetectScenes(ctx context.Context, videoPath string) ([]scenedetect.Cut, error)
}

// VideoDetector probes a video with ffprobe and streams its frames through
// ffmpeg to run luminance-difference detection.
type VideoDetector struct {
	FFprobeBin string
	FFmpegBin  string
	Threshold  float64
}

// DetectScenes implements SceneDetector. A container without a video stream
// yields an empty cut sequence, matching the zero-decodable-frames case. A
// missing or unreadable file is an error.
func (d VideoDetector) DetectScenes(ctx context.Context, videoPath string) ([]scenedetect.Cut, error) {
	probe, err := ffprobe.Inspect(ctx, d.FFprobeBin, videoPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "analysis", "detect scenes", "probe video", err)
	}
	stream := probe.VideoStream()
	if stream == nil {
		return nil, nil
	}

	reader, err := frames.Open(ctx, d.FFmpegBin, videoPath, stream.Width, stream.Height)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "analysis", "detect scenes", "start decoder", err)
	}

	detector := scenedetect.Detector{Threshold: d.Threshold, FPS: stream.FPS()}
	cuts, err := detector.Detect(reader)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "analysis", "detect scenes", "decode frames", err)
	}
	return cuts, nil
}
