// Package enrich turns a detected scene cut into a described, narrated
// scene: caption, thumbnail, synthesized audio, and duration. External
// service failures degrade to deterministic local fallbacks; the only
// errors this package returns are local asset I/O failures.
package enrich

import (
	"context"
	"log/slog"

	"descant/internal/assets"
	"descant/internal/logging"
	"descant/internal/scenedetect"
	"descant/internal/services"
	"descant/internal/services/speech"
	"descant/internal/textutil"
)

// FallbackDescription is stored when the captioning capability is
// unavailable or fails.
const FallbackDescription = "Scene description unavailable."

// Captioner produces an accessibility description for a JPEG frame.
type Captioner interface {
	Describe(ctx context.Context, frameJPEG []byte) (string, error)
}

// Synthesizer converts narration text to MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Configured() bool
}

// Result is one enriched scene. The degraded flags record which external
// capabilities fell back locally so callers can log and surface them.
type Result struct {
	Description     string
	ThumbnailPath   string
	AudioPath       string
	Duration        float64
	CaptionDegraded bool
	AudioDegraded   bool
}

// Enricher runs the per-scene enrichment sequence.
type Enricher struct {
	captioner Captioner
	synth     Synthesizer
	storage   *assets.Storage
	logger    *slog.Logger
}

// New constructs an Enricher. captioner and synth may be nil, in which case
// every scene takes the corresponding local fallback.
func New(captioner Captioner, synth Synthesizer, storage *assets.Storage, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enricher{
		captioner: captioner,
		synth:     synth,
		storage:   storage,
		logger:    logging.WithComponent(logger, "enrich"),
	}
}

// EnrichScene captions and narrates one scene cut. index is the scene's
// position in detection order and fixes its asset file names. Only asset
// I/O failures return an error; caption and synthesis failures degrade.
func (e *Enricher) EnrichScene(ctx context.Context, projectID string, index int, cut scenedetect.Cut) (Result, error) {
	var result Result

	frameJPEG, err := assets.EncodeJPEG(cut.Image)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "enrich", "enrich scene", "encode frame", err)
	}
	result.ThumbnailPath, err = e.storage.SaveThumbnail(projectID, index, frameJPEG)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "enrich", "enrich scene", "write thumbnail", err)
	}

	result.Description, result.CaptionDegraded = e.caption(ctx, projectID, index, frameJPEG)

	audio, duration, degraded := e.narrate(ctx, projectID, index, result.Description)
	result.AudioDegraded = degraded
	result.Duration = duration
	result.AudioPath, err = e.storage.SaveAudio(projectID, index, audio)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "enrich", "enrich scene", "write audio", err)
	}
	return result, nil
}

// ReplaceNarration re-runs only the synthesis step for edited description
// text, overwriting the audio asset at the scene's existing location. It
// returns the stored text, the new duration, and whether synthesis degraded.
func (e *Enricher) ReplaceNarration(ctx context.Context, projectID string, index int, text string) (string, float64, bool, error) {
	normalized := textutil.NormalizeNarration(text)
	audio, duration, degraded := e.narrate(ctx, projectID, index, normalized)
	if _, err := e.storage.SaveAudio(projectID, index, audio); err != nil {
		return "", 0, false, services.Wrap(services.ErrTransient, "enrich", "replace narration", "write audio", err)
	}
	return normalized, duration, degraded, nil
}

func (e *Enricher) caption(ctx context.Context, projectID string, index int, frameJPEG []byte) (string, bool) {
	if e.captioner == nil {
		return FallbackDescription, true
	}
	description, err := e.captioner.Describe(ctx, frameJPEG)
	if err != nil {
		e.logger.Warn("captioning degraded to fallback",
			logging.String("project_id", projectID),
			logging.Int("scene_index", index),
			logging.Error(err))
		return FallbackDescription, true
	}
	normalized := textutil.NormalizeNarration(description)
	if normalized == "" {
		return FallbackDescription, true
	}
	return normalized, false
}

// narrate synthesizes text, or falls back to a silent placeholder with the
// word-count duration estimate. It never fails.
func (e *Enricher) narrate(ctx context.Context, projectID string, index int, text string) (audio []byte, duration float64, degraded bool) {
	estimate := speech.EstimateDuration(text)
	if e.synth == nil || !e.synth.Configured() {
		return speech.SilentMP3(estimate), estimate, true
	}

	audio, err := e.synth.Synthesize(ctx, text)
	if err != nil {
		e.logger.Warn("synthesis degraded to silent placeholder",
			logging.String("project_id", projectID),
			logging.Int("scene_index", index),
			logging.Error(err))
		return speech.SilentMP3(estimate), estimate, true
	}

	duration, err = speech.MP3Duration(audio)
	if err != nil {
		// Keep the real audio; only the measurement degrades.
		e.logger.Warn("audio duration estimated from word count",
			logging.String("project_id", projectID),
			logging.Int("scene_index", index),
			logging.Error(err))
		duration = estimate
	}
	return audio, duration, false
}
