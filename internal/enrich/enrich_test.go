package enrich

import (
	"context"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"descant/internal/assets"
	"descant/internal/scenedetect"
	"descant/internal/services/speech"
	"descant/internal/testsupport"
)

type fakeCaptioner struct {
	description string
	err         error
	calls       int
}

func (f *fakeCaptioner) Describe(ctx context.Context, frameJPEG []byte) (string, error) {
	f.calls++
	return f.description, f.err
}

type fakeSynthesizer struct {
	audio      []byte
	err        error
	configured bool
	calls      int
	lastText   string
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.calls++
	f.lastText = text
	return f.audio, f.err
}

func (f *fakeSynthesizer) Configured() bool { return f.configured }

func testCut() scenedetect.Cut {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return scenedetect.Cut{FrameNumber: 0, Timestamp: 0, Image: img}
}

func newTestEnricher(t *testing.T, captioner Captioner, synth Synthesizer) (*Enricher, *assets.Storage) {
	t.Helper()
	storage := testsupport.NewStorage(t)
	return New(captioner, synth, storage, nil), storage
}

func TestEnrichSceneHappyPath(t *testing.T) {
	captioner := &fakeCaptioner{description: "A dog runs across a field."}
	synth := &fakeSynthesizer{audio: speech.SilentMP3(1.0), configured: true}
	enricher, _ := newTestEnricher(t, captioner, synth)

	result, err := enricher.EnrichScene(context.Background(), "proj-1", 0, testCut())
	if err != nil {
		t.Fatalf("EnrichScene failed: %v", err)
	}
	if result.Description != "A dog runs across a field." {
		t.Fatalf("unexpected description %q", result.Description)
	}
	if result.CaptionDegraded || result.AudioDegraded {
		t.Fatalf("expected no degradation, got %+v", result)
	}
	if filepath.Base(result.ThumbnailPath) != "frame_0.jpg" {
		t.Fatalf("unexpected thumbnail path %q", result.ThumbnailPath)
	}
	if filepath.Base(result.AudioPath) != "audio_0.mp3" {
		t.Fatalf("unexpected audio path %q", result.AudioPath)
	}
	if result.Duration <= 0 {
		t.Fatalf("expected measured duration, got %v", result.Duration)
	}
	if synth.lastText != result.Description {
		t.Fatalf("synthesis text %q does not match description", synth.lastText)
	}
	if _, err := os.Stat(result.AudioPath); err != nil {
		t.Fatalf("audio asset missing: %v", err)
	}
}

func TestEnrichSceneCaptionFailureDegrades(t *testing.T) {
	captioner := &fakeCaptioner{err: errors.New("vision api down")}
	synth := &fakeSynthesizer{audio: speech.SilentMP3(1.0), configured: true}
	enricher, _ := newTestEnricher(t, captioner, synth)

	result, err := enricher.EnrichScene(context.Background(), "proj-1", 0, testCut())
	if err != nil {
		t.Fatalf("EnrichScene must not fail on caption errors: %v", err)
	}
	if result.Description != FallbackDescription {
		t.Fatalf("expected fallback description, got %q", result.Description)
	}
	if !result.CaptionDegraded {
		t.Fatal("expected CaptionDegraded flag")
	}
	if result.AudioDegraded {
		t.Fatal("synthesis should still run on the fallback text")
	}
}

func TestEnrichSceneSynthesisFailureDegrades(t *testing.T) {
	captioner := &fakeCaptioner{description: "Two people talk at a table."}
	synth := &fakeSynthesizer{err: errors.New("tts down"), configured: true}
	enricher, _ := newTestEnricher(t, captioner, synth)

	result, err := enricher.EnrichScene(context.Background(), "proj-1", 2, testCut())
	if err != nil {
		t.Fatalf("EnrichScene must not fail on synthesis errors: %v", err)
	}
	if result.Description != "Two people talk at a table." {
		t.Fatal("caption must survive a synthesis failure")
	}
	if !result.AudioDegraded {
		t.Fatal("expected AudioDegraded flag")
	}

	want := speech.EstimateDuration(result.Description)
	if math.Abs(result.Duration-want) > 1e-9 {
		t.Fatalf("expected word-count estimate %v, got %v", want, result.Duration)
	}
	data, err := os.ReadFile(result.AudioPath)
	if err != nil {
		t.Fatalf("read placeholder audio: %v", err)
	}
	if _, err := speech.MP3Duration(data); err != nil {
		t.Fatalf("placeholder is not decodable MP3: %v", err)
	}
}

func TestEnrichSceneNoCapabilitiesConfigured(t *testing.T) {
	enricher, _ := newTestEnricher(t, nil, &fakeSynthesizer{configured: false})

	result, err := enricher.EnrichScene(context.Background(), "proj-1", 0, testCut())
	if err != nil {
		t.Fatalf("EnrichScene failed: %v", err)
	}
	if result.Description != FallbackDescription {
		t.Fatalf("expected fallback description, got %q", result.Description)
	}
	if !result.CaptionDegraded || !result.AudioDegraded {
		t.Fatalf("expected full degradation, got %+v", result)
	}
	want := speech.EstimateDuration(FallbackDescription)
	if math.Abs(result.Duration-want) > 1e-9 {
		t.Fatalf("expected estimate %v, got %v", want, result.Duration)
	}
}

func TestEnrichSceneNormalizesCaption(t *testing.T) {
	captioner := &fakeCaptioner{description: "  a   crowded\nmarket  "}
	enricher, _ := newTestEnricher(t, captioner, &fakeSynthesizer{configured: false})

	result, err := enricher.EnrichScene(context.Background(), "proj-1", 0, testCut())
	if err != nil {
		t.Fatalf("EnrichScene failed: %v", err)
	}
	if result.Description != "a crowded market" {
		t.Fatalf("expected normalized caption, got %q", result.Description)
	}
}

func TestReplaceNarration(t *testing.T) {
	synth := &fakeSynthesizer{configured: false}
	enricher, storage := newTestEnricher(t, nil, synth)

	// Seed the original audio asset.
	if _, err := storage.SaveAudio("proj-1", 1, speech.SilentMP3(0.5)); err != nil {
		t.Fatalf("seed audio: %v", err)
	}

	text, duration, degraded, err := enricher.ReplaceNarration(context.Background(), "proj-1", 1, "  six   words of brand new text ")
	if err != nil {
		t.Fatalf("ReplaceNarration failed: %v", err)
	}
	if text != "six words of brand new text" {
		t.Fatalf("unexpected stored text %q", text)
	}
	if !degraded {
		t.Fatal("expected degraded synthesis without a configured capability")
	}
	want := 6.0 / 150.0 * 60.0
	if math.Abs(duration-want) > 1e-9 {
		t.Fatalf("expected duration %v, got %v", want, duration)
	}

	// The audio lands at the same asset location.
	file, err := storage.Open("proj-1", "audio_1.mp3")
	if err != nil {
		t.Fatalf("expected overwritten audio at original location: %v", err)
	}
	file.Close()
	if synth.calls != 0 {
		t.Fatal("unconfigured synthesizer must not be called")
	}
}
