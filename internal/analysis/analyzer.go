// Package analysis orchestrates the scene pipeline: detection, bounded
// parallel enrichment, and the all-or-nothing commit that moves a project
// through its lifecycle.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"descant/internal/enrich"
	"descant/internal/logging"
	"descant/internal/notifications"
	"descant/internal/scenedetect"
	"descant/internal/services"
	"descant/internal/store"
)

// Enricher produces described, narrated scenes from detected cuts. Satisfied
// by *enrich.Enricher.
type Enricher interface {
	EnrichScene(ctx context.Context, projectID string, index int, cut scenedetect.Cut) (enrich.Result, error)
	ReplaceNarration(ctx context.Context, projectID string, index int, text string) (string, float64, bool, error)
}

// Analyzer runs analyze, export, and scene-update operations against the
// document store. Analyze calls on the same project are rejected while one
// is already in flight.
type Analyzer struct {
	store    *store.Store
	detector SceneDetector
	enricher Enricher
	notifier notifications.Service
	logger   *slog.Logger
	workers  int

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Options configures an Analyzer.
type Options struct {
	Store    *store.Store
	Detector SceneDetector
	Enricher Enricher
	Notifier notifications.Service
	Logger   *slog.Logger
	// Workers bounds concurrent scene enrichment. Values below 1 mean
	// sequential processing.
	Workers int
}

// New constructs an Analyzer.
func New(opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Analyzer{
		store:    opts.Store,
		detector: opts.Detector,
		enricher: opts.Enricher,
		notifier: opts.Notifier,
		logger:   logging.WithComponent(logger, "analyzer"),
		workers:  workers,
		inflight: make(map[string]struct{}),
	}
}

// AnalysisResult summarizes a completed analyze run.
type AnalysisResult struct {
	TotalScenes    int
	DegradedScenes int
}

// Analyze runs the full pipeline for a project: detect scene cuts, enrich
// every scene, and commit the batch. The project moves to processing
// immediately and ends in analyzed or error. A second Analyze on the same
// project while one is running returns ErrConflict.
func (a *Analyzer) Analyze(ctx context.Context, projectID string) (AnalysisResult, error) {
	// The run outlives the request that started it: a client disconnect
	// must neither abort a running analysis nor lose the error-status
	// write that follows a failure.
	ctx = context.WithoutCancel(ctx)

	var result AnalysisResult

	project, err := a.store.GetProject(ctx, projectID)
	if err != nil {
		return result, err
	}
	if !a.acquire(projectID) {
		return result, services.Wrap(services.ErrConflict, "analyzer", "analyze",
			"analysis already in progress for project "+projectID, nil)
	}
	defer a.release(projectID)

	if err := a.store.SetProjectStatus(ctx, projectID, store.StatusProcessing, ""); err != nil {
		return result, err
	}
	a.logger.Info("analysis started",
		logging.String("project_id", projectID),
		logging.String("video", project.OriginalFilename))

	cuts, err := a.detector.DetectScenes(ctx, project.VideoPath)
	if err != nil {
		return result, a.fail(ctx, projectID, project.OriginalFilename, err)
	}

	scenes, degraded, err := a.enrichAll(ctx, projectID, cuts)
	if err != nil {
		return result, a.fail(ctx, projectID, project.OriginalFilename, err)
	}

	if _, err := a.store.CommitAnalysis(ctx, projectID, scenes); err != nil {
		return result, a.fail(ctx, projectID, project.OriginalFilename, err)
	}

	result.TotalScenes = len(scenes)
	result.DegradedScenes = degraded
	a.logger.Info("analysis completed",
		logging.String("project_id", projectID),
		logging.Int("scenes", result.TotalScenes),
		logging.Int("degraded", result.DegradedScenes))
	if a.notifier != nil {
		if err := a.notifier.NotifyAnalysisCompleted(ctx, project.OriginalFilename, result.TotalScenes, result.DegradedScenes); err != nil {
			a.logger.Warn("analysis notification failed", logging.Error(err))
		}
	}
	return result, nil
}

// enrichAll fans scene enrichment out across the worker pool. Results are
// collected by index so the committed batch preserves detection order
// regardless of completion order.
func (a *Analyzer) enrichAll(ctx context.Context, projectID string, cuts []scenedetect.Cut) ([]store.Scene, int, error) {
	results := make([]enrich.Result, len(cuts))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers)
	for i, cut := range cuts {
		i, cut := i, cut
		group.Go(func() error {
			enriched, err := a.enricher.EnrichScene(groupCtx, projectID, i, cut)
			if err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}
			results[i] = enriched
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, 0, err
	}

	scenes := make([]store.Scene, len(cuts))
	degraded := 0
	for i, cut := range cuts {
		scenes[i] = store.Scene{
			FrameNumber:   cut.FrameNumber,
			Timestamp:     cut.Timestamp,
			ThumbnailPath: results[i].ThumbnailPath,
			Description:   results[i].Description,
			AudioPath:     results[i].AudioPath,
			Duration:      results[i].Duration,
		}
		if results[i].CaptionDegraded || results[i].AudioDegraded {
			degraded++
		}
	}
	return scenes, degraded, nil
}

// fail records the error state and reports it. The returned error carries
// the pipeline failure for the HTTP layer.
func (a *Analyzer) fail(ctx context.Context, projectID, filename string, cause error) error {
	a.logger.Error("analysis failed",
		logging.String("project_id", projectID),
		logging.Error(cause))
	if err := a.store.SetProjectStatus(ctx, projectID, store.StatusError, cause.Error()); err != nil {
		a.logger.Error("failed to record error status", logging.Error(err))
	}
	if a.notifier != nil {
		if err := a.notifier.NotifyError(ctx, cause, "analysis of "+filename); err != nil {
			a.logger.Warn("error notification failed", logging.Error(err))
		}
	}
	return cause
}

// ExportResult is the metadata-only export payload: the ordered scene set a
// downstream tool needs to assemble the described video.
type ExportResult struct {
	Project *store.Project
	Scenes  []store.Scene
}

// Export finalizes a project. It requires at least one persisted scene and
// moves the project to completed. Export may be re-invoked.
func (a *Analyzer) Export(ctx context.Context, projectID string) (ExportResult, error) {
	var result ExportResult

	project, err := a.store.GetProject(ctx, projectID)
	if err != nil {
		return result, err
	}
	scenes, err := a.store.ScenesForProject(ctx, projectID)
	if err != nil {
		return result, err
	}
	if len(scenes) == 0 {
		return result, services.Wrap(services.ErrValidation, "analyzer", "export",
			"project has no scenes to export", nil)
	}
	if err := a.store.SetProjectStatus(ctx, projectID, store.StatusCompleted, ""); err != nil {
		return result, err
	}
	project.Status = store.StatusCompleted

	a.logger.Info("export prepared",
		logging.String("project_id", projectID),
		logging.Int("scenes", len(scenes)))
	if a.notifier != nil {
		if err := a.notifier.NotifyExportCompleted(ctx, project.OriginalFilename, len(scenes)); err != nil {
			a.logger.Warn("export notification failed", logging.Error(err))
		}
	}

	result.Project = project
	result.Scenes = scenes
	return result, nil
}

// UpdateScene stores edited description text and re-runs only the synthesis
// step, overwriting the scene's existing audio asset. Frame number,
// timestamp, and thumbnail never change.
func (a *Analyzer) UpdateScene(ctx context.Context, sceneID, description string) (*store.Scene, error) {
	if strings.TrimSpace(description) == "" {
		return nil, services.Wrap(services.ErrValidation, "analyzer", "update scene",
			"description must not be empty", nil)
	}

	scene, err := a.store.GetScene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	index, err := assetIndex(*scene)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "analyzer", "update scene",
			"resolve audio asset location", err)
	}

	text, duration, degraded, err := a.enricher.ReplaceNarration(ctx, scene.ProjectID, index, description)
	if err != nil {
		return nil, err
	}
	if err := a.store.UpdateSceneNarration(ctx, sceneID, text, scene.AudioPath, duration); err != nil {
		return nil, err
	}

	scene.Description = text
	scene.Duration = duration
	a.logger.Info("scene narration updated",
		logging.String("scene_id", sceneID),
		logging.Bool("degraded", degraded))
	return scene, nil
}

func (a *Analyzer) acquire(projectID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.inflight[projectID]; busy {
		return false
	}
	a.inflight[projectID] = struct{}{}
	return true
}

func (a *Analyzer) release(projectID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inflight, projectID)
}

// assetIndex recovers a scene's enrichment-order index from its asset file
// names (audio_<i>.mp3 or frame_<i>.jpg).
func assetIndex(scene store.Scene) (int, error) {
	for _, candidate := range []struct{ path, prefix, suffix string }{
		{scene.AudioPath, "audio_", ".mp3"},
		{scene.ThumbnailPath, "frame_", ".jpg"},
	} {
		base := filepath.Base(candidate.path)
		if !strings.HasPrefix(base, candidate.prefix) || !strings.HasSuffix(base, candidate.suffix) {
			continue
		}
		digits := strings.TrimSuffix(strings.TrimPrefix(base, candidate.prefix), candidate.suffix)
		index, err := strconv.Atoi(digits)
		if err == nil && index >= 0 {
			return index, nil
		}
	}
	return 0, fmt.Errorf("no asset index in %q or %q", scene.AudioPath, scene.ThumbnailPath)
}
