package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"descant/internal/services"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "descant.db")
	st, err := OpenPath(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return st
}

func TestCreateAndGetProject(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.CreateProject(ctx, "/videos/demo.mp4", "demo.mp4")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated project ID")
	}
	if created.Status != StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", created.Status)
	}

	fetched, err := st.GetProject(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if fetched.VideoPath != "/videos/demo.mp4" {
		t.Fatalf("unexpected video path %q", fetched.VideoPath)
	}
	if fetched.OriginalFilename != "demo.mp4" {
		t.Fatalf("unexpected original filename %q", fetched.OriginalFilename)
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to round-trip")
	}
}

func TestGetProjectMissing(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetProject(context.Background(), "no-such-id")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetProjectStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	project, err := st.CreateProject(ctx, "/videos/demo.mp4", "demo.mp4")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	if err := st.SetProjectStatus(ctx, project.ID, StatusError, "analysis blew up"); err != nil {
		t.Fatalf("SetProjectStatus failed: %v", err)
	}
	fetched, err := st.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if fetched.Status != StatusError {
		t.Fatalf("expected error status, got %s", fetched.Status)
	}
	if fetched.ErrorMessage != "analysis blew up" {
		t.Fatalf("unexpected error message %q", fetched.ErrorMessage)
	}

	if err := st.SetProjectStatus(ctx, project.ID, StatusProcessing, ""); err != nil {
		t.Fatalf("SetProjectStatus failed: %v", err)
	}
	fetched, err = st.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if fetched.ErrorMessage != "" {
		t.Fatalf("expected cleared error message, got %q", fetched.ErrorMessage)
	}
}

func TestCommitAnalysisReplacesScenes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	project, err := st.CreateProject(ctx, "/videos/demo.mp4", "demo.mp4")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	first := []Scene{
		{FrameNumber: 0, Timestamp: 0, Description: "opening shot"},
		{FrameNumber: 48, Timestamp: 2, Description: "street scene"},
	}
	committed, err := st.CommitAnalysis(ctx, project.ID, first)
	if err != nil {
		t.Fatalf("CommitAnalysis failed: %v", err)
	}
	if len(committed) != 2 {
		t.Fatalf("expected 2 committed scenes, got %d", len(committed))
	}
	for _, scene := range committed {
		if scene.ID == "" {
			t.Fatal("expected generated scene IDs")
		}
		if scene.ProjectID != project.ID {
			t.Fatalf("unexpected project id %q", scene.ProjectID)
		}
	}

	second := []Scene{{FrameNumber: 0, Timestamp: 0, Description: "re-analyzed"}}
	if _, err := st.CommitAnalysis(ctx, project.ID, second); err != nil {
		t.Fatalf("re-analysis CommitAnalysis failed: %v", err)
	}

	scenes, err := st.ScenesForProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("ScenesForProject failed: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("expected old scenes replaced, got %d scenes", len(scenes))
	}
	if scenes[0].Description != "re-analyzed" {
		t.Fatalf("unexpected description %q", scenes[0].Description)
	}

	fetched, err := st.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if fetched.Status != StatusAnalyzed {
		t.Fatalf("expected analyzed status, got %s", fetched.Status)
	}
	if fetched.TotalScenes != 1 {
		t.Fatalf("expected total_scenes 1, got %d", fetched.TotalScenes)
	}
}

func TestCommitAnalysisEmptyBatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	project, err := st.CreateProject(ctx, "/videos/blank.mp4", "blank.mp4")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	committed, err := st.CommitAnalysis(ctx, project.ID, nil)
	if err != nil {
		t.Fatalf("CommitAnalysis failed: %v", err)
	}
	if len(committed) != 0 {
		t.Fatalf("expected no scenes, got %d", len(committed))
	}

	fetched, err := st.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if fetched.Status != StatusAnalyzed || fetched.TotalScenes != 0 {
		t.Fatalf("expected analyzed with zero scenes, got %s/%d", fetched.Status, fetched.TotalScenes)
	}
}

func TestCommitAnalysisMissingProject(t *testing.T) {
	st := newTestStore(t)

	_, err := st.CommitAnalysis(context.Background(), "no-such-id", []Scene{{FrameNumber: 0}})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScenesOrderedByFrameNumber(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	project, err := st.CreateProject(ctx, "/videos/demo.mp4", "demo.mp4")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	batch := []Scene{
		{FrameNumber: 96, Timestamp: 4},
		{FrameNumber: 0, Timestamp: 0},
		{FrameNumber: 48, Timestamp: 2},
	}
	if _, err := st.CommitAnalysis(ctx, project.ID, batch); err != nil {
		t.Fatalf("CommitAnalysis failed: %v", err)
	}

	scenes, err := st.ScenesForProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("ScenesForProject failed: %v", err)
	}
	want := []int{0, 48, 96}
	for i, scene := range scenes {
		if scene.FrameNumber != want[i] {
			t.Fatalf("scene %d: expected frame %d, got %d", i, want[i], scene.FrameNumber)
		}
	}
}

func TestUpdateSceneNarration(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	project, err := st.CreateProject(ctx, "/videos/demo.mp4", "demo.mp4")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	committed, err := st.CommitAnalysis(ctx, project.ID, []Scene{{
		FrameNumber:   12,
		Timestamp:     0.5,
		ThumbnailPath: "/uploads/p/frame_0.jpg",
		Description:   "first pass",
		AudioPath:     "/uploads/p/audio_0.mp3",
		Duration:      0.8,
	}})
	if err != nil {
		t.Fatalf("CommitAnalysis failed: %v", err)
	}

	sceneID := committed[0].ID
	if err := st.UpdateSceneNarration(ctx, sceneID, "a calmer rewrite", "/uploads/p/audio_0.mp3", 1.2); err != nil {
		t.Fatalf("UpdateSceneNarration failed: %v", err)
	}

	scene, err := st.GetScene(ctx, sceneID)
	if err != nil {
		t.Fatalf("GetScene failed: %v", err)
	}
	if scene.Description != "a calmer rewrite" {
		t.Fatalf("unexpected description %q", scene.Description)
	}
	if scene.Duration != 1.2 {
		t.Fatalf("unexpected duration %v", scene.Duration)
	}
	if scene.FrameNumber != 12 || scene.Timestamp != 0.5 {
		t.Fatal("frame fields must not change on narration update")
	}

	if err := st.UpdateSceneNarration(ctx, "no-such-scene", "x", "", 0); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	project, err := st.CreateProject(ctx, "/videos/demo.mp4", "demo.mp4")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	committed, err := st.CommitAnalysis(ctx, project.ID, []Scene{{FrameNumber: 0}})
	if err != nil {
		t.Fatalf("CommitAnalysis failed: %v", err)
	}

	if err := st.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := st.GetScene(ctx, committed[0].ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected cascade delete of scenes, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  Status
		ok    bool
	}{
		{"uploaded", StatusUploaded, true},
		{"Processing", StatusProcessing, true},
		{"  analyzed  ", StatusAnalyzed, true},
		{"completed", StatusCompleted, true},
		{"error", StatusError, true},
		{"", "", false},
		{"bogus", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}
