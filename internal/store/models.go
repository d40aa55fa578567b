package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a project.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusAnalyzed   Status = "analyzed"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

var allStatuses = []Status{
	StatusUploaded,
	StatusProcessing,
	StatusAnalyzed,
	StatusCompleted,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[normalized]; ok {
		return normalized, true
	}
	return "", false
}

// Project is a video description project persisted in SQLite.
type Project struct {
	ID               string    `json:"id"`
	VideoPath        string    `json:"video_path"`
	OriginalFilename string    `json:"original_filename"`
	Status           Status    `json:"status"`
	TotalScenes      int       `json:"total_scenes"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsProcessing returns true while an analysis run is in flight.
func (p Project) IsProcessing() bool {
	return p.Status == StatusProcessing
}

// HasScenes reports whether total_scenes is authoritative and non-zero.
func (p Project) HasScenes() bool {
	return (p.Status == StatusAnalyzed || p.Status == StatusCompleted) && p.TotalScenes > 0
}

// Scene is one detected scene with its enrichment results.
//
// FrameNumber is the sort key: scenes of one project are always retrieved
// ordered by frame number, which equals detection order. Description,
// AudioPath, and Duration are the only fields the update path may change.
type Scene struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project_id"`
	FrameNumber   int     `json:"frame_number"`
	Timestamp     float64 `json:"timestamp"`
	ThumbnailPath string  `json:"thumbnail_path"`
	Description   string  `json:"description"`
	AudioPath     string  `json:"audio_path"`
	Duration      float64 `json:"duration"`
}
