// Package assets manages per-project binary asset storage: uploaded videos,
// scene thumbnails, and narration audio files.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"descant/internal/textutil"
)

const jpegQuality = 85

// Storage lays out assets under a root directory, one subdirectory per
// project:
//
//	<root>/<project_id>/<original_filename>
//	<root>/<project_id>/frame_<i>.jpg
//	<root>/<project_id>/audio_<i>.mp3
//
// The index i is the scene's position in detection order.
type Storage struct {
	root string
}

// NewStorage creates asset storage rooted at dir.
func NewStorage(dir string) (*Storage, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("assets: storage root is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create storage root: %w", err)
	}
	return &Storage{root: dir}, nil
}

// Root returns the storage root directory.
func (s *Storage) Root() string {
	return s.root
}

// ProjectDir creates (if needed) and returns the directory for a project.
func (s *Storage) ProjectDir(projectID string) (string, error) {
	dir, err := s.resolve(projectID, "")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("assets: create project directory: %w", err)
	}
	return dir, nil
}

// SaveVideo writes uploaded video bytes into the project directory under a
// sanitized version of the client-supplied filename.
func (s *Storage) SaveVideo(projectID, originalFilename string, data []byte) (string, error) {
	name := textutil.SanitizeFileName(filepath.Base(originalFilename))
	if name == "" || name == "." {
		name = "video"
	}
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("assets: write video: %w", err)
	}
	return path, nil
}

// ThumbnailName returns the file name for scene index i.
func ThumbnailName(index int) string {
	return fmt.Sprintf("frame_%d.jpg", index)
}

// AudioName returns the file name for scene index i.
func AudioName(index int) string {
	return fmt.Sprintf("audio_%d.mp3", index)
}

// EncodeJPEG encodes a frame image to JPEG bytes. The same encoding feeds
// both the stored thumbnail and the captioning request.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("assets: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveThumbnail writes JPEG bytes into the project directory and returns the
// path.
func (s *Storage) SaveThumbnail(projectID string, index int, data []byte) (string, error) {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ThumbnailName(index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("assets: write thumbnail: %w", err)
	}
	return path, nil
}

// SaveAudio writes narration audio bytes into the project directory and
// returns the path.
func (s *Storage) SaveAudio(projectID string, index int, data []byte) (string, error) {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, AudioName(index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("assets: write audio: %w", err)
	}
	return path, nil
}

// Open resolves a project-relative asset name and opens it for serving.
// Names that escape the project directory are rejected.
func (s *Storage) Open(projectID, name string) (*os.File, error) {
	path, err := s.resolve(projectID, name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// RemoveProject deletes a project's asset directory and everything in it.
func (s *Storage) RemoveProject(projectID string) error {
	dir, err := s.resolve(projectID, "")
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// resolve joins project and name under the root, refusing any component that
// would traverse outside it.
func (s *Storage) resolve(projectID, name string) (string, error) {
	if projectID == "" || strings.ContainsAny(projectID, `/\`) || projectID == "." || projectID == ".." {
		return "", fmt.Errorf("assets: invalid project id %q", projectID)
	}
	path := filepath.Join(s.root, projectID)
	if name != "" {
		cleaned := filepath.Clean(name)
		if cleaned != filepath.Base(cleaned) || cleaned == "." || cleaned == ".." {
			return "", fmt.Errorf("assets: invalid asset name %q", name)
		}
		path = filepath.Join(path, cleaned)
	}
	return path, nil
}
