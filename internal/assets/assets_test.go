package assets

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	return storage
}

func TestSaveVideoSanitizesFilename(t *testing.T) {
	storage := newTestStorage(t)

	path, err := storage.SaveVideo("proj-1", "../..//evil:clip?.mp4", []byte("data"))
	if err != nil {
		t.Fatalf("SaveVideo failed: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(storage.Root(), "proj-1") {
		t.Fatalf("video escaped project directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "data" {
		t.Fatalf("video content mismatch: %v", err)
	}
}

func TestSaveThumbnailAndAudio(t *testing.T) {
	storage := newTestStorage(t)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	jpegBytes, err := EncodeJPEG(img)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	if len(jpegBytes) < 2 || jpegBytes[0] != 0xff || jpegBytes[1] != 0xd8 {
		t.Fatal("expected JPEG magic bytes")
	}

	thumbPath, err := storage.SaveThumbnail("proj-1", 0, jpegBytes)
	if err != nil {
		t.Fatalf("SaveThumbnail failed: %v", err)
	}
	if filepath.Base(thumbPath) != "frame_0.jpg" {
		t.Fatalf("unexpected thumbnail name %q", filepath.Base(thumbPath))
	}

	audioPath, err := storage.SaveAudio("proj-1", 0, []byte{0xff, 0xfb})
	if err != nil {
		t.Fatalf("SaveAudio failed: %v", err)
	}
	if filepath.Base(audioPath) != "audio_0.mp3" {
		t.Fatalf("unexpected audio name %q", filepath.Base(audioPath))
	}

	file, err := storage.Open("proj-1", "frame_0.jpg")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	file.Close()
}

func TestOpenRejectsTraversal(t *testing.T) {
	storage := newTestStorage(t)
	if _, err := storage.SaveAudio("proj-1", 0, []byte("x")); err != nil {
		t.Fatalf("SaveAudio failed: %v", err)
	}

	cases := []struct{ project, name string }{
		{"proj-1", "../proj-2/audio_0.mp3"},
		{"proj-1", "../../etc/passwd"},
		{"..", "audio_0.mp3"},
		{"proj/1", "audio_0.mp3"},
		{"", "audio_0.mp3"},
		{"proj-1", "."},
	}
	for _, tc := range cases {
		if _, err := storage.Open(tc.project, tc.name); err == nil {
			t.Errorf("Open(%q, %q) should have been rejected", tc.project, tc.name)
		}
	}
}

func TestRemoveProject(t *testing.T) {
	storage := newTestStorage(t)
	if _, err := storage.SaveAudio("proj-1", 0, []byte("x")); err != nil {
		t.Fatalf("SaveAudio failed: %v", err)
	}
	if err := storage.RemoveProject("proj-1"); err != nil {
		t.Fatalf("RemoveProject failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(storage.Root(), "proj-1")); !os.IsNotExist(err) {
		t.Fatal("expected project directory to be gone")
	}
}

func TestAssetNames(t *testing.T) {
	if got := ThumbnailName(3); got != "frame_3.jpg" {
		t.Fatalf("unexpected thumbnail name %q", got)
	}
	if got := AudioName(12); got != "audio_12.mp3" {
		t.Fatalf("unexpected audio name %q", got)
	}
}
