package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"movie.mp4", "movie.mp4"},
		{"  holiday clip.mov  ", "holiday clip.mov"},
		{"a/b\\c:d", "a-b-c-d"},
		{"what?.mp4", "what.mp4"},
		{"<video>|\"x\"", "videox"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.input); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeNarration(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"a  sunny\tday\n", "a sunny day"},
		{"  leading and trailing  ", "leading and trailing"},
		{"control\x00chars\x1fgone", "control chars gone"},
		{"café terrace", "café terrace"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeNarration(tc.input); got != tc.want {
			t.Errorf("NormalizeNarration(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"one", 1},
		{"a man walks\tacross  the street", 6},
		{"   padded   words   ", 2},
	}
	for _, tc := range cases {
		if got := WordCount(tc.input); got != tc.want {
			t.Errorf("WordCount(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}
