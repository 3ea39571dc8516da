package intake_test

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"minutes/internal/intake"
	"minutes/internal/services"
	"minutes/internal/testsupport"
)

func TestValidateExtensions(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"meeting.mp3", true},
		{"meeting.WAV", true},
		{"standup.m4a", true},
		{"call.webm", true},
		{"call.Ogg", true},
		{"call.flac", true},
		{"team.sync.mp3", true},
		{"notes.txt", false},
		{"video.mp4", false},
		{"mp3", false},
		{"archive.mp3.zip", false},
		{"meeting.mp3 ", false},
		{" meeting.mp3", true},
		{"recordings/standup.flac", true},
		{"", false},
	}
	for _, tc := range cases {
		err := intake.Validate(tc.name, 1024)
		if tc.ok && err != nil {
			t.Fatalf("Validate(%q) unexpected error: %v", tc.name, err)
		}
		if !tc.ok {
			if !errors.Is(err, intake.ErrUnsupportedType) {
				t.Fatalf("Validate(%q) expected ErrUnsupportedType, got %v", tc.name, err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("Validate(%q) expected validation marker, got %v", tc.name, err)
			}
		}
	}
}

func TestValidateSizeCeiling(t *testing.T) {
	if err := intake.Validate("meeting.mp3", intake.MaxUploadBytes); err != nil {
		t.Fatalf("expected exactly 25 MiB to pass, got %v", err)
	}
	err := intake.Validate("meeting.mp3", intake.MaxUploadBytes+1)
	if !errors.Is(err, intake.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	var verr *intake.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Message() != "File too large. Maximum size is 25MB." {
		t.Fatalf("unexpected message %q", verr.Message())
	}
}

func TestValidateChecksTypeBeforeSize(t *testing.T) {
	err := intake.Validate("huge.txt", intake.MaxUploadBytes*2)
	var verr *intake.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if want := "Invalid file type. Please upload an audio file (MP3, WAV, M4A, WebM, OGG, or FLAC)."; verr.Message() != want {
		t.Fatalf("unexpected message %q", verr.Message())
	}
}

func TestFromPathReadsSizeAndContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Weekly Sync.MP3")
	testsupport.WriteFile(t, path, 2048)

	file, err := intake.FromPath(path)
	if err != nil {
		t.Fatalf("FromPath: %v", err)
	}
	if file.Name != "Weekly Sync.MP3" || file.Size != 2048 {
		t.Fatalf("unexpected file %+v", file)
	}
	if err := file.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	rc, err := file.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(data) != 2048 {
		t.Fatalf("expected 2048 bytes, got %d", len(data))
	}
}

func TestFromPathRejectsDirectoryAndMissing(t *testing.T) {
	dir := t.TempDir()
	if _, err := intake.FromPath(dir); err == nil {
		t.Fatal("expected error for directory")
	}
	if _, err := intake.FromPath(filepath.Join(dir, "missing.mp3")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIsAudioFile(t *testing.T) {
	if !intake.IsAudioFile("/tmp/drop/board.FLAC") {
		t.Fatal("expected flac to be accepted")
	}
	if intake.IsAudioFile("/tmp/drop/.partial") {
		t.Fatal("expected dotfile without audio extension to be rejected")
	}
}
