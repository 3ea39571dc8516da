package intake

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"minutes/internal/services"
)

// MaxUploadBytes is the largest recording accepted for upload (25 MiB).
const MaxUploadBytes int64 = 25 * 1024 * 1024

// AllowedExtensions lists the accepted audio extensions in display order.
var AllowedExtensions = []string{"mp3", "wav", "m4a", "webm", "ogg", "flac"}

var allowedExtensions = func() map[string]struct{} {
	set := make(map[string]struct{}, len(AllowedExtensions))
	for _, ext := range AllowedExtensions {
		set[ext] = struct{}{}
	}
	return set
}()

var (
	ErrUnsupportedType = errors.New("unsupported audio file type")
	ErrTooLarge        = errors.New("audio file too large")
)

const (
	unsupportedTypeMessage = "Invalid file type. Please upload an audio file (MP3, WAV, M4A, WebM, OGG, or FLAC)."
	tooLargeMessage        = "File too large. Maximum size is 25MB."
)

// ValidationError reports a file rejected before any network call.
type ValidationError struct {
	Name string
	Size int64
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{e.Err, services.ErrValidation}
}

// Message returns the text shown to the user for the rejection.
func (e *ValidationError) Message() string {
	if errors.Is(e.Err, ErrTooLarge) {
		return tooLargeMessage
	}
	return unsupportedTypeMessage
}

// Extension returns the lowercased extension of name without the dot, or ""
// when the base name has none. The name is used exactly as given, so trailing
// whitespace becomes part of the extension.
func Extension(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAudioFile reports whether name carries an accepted extension.
func IsAudioFile(name string) bool {
	_, ok := allowedExtensions[Extension(name)]
	return ok
}

// Validate checks the extension allow-list first, then the size ceiling.
func Validate(name string, size int64) error {
	if !IsAudioFile(name) {
		return &ValidationError{Name: name, Size: size, Err: ErrUnsupportedType}
	}
	if size > MaxUploadBytes {
		return &ValidationError{Name: name, Size: size, Err: ErrTooLarge}
	}
	return nil
}

// File is a selected recording awaiting upload.
type File struct {
	Name string
	Size int64
	open func() (io.ReadCloser, error)
}

// FromPath describes a recording on disk.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, fmt.Errorf("file does not exist: %s", path)
		}
		return File{}, fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name: info.Name(),
		Size: info.Size(),
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FromBytes describes an in-memory recording.
func FromBytes(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Validate applies the package rules to the file.
func (f File) Validate() error {
	return Validate(f.Name, f.Size)
}

// Open returns the recording contents.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("%s: no content source", f.Name)
	}
	return f.open()
}
