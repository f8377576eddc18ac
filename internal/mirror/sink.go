package mirror

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"catemirror/internal/components/assert"
	"catemirror/internal/components/telemetry"

	"github.com/mazen160/go-random"
)

const (
	report_sink_ensure_dir = "sink.ensure-dir"
	report_sink_create     = "sink.create"
)

// Sink is where mirrored files end up.
type Sink interface {
	// EnsureDir creates a directory and its parents, created is true only
	// the first time the directory is actually made.
	EnsureDir(path string) (created bool, err error)
	Exists(path string) (bool, error)
	// Create writes the contents of `r` to `path` atomically, a reader that
	// fails midway leaves no file behind.
	Create(path string, r io.Reader) (written int64, err error)
}

// FilesystemSink is a Sink on the local filesystem.
type FilesystemSink struct {
	tel     telemetry.API
	known   map[string]struct{}
	created []string
}

func NewFilesystemSink(tel telemetry.API) *FilesystemSink {
	assert.NotNil(tel)
	return &FilesystemSink{
		tel:   telemetry.NewScopedAPI("mirror", tel),
		known: map[string]struct{}{},
	}
}

// Created returns the directories made by this sink in creation order.
func (s *FilesystemSink) Created() []string {
	return s.created
}

func (s *FilesystemSink) EnsureDir(path string) (bool, error) {
	path = filepath.Clean(path)
	if _, ok := s.known[path]; ok {
		return false, nil
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		s.known[path] = struct{}{}
		return false, nil
	case err == nil:
		return false, &FilesystemError{Op: "mkdir", Path: path, Err: fmt.Errorf("a file is in the way")}
	case !errors.Is(err, fs.ErrNotExist):
		return false, &FilesystemError{Op: "stat", Path: path, Err: err}
	}

	err = os.MkdirAll(path, 0755)
	if err != nil {
		s.tel.ReportBroken(report_sink_ensure_dir, err, path)
		return false, &FilesystemError{Op: "mkdir", Path: path, Err: err}
	}
	s.known[path] = struct{}{}
	s.created = append(s.created, path)
	s.tel.ReportDebug(report_sink_ensure_dir, path)
	return true, nil
}

func (s *FilesystemSink) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, &FilesystemError{Op: "stat", Path: path, Err: err}
}

func (s *FilesystemSink) partialPath(path string) (string, error) {
	suffix, err := random.String(12)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.partial", filepath.Base(path), suffix)), nil
}

func (s *FilesystemSink) Create(path string, r io.Reader) (int64, error) {
	partial, err := s.partialPath(path)
	if err != nil {
		return 0, &FilesystemError{Op: "create", Path: path, Err: err}
	}

	f, err := os.OpenFile(partial, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return 0, &FilesystemError{Op: "create", Path: partial, Err: err}
	}

	written, err := io.Copy(f, r)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partial)
		s.tel.ReportBroken(report_sink_create, err, path)
		return written, &FilesystemError{Op: "write", Path: path, Err: err}
	}

	err = os.Rename(partial, path)
	if err != nil {
		os.Remove(partial)
		s.tel.ReportBroken(report_sink_create, err, path)
		return written, &FilesystemError{Op: "rename", Path: path, Err: err}
	}
	return written, nil
}
