package mirror

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catemirror/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		name     string
		expected string
	}{
		{"[275] C++ Introduction", "[275] C++ Introduction"},
		{"Lab 1/2: Parsing", "Lab 1_2_ Parsing"},
		{"  spaced   out\tname  ", "spaced out_name"},
		{"trailing...", "trailing"},
		{"", "_"},
		{"..", "_"},
		{`a<b>c"d|e?f*g\h`, "a_b_c_d_e_f_g_h"},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, SanitizeName(test.name), test.name)
	}
}

func TestLayout(t *testing.T) {
	layout := Layout{Root: "/mirror"}
	require.Equal(t, "/mirror/[275] C++ Introduction", layout.ModuleDir("[275] C++ Introduction"))
	require.Equal(t, "/mirror/[275] C++ Introduction/Notes", layout.NotesDir("[275] C++ Introduction"))
	require.Equal(t, "/mirror/[275] C++ Introduction/[1 TUT] Lab 1", layout.ExerciseDir("[275] C++ Introduction", "[1 TUT] Lab 1"))
	require.Equal(t, "/mirror/[223] Concurrency/Notes", layout.SectionDir("[223] Concurrency", ""))
	require.Equal(t, "/mirror/[223] Concurrency/Tutorial 1", layout.SectionDir("[223] Concurrency", "Tutorial 1"))
	require.Equal(t, "/mirror/a_b/c_d", layout.ExerciseDir("a/b", "c/d"))
}

func TestFilesystemSinkEnsureDir(t *testing.T) {
	root := t.TempDir()
	rec := &telemetry.Recorder{}
	sink := NewFilesystemSink(rec)

	dir := filepath.Join(root, "[275] C++ Introduction", NotesDir)
	created, err := sink.EnsureDir(dir)
	require.NoError(t, err)
	require.True(t, created)
	require.DirExists(t, dir)

	created, err = sink.EnsureDir(dir + "/")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, []string{dir}, sink.Created())

	// directories from a previous run are not created again
	existing := filepath.Join(root, "existing")
	require.NoError(t, os.Mkdir(existing, 0755))
	created, err = sink.EnsureDir(existing)
	require.NoError(t, err)
	require.False(t, created)

	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = sink.EnsureDir(file)
	var fsErr *FilesystemError
	require.ErrorAs(t, err, &fsErr)
	require.Equal(t, file, fsErr.Path)
}

type failingReader struct {
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset")
}

func TestFilesystemSinkCreate(t *testing.T) {
	root := t.TempDir()
	sink := NewFilesystemSink(&telemetry.Recorder{})

	target := filepath.Join(root, "Lab-1.tar.gz")
	exists, err := sink.Exists(target)
	require.NoError(t, err)
	require.False(t, exists)

	written, err := sink.Create(target, strings.NewReader("contents"))
	require.NoError(t, err)
	require.Equal(t, int64(8), written)

	exists, err = sink.Exists(target)
	require.NoError(t, err)
	require.True(t, exists)

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "contents", string(contents))

	broken := filepath.Join(root, "broken.pdf")
	_, err = sink.Create(broken, &failingReader{})
	require.Error(t, err)
	require.NoFileExists(t, broken)

	// neither the file nor a leftover partial file remain
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Lab-1.tar.gz", entries[0].Name())
}
