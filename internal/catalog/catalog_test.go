package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	modules := Default()
	require.NoError(t, Validate(modules))
	require.Len(t, modules, 9)

	cpp := modules[6]
	require.Equal(t, "[275] C++ Introduction", cpp.DisplayName)
	require.Equal(t, "275", cpp.Code())
	require.Equal(t, Exercise{DisplayName: "[1 TUT] Lab 1", SpecID: 40, DataID: 43, ModelID: 46}, cpp.Exercises[0])

	tut := modules[0].Exercises[0]
	require.False(t, tut.HasData())
	require.False(t, tut.HasModel())
}

func TestModuleCode(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "[275] C++ Introduction", expected: "275"},
		{input: "275 - C++ Introduction", expected: "275"},
		{input: " 221: Compilers", expected: "221"},
		{input: "Compilers", expected: ""},
	}
	for _, row := range table {
		require.Equal(t, row.expected, ModuleCode(row.input), row.input)
	}
}

func TestMatch(t *testing.T) {
	modules := Default()

	idx, ok := Match(modules, "275 - C++ Introduction")
	require.True(t, ok)
	require.Equal(t, "[275] C++ Introduction", modules[idx].DisplayName)

	idx, ok = Match(modules, "Models of  Computation")
	require.True(t, ok)
	require.Equal(t, "[240] Models of Computation", modules[idx].DisplayName)

	_, ok = Match(modules, "999 - Unknown")
	require.False(t, ok)

	_, ok = Match(modules, "Quantum Basket Weaving")
	require.False(t, ok)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		modules []Module
		valid   bool
	}{
		{name: "empty", modules: nil, valid: true},
		{name: "duplicate module", modules: []Module{{DisplayName: "a"}, {DisplayName: "a"}}},
		{name: "empty module name", modules: []Module{{DisplayName: " "}}},
		{
			name: "duplicate exercise",
			modules: []Module{{DisplayName: "a", Exercises: []Exercise{
				{DisplayName: "x", SpecID: 1, DataID: NoFile, ModelID: NoFile},
				{DisplayName: "x", SpecID: 2, DataID: NoFile, ModelID: NoFile},
			}}},
		},
		{
			name: "zero is a file number",
			modules: []Module{{DisplayName: "a", Exercises: []Exercise{
				{DisplayName: "x", SpecID: 0, DataID: 0, ModelID: NoFile},
			}}},
			valid: true,
		},
		{
			name: "invalid sentinel",
			modules: []Module{{DisplayName: "a", Exercises: []Exercise{
				{DisplayName: "x", SpecID: 1, DataID: -2, ModelID: NoFile},
			}}},
		},
	}

	for _, test := range cases {
		err := Validate(test.modules)
		if test.valid {
			require.NoError(t, err, test.name)
		} else {
			require.Error(t, err, test.name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json5")
	err := os.WriteFile(path, []byte(`{
		modules: [
			{
				name: "[275] C++ Introduction",
				notes: [34],
				secondary_notes: [{ course: "hz1", resource: "abc" }],
				note_urls: ["https://www.doc.ic.ac.uk/~lecturer/cpp/"],
				exercises: [
					{ name: "[1 TUT] Lab 1", spec: 40, data: 43, model: 46 },
					{ name: "[2 TUT] Lab 2", spec: 41, data: 0 },
				],
			},
		],
	}`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	modules, err := LoadFile(path)
	require.NoError(t, err)

	expected := []Module{{
		DisplayName: "[275] C++ Introduction",
		NoteIDs:     []ResourceID{PortalFile(34), SecondaryResource("hz1", "abc")},
		NoteURLs:    []string{"https://www.doc.ic.ac.uk/~lecturer/cpp/"},
		Exercises: []Exercise{
			{DisplayName: "[1 TUT] Lab 1", SpecID: 40, DataID: 43, ModelID: 46},
			{DisplayName: "[2 TUT] Lab 2", SpecID: 41, DataID: 0, ModelID: NoFile},
		},
	}}
	require.Empty(t, cmp.Diff(expected, modules))

	_, err = LoadFile(filepath.Join(dir, "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
