package catalog

import (
	"fmt"

	"catemirror/internal/configutil"
)

type fileSecondaryNote struct {
	Course   string `json:"course"`
	Resource string `json:"resource"`
}

type fileExercise struct {
	Name  string `json:"name"`
	Spec  int64  `json:"spec"`
	Data  *int64 `json:"data"`
	Model *int64 `json:"model"`
}

type fileModule struct {
	Name           string              `json:"name"`
	Notes          []int64             `json:"notes"`
	SecondaryNotes []fileSecondaryNote `json:"secondary_notes"`
	NoteUrls       []string            `json:"note_urls"`
	Exercises      []fileExercise      `json:"exercises"`
}

type file struct {
	Modules []fileModule `json:"modules"`
}

func optionalFile(n *int64) int64 {
	if n == nil {
		return NoFile
	}
	return *n
}

// LoadFile reads a catalog from a JSON5 file (with an optional
// <name>.local.json5 override), exercises that omit "data" or "model" get
// NoFile.
func LoadFile(path string) ([]Module, error) {
	contents, err := configutil.ReadConfig[file](path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	modules := make([]Module, len(contents.Modules))
	for i, fm := range contents.Modules {
		m := Module{
			DisplayName: fm.Name,
			NoteIDs:     notes(fm.Notes...),
			NoteURLs:    fm.NoteUrls,
		}
		for _, sn := range fm.SecondaryNotes {
			m.NoteIDs = append(m.NoteIDs, SecondaryResource(sn.Course, sn.Resource))
		}
		for _, fe := range fm.Exercises {
			m.Exercises = append(m.Exercises, Exercise{
				DisplayName: fe.Name,
				SpecID:      fe.Spec,
				DataID:      optionalFile(fe.Data),
				ModelID:     optionalFile(fe.Model),
			})
		}
		modules[i] = m
	}

	err = Validate(modules)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return modules, nil
}
