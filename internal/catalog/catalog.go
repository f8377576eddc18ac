// Package catalog holds the modules and exercises to mirror. A catalog is
// loaded once at startup and never mutated by the crawler.
package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"catemirror/pkg/textutil"

	"github.com/antzucaro/matchr"
)

// NoFile marks an exercise without a data or model answer file. It is not a
// portal file number, 0 is a valid file number.
const NoFile int64 = -1

// ResourceID identifies a file either on the portal (by file number) or on
// the secondary hosting provider (by course and resource token).
type ResourceID struct {
	Number int64
	Course string
	Token  string
}

func PortalFile(number int64) ResourceID {
	return ResourceID{Number: number}
}

func SecondaryResource(course, token string) ResourceID {
	return ResourceID{Number: NoFile, Course: course, Token: token}
}

func (r ResourceID) IsSecondary() bool {
	return r.Token != ""
}

func (r ResourceID) String() string {
	if r.IsSecondary() {
		return fmt.Sprintf("%s/%s", r.Course, r.Token)
	}
	return strconv.FormatInt(r.Number, 10)
}

type Exercise struct {
	DisplayName string
	SpecID      int64
	DataID      int64
	ModelID     int64
}

func (e Exercise) HasData() bool {
	return e.DataID != NoFile
}

func (e Exercise) HasModel() bool {
	return e.ModelID != NoFile
}

type Module struct {
	DisplayName string
	NoteIDs     []ResourceID
	NoteURLs    []string
	Exercises   []Exercise
}

var moduleCodeRegex = regexp.MustCompile(`^\s*\[?\s*(\d+)\s*\]?\s*[:\-]?\s*`)

// ModuleCode returns the leading module number of a module name, for example
// "275" for "[275] C++ Introduction" or "275 - C++ Introduction".
func ModuleCode(name string) string {
	groups := moduleCodeRegex.FindStringSubmatch(name)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

// Code returns the module number of the module, or "" if its display name
// does not start with one.
func (m Module) Code() string {
	return ModuleCode(m.DisplayName)
}

func withoutCode(name string) string {
	return textutil.NormalizeName(moduleCodeRegex.ReplaceAllString(name, ""))
}

// MatchThreshold is the minimum Jaro-Winkler similarity for a heading to be
// matched to a module whose code could not be compared.
const MatchThreshold = 0.9

// Match returns the index of the module that `heading` refers to. Module codes
// are compared first, otherwise the most similar module name above
// MatchThreshold wins.
func Match(modules []Module, heading string) (int, bool) {
	code := ModuleCode(heading)
	if code != "" {
		for i, m := range modules {
			if m.Code() == code {
				return i, true
			}
		}
		return -1, false
	}

	target := withoutCode(heading)
	if target == "" {
		return -1, false
	}

	best := -1
	var bestSimilarity float64
	for i, m := range modules {
		similarity := matchr.JaroWinkler(target, withoutCode(m.DisplayName), false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = i
		}
	}
	if best < 0 || bestSimilarity < MatchThreshold {
		return -1, false
	}
	return best, true
}

// Validate checks the invariants the crawler relies on.
func Validate(modules []Module) error {
	seen := map[string]struct{}{}
	for _, m := range modules {
		if strings.TrimSpace(m.DisplayName) == "" {
			return fmt.Errorf("module with empty name")
		}
		if _, ok := seen[m.DisplayName]; ok {
			return fmt.Errorf("duplicate module '%s'", m.DisplayName)
		}
		seen[m.DisplayName] = struct{}{}

		exercises := map[string]struct{}{}
		for _, e := range m.Exercises {
			if strings.TrimSpace(e.DisplayName) == "" {
				return fmt.Errorf("module '%s': exercise with empty name", m.DisplayName)
			}
			if _, ok := exercises[e.DisplayName]; ok {
				return fmt.Errorf("module '%s': duplicate exercise '%s'", m.DisplayName, e.DisplayName)
			}
			exercises[e.DisplayName] = struct{}{}

			if e.SpecID < 0 {
				return fmt.Errorf("module '%s': exercise '%s' has no spec file", m.DisplayName, e.DisplayName)
			}
			if e.DataID < NoFile || e.ModelID < NoFile {
				return fmt.Errorf("module '%s': exercise '%s' has an invalid file number", m.DisplayName, e.DisplayName)
			}
		}
		for _, id := range m.NoteIDs {
			if !id.IsSecondary() && id.Number < 0 {
				return fmt.Errorf("module '%s': invalid note file number %d", m.DisplayName, id.Number)
			}
		}
	}
	return nil
}
