// Package mirror lays out the local copy of the portal and writes to it.
package mirror

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// NotesDir is the directory of a module's lecture notes.
const NotesDir = "Notes"

// Layout maps modules, exercises and sections to directories under Root:
// <root>/<module>/<exercise | Notes | section>.
type Layout struct {
	Root string
}

func (l Layout) ModuleDir(module string) string {
	return filepath.Join(l.Root, SanitizeName(module))
}

func (l Layout) NotesDir(module string) string {
	return filepath.Join(l.ModuleDir(module), NotesDir)
}

func (l Layout) ExerciseDir(module, exercise string) string {
	return filepath.Join(l.ModuleDir(module), SanitizeName(exercise))
}

// SectionDir is the directory of a named section next to Notes, the empty
// section is Notes itself.
func (l Layout) SectionDir(module, section string) string {
	if strings.TrimSpace(section) == "" {
		return l.NotesDir(module)
	}
	return filepath.Join(l.ModuleDir(module), SanitizeName(section))
}

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots = regexp.MustCompile(`\.+$`)
	runsOfSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeName makes `name` safe to use as a single path element, invalid
// characters are replaced by an underscore.
//
//	SanitizeName("Lab 1/2: Parsing") // "Lab 1_2_ Parsing"
func SanitizeName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = runsOfSpaces.ReplaceAllString(name, " ")
	name = trailingDots.ReplaceAllString(strings.TrimSpace(name), "")
	name = strings.TrimRight(name, " ")
	if name == "" {
		return "_"
	}
	return name
}

// FilesystemError is a failed operation on the mirror.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err.Error())
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
