package cate

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// FileType is the kind of file requested from showfile.cgi.
type FileType string

const (
	FILE_NOTES  FileType = "NOTES"
	FILE_SPECS  FileType = "SPECS"
	FILE_DATA   FileType = "DATA"
	FILE_MODELS FileType = "MODELS"
)

const (
	showFilePath     = "/showfile.cgi"
	notesPath        = "/notes.cgi"
	timetablePath    = "/timetable.cgi"
	givenPath        = "/given.cgi"
	secondaryPathFmt = "/class_profile/get_resource/%s/%s"
)

// Endpoints builds the portal's urls for one student.
//
// A showfile key looks like YEAR:1:FILE_NUMBER:CLASS:FILE_TYPE:USERNAME, for
// example 2014:1:44:c2:DATA:lmc13.
type Endpoints struct {
	Base      *url.URL
	Secondary *url.URL
	Year      string
	Class     string
	Period    int
	Username  string
}

func (e Endpoints) withQuery(p, rawQuery string) *url.URL {
	u := *e.Base
	u.Path = path.Join("/", strings.TrimSuffix(e.Base.Path, "/"), p)
	u.RawPath = ""
	u.RawQuery = rawQuery
	u.Fragment = ""
	return &u
}

// ShowFile returns the url of a portal file, the key is written verbatim.
func (e Endpoints) ShowFile(number int64, fileType FileType) *url.URL {
	key := fmt.Sprintf("%s:1:%d:%s:%s:%s", e.Year, number, e.Class, fileType, e.Username)
	return e.withQuery(showFilePath, "key="+key)
}

// Notes returns the notes index of a module.
func (e Endpoints) Notes(moduleCode string) *url.URL {
	key := fmt.Sprintf("%s:%s:%s:%s", e.Year, moduleCode, e.Class, e.Username)
	return e.withQuery(notesPath, "key="+key)
}

// Timetable returns the combined timetable / exercise page of the period.
func (e Endpoints) Timetable() *url.URL {
	keyt := fmt.Sprintf("%s:none:none:%s", e.Year, e.Username)
	return e.withQuery(
		timetablePath,
		fmt.Sprintf("period=%d&class=%s&keyt=%s", e.Period, e.Class, keyt),
	)
}

// SecondaryResource returns the url of a file on the secondary provider.
func (e Endpoints) SecondaryResource(course, token string) (*url.URL, error) {
	if e.Secondary == nil {
		return nil, fmt.Errorf("no secondary provider configured for resource %s/%s", course, token)
	}
	u := *e.Secondary
	u.Path = fmt.Sprintf(secondaryPathFmt, url.PathEscape(course), url.PathEscape(token))
	u.RawQuery = ""
	return &u, nil
}

// IsShowFile returns true if `u` points at the portal's file serving endpoint.
func IsShowFile(u *url.URL) bool {
	return strings.HasSuffix(u.Path, showFilePath) && u.Query().Get("key") != ""
}

// IsNotesIndex returns true if `u` points at a module notes page.
func IsNotesIndex(u *url.URL) bool {
	return strings.HasSuffix(u.Path, notesPath) && u.Query().Get("key") != ""
}

// IsGivenFiles returns true if `u` points at an exercise's given files page.
func IsGivenFiles(u *url.URL) bool {
	return strings.HasSuffix(u.Path, givenPath)
}

// IsSecondaryResource returns true if `u` is a secondary provider document.
func IsSecondaryResource(u *url.URL) bool {
	return strings.Contains(u.Path, "/class_profile/get_resource/")
}

// ShowFileKey is a parsed showfile.cgi key.
type ShowFileKey struct {
	Year     string
	Number   int64
	Class    string
	Type     FileType
	Username string
}

// ParseShowFileKey parses the key query parameter of a showfile url.
func ParseShowFileKey(u *url.URL) (ShowFileKey, error) {
	key := u.Query().Get("key")
	parts := strings.Split(key, ":")
	if len(parts) != 6 {
		return ShowFileKey{}, fmt.Errorf("unexpected showfile key '%s'", key)
	}
	number, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return ShowFileKey{}, fmt.Errorf("parse file number of '%s': %w", key, err)
	}
	return ShowFileKey{
		Year:     parts[0],
		Number:   number,
		Class:    parts[3],
		Type:     FileType(strings.ToUpper(parts[4])),
		Username: parts[5],
	}, nil
}

// NotesModuleCode returns the module code of a notes.cgi url.
func NotesModuleCode(u *url.URL) string {
	parts := strings.Split(u.Query().Get("key"), ":")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
