package crawler

import (
	"catemirror/internal/download"
)

// State is how far the crawl of a module got.
type State int

const (
	STATE_NOT_VISITED State = iota
	STATE_DIRECTORY_ENSURED
	STATE_NOTES_FETCHED
	STATE_EXERCISES_FETCHED
	STATE_DONE
)

func (s State) String() string {
	switch s {
	case STATE_NOT_VISITED:
		return "NotVisited"
	case STATE_DIRECTORY_ENSURED:
		return "DirectoryEnsured"
	case STATE_NOTES_FETCHED:
		return "NotesFetched"
	case STATE_EXERCISES_FETCHED:
		return "ExercisesFetched"
	case STATE_DONE:
		return "Done"
	}
	return "Unknown"
}

type Counts struct {
	Downloaded int
	Skipped    int
	NotFound   int
	Failed     int
}

func (c *Counts) add(other Counts) {
	c.Downloaded += other.Downloaded
	c.Skipped += other.Skipped
	c.NotFound += other.NotFound
	c.Failed += other.Failed
}

// FileRecord is one attempted download. Err is set only when the resource
// failed, skipped resources carry their reason in the outcome.
type FileRecord struct {
	Label     string
	Directory string
	Url       string
	Outcome   download.Outcome
	Err       error
}

type ModuleReport struct {
	Module string
	State  State
	Counts Counts
	Files  []FileRecord
	// Err is the filesystem error that cut the module short.
	Err error
}

func (m *ModuleReport) record(file FileRecord) {
	switch {
	case file.Err != nil:
		m.Counts.Failed++
	case file.Outcome.Result == download.RESULT_DOWNLOADED:
		m.Counts.Downloaded++
	case file.Outcome.NotFound:
		m.Counts.NotFound++
	default:
		m.Counts.Skipped++
	}
	m.Files = append(m.Files, file)
}

type Report struct {
	Modules []ModuleReport
	// Unmatched lists module headings discovered on the timetable that are
	// not in the catalog.
	Unmatched []string
}

func (r Report) Totals() Counts {
	var total Counts
	for _, m := range r.Modules {
		total.add(m.Counts)
	}
	return total
}
