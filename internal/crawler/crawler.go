// Package crawler mirrors the modules of a catalog: it walks every module's
// notes and exercises, follows the pages it finds and stores documents in the
// mirror.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"catemirror/internal/catalog"
	"catemirror/internal/components/assert"
	"catemirror/internal/components/telemetry"
	"catemirror/internal/download"
	"catemirror/internal/mirror"
	"catemirror/internal/scrapers/cate"
	"catemirror/internal/scrapers/cate/extract"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("catemirror/crawler")

const (
	report_crawler_discover   = "crawler.discover"
	report_crawler_module     = "crawler.module"
	report_crawler_follow     = "crawler.follow"
	report_crawler_note_url   = "crawler.note-url"
	report_crawler_ensure_dir = "crawler.ensure-dir"
	report_crawler_downloaded = "crawler.downloaded"
	report_crawler_skipped    = "crawler.skipped"
	report_crawler_not_found  = "crawler.not-found"
	report_crawler_failed     = "crawler.failed"
	report_crawler_unmatched  = "crawler.unmatched-module"
	report_crawler_max_depth  = "crawler.max-depth"
)

// DefaultMaxDepth is how many pages deep links are followed from a module's
// notes page.
const DefaultMaxDepth = 3

// Session is implemented by cate.Session.
type Session interface {
	download.Fetcher
	Endpoints() cate.Endpoints
	IsExternalAuthHost(host string) bool
}

type Options struct {
	Root      string
	Discover  bool
	Overwrite bool
	// MaxDepth of followed pages, 0 means DefaultMaxDepth.
	MaxDepth int
	// Sites overrides the dispatch table of external course sites.
	Sites *extract.Sites
	// Progress receives one line per file, nil discards them.
	Progress io.Writer
}

type Crawler struct {
	session    Session
	downloader *download.Downloader
	sink       mirror.Sink
	layout     mirror.Layout
	opts       Options
	tel        telemetry.API

	sites         extract.Sites
	moduleList    extract.ModuleList
	exerciseTable extract.ExerciseTable
	notesPage     extract.NotesPage
	givenFiles    extract.GivenFiles

	// per run
	stored  map[string]struct{}
	visited map[string]struct{}
}

func NewCrawler(session Session, sink mirror.Sink, opts Options, tel telemetry.API) *Crawler {
	assert.NotNil(session)
	assert.NotNil(sink)
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("crawler", tel)

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	sites := extract.DefaultSites(tel)
	if opts.Sites != nil {
		sites = *opts.Sites
	}

	c := &Crawler{
		session:       session,
		downloader:    download.NewDownloader(session, sink, tel),
		sink:          sink,
		layout:        mirror.Layout{Root: opts.Root},
		opts:          opts,
		tel:           tel,
		sites:         sites,
		moduleList:    extract.NewModuleList(tel),
		exerciseTable: extract.NewExerciseTable(tel),
		givenFiles:    extract.NewGivenFiles(tel),
	}
	c.notesPage = extract.NewNotesPage(tel, c.knownHost)
	return c
}

// knownHost accepts external notes hosted on a site with its own parser or
// behind the portal credentials.
func (c *Crawler) knownHost(u *url.URL) bool {
	if c.session.IsExternalAuthHost(u.Host) {
		return true
	}
	_, ok := c.sites.Match(u)
	return ok
}

// moduleLinks is what the timetable says about one catalog module.
type moduleLinks struct {
	notes []*url.URL
	rows  []extract.ExerciseRow
}

func isFilesystem(err error) bool {
	var target *mirror.FilesystemError
	return errors.As(err, &target)
}

// Run mirrors `modules` in order. The only error returned is a rejection of
// the credentials, every other failure is recorded in the report.
func (c *Crawler) Run(ctx context.Context, modules []catalog.Module) (Report, error) {
	ctx, span := tracer.Start(ctx, "crawler:Run")
	defer span.End()

	c.stored = map[string]struct{}{}
	c.visited = map[string]struct{}{}

	report := Report{}

	discovered := map[int]*moduleLinks{}
	if c.opts.Discover {
		var err error
		discovered, report.Unmatched, err = c.discover(ctx, modules)
		if cate.IsAuthentication(err) {
			return report, err
		}
		if err != nil {
			c.tel.ReportBroken(report_crawler_discover, err)
			discovered = map[int]*moduleLinks{}
		}
	}

	for i, m := range modules {
		links := discovered[i]
		if links == nil {
			links = &moduleLinks{}
		}
		moduleReport, err := c.crawlModule(ctx, m, links)
		report.Modules = append(report.Modules, moduleReport)
		if err != nil {
			return report, err
		}
	}

	totals := report.Totals()
	c.tel.ReportCount(report_crawler_downloaded, int64(totals.Downloaded))
	c.tel.ReportCount(report_crawler_skipped, int64(totals.Skipped))
	c.tel.ReportCount(report_crawler_not_found, int64(totals.NotFound))
	c.tel.ReportCount(report_crawler_failed, int64(totals.Failed))

	return report, nil
}

// discover reads the timetable once and assigns its notes pages and
// exercise rows to catalog modules.
func (c *Crawler) discover(ctx context.Context, modules []catalog.Module) (map[int]*moduleLinks, []string, error) {
	ctx, span := tracer.Start(ctx, "crawler:discover")
	defer span.End()

	res, err := c.session.Fetch(ctx, c.session.Endpoints().Timetable())
	if err != nil {
		return nil, nil, err
	}
	doc, err := cate.ParseDocument(res)
	if err != nil {
		return nil, nil, err
	}
	page := res.Url

	discovered := map[int]*moduleLinks{}
	get := func(i int) *moduleLinks {
		links, ok := discovered[i]
		if !ok {
			links = &moduleLinks{}
			discovered[i] = links
		}
		return links
	}

	var unmatched []string
	seenUnmatched := map[string]struct{}{}
	addUnmatched := func(heading string) {
		if _, ok := seenUnmatched[heading]; ok {
			return
		}
		seenUnmatched[heading] = struct{}{}
		unmatched = append(unmatched, heading)
		c.tel.ReportWarning(report_crawler_unmatched, heading)
	}

	notes, err := c.moduleList.Extract(doc, page)
	if err != nil {
		return nil, nil, err
	}
	for _, link := range notes {
		code := extract.ModuleCode(link)
		i, ok := catalog.Match(modules, code)
		if !ok {
			addUnmatched(code)
			continue
		}
		get(i).notes = append(get(i).notes, link.URL)
	}

	rows, err := c.exerciseTable.Rows(doc, page)
	if err != nil {
		// the notes pages are still usable without the exercises
		c.tel.ReportWarning(report_crawler_discover, err)
		return discovered, unmatched, nil
	}
	for _, row := range rows {
		i, ok := catalog.Match(modules, row.Module)
		if !ok {
			addUnmatched(row.Module)
			continue
		}
		get(i).rows = append(get(i).rows, row)
	}

	return discovered, unmatched, nil
}

func (c *Crawler) crawlModule(ctx context.Context, m catalog.Module, links *moduleLinks) (ModuleReport, error) {
	ctx, span := tracer.Start(ctx, "crawler:crawlModule", trace.WithAttributes(
		attribute.String("module", m.DisplayName),
	))
	defer span.End()

	r := ModuleReport{Module: m.DisplayName, State: STATE_NOT_VISITED}

	steps := []struct {
		next State
		run  func() error
	}{
		{STATE_DIRECTORY_ENSURED, func() error { return c.ensureModuleDirs(m) }},
		{STATE_NOTES_FETCHED, func() error { return c.fetchNotes(ctx, &r, m, links) }},
		{STATE_EXERCISES_FETCHED, func() error { return c.fetchExercises(ctx, &r, m, links) }},
	}
	for _, step := range steps {
		err := step.run()
		if cate.IsAuthentication(err) {
			return r, err
		}
		if err != nil {
			c.tel.ReportBroken(report_crawler_module, err, m.DisplayName)
			r.Err = err
			break
		}
		r.State = step.next
	}

	r.State = STATE_DONE
	return r, nil
}

func (c *Crawler) ensureDir(dir string) error {
	created, err := c.sink.EnsureDir(dir)
	if err != nil {
		return err
	}
	if created {
		c.tel.ReportDebug(report_crawler_ensure_dir, dir)
	}
	return nil
}

func (c *Crawler) ensureModuleDirs(m catalog.Module) error {
	err := c.ensureDir(c.layout.ModuleDir(m.DisplayName))
	if err != nil {
		return err
	}
	return c.ensureDir(c.layout.NotesDir(m.DisplayName))
}

func storedKey(dir string, u *url.URL) string {
	return dir + "\x00" + u.String()
}

// handle records the result of a download, it returns the errors that stop
// the module.
func (c *Crawler) handle(r *ModuleReport, file FileRecord, err error) error {
	if cate.IsAuthentication(err) || isFilesystem(err) {
		return err
	}
	file.Err = err
	if file.Outcome.Url == nil {
		file.Outcome.Url, _ = url.Parse(file.Url)
	}
	r.record(file)

	status := "Downloaded"
	switch {
	case err != nil:
		status = fmt.Sprintf("Failed (%s)", err.Error())
	case file.Outcome.NotFound:
		status = "Not found"
	case file.Outcome.Result == download.RESULT_SKIPPED && file.Outcome.Reason == "already exists":
		status = "Already exists!"
	case file.Outcome.Result == download.RESULT_SKIPPED:
		status = fmt.Sprintf("Skipped (%s)", file.Outcome.Reason)
	}
	fmt.Fprintf(c.opts.Progress, "%s %s | %s\n", file.Label, r.Module, status)
	return nil
}

// fetchFile downloads a portal file into `dir` unless it was already stored
// there during this run.
func (c *Crawler) fetchFile(ctx context.Context, r *ModuleReport, label string, u *url.URL, dir string) error {
	key := storedKey(dir, u)
	if _, ok := c.stored[key]; ok {
		return nil
	}
	c.stored[key] = struct{}{}

	outcome, err := c.downloader.Fetch(ctx, u, dir, "", c.opts.Overwrite)
	return c.handle(r, FileRecord{
		Label:     label,
		Directory: dir,
		Url:       u.String(),
		Outcome:   outcome,
	}, err)
}

func fileLabel(id string, fileType cate.FileType) string {
	return fmt.Sprintf("%2s:%-6s", id, fileType)
}

func (c *Crawler) fetchNotes(ctx context.Context, r *ModuleReport, m catalog.Module, links *moduleLinks) error {
	endpoints := c.session.Endpoints()
	notesDir := c.layout.NotesDir(m.DisplayName)

	for _, id := range m.NoteIDs {
		label := fileLabel(id.String(), cate.FILE_NOTES)

		var u *url.URL
		if id.IsSecondary() {
			var err error
			u, err = endpoints.SecondaryResource(id.Course, id.Token)
			if err != nil {
				err = c.handle(r, FileRecord{Label: label, Directory: notesDir}, err)
				if err != nil {
					return err
				}
				continue
			}
		} else {
			u = endpoints.ShowFile(id.Number, cate.FILE_NOTES)
		}

		err := c.fetchFile(ctx, r, label, u, notesDir)
		if err != nil {
			return err
		}
	}

	for _, raw := range m.NoteURLs {
		u, err := cate.Resolve(raw, endpoints.Base)
		if err != nil {
			c.tel.ReportWarning(report_crawler_note_url, err, m.DisplayName)
			continue
		}
		err = c.follow(ctx, r, m, extract.Link{URL: u, Label: raw, Hint: extract.HINT_UNKNOWN}, notesDir, 0)
		if err != nil {
			return err
		}
	}

	for _, u := range links.notes {
		err := c.follow(ctx, r, m, extract.Link{URL: u, Hint: extract.HINT_SUBINDEX}, notesDir, 0)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Crawler) fetchExercises(ctx context.Context, r *ModuleReport, m catalog.Module, links *moduleLinks) error {
	endpoints := c.session.Endpoints()

	bySpec := map[int64]catalog.Exercise{}
	for _, e := range m.Exercises {
		bySpec[e.SpecID] = e

		dir := c.layout.ExerciseDir(m.DisplayName, e.DisplayName)
		err := c.ensureDir(dir)
		if err != nil {
			return err
		}

		type file struct {
			number   int64
			fileType cate.FileType
		}
		files := []file{{e.SpecID, cate.FILE_SPECS}}
		if e.HasData() {
			files = append(files, file{e.DataID, cate.FILE_DATA})
		}
		if e.HasModel() {
			files = append(files, file{e.ModelID, cate.FILE_MODELS})
		}
		for _, f := range files {
			label := fileLabel(fmt.Sprint(f.number), f.fileType)
			err := c.fetchFile(ctx, r, label, endpoints.ShowFile(f.number, f.fileType), dir)
			if err != nil {
				return err
			}
		}
	}

	for _, row := range links.rows {
		name := row.Name
		label := fmt.Sprintf("%2s:%-6s", "?", cate.FILE_SPECS)

		key, err := cate.ParseShowFileKey(row.Spec)
		if err == nil {
			label = fileLabel(fmt.Sprint(key.Number), cate.FILE_SPECS)
			if e, ok := bySpec[key.Number]; ok {
				name = e.DisplayName
			}
		}

		dir := c.layout.ExerciseDir(m.DisplayName, name)
		err = c.ensureDir(dir)
		if err != nil {
			return err
		}
		err = c.fetchFile(ctx, r, label, row.Spec, dir)
		if err != nil {
			return err
		}
		if row.Given == nil {
			continue
		}
		err = c.follow(ctx, r, m, extract.Link{URL: row.Given, Label: name, Hint: extract.HINT_SUBINDEX}, dir, 0)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Crawler) extractorFor(u *url.URL) extract.Extractor {
	switch {
	case cate.IsNotesIndex(u):
		return c.notesPage
	case cate.IsGivenFiles(u):
		return c.givenFiles
	}
	return c.sites.For(u)
}

func linkLabel(link extract.Link) string {
	if link.Label != "" {
		return link.Label
	}
	return link.URL.String()
}

// follow fetches a link and either stores it into `dir` or, when it is a
// page, follows the links of that page.
func (c *Crawler) follow(ctx context.Context, r *ModuleReport, m catalog.Module, link extract.Link, dir string, depth int) error {
	key := storedKey(dir, link.URL)
	if _, ok := c.stored[key]; ok {
		return nil
	}
	if _, ok := c.visited[link.URL.String()]; ok {
		return nil
	}

	file := FileRecord{Label: linkLabel(link), Directory: dir, Url: link.URL.String()}

	res, err := c.session.Fetch(ctx, link.URL)
	if err != nil {
		if cate.IsNotFound(err) {
			c.tel.ReportWarning(report_crawler_follow, err)
			c.visited[link.URL.String()] = struct{}{}
			file.Outcome = download.Outcome{Url: link.URL, Result: download.RESULT_SKIPPED, NotFound: true, Reason: "not found"}
			return c.handle(r, file, nil)
		}
		if !cate.IsAuthentication(err) {
			c.tel.ReportBroken(report_crawler_follow, err)
		}
		return c.handle(r, file, err)
	}

	switch cate.Classify(res.ContentType(), res.Url) {
	case cate.KIND_DOCUMENT, cate.KIND_UNSUPPORTED:
		c.stored[key] = struct{}{}
		err = c.ensureDir(dir)
		if err != nil {
			res.Close()
			return err
		}
		outcome, err := c.downloader.Store(res, dir, "", c.opts.Overwrite)
		file.Outcome = outcome
		return c.handle(r, file, err)
	}

	c.visited[link.URL.String()] = struct{}{}
	c.visited[res.Url.String()] = struct{}{}

	if link.Hint == extract.HINT_TERMINAL {
		res.Close()
		c.tel.ReportDebug(report_crawler_follow, "expected a document, got a page", link.URL.String())
		return nil
	}
	if depth >= c.opts.MaxDepth {
		res.Close()
		c.tel.ReportDebug(report_crawler_max_depth, link.URL.String())
		return nil
	}

	doc, err := cate.ParseDocument(res)
	if err != nil {
		c.tel.ReportBroken(report_crawler_follow, err)
		return nil
	}
	children, err := c.extractorFor(res.Url).Extract(doc, res.Url)
	if err != nil {
		c.tel.ReportBroken(report_crawler_follow, err, res.Url.String())
		return nil
	}

	for _, child := range children {
		childDir := dir
		if child.Section != "" {
			childDir = c.layout.SectionDir(m.DisplayName, child.Section)
		}
		err := c.follow(ctx, r, m, child, childDir, depth+1)
		if err != nil {
			return err
		}
	}
	return nil
}
