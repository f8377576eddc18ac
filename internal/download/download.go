// Package download stores terminal resources into the mirror.
package download

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"catemirror/internal/components/assert"
	"catemirror/internal/components/telemetry"
	"catemirror/internal/mirror"
	"catemirror/internal/scrapers/cate"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("catemirror/download")

const (
	report_download_fetch = "download.fetch"
	report_download_store = "download.store"
)

type Result int

const (
	RESULT_DOWNLOADED Result = iota
	RESULT_SKIPPED
)

func (r Result) String() string {
	if r == RESULT_DOWNLOADED {
		return "Downloaded"
	}
	return "Skipped"
}

type Outcome struct {
	Url    *url.URL
	Result Result
	// Path is empty when the resource was skipped before a name was known.
	Path     string
	NotFound bool
	Reason   string
	Bytes    int64
}

// FetchError is a resource that could not be downloaded, only that resource
// is abandoned.
type FetchError struct {
	Url string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("download %s: %s", e.Url, e.Err.Error())
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher is implemented by cate.Session.
type Fetcher interface {
	Fetch(ctx context.Context, target *url.URL) (*cate.Response, error)
}

type Downloader struct {
	fetcher Fetcher
	sink    mirror.Sink
	tel     telemetry.API
}

func NewDownloader(fetcher Fetcher, sink mirror.Sink, tel telemetry.API) *Downloader {
	assert.NotNil(fetcher)
	assert.NotNil(sink)
	assert.NotNil(tel)
	return &Downloader{
		fetcher: fetcher,
		sink:    sink,
		tel:     telemetry.NewScopedAPI("download", tel),
	}
}

func skipped(u *url.URL, target, reason string) Outcome {
	return Outcome{Url: u, Result: RESULT_SKIPPED, Path: target, Reason: reason}
}

// Fetch downloads `u` into `dir`. An existing file is never overwritten
// unless `overwrite` is set, a desired name with an extension is checked
// before the request is even sent.
func (d *Downloader) Fetch(ctx context.Context, u *url.URL, dir, desiredName string, overwrite bool) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "download:Fetch", trace.WithAttributes(
		attribute.String("url", u.String()),
	))
	defer span.End()

	if !overwrite && desiredName != "" && path.Ext(desiredName) != "" {
		target := filepath.Join(dir, mirror.SanitizeName(desiredName))
		exists, err := d.sink.Exists(target)
		if err != nil {
			return Outcome{}, err
		}
		if exists {
			return skipped(u, target, "already exists"), nil
		}
	}

	res, err := d.fetcher.Fetch(ctx, u)
	if err != nil {
		if cate.IsNotFound(err) {
			d.tel.ReportWarning(report_download_fetch, err)
			out := skipped(u, "", "not found")
			out.NotFound = true
			return out, nil
		}
		span.SetStatus(codes.Error, err.Error())
		if cate.IsAuthentication(err) {
			return Outcome{}, err
		}
		d.tel.ReportBroken(report_download_fetch, err)
		return Outcome{}, &FetchError{Url: u.String(), Err: err}
	}

	if cate.Classify(res.ContentType(), res.Url) == cate.KIND_INDEX {
		res.Close()
		d.tel.ReportWarning(report_download_fetch, fmt.Errorf("expected a document, got a page"), u.String())
		return skipped(u, "", "page instead of a document"), nil
	}

	return d.Store(res, dir, desiredName, overwrite)
}

type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}

// Store writes an already fetched response into `dir` and closes it.
func (d *Downloader) Store(res *cate.Response, dir, desiredName string, overwrite bool) (Outcome, error) {
	defer res.Close()

	mediaType := cate.MediaType(res.ContentType())
	kind := cate.Classify(res.ContentType(), res.Url)
	if kind == cate.KIND_UNSUPPORTED {
		return skipped(res.Url, "", fmt.Sprintf("unsupported media type %s", mediaType)), nil
	}

	name := FileName(desiredName, res.Header.Get("Content-Disposition"), res.Url, kind, mediaType)
	target := filepath.Join(dir, name)

	exists, err := d.sink.Exists(target)
	if err != nil {
		return Outcome{}, err
	}
	if exists && !overwrite {
		return skipped(res.Url, target, "already exists"), nil
	}

	body := &trackingReader{r: res.Body}
	written, err := d.sink.Create(target, body)
	if err != nil {
		if body.err != nil {
			d.tel.ReportBroken(report_download_store, body.err, res.Url.String())
			return Outcome{}, &FetchError{Url: res.Url.String(), Err: body.err}
		}
		return Outcome{}, err
	}

	d.tel.ReportDebug(report_download_store, target, written)
	return Outcome{
		Url:    res.Url,
		Result: RESULT_DOWNLOADED,
		Path:   target,
		Bytes:  written,
	}, nil
}

var dispositionFilename = regexp.MustCompile(`filename="?([^";]+)"?`)

// DispositionFilename reads the file name of a Content-Disposition header,
// an RFC 5987 `filename*` takes precedence over `filename`.
func DispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err == nil {
		return params["filename"]
	}
	match := dispositionFilename.FindStringSubmatch(header)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// urlFilename names a resource after its url, portal files are named after
// their key since every one of them is served by the same script.
func urlFilename(u *url.URL) string {
	if cate.IsShowFile(u) {
		key, err := cate.ParseShowFileKey(u)
		if err == nil {
			return fmt.Sprintf("%d_%s", key.Number, strings.ToLower(string(key.Type)))
		}
	}
	unescaped, err := url.PathUnescape(path.Base(u.EscapedPath()))
	if err != nil {
		unescaped = path.Base(u.Path)
	}
	if unescaped == "/" || unescaped == "." {
		return "index"
	}
	return unescaped
}

var compoundExtensions = []string{".tar.gz", ".tar.bz2", ".tar.xz"}

func extension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range compoundExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[len(name)-len(ext):]
		}
	}
	return path.Ext(name)
}

func isUnknownMedia(mediaType string) bool {
	return mediaType == "" || mediaType == "application/octet-stream"
}

// FileName decides the name of a downloaded file: the desired name, then the
// Content-Disposition file name, then the last segment of the url. A missing
// extension is taken from the other candidates, documents of pdf or unknown
// media get ".pdf".
func FileName(desiredName, disposition string, u *url.URL, kind cate.Kind, mediaType string) string {
	fromHeader := path.Base(strings.ReplaceAll(DispositionFilename(disposition), "\\", "/"))
	if fromHeader == "." || fromHeader == "/" {
		fromHeader = ""
	}
	fromUrl := urlFilename(u)

	name := desiredName
	if name == "" {
		name = fromHeader
	}
	if name == "" {
		name = fromUrl
	}

	if extension(name) == "" {
		ext := extension(fromHeader)
		if ext == "" {
			ext = extension(fromUrl)
		}
		if ext == "" && kind == cate.KIND_DOCUMENT && (mediaType == "application/pdf" || isUnknownMedia(mediaType)) {
			ext = ".pdf"
		}
		name += ext
	}
	return mirror.SanitizeName(name)
}
