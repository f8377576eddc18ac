package cate

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// Kind is what the crawler should do with a fetched response.
type Kind int

const (
	// KIND_DOCUMENT is a terminal resource, it is written to the mirror.
	KIND_DOCUMENT Kind = iota
	// KIND_INDEX is an html page whose links are followed.
	KIND_INDEX
	// KIND_UNSUPPORTED is skipped, large media is never mirrored.
	KIND_UNSUPPORTED
)

func (k Kind) String() string {
	switch k {
	case KIND_DOCUMENT:
		return "document"
	case KIND_INDEX:
		return "index"
	case KIND_UNSUPPORTED:
		return "unsupported"
	}
	return "unknown"
}

var documentTypes = map[string]struct{}{
	"application/pdf":               {},
	"application/postscript":        {},
	"application/zip":               {},
	"application/x-zip-compressed":  {},
	"application/gzip":              {},
	"application/x-gzip":            {},
	"application/x-tar":             {},
	"application/x-gtar":            {},
	"application/x-compressed-tar":  {},
	"application/x-bzip2":           {},
	"application/x-7z-compressed":   {},
	"application/msword":            {},
	"application/vnd.ms-powerpoint": {},
	"application/vnd.ms-excel":      {},
	"application/rtf":               {},
	"text/plain":                    {},
	"text/csv":                      {},
	"text/x-c":                      {},
	"text/x-java":                   {},
	"text/x-haskell":                {},
}

var indexTypes = map[string]struct{}{
	"text/html":             {},
	"application/xhtml+xml": {},
}

// extensions whose mime type is not reliably registered on every platform
var documentExtensions = map[string]struct{}{
	".pdf": {}, ".ps": {}, ".zip": {}, ".gz": {}, ".tgz": {}, ".tar": {}, ".bz2": {},
	".7z": {}, ".txt": {}, ".doc": {}, ".docx": {}, ".ppt": {}, ".pptx": {},
	".xls": {}, ".xlsx": {}, ".hs": {}, ".java": {}, ".c": {}, ".cpp": {}, ".h": {},
	".pl": {}, ".py": {}, ".csv": {}, ".rtf": {},
}

var indexExtensions = map[string]struct{}{
	".html": {}, ".htm": {}, ".cgi": {}, ".php": {}, ".shtml": {}, ".asp": {}, ".aspx": {},
}

// MediaType returns the lowercased media type of a content-type header
// without its parameters.
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	return strings.ToLower(mediaType)
}

func classifyMediaType(mediaType string) (Kind, bool) {
	if _, ok := documentTypes[mediaType]; ok {
		return KIND_DOCUMENT, true
	}
	if _, ok := indexTypes[mediaType]; ok {
		return KIND_INDEX, true
	}
	switch {
	case strings.HasPrefix(mediaType, "video/"), strings.HasPrefix(mediaType, "audio/"):
		return KIND_UNSUPPORTED, true
	case strings.HasPrefix(mediaType, "application/vnd.openxmlformats-officedocument."),
		strings.HasPrefix(mediaType, "application/vnd.oasis.opendocument."):
		return KIND_DOCUMENT, true
	}
	return 0, false
}

// classifyExtension decides from the url path alone, ok is false when the
// extension says nothing.
func classifyExtension(u *url.URL) (Kind, bool) {
	if u == nil {
		return 0, false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return 0, false
	}
	if _, ok := documentExtensions[ext]; ok {
		return KIND_DOCUMENT, true
	}
	if _, ok := indexExtensions[ext]; ok {
		return KIND_INDEX, true
	}
	kind, ok := classifyMediaType(MediaType(mime.TypeByExtension(ext)))
	if ok {
		return kind, true
	}
	return 0, false
}

// Classify decides from a response's declared content type whether it is a
// document to store, an html index to follow or unsupported media. A missing
// or unknown content type falls back to the extension of the url's path.
func Classify(contentType string, u *url.URL) Kind {
	mediaType := MediaType(contentType)
	kind, ok := classifyMediaType(mediaType)
	if ok {
		return kind
	}

	kind, ok = GuessKind(u)
	if ok {
		return kind
	}

	// non-text media without a telling extension is a download, a bare path is a page
	if mediaType != "" && !strings.HasPrefix(mediaType, "text/") {
		return KIND_DOCUMENT
	}
	return KIND_INDEX
}

// GuessKind classifies a url before it is fetched.
func GuessKind(u *url.URL) (Kind, bool) {
	if u != nil && (IsShowFile(u) || IsSecondaryResource(u)) {
		return KIND_DOCUMENT, true
	}
	return classifyExtension(u)
}
