package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("crawler", NewScopedAPI("module", rec))

	scoped.ReportBroken("crawl-index", "https://example.com")
	scoped.ReportWarning("download", 404)
	scoped.ReportCount("downloaded", 3)

	broken := rec.Reports(REPORT_BROKEN)
	require.Len(t, broken, 1)
	require.Equal(t, "module: crawler: crawl-index", broken[0].Id)
	require.Equal(t, []any{"https://example.com"}, broken[0].Params)

	require.True(t, rec.Has(REPORT_WARNING, "download"))
	require.False(t, rec.Has(REPORT_WARNING, "crawl-index"))

	counts := rec.Reports(REPORT_COUNT)
	require.Len(t, counts, 1)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(nil))
	require.Equal(t, "Content-Type: text/html", formatHeaders(map[string][]string{
		"Content-Type": {"text/html"},
	}))
}
