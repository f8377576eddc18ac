package commands

import (
	"errors"
	"strings"
	"testing"

	"catemirror/internal/catalog"
	"catemirror/internal/crawler"

	"github.com/stretchr/testify/require"
)

func TestRenderCatalog(t *testing.T) {
	var out strings.Builder
	renderCatalog(&out, catalog.Default())

	rendered := out.String()
	require.Contains(t, rendered, "[275] C++ Introduction")
	require.Contains(t, rendered, "[1 TUT] Lab 1")
	require.Contains(t, rendered, "[701] Programming Competition Training")
	require.Contains(t, rendered, "54, 55, 56, 58, 59")
}

func TestRenderReport(t *testing.T) {
	var out strings.Builder
	renderReport(&out, crawler.Report{
		Modules: []crawler.ModuleReport{
			{Module: "[275] C++ Introduction", State: crawler.STATE_DONE, Counts: crawler.Counts{Downloaded: 3}},
			{Module: "[221] Compilers", State: crawler.STATE_DONE, Err: errors.New("mkdir: a file is in the way")},
		},
		Unmatched: []string{"999 - Unknown"},
	})

	rendered := out.String()
	require.Contains(t, rendered, "[275] C++ Introduction")
	require.Contains(t, rendered, "Done")
	require.Contains(t, rendered, "a file is in the way")
	require.Contains(t, rendered, "not in the catalog: 999 - Unknown")
}
