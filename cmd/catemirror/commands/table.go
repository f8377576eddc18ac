package commands

import (
	"fmt"
	"io"
	"strings"

	"catemirror/internal/catalog"
	"catemirror/internal/crawler"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func fileNumber(n int64) string {
	if n == catalog.NoFile {
		return "-"
	}
	return fmt.Sprint(n)
}

func renderCatalog(out io.Writer, modules []catalog.Module) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Module", "Notes", "Exercise", "Spec", "Data", "Model"})

	for _, m := range modules {
		var notes []string
		for _, id := range m.NoteIDs {
			notes = append(notes, id.String())
		}
		notes = append(notes, m.NoteURLs...)
		noteCell := strings.Join(notes, ", ")

		if len(m.Exercises) == 0 {
			t.AppendRow(table.Row{m.DisplayName, noteCell, "", "", "", ""})
			continue
		}
		for i, e := range m.Exercises {
			name, noteText := m.DisplayName, noteCell
			if i > 0 {
				name, noteText = "", ""
			}
			t.AppendRow(table.Row{
				name,
				noteText,
				e.DisplayName,
				fileNumber(e.SpecID),
				fileNumber(e.DataID),
				fileNumber(e.ModelID),
			})
		}
	}
	t.Render()
}

func renderReport(out io.Writer, report crawler.Report) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Module", "State", "Downloaded", "Skipped", "Not found", "Failed", "Error"})

	for _, m := range report.Modules {
		errText := ""
		if m.Err != nil {
			errText = m.Err.Error()
		}
		t.AppendRow(table.Row{
			m.Module,
			m.State.String(),
			m.Counts.Downloaded,
			m.Counts.Skipped,
			m.Counts.NotFound,
			m.Counts.Failed,
			errText,
		})
	}

	totals := report.Totals()
	t.AppendFooter(table.Row{"Total", "", totals.Downloaded, totals.Skipped, totals.NotFound, totals.Failed, ""})
	t.Render()

	if len(report.Unmatched) > 0 {
		fmt.Fprintf(out, "not in the catalog: %s\n", strings.Join(report.Unmatched, ", "))
	}
}
