package scenario

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.uber.org/multierr"
)

const maxCellWidth = 48

// shorten cuts by display width, multibyte values stay valid UTF-8.
func shorten(s string) string {
	return text.Snip(s, maxCellWidth, "...")
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl
}

func stepStatus(s StepResult) string {
	switch {
	case s.Violation != nil:
		return "VIOLATION"
	case s.Err != nil:
		return "FAIL"
	default:
	}
	return "ok"
}

// RenderReport writes one row per step, followed by the failure details.
func RenderReport(w io.Writer, r *Report) {
	if r == nil {
		return
	}
	tbl := newTable(w)
	tbl.SetTitle(fmt.Sprintf("%s (%s)", r.Name, r.Kind))
	tbl.AppendHeader(table.Row{"#", "step", "got", "len", "height", "black height", "version", "status"})
	for _, s := range r.Steps {
		tbl.AppendRow(table.Row{
			s.Index,
			shorten(s.Step.String()),
			shorten(s.Got),
			s.Len,
			s.Height,
			s.BlackHeight,
			s.Version,
			stepStatus(s),
		})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d steps, %d failed", len(r.Steps), r.Failed()), r.Elapsed.String()})
	if len(r.RunID) > 0 {
		tbl.SetCaption("run %s", r.RunID)
	}
	tbl.Render()

	for _, err := range multierr.Errors(r.Err()) {
		_, _ = fmt.Fprintf(w, "  - %s\n", strings.ReplaceAll(err.Error(), "\n", "\n    "))
	}
}

func RenderBench(w io.Writer, r *BenchResult) {
	if r == nil {
		return
	}
	tbl := newTable(w)
	tbl.SetTitle("rbtree bench")
	tbl.AppendHeader(table.Row{"trees", "size", "workers", "inserts", "removes", "max height", "elapsed", "ops/s", "rss before", "rss after"})
	tbl.AppendRow(table.Row{
		r.Trees,
		r.Size,
		r.Workers,
		r.Inserts,
		r.Removes,
		r.MaxHeight,
		r.Elapsed.String(),
		fmt.Sprintf("%.0f", r.OpsPerSecond()),
		humanize.IBytes(r.RSSBefore),
		humanize.IBytes(r.RSSAfter),
	})
	tbl.Render()
	for _, err := range multierr.Errors(r.Err) {
		_, _ = fmt.Fprintf(w, "  - %s\n", err.Error())
	}
}
