package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"dropelab/internal/diag"
	"dropelab/internal/source"
)

type palette struct {
	err, warn, info, note *color.Color
	gutter, caret, path   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		path:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.path} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics for a terminal, in bag order (call bag.Sort
// first for a stable order). Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the span underlined ^~~~ and,
// optionally, its notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	p := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		d := &items[i]
		f := fs.Get(d.Primary.File)
		start, end := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.path.Sprintf("%s:%d:%d", formatPath(f, opts.PathMode, opts.BaseDir), start.Line, start.Col),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			d.Code.ID(),
			d.Message)
		if f != nil {
			p.snippet(w, f, start, end, opts.Context)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			nf := fs.Get(note.Span.File)
			ns, _ := fs.Resolve(note.Span)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note.Sprint("note:"), formatPath(nf, opts.PathMode, opts.BaseDir), ns.Line, ns.Col, note.Msg)
		}
	}
}

func (p palette) snippet(w io.Writer, f *source.File, start, end source.LineCol, context int) {
	first := start.Line
	for context > 0 && first > 1 {
		first--
		context--
	}
	width := len(fmt.Sprint(start.Line))
	for line := first; line <= start.Line; line++ {
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, line), expandTabs(f.GetLine(line)))
	}

	text := expandTabs(f.GetLine(start.Line))
	prefix := columnPrefix(f.GetLine(start.Line), start.Col)
	pad := runewidth.StringWidth(prefix)
	span := 1
	if end.Line == start.Line && end.Col > start.Col {
		under := columnPrefix(f.GetLine(start.Line), end.Col)
		span = max(runewidth.StringWidth(under)-pad, 1)
	} else if end.Line > start.Line {
		span = max(runewidth.StringWidth(text)-pad, 1)
	}
	marker := "^" + strings.Repeat("~", span-1)
	fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", pad), p.caret.Sprint(marker))
}

// columnPrefix returns the tab-expanded text before the 1-based byte column.
func columnPrefix(line string, col uint32) string {
	n := int(col) - 1
	if n < 0 {
		n = 0
	}
	if n > len(line) {
		n = len(line)
	}
	return expandTabs(line[:n])
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
