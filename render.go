package livemd

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	fallbackRuleWidth = 80
	maxListIndent     = 3
)

// Sink consumes the safe-to-render segments extracted by a Streamer.
type Sink interface {
	RenderSegment(segment string) error
	Close() error
}

// Renderer parses each delivered segment as Markdown and writes styled
// terminal output, carrying structural state across segments so a construct
// spanning a segment boundary renders once its closing boundary arrives.
type Renderer struct {
	w     io.Writer
	width int
	md    goldmark.Markdown
	state renderState
	err   error

	headings [6]lipgloss.Style
	bold     lipgloss.Style
	italic   lipgloss.Style
	code     lipgloss.Style
	quote    lipgloss.Style
	marker   lipgloss.Style
	link     lipgloss.Style
}

// renderState is the renderer's structural memory within one session. At
// most one of table, heading, and code is open at a time; the list stack may
// remain open across many segments.
type renderState struct {
	lists      []listFrame
	listBuf    strings.Builder
	table      tableAccumulator
	heading    headingAccumulator
	code       codeAccumulator
	quoteDepth int
	paragraph  bool
}

// listFrame tracks one list nesting depth.
type listFrame struct {
	ordered bool
	start   int
	index   int
}

type tableAccumulator struct {
	buf   strings.Builder
	cells int
	open  bool
}

type headingAccumulator struct {
	buf   strings.Builder
	level int
	open  bool
}

type codeAccumulator struct {
	buf  strings.Builder
	open bool
}

// NewRenderer creates a renderer writing themed output to w. Width is used
// for horizontal rules; a non-positive width falls back to a fixed rule
// width that reads well on a default terminal.
func NewRenderer(w io.Writer, theme *Theme, width int) *Renderer {
	if w == nil {
		w = os.Stdout
	}
	if theme == nil {
		theme = DefaultTheme()
	}
	r := &Renderer{
		w:      w,
		width:  width,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		bold:   lipgloss.NewStyle().Bold(true).Foreground(theme.Bold()),
		italic: lipgloss.NewStyle().Italic(true).Foreground(theme.Italic()),
		code:   lipgloss.NewStyle().Foreground(theme.Code()),
		quote:  lipgloss.NewStyle().Italic(true).Foreground(theme.Italic()),
		marker: lipgloss.NewStyle().Foreground(theme.List()),
		link:   lipgloss.NewStyle().Underline(true).Foreground(theme.Link()),
	}
	for i := range r.headings {
		r.headings[i] = lipgloss.NewStyle().Bold(true).Foreground(theme.HeadingColor(i + 1))
	}
	return r
}

var mathSpan = regexp.MustCompile(`\$\$([^$]+)\$\$`)

// replaceMathSpans substitutes $$...$$ spans with a plain-text placeholder
// before Markdown parsing.
func replaceMathSpans(s string) string {
	if !strings.Contains(s, "$$") {
		return s
	}
	return mathSpan.ReplaceAllStringFunc(s, func(m string) string {
		return "[Math: " + strings.TrimSpace(m[2:len(m)-2]) + "]"
	})
}

// RenderSegment parses one segment and feeds its event stream through the
// renderer state machine.
func (r *Renderer) RenderSegment(segment string) error {
	if segment == "" {
		return r.err
	}
	src := []byte(replaceMathSpans(segment))
	doc := r.md.Parser().Parse(text.NewReader(src))
	walkErr := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		return r.step(n, src, entering)
	})
	if walkErr != nil && r.err == nil {
		r.err = fmt.Errorf("render segment: %w", walkErr)
	}
	return r.err
}

// Close flushes whatever construct is still open at end of session.
func (r *Renderer) Close() error {
	st := &r.state
	r.flushHeading(st)
	r.flushList(st)
	if st.table.open {
		r.closeTable(st)
	}
	if st.code.open {
		r.closeCode(st)
	}
	return r.err
}

// step handles one Markdown event. An open table consumes every event until
// its end, mirroring the flattened row accumulation the formatter expects.
func (r *Renderer) step(n ast.Node, src []byte, entering bool) (ast.WalkStatus, error) {
	st := &r.state
	if st.table.open {
		r.stepTable(st, n, src, entering)
		return ast.WalkContinue, nil
	}
	switch n := n.(type) {
	case *east.Table:
		if entering {
			// A table interrupts anything pending.
			r.flushHeading(st)
			r.flushList(st)
			st.table.buf.Reset()
			st.table.cells = 0
			st.table.open = true
		}
	case *ast.Heading:
		if entering {
			r.flushList(st)
			st.heading.buf.Reset()
			st.heading.buf.WriteString(strings.Repeat("#", n.Level))
			st.heading.buf.WriteByte(' ')
			st.heading.level = n.Level
			st.heading.open = true
		} else {
			r.flushHeading(st)
		}
	case *ast.List:
		if entering {
			if len(st.lists) == 0 {
				r.flushHeading(st)
				st.listBuf.Reset()
			} else {
				st.listBuf.WriteByte('\n')
			}
			frame := listFrame{ordered: n.IsOrdered(), start: 1}
			if n.IsOrdered() {
				frame.start = n.Start
			}
			st.lists = append(st.lists, frame)
		} else {
			if len(st.lists) > 0 {
				st.lists = st.lists[:len(st.lists)-1]
			}
			if len(st.lists) == 0 {
				r.flushList(st)
			}
		}
	case *ast.ListItem:
		if len(st.lists) == 0 {
			break
		}
		if entering {
			depth := len(st.lists)
			indent := 2 * (depth - 1)
			if indent > maxListIndent {
				indent = maxListIndent
			}
			st.listBuf.WriteString(strings.Repeat(" ", indent))
			frame := &st.lists[depth-1]
			if frame.ordered {
				fmt.Fprintf(&st.listBuf, "%d. ", frame.start+frame.index)
			} else {
				st.listBuf.WriteString("- ")
			}
			frame.index++
		} else {
			st.listBuf.WriteByte('\n')
		}
	case *ast.FencedCodeBlock:
		r.stepCodeBlock(st, n.Lines(), string(n.Language(src)), src, entering)
	case *ast.CodeBlock:
		r.stepCodeBlock(st, n.Lines(), "", src, entering)
	case *ast.Emphasis:
		marker := "*"
		style := r.italic
		if n.Level >= 2 {
			marker = "**"
			style = r.bold
		}
		if st.heading.open || len(st.lists) > 0 {
			r.writeInline(st, marker)
			return ast.WalkContinue, nil
		}
		if entering {
			r.write(style.Render(nodeText(n, src)))
			return ast.WalkSkipChildren, nil
		}
	case *ast.CodeSpan:
		if st.heading.open || len(st.lists) > 0 {
			r.writeInline(st, "`")
			return ast.WalkContinue, nil
		}
		if entering {
			r.write(r.code.Render(nodeText(n, src)))
			return ast.WalkSkipChildren, nil
		}
	case *ast.Link:
		if entering && !st.heading.open && len(st.lists) == 0 {
			r.write(r.link.Render(nodeText(n, src)))
			return ast.WalkSkipChildren, nil
		}
	case *ast.AutoLink:
		if entering {
			url := string(n.URL(src))
			if st.heading.open || len(st.lists) > 0 {
				r.writeInline(st, url)
			} else {
				r.write(r.link.Render(url))
			}
		}
	case *ast.Image:
		if entering {
			r.writeInline(st, nodeText(n, src))
			return ast.WalkSkipChildren, nil
		}
	case *ast.Text:
		if entering {
			r.writeInline(st, string(n.Segment.Value(src)))
			if n.SoftLineBreak() {
				r.softBreak(st)
			}
			if n.HardLineBreak() {
				r.hardBreak(st)
			}
		}
	case *ast.String:
		if entering {
			r.writeInline(st, string(n.Value))
		}
	case *ast.ThematicBreak:
		if entering {
			r.flushHeading(st)
			r.flushList(st)
			width := r.width
			if width <= 0 {
				width = fallbackRuleWidth
			}
			r.write("\n" + strings.Repeat("─", width) + "\n")
		}
	case *ast.Blockquote:
		if len(st.lists) > 0 {
			if entering {
				st.listBuf.WriteString("> ")
			} else {
				st.listBuf.WriteByte('\n')
			}
		} else {
			if entering {
				st.quoteDepth++
				r.write(r.quote.Render("│ "))
			} else {
				st.quoteDepth--
				r.write("\n")
			}
		}
	case *ast.Paragraph:
		if entering {
			st.paragraph = true
		} else {
			if len(st.lists) == 0 && st.quoteDepth == 0 && st.paragraph {
				r.write("\n\n")
			}
			st.paragraph = false
		}
	case *ast.HTMLBlock:
		if entering {
			for i := 0; i < n.Lines().Len(); i++ {
				seg := n.Lines().At(i)
				r.writeInline(st, string(seg.Value(src)))
			}
		}
	case *ast.RawHTML:
		if entering {
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				r.writeInline(st, string(seg.Value(src)))
			}
		}
	default:
		// Unhandled constructs degrade to their text content: children are
		// walked and structure markers are dropped.
	}
	return ast.WalkContinue, nil
}

// stepTable accumulates flattened "cell | cell" rows while a table is open.
func (r *Renderer) stepTable(st *renderState, n ast.Node, src []byte, entering bool) {
	switch n := n.(type) {
	case *east.Table:
		if !entering {
			r.closeTable(st)
		}
	case *east.TableHeader, *east.TableRow:
		if entering {
			st.table.cells = 0
		} else if st.table.cells > 0 {
			st.table.buf.WriteByte('\n')
		}
	case *east.TableCell:
		if entering {
			if st.table.cells > 0 {
				st.table.buf.WriteString(" | ")
			}
			st.table.cells++
		}
	case *ast.Text:
		if entering {
			st.table.buf.Write(n.Segment.Value(src))
		}
	case *ast.String:
		if entering {
			st.table.buf.Write(n.Value)
		}
	}
}

func (r *Renderer) stepCodeBlock(st *renderState, lines *text.Segments, lang string, src []byte, entering bool) {
	if entering {
		r.flushHeading(st)
		r.flushList(st)
		st.code.buf.Reset()
		st.code.buf.WriteString(fenceMarker)
		st.code.buf.WriteString(lang)
		st.code.buf.WriteByte('\n')
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			st.code.buf.Write(seg.Value(src))
		}
		st.code.open = true
	} else {
		r.closeCode(st)
	}
}

// closeCode renders the accumulated block verbatim as one unit. Code content
// is not recolored token by token.
func (r *Renderer) closeCode(st *renderState) {
	body := st.code.buf.String()
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	r.write(r.code.Render(body+fenceMarker) + "\n")
	st.code.buf.Reset()
	st.code.open = false
}

// closeTable trims the dangling cell separator and hands the flattened rows
// to the table formatter.
func (r *Renderer) closeTable(st *renderState) {
	flat := st.table.buf.String()
	for {
		trimmed := strings.TrimSuffix(flat, " | ")
		trimmed = strings.TrimSuffix(trimmed, "| ")
		if trimmed == flat {
			break
		}
		flat = trimmed
	}
	if strings.TrimSpace(flat) != "" {
		r.write(FormatTable(flat))
	}
	st.table.buf.Reset()
	st.table.cells = 0
	st.table.open = false
}

// flushHeading renders a pending heading as one styled unit.
func (r *Renderer) flushHeading(st *renderState) {
	if !st.heading.open {
		return
	}
	if title := st.heading.buf.String(); strings.TrimSpace(title) != "" {
		level := st.heading.level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		r.write(r.headings[level-1].Render(title) + "\n")
	}
	st.heading.buf.Reset()
	st.heading.open = false
}

// flushList renders the accumulated list buffer as one unit, styling the
// item markers with the theme's list color.
func (r *Renderer) flushList(st *renderState) {
	if st.listBuf.Len() == 0 {
		return
	}
	buf := st.listBuf.String()
	st.listBuf.Reset()
	st.lists = st.lists[:0]
	var b strings.Builder
	for i, line := range strings.Split(buf, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		indent, marker, rest := splitListMarker(line)
		if marker == "" {
			b.WriteString(line)
			continue
		}
		b.WriteString(indent)
		b.WriteString(r.marker.Render(marker))
		b.WriteString(rest)
	}
	r.write(b.String())
}

// splitListMarker separates a list line into indent, marker ("- " or
// "12. "), and content. Lines without a marker return an empty marker.
func splitListMarker(line string) (indent, marker, rest string) {
	i := 0
	for i < len(line) && line[i] == ' ' {
		i++
	}
	body := line[i:]
	if strings.HasPrefix(body, "- ") {
		return line[:i], "- ", body[2:]
	}
	j := 0
	for j < len(body) && body[j] >= '0' && body[j] <= '9' {
		j++
	}
	if j > 0 && j+1 < len(body) && body[j] == '.' && body[j+1] == ' ' {
		return line[:i], body[:j+2], body[j+2:]
	}
	return "", "", ""
}

// writeInline routes text into whichever accumulator is open, or straight
// to the output when none is.
func (r *Renderer) writeInline(st *renderState, s string) {
	switch {
	case st.heading.open:
		st.heading.buf.WriteString(s)
	case len(st.lists) > 0:
		st.listBuf.WriteString(s)
	case st.quoteDepth > 0:
		r.write(r.quote.Render(s))
	default:
		r.write(s)
	}
}

func (r *Renderer) softBreak(st *renderState) {
	if len(st.lists) > 0 {
		st.listBuf.WriteByte('\n')
		return
	}
	r.write("\n")
}

func (r *Renderer) hardBreak(st *renderState) {
	if len(st.lists) > 0 {
		st.listBuf.WriteString("\n\n")
		return
	}
	r.write("\n\n")
}

func (r *Renderer) write(s string) {
	if r.err != nil || s == "" {
		return
	}
	if _, err := io.WriteString(r.w, s); err != nil {
		r.err = fmt.Errorf("render write: %w", err)
	}
}

// nodeText collects the plain text under a node. Soft breaks become spaces,
// hard breaks newlines.
func nodeText(node ast.Node, src []byte) string {
	var b strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(src))
			if n.SoftLineBreak() {
				b.WriteByte(' ')
			}
			if n.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(n.Value)
		case *ast.AutoLink:
			b.Write(n.URL(src))
		default:
			b.WriteString(nodeText(c, src))
		}
	}
	return b.String()
}
