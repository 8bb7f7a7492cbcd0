package livemd

import (
	"strings"

	"github.com/muesli/reflow/ansi"
)

// FormatTable turns flattened pipe-delimited rows into a bordered grid.
// Input rows are newline-separated, cells joined with " | " and no leading
// or trailing pipes. Column width is the maximum printable cell width in
// that column; shorter cells are right-padded. Rows with fewer cells than
// the widest row simply end early.
func FormatTable(flat string) string {
	var rows [][]string
	for _, line := range strings.Split(flat, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, "|")
		for i, cell := range cells {
			cells[i] = strings.TrimSpace(cell)
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return ""
	}

	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := ansi.PrintableRuneWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeBorder(&b, widths, "┌", "┬", "┐")
	for idx, row := range rows {
		b.WriteString("│")
		for i, cell := range row {
			if i > 0 {
				b.WriteString("│")
			}
			width := 0
			if i < len(widths) {
				width = widths[i]
			}
			b.WriteString(" ")
			b.WriteString(cell)
			if pad := width - ansi.PrintableRuneWidth(cell); pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
			}
			b.WriteString(" ")
		}
		b.WriteString("│\n")
		// Separator after the header row and between data rows, but not
		// after the last row.
		if idx == 0 || idx < len(rows)-1 {
			writeBorder(&b, widths, "├", "┼", "┤")
		}
	}
	writeBorder(&b, widths, "└", "┴", "┘")
	return b.String()
}

func writeBorder(b *strings.Builder, widths []int, left, mid, right string) {
	b.WriteString(left)
	for i, width := range widths {
		if i > 0 {
			b.WriteString(mid)
		}
		b.WriteString(strings.Repeat("─", width+2))
	}
	b.WriteString(right)
	b.WriteString("\n")
}
