package cli

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

const tablePadding = 2

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;?]*[@-~]`)

// writeTable prints left-aligned columns sized to their widest cell. A nil
// header prints rows only.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	colCount := len(headers)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], cellWidth(cell))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	w := bufio.NewWriter(out)
	writeRow := func(row []string) {
		var line strings.Builder
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			line.WriteString(cell)
			if i < colCount-1 {
				line.WriteString(strings.Repeat(" ", widths[i]-cellWidth(cell)+tablePadding))
			}
		}
		_, _ = w.WriteString(strings.TrimRight(line.String(), " \n") + "\n")
	}

	if len(headers) > 0 {
		writeRow(headers)
	}
	for _, row := range rows {
		writeRow(row)
	}
	return w.Flush()
}

func cellWidth(s string) int {
	return runewidth.StringWidth(stripANSI(s))
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func stripANSI(value string) string {
	if !strings.Contains(value, "\x1b") {
		return value
	}
	return ansiSeq.ReplaceAllString(value, "")
}
