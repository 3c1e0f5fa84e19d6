package codice

import (
	"slices"
	"strings"
)

// Normalize parses comma-separated text into canonical records.
//
// The first non-blank line is the header. Every later non-blank line becomes
// one record, in input order, holding exactly the header's fields. Missing
// trailing cells read as empty text and surplus cells are ignored. There is
// no quoting or escaping: every comma separates two cells.
//
// A header that repeats a field name keeps the right-most column's values.
func Normalize(text string) ([]Record, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	rawFields := splitCells(lines[0])
	fields := canonicalFieldOrder(rawFields)

	rows := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := splitCells(line)

		row := make(Record, len(rawFields))
		for j, name := range rawFields {
			if j < len(cells) {
				row[name] = cells[j]
			} else {
				row[name] = ""
			}
		}

		transformed := CanonicalTransform(row)

		ordered := make(Record, len(fields))
		for _, name := range fields {
			ordered[name] = transformed[name]
		}
		rows = append(rows, ordered)
	}
	return rows, nil
}

// splitLines splits on LF or CRLF and drops blank lines.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if trimText(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func splitCells(line string) []string {
	cells := strings.Split(line, ",")
	for i, c := range cells {
		cells[i] = trimText(c)
	}
	return cells
}

// canonicalFieldOrder returns the header names sorted ascending, with
// repeated names collapsed to one entry.
func canonicalFieldOrder(rawFields []string) []string {
	fields := slices.Clone(rawFields)
	slices.Sort(fields)
	return slices.Compact(fields)
}
