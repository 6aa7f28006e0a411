package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// delimiters are the separators considered by DetectDelimiter, in order of
// preference when counts tie.
var delimiters = []rune{',', ';', '\t', '|'}

// DetectDelimiter picks the separator that occurs most often in the first
// line. It defaults to comma.
func DetectDelimiter(firstLine string) rune {
	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(firstLine, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// DelimiterName returns a readable name for a separator.
func DelimiterName(d rune) string {
	switch d {
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '\t':
		return "tab"
	case '|':
		return "pipe"
	default:
		return string(d)
	}
}

// LoadCSV reads delimited text with a header row.
func LoadCSV(r io.Reader) (*table.Table, rune, error) {
	data, err := io.ReadAll(NormalizeText(r))
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, 0, ErrEmptyFile
	}

	first, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	delim := DetectDelimiter(string(first))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, delim, fmt.Errorf("parse csv: %w", err)
	}
	t, err := FromRecords(records)
	if err != nil {
		return nil, delim, err
	}
	return t, delim, nil
}

// FromRecords builds a table from raw rows whose first row is the header.
// Header names are trimmed; blank names become "Unnamed: i" and repeated
// names get a ".n" suffix. Short rows are padded with nulls. Column types
// are inferred from the cell text.
func FromRecords(records [][]string) (*table.Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	header := UniqueHeader(records[0])
	if len(header) == 0 {
		return nil, ErrNoHeader
	}

	rows := records[1:]
	raw := make([][]string, len(header))
	for j := range raw {
		raw[j] = make([]string, len(rows))
	}
	for i, row := range rows {
		if len(row) > len(header) && !blankTail(row[len(header):]) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(row), len(header))
		}
		for j := range header {
			if j < len(row) {
				raw[j][i] = row[j]
			}
		}
	}

	cols := make([]*table.Column, len(header))
	for j, name := range header {
		cols[j] = table.FromStrings(name, raw[j])
	}
	return table.New(cols...)
}

func blankTail(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// UniqueHeader cleans header cells into unique, non-empty column names.
// Trailing blank header cells are dropped.
func UniqueHeader(cells []string) []string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}

	names := make([]string, end)
	seen := make(map[string]int, end)
	for i := 0; i < end; i++ {
		name := strings.TrimSpace(cells[i])
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for n := seen[base]; ; n++ {
			if _, taken := seen[name]; !taken {
				break
			}
			name = base + "." + strconv.Itoa(n)
		}
		seen[base]++
		if name != base {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}
