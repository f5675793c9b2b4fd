package csvparse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Options controls tokenizing.
type Options struct {
	// Delimiter separates fields. Zero means comma.
	Delimiter rune
}

// Warning is a non-fatal issue on one row.
type Warning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result holds the parsed rows keyed by header.
type Result struct {
	Headers  []string
	Records  []map[string]string
	Warnings []Warning
}

// ErrNoHeader is returned for empty input.
var ErrNoHeader = errors.New("empty file: no header row found")

// ParseString tokenizes CSV text. See Parse.
func ParseString(text string, opts Options) (*Result, error) {
	return Parse(strings.NewReader(text), opts)
}

// Parse reads a header row followed by data rows. A UTF-8 or UTF-16 byte
// order mark is honoured and stripped. Blank lines are skipped. Short rows are
// padded with empty values and long rows truncated to the header width, each
// with a warning. Headers are trimmed; a repeated header keeps the rightmost
// column.
func Parse(r io.Reader, opts Options) (*Result, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	res := &Result{Headers: headers, Records: []map[string]string{}}
	width := len(headers)
	rowNum := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		switch {
		case len(row) < width:
			res.Warnings = append(res.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(row), width),
			})
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		case len(row) > width:
			res.Warnings = append(res.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), width),
			})
			row = row[:width]
		}

		record := make(map[string]string, width)
		for i, h := range headers {
			record[h] = row[i]
		}
		res.Records = append(res.Records, record)
	}

	return res, nil
}
