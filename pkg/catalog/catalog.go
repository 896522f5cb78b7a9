// Package catalog reads and writes the whitespace-delimited TCE catalogs.
//
// A catalog file has a header row naming the columns followed by one row per
// TCE. Fields are separated by runs of blanks; a field containing blanks is
// wrapped in double quotes.
package catalog

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required column is not in the header.
var ErrMissingColumn = errors.New("catalog: missing column")

// Table is a parsed catalog. Values are kept as their original text so a
// written table reproduces the input fields exactly.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read parses the catalog file at path.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads a header line and data rows from r. Blank lines and lines
// starting with '#' are skipped.
func Parse(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	t := &Table{}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := splitFields(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if t.Header == nil {
			t.Header = fields
			continue
		}
		if len(fields) != len(t.Header) {
			return nil, fmt.Errorf("line %d: got %d fields, header has %d", lineNo, len(fields), len(t.Header))
		}
		t.Rows = append(t.Rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if t.Header == nil {
		return nil, errors.New("catalog: no header row")
	}
	return t, nil
}

// splitFields breaks a line on blanks, honoring double-quoted fields.
func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote, quoted := false, false
	flush := func() {
		if cur.Len() > 0 || quoted {
			fields = append(fields, cur.String())
		}
		cur.Reset()
		quoted = false
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	flush()
	return fields, nil
}

// Len is the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Header, name)
}

func (t *Table) column(name string) (int, error) {
	i := t.Index(name)
	if i < 0 {
		return -1, fmt.Errorf("%w %q", ErrMissingColumn, name)
	}
	return i, nil
}

// String returns the raw text of column name in row.
func (t *Table) String(row int, name string) (string, error) {
	i, err := t.column(name)
	if err != nil {
		return "", err
	}
	return t.Rows[row][i], nil
}

// Float parses column name in row as a float64.
func (t *Table) Float(row int, name string) (float64, error) {
	s, err := t.String(row, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d column %s: %w", row, name, err)
	}
	return v, nil
}

// Int parses column name in row as an int64.
func (t *Table) Int(row int, name string) (int64, error) {
	s, err := t.String(row, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d column %s: %w", row, name, err)
	}
	return v, nil
}

// SortBy stable-sorts the rows numerically by each key in turn, so the last
// key is the primary order and earlier keys break its ties.
func (t *Table) SortBy(keys ...string) error {
	for _, key := range keys {
		i, err := t.column(key)
		if err != nil {
			return err
		}
		keyed := make([]keyedRow, len(t.Rows))
		for r, row := range t.Rows {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return fmt.Errorf("sort by %s: row %d: %w", key, r, err)
			}
			keyed[r] = keyedRow{key: v, row: row}
		}
		slices.SortStableFunc(keyed, func(a, b keyedRow) int {
			return cmp.Compare(a.key, b.key)
		})
		for r := range keyed {
			t.Rows[r] = keyed[r].row
		}
	}
	return nil
}

type keyedRow struct {
	key float64
	row []string
}

// AddIntColumn appends a column holding one integer per row.
func (t *Table) AddIntColumn(name string, values []int) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %s: %d values for %d rows", name, len(values), len(t.Rows))
	}
	if t.Index(name) >= 0 {
		return fmt.Errorf("column %s already present", name)
	}
	t.Header = append(t.Header, name)
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r], strconv.Itoa(values[r]))
	}
	return nil
}

// Write emits the header and rows in the same format Parse reads.
func (t *Table) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	writeLine(bw, t.Header)
	for _, row := range t.Rows {
		writeLine(bw, row)
	}
	return bw.Flush()
}

// WriteFile writes the table to path, creating parent directories.
func (t *Table) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeLine(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(' ')
		}
		if f == "" || strings.ContainsAny(f, " \t") {
			w.WriteString(`"` + f + `"`)
			continue
		}
		w.WriteString(f)
	}
	w.WriteByte('\n')
}
