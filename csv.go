package yield

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

type CSVOptions struct {
	// Comma is the field separator. Zero picks ';' or ',' from the header line.
	Comma rune
	// Encoding is a WHATWG encoding label such as "windows-1252". Empty means UTF-8.
	Encoding string
}

// CSVReader returns a TableReader for daily reports exported as CSV.
func CSVReader(opts CSVOptions) TableReader {
	return func(name string, r io.Reader) (*Table, error) {
		return readCSV(r, opts)
	}
}

func readCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	if opts.Encoding != "" {
		enc, err := htmlindex.Get(opts.Encoding)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", opts.Encoding, err)
		}
		r = transform.NewReader(r, enc.NewDecoder())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	comma := opts.Comma
	if comma == 0 {
		comma = sniffComma(data)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	return &Table{Header: recs[0], Rows: recs[1:], FirstRow: 2}, nil
}

func sniffComma(data []byte) rune {
	line, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// WriteCSV writes the rows under the fixed column header. Numbers use the
// shortest representation that round-trips.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	rec := make([]string, len(Columns))
	for _, row := range rows {
		for i, v := range row.Values() {
			rec[i] = formatCell(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
