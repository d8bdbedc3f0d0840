package yield

import (
	"strings"
)

// LoadReference reads a reference table with the reader registered for the
// source's extension.
func LoadReference(src Source, readers map[string]TableReader) ([]ReferenceDimension, error) {
	t, err := readTable(src, readers)
	if err != nil {
		return nil, &IngestionError{File: src.Name, Err: err}
	}
	return ParseReference(src.Name, t)
}

// ParseReference reads a reference table of expected dimensions: the first
// two columns hold the measures (e.g. "75,00" and "95,00"), one dimension per
// row below the header. The sort index follows row order, starting at 1.
func ParseReference(file string, t *Table) ([]ReferenceDimension, error) {
	if len(t.Header) < 2 {
		return nil, &SchemaError{File: file, Column: "Dim2"}
	}

	first := t.FirstRow
	if first == 0 {
		first = 2
	}

	var res []ReferenceDimension
	for i, row := range t.Rows {
		if blank(row) {
			continue
		}
		var dims [2]string
		for c := range dims {
			cell := ""
			if c < len(row) {
				cell = strings.TrimSpace(row[c])
			}
			v, err := ParseNumber(cell)
			f, ok := v.Get()
			if err != nil || !ok {
				return nil, &ConversionError{File: file, Row: first + i, Column: t.Header[c], Value: cell}
			}
			dims[c] = measure(formatCell(f))
		}
		res = append(res, ReferenceDimension{
			SortIndex: len(res) + 1,
			Dim1:      dims[0],
			Dim2:      dims[1],
		})
	}
	return res, nil
}
