package yield

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// groupedExp matches German thousands grouping such as "1.234,5" and "1.234.567".
var groupedExp = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+(,\d+)?$`)

// Table is a sheet of cells as delivered by a reader: a header row and the
// data rows below it.
type Table struct {
	Header []string
	Rows   [][]string
	// FirstRow is the 1-based sheet row of Rows[0]. Zero means 2.
	FirstRow int
}

type column int

const (
	colOrder column = iota
	colStems
	colInput
	colAvgStems
	colParts
	colDiameter
	colRuntime
	colDimension
	colGross
	colNet
	colCE
	colSF
	colSI
	colIND
	colNSI
	colQV
	colWaste
	numColumns
)

// Accepted header spellings per column. The first one is the name used in
// error messages.
var columnNames = [numColumns][]string{
	colOrder:     {"Auftrag", "order_label", "order"},
	colStems:     {"Stämme", "Staemme", "stem_count"},
	colInput:     {"Volumen_Eingang", "input_volume"},
	colAvgStems:  {"Durchschn_Stämme", "Durchschn_Staemme", "avg_stem_count"},
	colParts:     {"Teile", "parts_count"},
	colDiameter:  {"Durchmesser", "diameter"},
	colRuntime:   {"Laufzeit_Minuten", "runtime_minutes"},
	colDimension: {"Dimension", "dimension_label"},
	colGross:     {"Brutto_Volumen", "gross_volume"},
	colNet:       {"Netto_Volumen", "net_volume"},
	colCE:        {"CE"},
	colSF:        {"SF"},
	colSI:        {"SI"},
	colIND:       {"IND"},
	colNSI:       {"NSI"},
	colQV:        {"Q_V", "QV"},
	colWaste:     {"Ausschuss", "waste_volume"},
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func columnIndex(file string, header []string) ([numColumns]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, ok := byName[n]; !ok {
			byName[n] = i
		}
	}

	var idx [numColumns]int
	for c := column(0); c < numColumns; c++ {
		idx[c] = -1
		for _, name := range columnNames[c] {
			if i, ok := byName[normalizeHeader(name)]; ok {
				idx[c] = i
				break
			}
		}
		if idx[c] == -1 {
			return idx, &SchemaError{File: file, Column: columnNames[c][0]}
		}
	}
	return idx, nil
}

// Parse converts a daily report table into raw records. A missing column
// or a non-numeric cell in a numeric column fails the whole table.
func Parse(file string, t *Table) ([]RawRecord, error) {
	idx, err := columnIndex(file, t.Header)
	if err != nil {
		return nil, err
	}

	first := t.FirstRow
	if first == 0 {
		first = 2
	}

	var recs []RawRecord
	for i, row := range t.Rows {
		if blank(row) {
			continue
		}
		rowNum := first + i
		cell := func(c column) string {
			if j := idx[c]; j < len(row) {
				return strings.TrimSpace(row[j])
			}
			return ""
		}

		var convErr error
		num := func(c column) Value {
			v, err := ParseNumber(cell(c))
			if err != nil && convErr == nil {
				convErr = &ConversionError{File: file, Row: rowNum, Column: columnNames[c][0], Value: cell(c)}
			}
			return v
		}

		rec := RawRecord{
			File:           file,
			Row:            rowNum,
			OrderLabel:     cell(colOrder),
			StemCount:      num(colStems),
			InputVolume:    num(colInput),
			AvgStemCount:   num(colAvgStems),
			Parts:          num(colParts),
			Diameter:       lenient(cell(colDiameter)),
			RuntimeMinutes: num(colRuntime),
			Dimension:      cell(colDimension),
			GrossVolume:    num(colGross),
			NetVolume:      num(colNet),
			WasteVolume:    num(colWaste),
		}
		for q := 0; q < numQuality; q++ {
			rec.Quality[q] = num(colCE + column(q))
		}
		if convErr != nil {
			return nil, convErr
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// lenient parses a cell whose value is never used in computations.
func lenient(s string) Value {
	v, err := ParseNumber(s)
	if err != nil {
		return Value{}
	}
	return v
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseNumber parses a numeric cell. A comma is the decimal separator
// ("12,5"); a dot is thousands grouping only in the German form "1.234,5"
// or "1.234.567", and otherwise the decimal point that spreadsheet cells
// carry ("1.234" is 1.234). Anything else, such as "1,234.5", is an error.
// An empty cell is an absent value.
func ParseNumber(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, nil
	}
	s = strings.ReplaceAll(s, " ", "")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasComma && strings.Contains(s, "."), strings.Count(s, ".") > 1:
		if !groupedExp.MatchString(s) {
			return Value{}, fmt.Errorf("unable to parse %q: ambiguous separators", s)
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("unable to parse %q", s)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, fmt.Errorf("unable to parse %q", s)
	}
	return Some(f), nil
}
