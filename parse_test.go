package yield

import (
	"errors"
	"testing"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in      string
		ok      bool
		present bool
		out     float64
	}{
		{"", true, false, 0},
		{"  ", true, false, 0},
		{"0", true, true, 0},
		{"12", true, true, 12},
		{"12.5", true, true, 12.5},
		{"12,5", true, true, 12.5},
		{"-9,50", true, true, -9.5},
		{"1.234,5", true, true, 1234.5},
		{"1 234,5", true, true, 1234.5},
		{"1.234.567", true, true, 1234567},
		{"-1.234,56", true, true, -1234.56},
		{"1.234", true, true, 1.234},
		{"1,234.5", false, false, 0},
		{"12.34,5", false, false, 0},
		{"1.234.5", false, false, 0},
		{"1,2,3", false, false, 0},
		{" 7 ", true, true, 7},
		{"banana", false, false, 0},
		{"1..2", false, false, 0},
		{"NaN", false, false, 0},
		{"Inf", false, false, 0},
	}

	for _, c := range cases {
		v, err := ParseNumber(c.in)
		f, present := v.Get()
		if c.ok && err != nil {
			t.Error("unexpected failure:", c.in)
		} else if !c.ok && err == nil {
			t.Error("unexpected success:", c.in)
		} else if present != c.present || f != c.out {
			t.Errorf("unexpected value %v (present %v) != %v for %q", f, present, c.out, c.in)
		}
	}
}

var dailyHeader = []string{
	"Auftrag", "Stämme", "Volumen_Eingang", "Durchschn_Stämme", "Teile", "Durchmesser",
	"Laufzeit_Minuten", "Dimension", "Brutto_Volumen", "Netto_Volumen",
	"CE", "SF", "SI", "IND", "NSI", "Q_V", "Ausschuss",
}

func TestParse(t *testing.T) {
	tbl := &Table{
		Header: dailyHeader,
		Rows: [][]string{
			{"12345 - 45x120", "10", "50", "5", "20", "n/a", "60", "", "", "", "", "", "", "", "", "", ""},
			{"", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", ""},
			{"12345 - 45x120", "", "", "", "20", "", "", "45x120", "10", "8", "1", "2", "3", "4", "5", "6", "1"},
			{"12345 - 45x120", "", "", "", "1"}, // short row
		},
		FirstRow: 4,
	}

	recs, err := Parse("day.xlsx", tbl)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}

	if recs[0].Row != 4 || recs[1].Row != 6 || recs[2].Row != 7 {
		t.Errorf("unexpected row numbers %d, %d, %d", recs[0].Row, recs[1].Row, recs[2].Row)
	}
	if v, ok := recs[0].StemCount.Get(); !ok || v != 10 {
		t.Errorf("unexpected stem count %v, %v", v, ok)
	}
	if recs[0].Diameter.Present() {
		t.Error("unparseable diameter should be absent")
	}
	if recs[0].GrossVolume.Present() {
		t.Error("empty gross volume should be absent")
	}
	if recs[1].Dimension != "45x120" {
		t.Errorf("unexpected dimension %q", recs[1].Dimension)
	}
	if v, _ := recs[1].Quality[QV].Get(); v != 6 {
		t.Errorf("unexpected QV %v", v)
	}
	if recs[2].WasteVolume.Present() {
		t.Error("missing cell of a short row should be absent")
	}
}

func TestParseAliases(t *testing.T) {
	tbl := &Table{
		Header: []string{
			"\ufefforder_label", "stem_count", "input_volume", "avg_stem_count", "parts_count", "diameter",
			"runtime_minutes", "dimension_label", "gross_volume", "net_volume",
			"ce", "sf", "si", "ind", "nsi", "qv", "waste_volume",
		},
		Rows: [][]string{{"54321 - 38x100", "3"}},
	}
	recs, err := Parse("day.csv", tbl)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].OrderLabel != "54321 - 38x100" || recs[0].Row != 2 {
		t.Errorf("unexpected records %+v", recs)
	}
}

func TestParseErrors(t *testing.T) {
	var schema *SchemaError
	_, err := Parse("day.csv", &Table{Header: dailyHeader[:16]})
	if !errors.As(err, &schema) || schema.Column != "Ausschuss" {
		t.Errorf("expected missing Ausschuss column, got %v", err)
	}

	var conv *ConversionError
	_, err = Parse("day.csv", &Table{
		Header: dailyHeader,
		Rows: [][]string{
			{"12345 - 45x120", "10", "fifty"},
		},
	})
	if !errors.As(err, &conv) {
		t.Fatalf("expected conversion error, got %v", err)
	}
	if conv.Row != 2 || conv.Column != "Volumen_Eingang" || conv.Value != "fifty" {
		t.Errorf("unexpected conversion error %+v", conv)
	}

	// English grouping must not be read as a German decimal.
	_, err = Parse("day.csv", &Table{
		Header: dailyHeader,
		Rows: [][]string{
			{"12345 - 45x120", "10", "1,250.5"},
		},
	})
	if !errors.As(err, &conv) || conv.Column != "Volumen_Eingang" || conv.Value != "1,250.5" {
		t.Errorf("expected conversion error for 1,250.5, got %v", err)
	}
}
