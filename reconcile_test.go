package yield

import (
	"errors"
	"io"
	"testing"

	"go.uber.org/zap/zaptest"
)

const csvHeader = "Auftrag;Stämme;Volumen_Eingang;Durchschn_Stämme;Teile;Durchmesser;Laufzeit_Minuten;Dimension;Brutto_Volumen;Netto_Volumen;CE;SF;SI;IND;NSI;Q_V;Ausschuss\n"

var (
	day1CSV = csvHeader +
		"12345 - Productivity Report 45x120;10;50;5;20;;60;;;;;;;;;;\n" +
		"12345 - Productivity Report 45x120;;;;20;;;45x120;10;8;1;1;1;1;1;1;1\n"
	day2CSV = csvHeader +
		"12345 - 45x120;12;60;6;24;;90;;;;;;;;;;\n" +
		"12345 - 45x120;;;;24;;;45x120;12;9;2;2;2;2;2;2;2\n" +
		"Gesamt;22;110;;;;;;;;;;;;;;\n"
)

func TestRun(t *testing.T) {
	res, err := Run([]Source{
		BytesSource("Ausbeute_2025-03-02.csv", []byte(day2CSV)),
		BytesSource("Ausbeute_2025-03-01.csv", []byte(day1CSV)),
	}, Options{Logger: zaptest.NewLogger(t)})
	if err != nil {
		t.Fatal(err)
	}

	if res.RunID == "" {
		t.Error("missing run id")
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}

	tot := res.Rows[0]
	if tot.Kind != TotalRow || tot.StemCount != 22 || tot.InputVolume != 110 || tot.AvgStemCount != 5.5 || tot.TotalParts != 44 || tot.RuntimeMinutes != 150 || tot.FeedRate != 44 {
		t.Errorf("unexpected total row %+v", tot)
	}
	dim := res.Rows[1]
	if dim.Kind != DimensionRow || dim.GrossVolume != 22 || dim.NetVolume != 17 || dim.WasteVolume != 3 ||
		dim.GrossWastePct != 13.636 || dim.GrossYieldPct != 20 || dim.NetYieldPct != 15.455 {
		t.Errorf("unexpected dimension row %+v", dim)
	}

	// The "Gesamt" line has no order number.
	var unident *UnidentifiedOrderError
	if len(res.Warnings) != 1 || !errors.As(res.Warnings[0], &unident) || unident.Row != 4 {
		t.Errorf("expected one unidentified order warning, got %v", res.Warnings)
	}
	if res.Summary.Warnings["unidentified_order"] != 1 {
		t.Errorf("unexpected warning summary %v", res.Summary.Warnings)
	}
	if n := len(res.Trace.Filter(Event{Kind: "unidentified_order"})); n != 1 {
		t.Errorf("expected one traced warning, got %d", n)
	}
	if !errors.As(res.Err(), &unident) {
		t.Errorf("Err should carry the warnings, got %v", res.Err())
	}

	if res.Summary.Days != 2 || res.Summary.Range() != "01.03.25 - 02.03.25" {
		t.Errorf("unexpected summary %+v", res.Summary)
	}
}

func TestRunPartialFailure(t *testing.T) {
	broken := Source{
		Name: "broken.csv",
		Open: func() (io.ReadCloser, error) { return nil, errors.New("permission denied") },
	}
	res, err := Run([]Source{
		BytesSource("Ausbeute_2025-03-01.csv", []byte(day1CSV)),
		broken,
		BytesSource("schema.csv", []byte("Auftrag;Stämme\n12345;1\n")),
		BytesSource("convert.csv", []byte(csvHeader+"12345 - 45x120;zehn;50;5;20;;60;;;;;;;;;;\n")),
		BytesSource("notes.txt", []byte("hello")),
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Files) != 5 {
		t.Fatalf("expected 5 file reports, got %d", len(res.Files))
	}
	if res.Files[0].Err != nil || res.Files[0].Records != 2 {
		t.Errorf("unexpected report for the good file %+v", res.Files[0])
	}
	for _, f := range res.Files[1:] {
		if f.Err == nil {
			t.Errorf("%s should have failed", f.Name)
		}
	}

	var schema *SchemaError
	var conv *ConversionError
	if !errors.As(res.Files[2].Err, &schema) || schema.Column != "Volumen_Eingang" {
		t.Errorf("expected schema error, got %v", res.Files[2].Err)
	}
	if !errors.As(res.Files[3].Err, &conv) || conv.Column != "Stämme" || conv.Row != 2 {
		t.Errorf("expected conversion error, got %v", res.Files[3].Err)
	}

	if res.Summary.Warnings["ingestion"] != 2 || res.Summary.Warnings["schema"] != 1 || res.Summary.Warnings["conversion"] != 1 {
		t.Errorf("unexpected warning summary %v", res.Summary.Warnings)
	}
	if len(res.Rows) != 2 || res.Rows[0].StemCount != 10 {
		t.Errorf("the good file should still be reconciled, got %+v", res.Rows)
	}
}

func TestRunNoData(t *testing.T) {
	_, err := Run([]Source{
		BytesSource("schema.csv", []byte("Auftrag\n12345\n")),
	}, Options{})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
	var schema *SchemaError
	if !errors.As(err, &schema) {
		t.Errorf("expected the cause to be kept, got %v", err)
	}

	_, err = Run(nil, Options{})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData for no sources, got %v", err)
	}

	_, err = Run([]Source{
		BytesSource("day.csv", []byte(csvHeader+"Gesamt;22;110;;;;;;;;;;;;;;\n")),
	}, Options{})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData without order numbers, got %v", err)
	}
}

func TestRunRejectsEnglishGrouping(t *testing.T) {
	res, err := Run([]Source{
		BytesSource("Ausbeute_2025-03-01.csv", []byte(day1CSV)),
		BytesSource("Ausbeute_2025-03-02.csv", []byte(csvHeader+"12345 - 45x120;12;\"1,250.5\";6;24;;90;;;;;;;;;;\n")),
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	var conv *ConversionError
	if !errors.As(res.Files[1].Err, &conv) || conv.Value != "1,250.5" {
		t.Errorf("expected conversion error, got %v", res.Files[1].Err)
	}
	if res.Rows[0].InputVolume != 50 {
		t.Errorf("the rejected file must not reach the sums, got %v", res.Rows[0].InputVolume)
	}
}

func TestRunExcludesUnlabeledDimensionRow(t *testing.T) {
	res, err := Run([]Source{
		BytesSource("Ausbeute_2025-03-01.csv", []byte(day1CSV+"12345 - 45x120;;;;5;;;;3;2;;;;;;;1\n")),
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	var m *MismatchError
	if len(res.Warnings) != 1 || !errors.As(res.Warnings[0], &m) || !m.Excluded || m.Row != 4 {
		t.Fatalf("expected a single exclusion warning, got %v", res.Warnings)
	}
	if len(res.Rows) != 2 || res.Rows[1].GrossVolume != 10 {
		t.Errorf("the unlabeled row must not reach the output, got %+v", res.Rows)
	}
}
