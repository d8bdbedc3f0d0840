package yield

import (
	"path/filepath"
	"regexp"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var fileDateExp = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// Summary holds the headline figures of a monthly analysis.
type Summary struct {
	TotalInputVolume float64
	TotalGrossVolume float64
	Orders           int
	Rows             int

	// Report dates taken from the source file names
	// (e.g. Ausbeuteanalyse_2025-03-14.xlsx).
	Start, End time.Time
	Days       int

	Warnings map[string]int
}

func Summarize(files []string, rows []Row, warnings []error) Summary {
	s := Summary{Rows: len(rows), Warnings: make(map[string]int)}
	for _, r := range rows {
		s.TotalInputVolume += r.InputVolume
		s.TotalGrossVolume += r.GrossVolume
		if r.Kind == TotalRow {
			s.Orders++
		}
	}

	days := make(map[time.Time]bool)
	for _, f := range files {
		m := fileDateExp.FindString(filepath.Base(f))
		if m == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", m)
		if err != nil {
			continue
		}
		days[d] = true
		if s.Start.IsZero() || d.Before(s.Start) {
			s.Start = d
		}
		if s.End.IsZero() || d.After(s.End) {
			s.End = d
		}
	}
	s.Days = len(days)

	for _, w := range warnings {
		s.Warnings[WarningKind(w)]++
	}
	return s
}

func (s Summary) HasDates() bool {
	return !s.Start.IsZero()
}

// Range formats the covered dates as "01.03.25 - 31.03.25".
func (s Summary) Range() string {
	if !s.HasDates() {
		return "–"
	}
	return s.Start.Format("02.01.06") + " - " + s.End.Format("02.01.06")
}

// FileName is the conventional name of the exported workbook.
func (s Summary) FileName() string {
	if !s.HasDates() {
		return "monatsanalyse_unknown.xlsx"
	}
	return "monatsanalyse_" + s.Start.Format("02_01_2006") + "_" + s.End.Format("02_01_2006") + ".xlsx"
}

// Volume formats a volume in cubic metres with German digit grouping.
func Volume(v float64) string {
	return message.NewPrinter(language.German).Sprintf("%.0f m³", v)
}
