package excel

import (
	"sort"

	"github.com/xuri/excelize/v2"
	"kastelo.dev/yield"
)

const summarySheet = "Übersicht"

func writeSummarySheet(xlsx *excelize.File, sheet string, res *yield.Result) {
	s := res.Summary

	_ = xlsx.SetColWidth(sheet, "A", "A", 32)
	_ = xlsx.SetColWidth(sheet, "B", "B", 24)

	row := 1
	_ = xlsx.SetCellValue(sheet, cell('A', row), "Monatsanalyse")
	style, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold(), thickBorder("bottom")))
	_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('B', row), style)
	row += 2

	label, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold()))
	value, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), textAlignment("right")))
	put := func(k string, v any) {
		_ = xlsx.SetCellValue(sheet, cell('A', row), k)
		_ = xlsx.SetCellValue(sheet, cell('B', row), v)
		_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('A', row), label)
		_ = xlsx.SetCellStyle(sheet, cell('B', row), cell('B', row), value)
		row++
	}

	put("Zeitraum", s.Range())
	put("Berichtstage", s.Days)
	put("Aufträge", s.Orders)
	put("Zeilen", s.Rows)
	put("Gesamtvolumen Eingang", yield.Volume(s.TotalInputVolume))
	put("Gesamtvolumen Brutto", yield.Volume(s.TotalGrossVolume))
	put("Lauf", res.RunID)

	if !s.HasDates() {
		note, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), fontItalic()))
		_ = xlsx.SetCellValue(sheet, cell('A', row), "Keine Datumsangaben in den Dateinamen")
		_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('A', row), note)
		row++
	}
	row++

	_ = xlsx.SetCellValue(sheet, cell('A', row), "Datei")
	_ = xlsx.SetCellValue(sheet, cell('B', row), "Datensätze")
	style, _ = xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold(), thinBorder("bottom")))
	_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('B', row), style)
	row++

	failed, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), highlight()))
	for _, f := range res.Files {
		_ = xlsx.SetCellValue(sheet, cell('A', row), f.Name)
		if f.Err != nil {
			_ = xlsx.SetCellValue(sheet, cell('B', row), f.Err.Error())
			_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('B', row), failed)
		} else {
			_ = xlsx.SetCellValue(sheet, cell('B', row), f.Records)
		}
		row++
	}

	if len(s.Warnings) == 0 {
		return
	}
	row++

	_ = xlsx.SetCellValue(sheet, cell('A', row), "Warnungen")
	_ = xlsx.SetCellValue(sheet, cell('B', row), "Anzahl")
	_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('B', row), style)
	row++

	kinds := make([]string, 0, len(s.Warnings))
	for k := range s.Warnings {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		_ = xlsx.SetCellValue(sheet, cell('A', row), k)
		_ = xlsx.SetCellValue(sheet, cell('B', row), s.Warnings[k])
		_ = xlsx.SetCellStyle(sheet, cell('B', row), cell('B', row), failed)
		row++
	}
}
