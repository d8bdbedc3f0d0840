package excel

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/xuri/excelize/v2"
	"kastelo.dev/yield"
)

const DefaultSheet = "Monatsanalyse"

// ResultXLSX renders a reconciliation result as a workbook with the table
// sheet and an overview sheet.
func ResultXLSX(res *yield.Result, sheetName string) ([]byte, error) {
	if sheetName == "" {
		sheetName = DefaultSheet
	}

	xlsx := excelize.NewFile()
	defer xlsx.Close()

	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "kastelo.dev/yield",
		DocSecurity: 2,
	})

	sheet := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	if err := xlsx.SetSheetName(sheet, sheetName); err != nil {
		return nil, err
	}
	if err := writeSheet(xlsx, sheetName, res.Rows); err != nil {
		return nil, err
	}

	if _, err := xlsx.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	writeSummarySheet(xlsx, summarySheet, res)

	xlsx.SetActiveSheet(0)

	// Increase size of window
	for i := range xlsx.WorkBook.BookViews.WorkBookView {
		xlsx.WorkBook.BookViews.WorkBookView[i].XWindow = "1000"
		xlsx.WorkBook.BookViews.WorkBookView[i].YWindow = "1000"
		xlsx.WorkBook.BookViews.WorkBookView[i].WindowWidth = 25000
		xlsx.WorkBook.BookViews.WorkBookView[i].WindowHeight = 25000 / 3 * 2
	}

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Column letters of the fixed layout.
var (
	firstCol    = 'A'
	lastCol     = 'A' + rune(len(yield.Columns)) - 1
	strengthCol = 'H'
)

func writeSheet(xlsx *excelize.File, sheet string, rows []yield.Row) error {
	_ = xlsx.SetColWidth(sheet, "A", "A", 30)
	_ = xlsx.SetColWidth(sheet, "B", "B", 14)
	_ = xlsx.SetColWidth(sheet, "C", string(lastCol), 13)

	header := make([]any, len(yield.Columns))
	for i, c := range yield.Columns {
		header[i] = c
	}
	if err := xlsx.SetSheetRow(sheet, cell(firstCol, 1), &header); err != nil {
		return err
	}
	style, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold(), thinBorder("bottom")))
	_ = xlsx.SetCellStyle(sheet, cell(firstCol, 1), cell(lastCol, 1), style)

	_ = xlsx.SetPanes(sheet, &excelize.Panes{
		ActivePane:  "bottomLeft",
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})

	totalText, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold(), shaded(), thinBorder("top")))
	totalNum, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold(), shaded(), thinBorder("top"), numberFormat()))
	dimText, _ := xlsx.NewStyle(mergeStyles(defaultStyle()))
	dimNum, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), numberFormat()))

	for i, r := range rows {
		row := i + 2
		values := r.Values()
		if err := xlsx.SetSheetRow(sheet, cell(firstCol, row), &values); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}

		text, num := dimText, dimNum
		if r.Kind == yield.TotalRow {
			text, num = totalText, totalNum
		}
		_ = xlsx.SetCellStyle(sheet, cell(firstCol, row), cell('B', row), text)
		_ = xlsx.SetCellStyle(sheet, cell('C', row), cell(lastCol, row), num)
		_ = xlsx.SetCellStyle(sheet, cell(strengthCol, row), cell(strengthCol, row), text)
	}

	return nil
}

func cell(col rune, row int) string {
	return fmt.Sprintf("%c%d", col, row)
}

func defaultStyle() *excelize.Style {
	return &excelize.Style{
		// solid white
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FFFFFF"},
			Pattern: 1,
		},
	}
}

func numberFormat() *excelize.Style {
	fmt := "#,##0.000"
	return &excelize.Style{
		CustomNumFmt: &fmt,
	}
}

func fontBold() *excelize.Style {
	return &excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	}
}

func fontItalic() *excelize.Style {
	return &excelize.Style{
		Font: &excelize.Font{
			Italic: true,
		},
	}
}

func shaded() *excelize.Style {
	return &excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#EDEDED"},
			Pattern: 1,
		},
	}
}

func highlight() *excelize.Style {
	return &excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FFFF50"},
			Pattern: 1,
		},
	}
}

func thinBorder(where ...string) *excelize.Style {
	s := &excelize.Style{}
	for _, w := range where {
		s.Border = append(s.Border, excelize.Border{
			Type:  w,
			Color: "#000000",
			Style: 1,
		})
	}
	return s
}

func thickBorder(where ...string) *excelize.Style {
	s := &excelize.Style{}
	for _, w := range where {
		s.Border = append(s.Border, excelize.Border{
			Type:  w,
			Color: "#000000",
			Style: 2,
		})
	}
	return s
}

func textAlignment(a string) *excelize.Style {
	return &excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: a,
		},
	}
}

func mergeStyles(ext ...*excelize.Style) *excelize.Style {
	if len(ext) == 0 {
		return nil
	}
	for _, e := range ext[1:] {
		_ = mergo.Merge(ext[0], e, mergo.WithOverride)
	}
	return ext[0]
}
