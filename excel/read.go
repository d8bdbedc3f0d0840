package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"kastelo.dev/yield"
)

// Reader reads one sheet of a workbook as a yield.Table. The header is the
// first non-empty row.
type Reader struct {
	// Sheet to read; the first sheet when empty.
	Sheet string
}

func (r Reader) ReadTable(name string, rd io.Reader) (*yield.Table, error) {
	xlsx, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer xlsx.Close()

	sheet := r.Sheet
	if sheet == "" {
		sheets := xlsx.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := xlsx.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	for i, row := range rows {
		if empty(row) {
			continue
		}
		return &yield.Table{
			Header:   row,
			Rows:     rows[i+1:],
			FirstRow: i + 2,
		}, nil
	}
	return nil, fmt.Errorf("sheet %q is empty", sheet)
}

// ReadTable reads the first sheet of a workbook.
func ReadTable(name string, rd io.Reader) (*yield.Table, error) {
	return Reader{}.ReadTable(name, rd)
}

func empty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Readers returns the table readers for workbooks and CSV exports, keyed by
// file extension as yield.Options expects.
func Readers(sheet string, csv yield.CSVOptions) map[string]yield.TableReader {
	xlsx := Reader{Sheet: sheet}.ReadTable
	return map[string]yield.TableReader{
		".xlsx": xlsx,
		".xlsm": xlsx,
		".csv":  yield.CSVReader(csv),
	}
}
