package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

// WriteXLSX renders the report as a single-sheet workbook.
func WriteXLSX(w io.Writer, report reporting.DayReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, row := range Rows(report) {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := []interface{}(row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if i == 0 || isSection(row) {
			last, err := excelize.CoordinatesToCellName(len(row), i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(SheetName, cell, last, bold); err != nil {
				return fmt.Errorf("style row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "I", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
