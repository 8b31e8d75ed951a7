package xlsx

import (
	"io"

	"github.com/xuri/excelize/v2"
	"gopkg.in/gomisc/errors.v1"

	"gopkg.in/gomisc/rowset.v1"
)

const defaultSheet = "Sheet1"

// Write записывает таблицу в новую книгу с листом sheet
func Write(w io.Writer, sheet string, table *rowset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = defaultSheet
	}

	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return errors.Ctx().Str("sheet", sheet).Wrap(err, "rename sheet")
		}
	}

	headers := table.Headers
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return errors.Wrap(err, "write header row")
	}

	for i := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "resolve row cell")
		}

		if err = f.SetSheetRow(sheet, cell, &table.Rows[i]); err != nil {
			return errors.Ctx().Str("cell", cell).Wrap(err, "write row")
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}

	return nil
}
