// Package export writes inventory listings as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/zaqqye/toolcrib/internal/models"
)

const toolSheet = "Tools"

var toolHeader = []interface{}{
	"Tool ID", "Name", "Category", "Workshop", "Status", "Condition",
	"Room", "Shelf", "Row", "Section", "Barcode", "QR Code", "Next Inspection",
}

// WriteTools writes tools as an XLSX workbook with a single "Tools" sheet.
func WriteTools(w io.Writer, tools []models.Tool) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", toolSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(toolSheet, "A1", &toolHeader); err != nil {
		return err
	}
	for i, t := range tools {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		next := ""
		if t.NextInspection != nil {
			next = t.NextInspection.Format("2006-01-02")
		}
		row := []interface{}{
			t.ID, t.Name, t.Category, t.Workshop, t.Status, t.Condition,
			t.Room, t.Shelf, t.Row, t.Section, t.Barcode, t.QRCode, next,
		}
		if err := f.SetSheetRow(toolSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(toolSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}
