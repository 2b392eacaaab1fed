package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"poassistant/internal/types"
)

const storiesSheet = "Stories"

// StoriesXLSX renders the same rows as StoriesCSV into a workbook with a bold header.
func StoriesXLSX(epics []types.Epic) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", storiesSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(storiesSheet, "A1", &storiesHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(storiesHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(storiesSheet, "A1", last, bold); err != nil {
		return nil, err
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return nil, err
	}

	for i, row := range storyRows(epics) {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(storiesSheet, cell, &row); err != nil {
			return nil, err
		}
		end, _ := excelize.CoordinatesToCellName(len(row), i+2)
		if err := f.SetCellStyle(storiesSheet, cell, end, wrap); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(storiesSheet, "A", "H", 32); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
