package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"govportal/internal/printqueue/models"
	dErrors "govportal/pkg/domain-errors"
)

const exportSheet = "Print Queue"

var exportColumns = []struct {
	header string
	width  float64
	value  func(v models.View) any
}{
	{"Queue ID", 38, func(v models.View) any { return v.ID.String() }},
	{"Holder", 28, func(v models.View) any { return v.HolderName }},
	{"Holder ID", 20, func(v models.View) any { return v.HolderID.String() }},
	{"Service", 22, func(v models.View) any { return v.ServiceLabel }},
	{"Approved At", 20, func(v models.View) any { return v.ApprovedAt.UTC().Format(time.DateTime) }},
	{"Time In Queue", 16, func(v models.View) any { return v.TimeInQueue }},
	{"Priority", 10, func(v models.View) any { return string(v.Priority) }},
	{"Status", 14, func(v models.View) any { return string(v.Status) }},
	{"Office", 30, func(v models.View) any { return v.OfficeLocation }},
	{"Printed At", 20, func(v models.View) any {
		if v.PrintedAt == nil {
			return ""
		}
		return v.PrintedAt.UTC().Format(time.DateTime)
	}},
	{"Printed By", 16, func(v models.View) any { return v.PrintedBy.String() }},
}

// ExportXLSX writes the listing for status as a one-sheet workbook, in the
// same order List returns.
func (s *Service) ExportXLSX(ctx context.Context, status models.Status, w io.Writer) error {
	views, err := s.List(ctx, status)
	if err != nil {
		return err
	}
	if err := writeWorkbook(views, w); err != nil {
		s.logger.ErrorContext(ctx, "failed to export print queue", "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to export print queue")
	}
	return nil
}

func writeWorkbook(views []models.View, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, col.header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, name, name, col.width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for r, v := range views {
		for c, col := range exportColumns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheet, cell, col.value(v)); err != nil {
				return fmt.Errorf("write row %d: %w", r+2, err)
			}
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
