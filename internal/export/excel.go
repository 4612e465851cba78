package export

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"shareit/internal/models"
)

const (
	SheetName       = "Bookings"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []string{"ID", "Item", "Booker", "Start", "End", "Status"}

// ExcelExporter renders bookings as an XLSX workbook with one row per booking.
type ExcelExporter struct {
	logger *zerolog.Logger
}

func NewExcelExporter(logger *zerolog.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

func (e *ExcelExporter) ContentType() string {
	return xlsxContentType
}

func (e *ExcelExporter) ExportBookings(bookings []models.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	if err := e.writeHeader(f); err != nil {
		return nil, err
	}

	for i := range bookings {
		b := &bookings[i]
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			b.ID,
			b.ItemName,
			b.BookerName,
			b.Start.UTC().Format(models.DateTimeLayout),
			b.End.UTC().Format(models.DateTimeLayout),
			string(b.Status),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("error writing booking %d: %w", b.ID, err)
		}
		if style, err := statusStyle(f, b.Status); err == nil {
			statusCell, _ := excelize.CoordinatesToCellName(len(headers), i+2)
			_ = f.SetCellStyle(SheetName, statusCell, statusCell, style)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 8)
	_ = f.SetColWidth(SheetName, "B", "C", 25)
	_ = f.SetColWidth(SheetName, "D", "F", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}

	if e.logger != nil {
		e.logger.Debug().Int("rows", len(bookings)).Msg("Booking export rendered")
	}
	return buf.Bytes(), nil
}

func (e *ExcelExporter) writeHeader(f *excelize.File) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &row); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}
	lastCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(SheetName, "A1", lastCell, style)
}

func statusStyle(f *excelize.File, status models.BookingStatus) (int, error) {
	var color string
	switch status {
	case models.StatusApproved:
		color = "#C6EFCE"
	case models.StatusRejected:
		color = "#FFC7CE"
	default:
		color = "#FFEB9C"
	}
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
}
