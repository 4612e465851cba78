package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shareit/internal/models"
)

func TestExcelExporter(t *testing.T) {
	logger := zerolog.Nop()
	exp := NewExcelExporter(&logger)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	data, err := exp.ExportBookings([]models.Booking{
		{ID: 7, ItemName: "Drill", BookerName: "Bob", Start: start, End: start.Add(2 * time.Hour), Status: models.StatusApproved},
		{ID: 8, ItemName: "Saw", BookerName: "Eve", Start: start, End: start.Add(time.Hour), Status: models.StatusWaiting},
	})
	require.NoError(t, err)
	assert.Contains(t, exp.ContentType(), "spreadsheetml")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"7", "Drill", "Bob", "2026-05-01T10:00:00", "2026-05-01T12:00:00", "APPROVED"}, rows[1])
	assert.Equal(t, "WAITING", rows[2][5])
}

func TestExcelExporterEmpty(t *testing.T) {
	exp := NewExcelExporter(nil)
	data, err := exp.ExportBookings(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
