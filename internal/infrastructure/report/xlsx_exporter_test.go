package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() (*entity.Report, []*entity.Transaction) {
	created := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	completed := created.Add(48 * time.Hour)
	amount := decimal.NewFromInt(25000)
	agent := "agent1"

	rows := []*entity.Transaction{
		{
			ID: "txn1", VendorName: "ABC Maintenance Services", Nature: "Building Maintenance",
			Amount: &amount, Status: workflow.StateCompleted, SocietyID: "society1", CreatedBy: "manager1",
			AssignedToAgent: &agent, CreatedAt: created, CompletedAt: &completed,
		},
		{
			ID: "txn2", VendorName: "DEF Electrical Works", Nature: "Electrical Repairs",
			Status: workflow.StatePendingOnSociety, SocietyID: "society1", CreatedBy: "manager1", CreatedAt: created,
		},
	}

	report := &entity.Report{
		GeneratedAt:           created.Add(72 * time.Hour),
		From:                  &created,
		TotalTransactions:     2,
		CompletedTransactions: 1,
		PendingTransactions:   1,
		TotalAmount:           amount,
		AverageProcessingDays: 2,
		TopVendors: []entity.VendorTotal{
			{VendorName: "ABC Maintenance Services", Count: 1, Amount: amount},
		},
		StatusDistribution: []entity.StatusShare{
			{Status: workflow.StateCompleted, Count: 1, Percentage: 50},
			{Status: workflow.StatePendingOnSociety, Count: 1, Percentage: 50},
		},
		MonthlyTrends: []entity.MonthlyTrend{{Month: "2024-05", Count: 2, Amount: amount}},
	}
	return report, rows
}

func TestXLSXExporter_Export(t *testing.T) {
	exporter := NewXLSXExporter(nil)
	assert.Equal(t, ".xlsx", exporter.FileExtension())
	assert.Contains(t, exporter.ContentType(), "spreadsheetml")

	report, rows := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, exporter.Export(&buf, report, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetTransactions, SheetVendors, SheetMonthly}, f.GetSheetList())

	from, err := f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10 09:30", from)

	to, err := f.GetCellValue(SheetSummary, "B4")
	require.NoError(t, err)
	assert.Equal(t, "-", to)

	total, err := f.GetCellValue(SheetSummary, "B5")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	status, err := f.GetCellValue(SheetSummary, "A12")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCompleted.Label(), status)

	txRows, err := f.GetRows(SheetTransactions)
	require.NoError(t, err)
	require.Len(t, txRows, 3)
	assert.Equal(t, "ID", txRows[0][0])
	assert.Equal(t, "txn1", txRows[1][0])
	assert.Equal(t, "25000", txRows[1][3])
	assert.Equal(t, "agent1", txRows[1][7])
	assert.Equal(t, "", txRows[2][3], "missing amount stays blank")

	vendor, err := f.GetCellValue(SheetVendors, "A2")
	require.NoError(t, err)
	assert.Equal(t, "ABC Maintenance Services", vendor)

	month, err := f.GetCellValue(SheetMonthly, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-05", month)
}

func TestXLSXExporter_EmptyReport(t *testing.T) {
	exporter := NewXLSXExporter(nil)

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(&buf, &entity.Report{GeneratedAt: time.Now()}, nil))
	assert.NotZero(t, buf.Len())

	assert.Error(t, exporter.Export(&buf, nil, nil))
}
