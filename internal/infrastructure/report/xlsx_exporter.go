// Package report renders reports into downloadable spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names in the exported workbook
const (
	SheetSummary      = "Summary"
	SheetTransactions = "Transactions"
	SheetVendors      = "Top Vendors"
	SheetMonthly      = "Monthly Trends"
)

const dateLayout = "2006-01-02 15:04"

var transactionHeader = []interface{}{
	"ID", "Vendor", "Nature", "Amount", "Status", "Society", "Created By", "Assigned Agent", "Created At", "Completed At",
}

// XLSXExporter implements port.ReportExporter with excelize
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates the exporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &XLSXExporter{logger: logger}
}

// ContentType returns the MIME type of the workbook
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension returns the file suffix including the dot
func (e *XLSXExporter) FileExtension() string {
	return ".xlsx"
}

// Export writes the summary and one row per transaction to w
func (e *XLSXExporter) Export(w io.Writer, report *entity.Report, rows []*entity.Transaction) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	sheet := sheetWriter{file: f, header: bold}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetTransactions, SheetVendors, SheetMonthly} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	sheet.writeSummary(report)
	sheet.writeTransactions(rows)
	sheet.writeVendors(report.TopVendors)
	sheet.writeMonthly(report.MonthlyTrends)
	if sheet.err != nil {
		return fmt.Errorf("failed to fill workbook: %w", sheet.err)
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("Report exported",
		zap.Int("transactions", len(rows)),
		zap.Int("vendors", len(report.TopVendors)))
	return nil
}

// sheetWriter keeps the first error so the fill code reads top to bottom
type sheetWriter struct {
	file   *excelize.File
	header int
	err    error
}

func (s *sheetWriter) row(sheet string, n int, values []interface{}) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.file.SetSheetRow(sheet, cell, &values)
}

func (s *sheetWriter) headerRow(sheet string, n int, values []interface{}) {
	s.row(sheet, n, values)
	if s.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, n)
	last, _ := excelize.CoordinatesToCellName(len(values), n)
	s.err = s.file.SetCellStyle(sheet, first, last, s.header)
}

func (s *sheetWriter) writeSummary(r *entity.Report) {
	s.headerRow(SheetSummary, 1, []interface{}{"Metric", "Value"})
	s.row(SheetSummary, 2, []interface{}{"Generated At", r.GeneratedAt.Format(dateLayout)})
	s.row(SheetSummary, 3, []interface{}{"From", optionalTime(r.From)})
	s.row(SheetSummary, 4, []interface{}{"To", optionalTime(r.To)})
	s.row(SheetSummary, 5, []interface{}{"Total Transactions", r.TotalTransactions})
	s.row(SheetSummary, 6, []interface{}{"Completed Transactions", r.CompletedTransactions})
	s.row(SheetSummary, 7, []interface{}{"Pending Transactions", r.PendingTransactions})
	s.row(SheetSummary, 8, []interface{}{"Total Amount", r.TotalAmount.InexactFloat64()})
	s.row(SheetSummary, 9, []interface{}{"Average Processing Days", r.AverageProcessingDays})

	s.headerRow(SheetSummary, 11, []interface{}{"Status", "Count", "Percentage"})
	for i, share := range r.StatusDistribution {
		s.row(SheetSummary, 12+i, []interface{}{share.Status.Label(), share.Count, share.Percentage})
	}
	if s.err == nil {
		s.err = s.file.SetColWidth(SheetSummary, "A", "A", 26)
	}
}

func (s *sheetWriter) writeTransactions(rows []*entity.Transaction) {
	s.headerRow(SheetTransactions, 1, transactionHeader)
	for i, txn := range rows {
		var amount interface{}
		if txn.Amount != nil {
			amount = txn.Amount.InexactFloat64()
		}
		agent := ""
		if txn.AssignedToAgent != nil {
			agent = *txn.AssignedToAgent
		}
		s.row(SheetTransactions, i+2, []interface{}{
			txn.ID, txn.VendorName, txn.Nature, amount, txn.Status.Label(), txn.SocietyID,
			txn.CreatedBy, agent, txn.CreatedAt.Format(dateLayout), optionalTime(txn.CompletedAt),
		})
	}
	if s.err == nil {
		s.err = s.file.SetColWidth(SheetTransactions, "A", "J", 20)
	}
}

func (s *sheetWriter) writeVendors(vendors []entity.VendorTotal) {
	s.headerRow(SheetVendors, 1, []interface{}{"Vendor", "Transactions", "Amount"})
	for i, v := range vendors {
		s.row(SheetVendors, i+2, []interface{}{v.VendorName, v.Count, v.Amount.InexactFloat64()})
	}
}

func (s *sheetWriter) writeMonthly(months []entity.MonthlyTrend) {
	s.headerRow(SheetMonthly, 1, []interface{}{"Month", "Transactions", "Amount"})
	for i, m := range months {
		s.row(SheetMonthly, i+2, []interface{}{m.Month, m.Count, m.Amount.InexactFloat64()})
	}
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

// Verify interface compliance
var _ port.ReportExporter = (*XLSXExporter)(nil)
