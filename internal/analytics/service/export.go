package service

import (
	"context"
	"fmt"
	"io"

	"github.com/smallbiznis/shoecare/internal/analytics/domain"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary    = "Summary"
	sheetDaily      = "Daily"
	sheetExpenses   = "Expenses"
	sheetServices   = "Services"
	defaultSheet    = "Sheet1"
	headerFillColor = "#D9E1F2"
)

// Export writes the report as an XLSX workbook with one sheet per section.
func (s *Service) Export(ctx context.Context, req domain.ReportRequest, w io.Writer) error {
	report, err := s.Report(ctx, req)
	if err != nil {
		return err
	}

	f, err := buildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

func buildWorkbook(report *domain.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetDaily, sheetExpenses, sheetServices} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Metric", "Value"},
		{"Filter", string(report.Filter)},
		{"Start date", report.StartDate},
		{"End date", report.EndDate},
		{"Gross revenue", report.GrossRevenue},
		{"Total expense", report.TotalExpense},
		{"Net profit", report.NetProfit},
		{"Cash", report.CashBreakdown},
		{"Transfer", report.TransferBreakdown},
		{"Completed items", report.CompletedItems},
	}
	if err := writeRows(f, sheetSummary, summary, header); err != nil {
		return nil, err
	}

	daily := [][]any{{"Date", "Revenue", "Items"}}
	for _, point := range report.DailySeries {
		daily = append(daily, []any{point.Date, point.Revenue, point.Items})
	}
	if err := writeRows(f, sheetDaily, daily, header); err != nil {
		return nil, err
	}

	expenses := [][]any{{"Category", "Amount"}}
	for _, row := range report.ExpenseByCategory {
		expenses = append(expenses, []any{row.Category, row.Amount})
	}
	expenses = append(expenses, []any{}, []any{"Sub-category", "Amount", "Count", "Average"})
	subHeaderRow := len(expenses)
	for _, row := range report.ExpenseBySubCategory {
		expenses = append(expenses, []any{row.SubCategory, row.Amount, row.Count, row.Average})
	}
	if err := writeRows(f, sheetExpenses, expenses, header); err != nil {
		return nil, err
	}
	if err := styleRow(f, sheetExpenses, subHeaderRow, 4, header); err != nil {
		return nil, err
	}

	services := [][]any{{"Service", "Items", "Revenue"}}
	for _, row := range report.TopServices {
		services = append(services, []any{row.Name, row.Count, row.Revenue})
	}
	if err := writeRows(f, sheetServices, services, header); err != nil {
		return nil, err
	}

	for _, sheet := range []string{sheetSummary, sheetDaily, sheetExpenses, sheetServices} {
		if err := f.SetColWidth(sheet, "A", "A", 22); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, "B", "D", 14); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// writeRows fills rows from A1 and styles the first row as a header.
func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return styleRow(f, sheet, 1, len(rows[0]), headerStyle)
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
