package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

type ReportRequest struct {
	Filter     string `form:"filter"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	ChartScale string `form:"chart_scale"`
}

type CategoryTotal struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

type SubCategoryTotal struct {
	SubCategory string `json:"sub_category"`
	Amount      int64  `json:"amount"`
	Count       int64  `json:"count"`
	Average     int64  `json:"average"`
}

type ServiceTotal struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Count     int64  `json:"count"`
	Revenue   int64  `json:"revenue"`
}

// DailyPoint is one calendar day of completed work.
type DailyPoint struct {
	Date    string `json:"date"`
	Revenue int64  `json:"revenue"`
	Items   int64  `json:"items"`
}

// Report is a cash-basis summary. Money is in whole currency units.
type Report struct {
	Filter               Filter             `json:"filter"`
	StartDate            string             `json:"start_date,omitempty"`
	EndDate              string             `json:"end_date,omitempty"`
	GrossRevenue         int64              `json:"gross_revenue"`
	TotalExpense         int64              `json:"total_expense"`
	NetProfit            int64              `json:"net_profit"`
	CashBreakdown        int64              `json:"cash_breakdown"`
	TransferBreakdown    int64              `json:"transfer_breakdown"`
	CompletedItems       int64              `json:"completed_items"`
	ExpenseByCategory    []CategoryTotal    `json:"expense_by_category"`
	ExpenseBySubCategory []SubCategoryTotal `json:"expense_by_subcategory"`
	TopServices          []ServiceTotal     `json:"top_services"`
	DailySeries          []DailyPoint       `json:"daily_series"`
	GeneratedAt          time.Time          `json:"generated_at"`
}

type Service interface {
	Report(ctx context.Context, req ReportRequest) (*Report, error)
	Export(ctx context.Context, req ReportRequest, w io.Writer) error
}

var ErrInvalidDateRange = errors.New("invalid_date_range")
