package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/shoecare/internal/analytics/domain"
	"github.com/smallbiznis/shoecare/internal/clock"
	"github.com/smallbiznis/shoecare/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	paymentCash     = "CASH"
	paymentTransfer = "TRANSFER"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Cfg    config.Config
	Tuning *config.AnalyticsConfigHolder
	Repo   domain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	loc    *time.Location
	tuning *config.AnalyticsConfigHolder
	repo   domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("analytics.service"),
		clock:  p.Clock,
		loc:    p.Cfg.Location(),
		tuning: p.Tuning,
		repo:   p.Repo,
	}
}

func (s *Service) Report(ctx context.Context, req domain.ReportRequest) (*domain.Report, error) {
	tuning := s.tuning.Get()
	now := s.clock.Now()

	rng, err := domain.ResolveRange(req, now, s.loc, domain.ChartWindow{
		WeekDays:      tuning.WeekChartDays,
		MonthDays:     tuning.MonthChartDays,
		MaxCustomDays: tuning.MaxCustomDays,
	})
	if err != nil {
		return nil, err
	}
	bounds := domain.Bounds{Start: rng.Start, End: rng.End}

	report := &domain.Report{
		Filter:      rng.Filter,
		GeneratedAt: now.UTC(),
	}
	if rng.Start != nil && rng.End != nil {
		report.StartDate = rng.Start.Format(domain.DateLayout)
		report.EndDate = rng.End.AddDate(0, 0, -1).Format(domain.DateLayout)
	}

	if err := s.fillRevenue(ctx, report, bounds, tuning.TopServicesLimit); err != nil {
		return nil, err
	}
	if err := s.fillExpenses(ctx, report, bounds); err != nil {
		return nil, err
	}
	report.NetProfit = report.GrossRevenue - report.TotalExpense

	series, err := s.dailySeries(ctx, rng)
	if err != nil {
		return nil, err
	}
	report.DailySeries = series

	s.log.Debug("report generated",
		zap.String("filter", string(rng.Filter)),
		zap.Int64("gross_revenue", report.GrossRevenue),
		zap.Int("series_days", len(series)),
	)
	return report, nil
}

func (s *Service) fillRevenue(ctx context.Context, report *domain.Report, bounds domain.Bounds, topLimit int) error {
	byMethod, err := s.repo.RevenueByMethod(ctx, s.db, bounds)
	if err != nil {
		return err
	}

	gross := decimal.Zero
	for _, row := range byMethod {
		gross = gross.Add(row.Revenue)
		report.CompletedItems += row.Items
		switch row.PaymentMethod {
		case paymentCash:
			report.CashBreakdown += row.Revenue.IntPart()
		case paymentTransfer:
			report.TransferBreakdown += row.Revenue.IntPart()
		}
	}
	report.GrossRevenue = gross.IntPart()

	byService, err := s.repo.RevenueByService(ctx, s.db, bounds, topLimit)
	if err != nil {
		return err
	}
	report.TopServices = make([]domain.ServiceTotal, 0, len(byService))
	for _, row := range byService {
		report.TopServices = append(report.TopServices, domain.ServiceTotal{
			ServiceID: strconv.FormatInt(row.ServiceID, 10),
			Name:      row.Name,
			Count:     row.Count,
			Revenue:   row.Revenue.IntPart(),
		})
	}
	return nil
}

func (s *Service) fillExpenses(ctx context.Context, report *domain.Report, bounds domain.Bounds) error {
	byCategory, err := s.repo.ExpenseByCategory(ctx, s.db, bounds)
	if err != nil {
		return err
	}

	total := decimal.Zero
	report.ExpenseByCategory = make([]domain.CategoryTotal, 0, len(byCategory))
	for _, row := range byCategory {
		total = total.Add(row.Amount)
		report.ExpenseByCategory = append(report.ExpenseByCategory, domain.CategoryTotal{
			Category: row.Category,
			Amount:   row.Amount.IntPart(),
		})
	}
	report.TotalExpense = total.IntPart()
	sort.SliceStable(report.ExpenseByCategory, func(i, j int) bool {
		a, b := report.ExpenseByCategory[i], report.ExpenseByCategory[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Category < b.Category
	})

	bySub, err := s.repo.ExpenseBySubCategory(ctx, s.db, bounds)
	if err != nil {
		return err
	}
	report.ExpenseBySubCategory = make([]domain.SubCategoryTotal, 0, len(bySub))
	for _, row := range bySub {
		if row.SubCategory == "" || row.Count == 0 {
			continue
		}
		report.ExpenseBySubCategory = append(report.ExpenseBySubCategory, domain.SubCategoryTotal{
			SubCategory: row.SubCategory,
			Amount:      row.Amount.IntPart(),
			Count:       row.Count,
			Average:     row.Amount.Div(decimal.NewFromInt(row.Count)).IntPart(),
		})
	}
	sort.SliceStable(report.ExpenseBySubCategory, func(i, j int) bool {
		a, b := report.ExpenseBySubCategory[i], report.ExpenseBySubCategory[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.SubCategory < b.SubCategory
	})
	return nil
}

// dailySeries buckets revenue by local calendar day over the chart window
// and emits a point for every day, zero when nothing was settled.
func (s *Service) dailySeries(ctx context.Context, rng domain.Range) ([]domain.DailyPoint, error) {
	start, end := rng.ChartStart, rng.ChartEnd
	entries, err := s.repo.RevenueEntries(ctx, s.db, domain.Bounds{Start: &start, End: &end})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		revenue decimal.Decimal
		items   int64
	}
	buckets := make(map[string]bucket, rng.Days())
	for _, entry := range entries {
		key := entry.CompletedAt.In(rng.Location).Format(domain.DateLayout)
		b := buckets[key]
		b.revenue = b.revenue.Add(entry.Price)
		b.items++
		buckets[key] = b
	}

	series := make([]domain.DailyPoint, 0, rng.Days())
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(domain.DateLayout)
		series = append(series, domain.DailyPoint{
			Date:    key,
			Revenue: buckets[key].revenue.IntPart(),
			Items:   buckets[key].items,
		})
	}
	return series, nil
}
