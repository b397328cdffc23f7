package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/shoecare/internal/audit/domain"
	"github.com/smallbiznis/shoecare/internal/clock"
	"github.com/smallbiznis/shoecare/internal/expense/domain"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("expense.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateExpenseRequest) (*domain.Expense, error) {
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	now := s.clock.Now().UTC()
	spentAt := now
	if req.SpentAt != nil && !req.SpentAt.IsZero() {
		spentAt = req.SpentAt.UTC()
	}

	expense := &domain.Expense{
		ID:          s.genID.Generate(),
		Category:    category,
		SubCategory: strings.TrimSpace(req.SubCategory),
		Amount:      req.Amount.Truncate(0),
		SpentAt:     spentAt,
		Note:        strings.TrimSpace(req.Note),
		CreatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, expense); err != nil {
		return nil, err
	}

	s.audit(ctx, "expense.create", expense.ID, map[string]any{
		"category": string(category),
		"amount":   expense.Amount.String(),
	})
	return expense, nil
}

func (s *Service) List(ctx context.Context, req domain.ListExpenseRequest) (domain.ListExpenseResponse, error) {
	filter := domain.ListFilter{From: req.From, To: req.To}
	if strings.TrimSpace(req.Category) != "" {
		category, err := domain.ParseCategory(req.Category)
		if err != nil {
			return domain.ListExpenseResponse{}, err
		}
		filter.Category = category
	}
	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		return domain.ListExpenseResponse{}, domain.ErrInvalidTimeRange
	}

	pageSize := pagination.NormalizeSize(req.PageSize)
	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListExpenseResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.Expense) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.SpentAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	expenses := make([]domain.Expense, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		expenses = append(expenses, *item)
	}
	return domain.ListExpenseResponse{PageInfo: pageInfo, Expenses: expenses}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	expenseID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || expenseID == 0 {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, expenseID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, s.db, expenseID); err != nil {
		return err
	}

	s.audit(ctx, "expense.delete", expenseID, map[string]any{
		"category": string(item.Category),
		"amount":   item.Amount.String(),
	})
	return nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.AuditLog(ctx, action, "expense", &targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
