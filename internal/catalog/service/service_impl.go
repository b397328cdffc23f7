package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/shoecare/internal/catalog/domain"
	"github.com/smallbiznis/shoecare/internal/clock"
	"github.com/smallbiznis/shoecare/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	clock clock.Clock
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		clock: p.Clock,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.CleaningService, error) {
	return s.repo.FindAll(ctx, s.db, strings.ToLower(strings.TrimSpace(req.Name)))
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.CleaningService, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	price, err := normalizePrice(req.Price)
	if err != nil {
		return nil, err
	}

	duration := domain.DefaultDurationDays
	if req.DurationDays != nil {
		duration = *req.DurationDays
	}
	if duration <= 0 {
		return nil, domain.ErrInvalidDuration
	}

	now := s.clock.Now().UTC()
	item := &domain.CleaningService{
		ID:           s.genID.Generate(),
		Name:         name,
		Price:        price,
		DurationDays: duration,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.CleaningService, error) {
	serviceID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, serviceID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// GetMany resolves ids to services. Unknown ids are absent from the result.
func (s *Service) GetMany(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.CleaningService, error) {
	items, err := s.repo.FindByIDs(ctx, s.db, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]domain.CleaningService, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.CleaningService, error) {
	item, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Price != nil {
		price, err := normalizePrice(*req.Price)
		if err != nil {
			return nil, err
		}
		item.Price = price
	}
	if req.DurationDays != nil {
		if *req.DurationDays <= 0 {
			return nil, domain.ErrInvalidDuration
		}
		item.DurationDays = *req.DurationDays
	}

	item.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a service that no order item references.
func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.repo.CountItemReferences(ctx, s.db, item.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrServiceInUse
	}

	if err := s.repo.Delete(ctx, s.db, item.ID); err != nil {
		if db.IsForeignKeyErr(err) {
			return domain.ErrServiceInUse
		}
		return err
	}

	s.log.Info("service deleted", zap.String("service_id", item.ID.String()))
	return nil
}

// normalizePrice keeps whole currency units.
func normalizePrice(price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, domain.ErrInvalidPrice
	}
	return price.Truncate(0), nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func uniqueIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
