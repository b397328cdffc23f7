package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shoecare/internal/clock"
	"github.com/smallbiznis/shoecare/internal/customer/domain"
	obslogger "github.com/smallbiznis/shoecare/internal/observability/logger"
	"github.com/smallbiznis/shoecare/pkg/db"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
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
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Create registers a walk-in customer. The WhatsApp number is the identity:
// a second registration for the same number fails.
func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	customer, err := s.newCustomer(req)
	if err != nil {
		return domain.Customer{}, err
	}

	existing, err := s.repo.FindByWhatsApp(ctx, s.db, customer.WhatsApp)
	switch {
	case err != nil:
		return domain.Customer{}, err
	case existing != nil:
		return domain.Customer{}, domain.ErrDuplicateWhatsApp
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		// the unique index settles a race between two cashiers
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, domain.ErrDuplicateWhatsApp
		}
		return domain.Customer{}, err
	}

	obslogger.WithContext(ctx, s.log).Info("customer registered", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

func (s *Service) newCustomer(req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	whatsapp, err := domain.NormalizeWhatsApp(req.WhatsApp)
	if err != nil {
		return domain.Customer{}, err
	}
	return domain.Customer{
		ID:       s.genID.Generate(),
		Name:     name,
		WhatsApp: whatsapp,
		Address:  strings.TrimSpace(req.Address),
		JoinedAt: s.clock.Now().UTC(),
	}, nil
}

// List returns newest customers first. A query that looks like a phone
// number matches WhatsApp prefixes in either local or international form.
func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	size := pagination.NormalizeSize(req.PageSize)
	rows, err := s.repo.List(ctx, s.db, searchFilter(req.Query), pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  size,
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	rows, pageInfo := pagination.BuildCursorPageInfo(rows, size, joinedCursor)
	resp := domain.ListCustomerResponse{
		PageInfo:  pageInfo,
		Customers: make([]domain.Customer, 0, len(rows)),
	}
	for _, row := range rows {
		if row != nil {
			resp.Customers = append(resp.Customers, *row)
		}
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Customer{}, domain.ErrInvalidID
	}

	customer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *customer, nil
}

func searchFilter(query string) domain.ListCustomerFilter {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.ListCustomerFilter{}
	}

	digits := make([]rune, 0, len(query))
	for _, r := range query {
		switch {
		case unicode.IsDigit(r):
			digits = append(digits, r)
		case r == '+' || r == '-' || r == ' ':
		default:
			return domain.ListCustomerFilter{Query: query}
		}
	}
	if len(digits) < 3 {
		return domain.ListCustomerFilter{Query: query}
	}
	prefix := string(digits)
	if strings.HasPrefix(prefix, "0") {
		prefix = "62" + strings.TrimLeft(prefix, "0")
	}
	return domain.ListCustomerFilter{WhatsAppPrefix: prefix}
}

func joinedCursor(customer *domain.Customer) string {
	token, err := pagination.EncodeCursor(pagination.Cursor{
		ID:        customer.ID.String(),
		CreatedAt: customer.JoinedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return ""
	}
	return token
}
