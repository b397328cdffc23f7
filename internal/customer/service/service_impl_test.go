package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shoecare/internal/clock"
	"github.com/smallbiznis/shoecare/internal/customer/domain"
	"github.com/smallbiznis/shoecare/internal/customer/repository"
	"github.com/smallbiznis/shoecare/internal/customer/service"
	"github.com/smallbiznis/shoecare/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := service.New(service.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, clk
}

func TestCreateRejectsDuplicateWhatsApp(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Budi", WhatsApp: "628111"})
	require.NoError(t, err)
	assert.Equal(t, "628111", first.WhatsApp)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Budi Lain", WhatsApp: "628111"})
	assert.ErrorIs(t, err, domain.ErrDuplicateWhatsApp)
}

func TestCreateNormalizesLocalNumber(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:     "  Sari ",
		WhatsApp: "0812-3456-7890",
		Address:  "Jl. Merdeka 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sari", created.Name)
	assert.Equal(t, "6281234567890", created.WhatsApp)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Sari", WhatsApp: "+62 812 3456 7890"})
	assert.ErrorIs(t, err, domain.ErrDuplicateWhatsApp)
}

func TestCreateValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: " ", WhatsApp: "628111"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Andi", WhatsApp: "12"})
	assert.ErrorIs(t, err, domain.ErrInvalidWhatsApp)
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Rina", WhatsApp: "628222"})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, domain.GetCustomerRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Rina", got.Name)

	_, err = svc.GetByID(ctx, domain.GetCustomerRequest{ID: "12345"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(ctx, domain.GetCustomerRequest{ID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestListNewestFirstWithSearch(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t)

	for _, c := range []domain.CreateCustomerRequest{
		{Name: "Agus", WhatsApp: "628100"},
		{Name: "Bayu", WhatsApp: "628200"},
		{Name: "Citra", WhatsApp: "628300"},
	} {
		_, err := svc.Create(ctx, c)
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	resp, err := svc.List(ctx, domain.ListCustomerRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 3)
	assert.Equal(t, "Citra", resp.Customers[0].Name)
	assert.Equal(t, "Agus", resp.Customers[2].Name)
	assert.False(t, resp.HasMore)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{Query: "bay"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "Bayu", resp.Customers[0].Name)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 2)
	assert.True(t, resp.HasMore)
	assert.NotEmpty(t, resp.NextPageToken)
}

func TestListSearchesByLocalNumber(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t)

	for _, c := range []domain.CreateCustomerRequest{
		{Name: "Dewi", WhatsApp: "081234500001"},
		{Name: "Eko", WhatsApp: "081299900002"},
		{Name: "Fajar 0812", WhatsApp: "628555"},
	} {
		_, err := svc.Create(ctx, c)
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	resp, err := svc.List(ctx, domain.ListCustomerRequest{Query: "0812-345"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "Dewi", resp.Customers[0].Name)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{Query: "+62812"})
	require.NoError(t, err)
	assert.Len(t, resp.Customers, 2)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{Query: "fajar 0812"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "Fajar 0812", resp.Customers[0].Name)
}
