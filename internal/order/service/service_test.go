package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/shoecare/internal/audit/domain"
	auditrepo "github.com/smallbiznis/shoecare/internal/audit/repository"
	auditservice "github.com/smallbiznis/shoecare/internal/audit/service"
	catalogdomain "github.com/smallbiznis/shoecare/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/shoecare/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/shoecare/internal/catalog/service"
	"github.com/smallbiznis/shoecare/internal/clock"
	customerdomain "github.com/smallbiznis/shoecare/internal/customer/domain"
	customerrepo "github.com/smallbiznis/shoecare/internal/customer/repository"
	customerservice "github.com/smallbiznis/shoecare/internal/customer/service"
	"github.com/smallbiznis/shoecare/internal/order/domain"
	orderrepo "github.com/smallbiznis/shoecare/internal/order/repository"
	"github.com/smallbiznis/shoecare/internal/order/service"
	"github.com/smallbiznis/shoecare/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memoryPhotos struct {
	mu      sync.Mutex
	seq     int
	objects map[string][]byte
}

func newMemoryPhotos() *memoryPhotos {
	return &memoryPhotos{objects: map[string][]byte{}}
}

func (m *memoryPhotos) Save(_ context.Context, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := fmt.Sprintf("photos/%d.jpg", m.seq)
	m.objects[key] = data
	return key, nil
}

func (m *memoryPhotos) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryPhotos) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type recordingNotifier struct {
	notices []domain.ReadyNotice
}

func (n *recordingNotifier) OrderReady(_ context.Context, notice domain.ReadyNotice) error {
	n.notices = append(n.notices, notice)
	return nil
}

// failingRepo fails the item update of a settlement after the order row was written.
type failingRepo struct {
	domain.Repository
}

func (failingRepo) CompleteItems(context.Context, *gorm.DB, snowflake.ID, time.Time) error {
	return errors.New("disk full")
}

type fixture struct {
	conn     *gorm.DB
	clock    *clock.FakeClock
	photos   *memoryPhotos
	notifier *recordingNotifier
	customer customerdomain.Customer
	wash     *catalogdomain.CleaningService
	repaint  *catalogdomain.CleaningService
	deps     service.Params
	svc      domain.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&customerdomain.Customer{},
		&catalogdomain.CleaningService{},
		&domain.Order{},
		&domain.OrderItem{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	customers := customerservice.New(customerservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: customerrepo.Provide()})
	catalog := catalogservice.New(catalogservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: catalogrepo.Provide()})
	audit := auditservice.NewService(auditservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: auditrepo.Provide()})

	customer, err := customers.Create(ctx, customerdomain.CreateCustomerRequest{Name: "Dewi Lestari", WhatsApp: "6281234567890"})
	require.NoError(t, err)
	quick := 2
	wash, err := catalog.Create(ctx, catalogdomain.CreateRequest{Name: "Deep Clean", Price: decimal.NewFromInt(50000), DurationDays: &quick})
	require.NoError(t, err)
	repaint, err := catalog.Create(ctx, catalogdomain.CreateRequest{Name: "Repaint", Price: decimal.NewFromInt(120000)})
	require.NoError(t, err)

	f := &fixture{
		conn:     conn,
		clock:    clk,
		photos:   newMemoryPhotos(),
		notifier: &recordingNotifier{},
		customer: customer,
		wash:     wash,
		repaint:  repaint,
	}
	f.deps = service.Params{
		DB:        conn,
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Repo:      orderrepo.Provide(),
		Customers: customers,
		Catalog:   catalog,
		Photos:    f.photos,
		AuditSvc:  audit,
		Notifier:  f.notifier,
	}
	f.svc = service.New(f.deps)
	return f
}

func (f *fixture) createOrder(t *testing.T, services ...*catalogdomain.CleaningService) *domain.OrderDetail {
	t.Helper()
	items := make([]domain.CreateItemRequest, 0, len(services))
	for _, svc := range services {
		items = append(items, domain.CreateItemRequest{
			ServiceID:   svc.ID.String(),
			Brand:       "Nike",
			Color:       "White",
			BeforePhoto: []byte("jpeg"),
		})
	}
	detail, err := f.svc.Create(context.Background(), domain.CreateOrderRequest{
		CustomerID: f.customer.ID.String(),
		Items:      items,
	})
	require.NoError(t, err)
	return detail
}

func (f *fixture) createPaidOrder(t *testing.T, svc *catalogdomain.CleaningService) *domain.OrderDetail {
	t.Helper()
	detail, err := f.svc.Create(context.Background(), domain.CreateOrderRequest{
		CustomerID:    f.customer.ID.String(),
		PaymentMethod: "CASH",
		Items: []domain.CreateItemRequest{{
			ServiceID:   svc.ID.String(),
			Brand:       "Adidas",
			Color:       "Black",
			BeforePhoto: []byte("jpeg"),
		}},
	})
	require.NoError(t, err)
	return detail
}

func (f *fixture) setItem(t *testing.T, detail *domain.OrderDetail, idx int, status domain.Status) *domain.OrderDetail {
	t.Helper()
	out, err := f.svc.UpdateItemStatus(context.Background(), domain.UpdateItemStatusRequest{
		OrderID: detail.ID.String(),
		ItemID:  detail.Items[idx].ID.String(),
		Status:  string(status),
	})
	require.NoError(t, err)
	return out
}

func TestCreateOrder(t *testing.T) {
	f := setup(t)

	detail := f.createOrder(t, f.wash, f.repaint)
	assert.Equal(t, domain.StatusPending, detail.Status)
	assert.Equal(t, domain.PaymentUnpaid, detail.PaymentMethod)
	assert.Equal(t, "Dewi Lestari", detail.CustomerName)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "Deep Clean", detail.Items[0].ServiceName)
	assert.True(t, decimal.NewFromInt(170000).Equal(detail.Total))
	assert.Equal(t, 2, f.photos.count())

	require.NotNil(t, detail.Deadline.DueAt)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 2), *detail.Deadline.DueAt)
	assert.Equal(t, 2, detail.Deadline.DaysRemaining)
	assert.False(t, detail.Deadline.IsOverdue)
}

func TestCreateOrderValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	photo := []byte("jpeg")

	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{Items: []domain.CreateItemRequest{{ServiceID: f.wash.ID.String(), BeforePhoto: photo}}})
	assert.ErrorIs(t, err, domain.ErrCustomerRequired)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{CustomerID: "999", Items: []domain.CreateItemRequest{{ServiceID: f.wash.ID.String(), BeforePhoto: photo}}})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{CustomerID: f.customer.ID.String()})
	assert.ErrorIs(t, err, domain.ErrItemsRequired)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{CustomerID: f.customer.ID.String(), Items: []domain.CreateItemRequest{{ServiceID: f.wash.ID.String()}}})
	assert.ErrorIs(t, err, domain.ErrBeforePhotoRequired)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{CustomerID: f.customer.ID.String(), Items: []domain.CreateItemRequest{{ServiceID: "12345", BeforePhoto: photo}}})
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{CustomerID: f.customer.ID.String(), PaymentMethod: "CARD", Items: []domain.CreateItemRequest{{ServiceID: f.wash.ID.String(), BeforePhoto: photo}}})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

	assert.Zero(t, f.photos.count())
}

func TestUpdateItemStatusDerivesOrderStatus(t *testing.T) {
	f := setup(t)
	detail := f.createOrder(t, f.wash, f.repaint)

	detail = f.setItem(t, detail, 0, domain.StatusProcess)
	detail = f.setItem(t, detail, 1, domain.StatusReady)
	assert.Equal(t, domain.StatusProcess, detail.Status)
	assert.Empty(t, f.notifier.notices)

	detail = f.setItem(t, detail, 0, domain.StatusReady)
	assert.Equal(t, domain.StatusReady, detail.Status)
	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, "6281234567890", f.notifier.notices[0].WhatsApp)
	assert.Equal(t, 2, f.notifier.notices[0].ItemCount)

	var stored domain.Order
	require.NoError(t, f.conn.First(&stored, "id = ?", detail.ID).Error)
	assert.Equal(t, domain.StatusReady, stored.Status)
	assert.Nil(t, stored.CompletedAt)

	_, err := f.svc.UpdateItemStatus(context.Background(), domain.UpdateItemStatusRequest{
		OrderID: detail.ID.String(), ItemID: detail.Items[0].ID.String(), Status: "SHIPPED",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.UpdateItemStatus(context.Background(), domain.UpdateItemStatusRequest{
		OrderID: detail.ID.String(), ItemID: "777", Status: "READY",
	})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestUpdateItemStatusUnpaidOrderNeedsSettlement(t *testing.T) {
	f := setup(t)
	detail := f.createOrder(t, f.wash, f.repaint)

	// one completed item leaves the order below COMPLETED
	detail = f.setItem(t, detail, 0, domain.StatusCompleted)
	assert.Equal(t, domain.StatusPending, detail.Status)
	require.NotNil(t, detail.Items[0].CompletedAt)

	_, err := f.svc.UpdateItemStatus(context.Background(), domain.UpdateItemStatusRequest{
		OrderID: detail.ID.String(), ItemID: detail.Items[1].ID.String(), Status: "COMPLETED",
	})
	assert.ErrorIs(t, err, domain.ErrSettlementRequired)

	var stored domain.Order
	require.NoError(t, f.conn.First(&stored, "id = ?", detail.ID).Error)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Nil(t, stored.CompletedAt)

	var item domain.OrderItem
	require.NoError(t, f.conn.First(&item, "id = ?", detail.Items[1].ID).Error)
	assert.Equal(t, domain.StatusPending, item.Status)
}

func TestUpdateItemStatusAllCompletedSetsCompletedAt(t *testing.T) {
	f := setup(t)
	detail := f.createPaidOrder(t, f.wash)

	detail = f.setItem(t, detail, 0, domain.StatusCompleted)
	assert.Equal(t, domain.StatusCompleted, detail.Status)
	require.NotNil(t, detail.CompletedAt)
	require.NotNil(t, detail.Items[0].CompletedAt)

	_, err := f.svc.UpdateItemStatus(context.Background(), domain.UpdateItemStatusRequest{
		OrderID: detail.ID.String(), ItemID: detail.Items[0].ID.String(), Status: "PROCESS",
	})
	assert.ErrorIs(t, err, domain.ErrOrderCompleted)
}

func TestSettleCompletesEveryItem(t *testing.T) {
	f := setup(t)
	detail := f.createOrder(t, f.wash, f.wash, f.repaint)
	detail = f.setItem(t, detail, 2, domain.StatusReady)

	at := time.Date(2024, 7, 2, 8, 30, 0, 0, time.UTC)
	settled, err := f.svc.Settle(context.Background(), domain.SettleRequest{
		OrderID:       detail.ID.String(),
		PaymentMethod: "CASH",
		Now:           at,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, settled.Status)
	assert.Equal(t, domain.PaymentCash, settled.PaymentMethod)
	require.NotNil(t, settled.CompletedAt)
	assert.True(t, at.Equal(*settled.CompletedAt))
	for _, item := range settled.Items {
		assert.Equal(t, domain.StatusCompleted, item.Status)
		require.NotNil(t, item.CompletedAt)
		assert.True(t, at.Equal(*item.CompletedAt))
	}

	var audits int64
	require.NoError(t, f.conn.Model(&auditdomain.AuditLog{}).Where("action = ?", "order.settle").Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestSettleIsIdempotent(t *testing.T) {
	f := setup(t)
	detail := f.createOrder(t, f.wash, f.repaint)
	req := domain.SettleRequest{
		OrderID:       detail.ID.String(),
		PaymentMethod: "TRANSFER",
		Now:           time.Date(2024, 7, 3, 9, 0, 0, 0, time.UTC),
	}

	first, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.PaymentMethod, second.PaymentMethod)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))
	require.Len(t, second.Items, len(first.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].Status, second.Items[i].Status)
		assert.True(t, first.Items[i].CompletedAt.Equal(*second.Items[i].CompletedAt))
	}
}

func TestSettleRollsBackOnFailure(t *testing.T) {
	f := setup(t)
	detail := f.createOrder(t, f.wash, f.repaint)

	deps := f.deps
	deps.Repo = failingRepo{Repository: orderrepo.Provide()}
	broken := service.New(deps)

	_, err := broken.Settle(context.Background(), domain.SettleRequest{
		OrderID:       detail.ID.String(),
		PaymentMethod: "CASH",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSettlementFailed)

	after, err := f.svc.GetDetail(context.Background(), detail.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, after.Status)
	assert.Equal(t, domain.PaymentUnpaid, after.PaymentMethod)
	assert.Nil(t, after.CompletedAt)

	var stored domain.Order
	require.NoError(t, f.conn.First(&stored, "id = ?", detail.ID).Error)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestSettleErrors(t *testing.T) {
	f := setup(t)
	detail := f.createOrder(t, f.wash)

	_, err := f.svc.Settle(context.Background(), domain.SettleRequest{OrderID: "424242", PaymentMethod: "CASH"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrSettlementFailed)

	_, err = f.svc.Settle(context.Background(), domain.SettleRequest{OrderID: detail.ID.String(), PaymentMethod: "UNPAID"})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)
}

func TestListActiveExcludesCompletedNewestFirst(t *testing.T) {
	f := setup(t)
	older := f.createOrder(t, f.wash)
	f.clock.Advance(time.Hour)
	newer := f.createOrder(t, f.repaint)
	f.clock.Advance(time.Hour)
	done := f.createOrder(t, f.wash)

	_, err := f.svc.Settle(context.Background(), domain.SettleRequest{OrderID: done.ID.String(), PaymentMethod: "CASH"})
	require.NoError(t, err)

	resp, err := f.svc.ListActive(context.Background(), domain.ListActiveRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 2)
	assert.Equal(t, newer.ID, resp.Orders[0].ID)
	assert.Equal(t, older.ID, resp.Orders[1].ID)
	assert.Equal(t, "Dewi Lestari", resp.Orders[0].CustomerName)
	assert.Equal(t, 1, resp.Orders[0].ItemCount)
}

func TestDeleteOrderRemovesItemsAndPhotos(t *testing.T) {
	f := setup(t)
	detail := f.createOrder(t, f.wash, f.repaint)

	_, err := f.svc.AttachAfterPhoto(context.Background(), domain.AttachAfterPhotoRequest{
		OrderID: detail.ID.String(),
		ItemID:  detail.Items[0].ID.String(),
		Photo:   []byte("after"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.photos.count())

	require.NoError(t, f.svc.Delete(context.Background(), detail.ID.String()))
	assert.Zero(t, f.photos.count())

	var items int64
	require.NoError(t, f.conn.Model(&domain.OrderItem{}).Where("order_id = ?", detail.ID).Count(&items).Error)
	assert.Zero(t, items)

	_, err = f.svc.GetDetail(context.Background(), detail.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAttachAfterPhoto(t *testing.T) {
	f := setup(t)
	detail := f.createOrder(t, f.wash)

	out, err := f.svc.AttachAfterPhoto(context.Background(), domain.AttachAfterPhotoRequest{
		OrderID: detail.ID.String(),
		ItemID:  detail.Items[0].ID.String(),
		Photo:   []byte("after"),
	})
	require.NoError(t, err)
	require.NotNil(t, out.Items[0].AfterPhoto)

	_, err = f.svc.AttachAfterPhoto(context.Background(), domain.AttachAfterPhotoRequest{
		OrderID: detail.ID.String(),
		ItemID:  detail.Items[0].ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrAfterPhotoRequired)
}

func TestTrackHidesContactData(t *testing.T) {
	f := setup(t)
	detail := f.createOrder(t, f.wash)
	f.clock.Advance(72 * time.Hour)

	view, err := f.svc.Track(context.Background(), detail.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Dewi", view.CustomerName)
	assert.Equal(t, domain.StatusPending, view.Status)
	assert.True(t, view.Deadline.IsOverdue)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Deep Clean", view.Items[0].ServiceName)

	_, err = f.svc.Track(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestCatalogDeleteProtectedByItems(t *testing.T) {
	f := setup(t)
	f.createOrder(t, f.wash)

	err := f.deps.Catalog.Delete(context.Background(), f.wash.ID.String())
	assert.ErrorIs(t, err, catalogdomain.ErrServiceInUse)

	require.NoError(t, f.deps.Catalog.Delete(context.Background(), f.repaint.ID.String()))
	_, err = f.deps.Catalog.Get(context.Background(), f.repaint.ID.String())
	assert.ErrorIs(t, err, catalogdomain.ErrNotFound)
}
