package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	analyticsrepo "github.com/smallbiznis/shoecare/internal/analytics/repository"
	analyticsservice "github.com/smallbiznis/shoecare/internal/analytics/service"
	auditrepo "github.com/smallbiznis/shoecare/internal/audit/repository"
	auditservice "github.com/smallbiznis/shoecare/internal/audit/service"
	"github.com/smallbiznis/shoecare/internal/authorization"
	catalogrepo "github.com/smallbiznis/shoecare/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/shoecare/internal/catalog/service"
	"github.com/smallbiznis/shoecare/internal/clock"
	"github.com/smallbiznis/shoecare/internal/config"
	customerrepo "github.com/smallbiznis/shoecare/internal/customer/repository"
	customerservice "github.com/smallbiznis/shoecare/internal/customer/service"
	expenserepo "github.com/smallbiznis/shoecare/internal/expense/repository"
	expenseservice "github.com/smallbiznis/shoecare/internal/expense/service"
	"github.com/smallbiznis/shoecare/internal/migration"
	"github.com/smallbiznis/shoecare/internal/observability"
	obsmetrics "github.com/smallbiznis/shoecare/internal/observability/metrics"
	orderrepo "github.com/smallbiznis/shoecare/internal/order/repository"
	orderservice "github.com/smallbiznis/shoecare/internal/order/service"
	"github.com/smallbiznis/shoecare/internal/photo"
	"github.com/smallbiznis/shoecare/internal/ratelimit"
	"github.com/smallbiznis/shoecare/internal/receipt"
	"github.com/smallbiznis/shoecare/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const customerPhone = "6281234567890"

type fakeLimiter struct {
	allowed bool
	calls   int
}

func (f *fakeLimiter) Allow(ctx context.Context, client string) (*ratelimit.Result, error) {
	f.calls++
	return &ratelimit.Result{
		Allowed:    f.allowed,
		Limit:      10,
		Remaining:  0,
		RetryAfter: 1500 * time.Millisecond,
	}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	cfg := config.Config{
		Environment: "test",
		Timezone:    "Asia/Jakarta",
		ShopName:    "Shoe Care",
		Photo: config.PhotoConfig{
			Backend: config.PhotoBackendLocal,
			Dir:     t.TempDir(),
			BaseURL: "/photos",
			MaxEdge: 1000,
			Quality: 80,
		},
	}

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 7, 10, 5, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	backend, err := photo.NewLocalBackend(cfg.Photo.Dir)
	require.NoError(t, err)
	photos := photo.New(cfg, backend, log)

	audit := auditservice.NewService(auditservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: auditrepo.Provide()})
	customers := customerservice.New(customerservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: customerrepo.Provide()})
	catalog := catalogservice.New(catalogservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: catalogrepo.Provide()})
	orders := orderservice.New(orderservice.Params{
		DB:        conn,
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Repo:      orderrepo.Provide(),
		Customers: customers,
		Catalog:   catalog,
		Photos:    photos,
		AuditSvc:  audit,
	})
	expenses := expenseservice.New(expenseservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: expenserepo.Provide(), AuditSvc: audit})
	analytics := analyticsservice.New(analyticsservice.Params{
		DB:     conn,
		Log:    log,
		Clock:  clk,
		Cfg:    cfg,
		Tuning: config.NewStaticAnalyticsConfigHolder(config.DefaultAnalyticsConfig()),
		Repo:   analyticsrepo.Provide(),
	})

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	authz := authorization.NewService(authorization.Params{DB: conn, Log: log, Enforcer: enforcer, AuditSvc: audit})

	httpMetrics, err := obsmetrics.NewHTTPMetricsWith(prometheus.NewRegistry())
	require.NoError(t, err)
	engine := NewEngine(cfg, observability.Config{Environment: "test"}, httpMetrics)

	return NewServer(ServerParams{
		Gin:          engine,
		Cfg:          cfg,
		Log:          log,
		AuthzSvc:     authz,
		AuditSvc:     audit,
		CustomerSvc:  customers,
		CatalogSvc:   catalog,
		OrderSvc:     orders,
		ExpenseSvc:   expenses,
		AnalyticsSvc: analytics,
		Receipts:     receipt.New(cfg, log),
		Photos:       photos,
		ObsMetrics:   obsmetrics.NewNoop(),
	})
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path, role string, body any) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(actorRoleHeader, role)
	}
	return req
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(3, 3, color.RGBA{R: 10, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type idView struct {
	ID string `json:"id"`
}

func createCustomer(t *testing.T, s *Server) string {
	t.Helper()
	w := serve(s, jsonRequest(t, http.MethodPost, "/api/customers", authorization.RoleTeknisi, map[string]any{
		"name":     "Dewi Lestari",
		"whatsapp": "0812-3456-7890",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out idView
	decodeData(t, w, &out)
	return out.ID
}

func createService(t *testing.T, s *Server) string {
	t.Helper()
	w := serve(s, jsonRequest(t, http.MethodPost, "/api/services", authorization.RoleAdmin, map[string]any{
		"name":          "Deep Clean",
		"price":         50000,
		"duration_days": 2,
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out idView
	decodeData(t, w, &out)
	return out.ID
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Items  []struct {
		ID             string `json:"id"`
		Status         string `json:"status"`
		BeforePhotoURL string `json:"before_photo_url"`
	} `json:"items"`
}

func createOrder(t *testing.T, s *Server, customerID, serviceID string) orderResponse {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("customer_id", customerID))
	require.NoError(t, mw.WriteField("items", fmt.Sprintf(`[{"service_id":%q,"brand":"Nike","color":"White"}]`, serviceID)))
	part, err := mw.CreateFormFile("photo_0", "before.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(actorRoleHeader, authorization.RoleTeknisi)

	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out orderResponse
	decodeData(t, w, &out)
	return out
}

func TestAPIRequiresActorRole(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, jsonRequest(t, http.MethodGet, "/api/customers", "", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(s, jsonRequest(t, http.MethodGet, "/api/customers", "owner", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleMatrixEnforced(t *testing.T) {
	s := newTestServer(t)
	serviceID := createService(t, s)

	w := serve(s, jsonRequest(t, http.MethodDelete, "/api/services/"+serviceID, authorization.RoleTeknisi, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeError(t, w).Type)

	w = serve(s, jsonRequest(t, http.MethodGet, "/api/analytics", authorization.RoleTeknisi, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(s, jsonRequest(t, http.MethodGet, "/api/services", authorization.RoleCustomer, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(s, jsonRequest(t, http.MethodGet, "/api/analytics", authorization.RoleSupervisor, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(s, jsonRequest(t, http.MethodDelete, "/api/services/"+serviceID, authorization.RoleAdmin, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCustomerValidationErrorShape(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, jsonRequest(t, http.MethodPost, "/api/customers", authorization.RoleAdmin, map[string]any{
		"name":     "Budi",
		"whatsapp": "12",
	}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	payload := decodeError(t, w)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_whatsapp", payload.Errors[0].Code)
	assert.Equal(t, "whatsapp", payload.Errors[0].Field)
}

func TestCustomerCreateAndGet(t *testing.T) {
	s := newTestServer(t)
	id := createCustomer(t, s)

	w := serve(s, jsonRequest(t, http.MethodGet, "/api/customers/"+id, authorization.RoleSupervisor, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Name            string `json:"name"`
		WhatsApp        string `json:"whatsapp"`
		WhatsAppDisplay string `json:"whatsapp_display"`
	}
	decodeData(t, w, &out)
	assert.Equal(t, "Dewi Lestari", out.Name)
	assert.Equal(t, customerPhone, out.WhatsApp)
	assert.True(t, strings.HasPrefix(out.WhatsAppDisplay, "+62"), out.WhatsAppDisplay)

	w = serve(s, jsonRequest(t, http.MethodGet, "/api/customers/999", authorization.RoleSupervisor, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(s, jsonRequest(t, http.MethodGet, "/api/audit-logs?action=customer.create", authorization.RoleAdmin, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var logs struct {
		AuditLogs []struct {
			Action    string `json:"action"`
			ActorRole string `json:"actor_role"`
		} `json:"audit_logs"`
	}
	decodeData(t, w, &logs)
	require.Len(t, logs.AuditLogs, 1)
	assert.Equal(t, authorization.RoleTeknisi, logs.AuditLogs[0].ActorRole)
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	order := createOrder(t, s, createCustomer(t, s), createService(t, s))

	assert.Equal(t, "PENDING", order.Status)
	require.Len(t, order.Items, 1)
	photoURL := order.Items[0].BeforePhotoURL
	require.True(t, strings.HasPrefix(photoURL, "/photos/"), photoURL)

	w := serve(s, httptest.NewRequest(http.MethodGet, photoURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	statusPath := fmt.Sprintf("/api/orders/%s/items/%s/status", order.ID, order.Items[0].ID)
	w = serve(s, jsonRequest(t, http.MethodPatch, statusPath, authorization.RoleTeknisi, map[string]any{"status": "PROCESS"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated orderResponse
	decodeData(t, w, &updated)
	assert.Equal(t, "PROCESS", updated.Status)

	w = serve(s, jsonRequest(t, http.MethodPatch, statusPath, authorization.RoleTeknisi, map[string]any{"status": "COMPLETED"}))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "unpaid order must be settled to complete", decodeError(t, w).Message)

	settlePath := fmt.Sprintf("/api/orders/%s/settle", order.ID)
	w = serve(s, jsonRequest(t, http.MethodPost, settlePath, authorization.RoleTeknisi, map[string]any{"payment_method": "CASH"}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(s, jsonRequest(t, http.MethodPost, settlePath, authorization.RoleSupervisor, map[string]any{"payment_method": "UNPAID"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, jsonRequest(t, http.MethodPost, settlePath, authorization.RoleSupervisor, map[string]any{"payment_method": "CASH"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var settled orderResponse
	decodeData(t, w, &settled)
	assert.Equal(t, "COMPLETED", settled.Status)

	w = serve(s, jsonRequest(t, http.MethodPatch, statusPath, authorization.RoleTeknisi, map[string]any{"status": "READY"}))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decodeError(t, w).Type)

	w = serve(s, jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/orders/%s/receipt", order.ID), authorization.RoleTeknisi, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestCreateOrderRequiresBeforePhoto(t *testing.T) {
	s := newTestServer(t)
	customerID := createCustomer(t, s)
	serviceID := createService(t, s)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("customer_id", customerID))
	require.NoError(t, mw.WriteField("items", fmt.Sprintf(`[{"service_id":%q}]`, serviceID)))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(actorRoleHeader, authorization.RoleAdmin)

	w := serve(s, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	payload := decodeError(t, w)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "before_photo_required", payload.Errors[0].Code)
}

func TestPublicTrackingHidesContact(t *testing.T) {
	s := newTestServer(t)
	order := createOrder(t, s, createCustomer(t, s), createService(t, s))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/public/track/"+order.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), customerPhone)
	assert.Contains(t, w.Body.String(), "Dewi")

	w = serve(s, httptest.NewRequest(http.MethodGet, "/public/track/123", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicTrackingRateLimited(t *testing.T) {
	s := newTestServer(t)
	limiter := &fakeLimiter{allowed: false}
	s.trackLimiter = limiter

	w := serve(s, httptest.NewRequest(http.MethodGet, "/public/track/123", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, w).Type)
	assert.Equal(t, 1, limiter.calls)
}

func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, jsonRequest(t, http.MethodGet, "/api/analytics?filter=decade", authorization.RoleAdmin, nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_date_range", decodeError(t, w).Errors[0].Code)

	w = serve(s, jsonRequest(t, http.MethodPost, "/api/expenses", authorization.RoleSupervisor, map[string]any{
		"category":     "MATERIALS",
		"sub_category": "Sabun",
		"amount":       25000,
		"spent_at":     "2024-07-09T03:00:00Z",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(s, jsonRequest(t, http.MethodGet, "/api/analytics?filter=week", authorization.RoleAdmin, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		TotalExpense int64 `json:"total_expense"`
		NetProfit    int64 `json:"net_profit"`
	}
	decodeData(t, w, &report)
	assert.Equal(t, int64(25000), report.TotalExpense)
	assert.Equal(t, int64(-25000), report.NetProfit)

	w = serve(s, jsonRequest(t, http.MethodGet, "/api/analytics/export?filter=week", authorization.RoleSupervisor, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "laporan-week.xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestCORSPreflightAllowsActorRole(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/customers", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", actorRoleHeader)

	w := serve(s, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), strings.ToLower(actorRoleHeader))
}
