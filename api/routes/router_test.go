package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/internal/batches"
	"github.com/obafemi/chopwell-backend/internal/orders"
	"github.com/obafemi/chopwell-backend/internal/payments"
	"github.com/obafemi/chopwell-backend/internal/products"
	"github.com/obafemi/chopwell-backend/internal/stock"
	"github.com/obafemi/chopwell-backend/pkg/config"
	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/enums"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	"github.com/obafemi/chopwell-backend/pkg/monnify"
	"github.com/obafemi/chopwell-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubProductService struct{}

func (stubProductService) List(context.Context) ([]products.ProductDTO, error) {
	return []products.ProductDTO{}, nil
}

func (stubProductService) Get(context.Context, uuid.UUID) (*products.ProductDTO, error) {
	return &products.ProductDTO{}, nil
}

func (stubProductService) LowStockAlerts(context.Context) ([]products.ProductDTO, error) {
	return []products.ProductDTO{}, nil
}

func (stubProductService) BulkDeduct(context.Context, []stock.Line, stock.Ref) ([]stock.BulkResult, error) {
	return []stock.BulkResult{}, nil
}

func (stubProductService) Restock(context.Context, uuid.UUID, int, stock.Ref) (*products.ProductDTO, error) {
	return &products.ProductDTO{}, nil
}

type stubOrderService struct{}

func (stubOrderService) CreatePending(context.Context, orders.CreateOrderInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{Status: enums.OrderStatusPending}, nil
}

func (stubOrderService) ModifyPending(context.Context, uuid.UUID, []orders.OrderItemInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrderService) DeleteDraft(context.Context, uuid.UUID) error { return nil }

func (stubOrderService) Confirm(context.Context, uuid.UUID, orders.ConfirmParams) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{Status: enums.OrderStatusConfirmed}, nil
}

func (stubOrderService) ConfirmTx(context.Context, *gorm.DB, uuid.UUID, orders.ConfirmParams) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) MaterializeFromPayment(context.Context, []orders.CreateOrderInput, orders.PaymentDetails) ([]orders.OrderDTO, error) {
	return nil, nil
}

func (stubOrderService) PriceCarts(context.Context, []orders.CreateOrderInput) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (stubOrderService) StartPreparing(context.Context, uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{Status: enums.OrderStatusPreparing}, nil
}

func (stubOrderService) Complete(context.Context, uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{Status: enums.OrderStatusCompleted}, nil
}

func (stubOrderService) Cancel(context.Context, uuid.UUID, string) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{Status: enums.OrderStatusCancelled}, nil
}

func (stubOrderService) GetOrder(context.Context, uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrderService) ListKitchenQueue(context.Context, pagination.Params) (*orders.KitchenQueueList, error) {
	return &orders.KitchenQueueList{Orders: []orders.KitchenQueueEntry{}}, nil
}

type stubBatchService struct{}

func (stubBatchService) Push(context.Context, []uuid.UUID, string) (*batches.BatchDTO, error) {
	return &batches.BatchDTO{Status: batches.BatchStatusConfirmed}, nil
}

func (stubBatchService) StartPreparation(context.Context, uuid.UUID) (*batches.BatchDTO, error) {
	return &batches.BatchDTO{Status: batches.BatchStatusPreparing}, nil
}

func (stubBatchService) Complete(context.Context, uuid.UUID) (*batches.BatchDTO, error) {
	return &batches.BatchDTO{Status: batches.BatchStatusCompleted}, nil
}

func (stubBatchService) GetBatch(context.Context, uuid.UUID) (*batches.BatchDTO, error) {
	return &batches.BatchDTO{}, nil
}

type stubPaymentService struct{}

func (stubPaymentService) CreateSession(context.Context, payments.CreateSessionInput) (*payments.SessionDTO, error) {
	return &payments.SessionDTO{AccountReference: "CW-test"}, nil
}

func (stubPaymentService) VerifyPayment(context.Context, string) (*payments.VerifyResult, error) {
	return &payments.VerifyResult{Outcome: payments.OutcomePending}, nil
}

func (stubPaymentService) HandleWebhook(context.Context, monnify.WebhookPayload) error {
	return nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Monnify.SecretKey = "sk_test"
	cfg.Monnify.AllowedIPs = []string{"35.242.133.146"}
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Products: stubProductService{},
		Orders:   stubOrderService{},
		Batches:  stubBatchService{},
		Payments: stubPaymentService{},
		Gatherer: prometheus.NewRegistry(),
	})
}

func TestRouterDispatchesKnownRoutes(t *testing.T) {
	t.Parallel()

	router := testRouter(t)
	orderID := uuid.NewString()
	batchID := uuid.NewString()

	cases := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"health live", http.MethodGet, "/health/live", http.StatusOK},
		{"health ready", http.MethodGet, "/health/ready", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"product list", http.MethodGet, "/api/v1/products/", http.StatusOK},
		{"low stock", http.MethodGet, "/api/v1/products/low-stock", http.StatusOK},
		{"product detail", http.MethodGet, "/api/v1/products/" + uuid.NewString(), http.StatusOK},
		{"kitchen queue", http.MethodGet, "/api/v1/orders/kitchen-queue", http.StatusOK},
		{"get order", http.MethodGet, "/api/v1/orders/" + orderID + "/", http.StatusOK},
		{"start preparing", http.MethodPost, "/api/v1/orders/" + orderID + "/start-preparing", http.StatusOK},
		{"complete order", http.MethodPost, "/api/v1/orders/" + orderID + "/complete", http.StatusOK},
		{"get batch", http.MethodGet, "/api/v1/batches/" + batchID + "/", http.StatusOK},
		{"start batch", http.MethodPost, "/api/v1/batches/" + batchID + "/start-preparing", http.StatusOK},
		{"verify payment", http.MethodGet, "/api/v1/payments/sessions/CW-abc/verify", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/v1/products/low-stock", http.StatusMethodNotAllowed},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRouterRejectsInvalidOrderID(t *testing.T) {
	t.Parallel()

	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterRequiresWebhookSignature(t *testing.T) {
	t.Parallel()

	router := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/monnify", nil)
	req.Header.Set("X-Forwarded-For", "35.242.133.146")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterSkipsMetricsWithoutGatherer(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	router := NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Products: stubProductService{},
		Orders:   stubOrderService{},
		Batches:  stubBatchService{},
		Payments: stubPaymentService{},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
