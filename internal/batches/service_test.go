package batches

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/internal/orders"
	"github.com/obafemi/chopwell-backend/internal/stock"
	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/enums"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	"github.com/obafemi/chopwell-backend/pkg/outbox"
)

type batchHarness struct {
	db       *gorm.DB
	svc      Service
	orderSvc orders.Service
}

func TestPushConfirmsOrdersUnderSharedBatch(t *testing.T) {
	t.Parallel()

	h := newBatchHarness(t)
	ctx := context.Background()

	product := h.seedProduct(t, "egusi soup", 10, 2)
	first := h.createDraft(t, product.ID, 2)
	second := h.createDraft(t, product.ID, 3)

	dto, err := h.svc.Push(ctx, []uuid.UUID{first, second}, "staff-1")
	assert.NoError(t, err)
	assert.Equal(t, BatchStatusConfirmed, dto.Status)
	assert.Len(t, dto.OrderIDs, 2)

	for _, id := range dto.OrderIDs {
		order := h.loadOrder(t, id)
		assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
		assert.NotNil(t, order.BatchID)
		assert.Equal(t, dto.BatchID, *order.BatchID)
		assert.NotEmpty(t, order.OrderNumber)
	}
	assert.Equal(t, 5, h.loadProduct(t, product.ID).Units)
	assert.Equal(t, []enums.OutboxEventType{
		enums.EventOrderConfirmed,
		enums.EventOrderConfirmed,
	}, h.eventTypes(t))
}

func TestPushIsAllOrNothing(t *testing.T) {
	t.Parallel()

	h := newBatchHarness(t)
	ctx := context.Background()

	plenty := h.seedProduct(t, "fried rice", 10, 2)
	scarce := h.seedProduct(t, "goat meat", 1, 1)
	okOrder := h.createDraft(t, plenty.ID, 2)
	badOrder := h.createDraft(t, scarce.ID, 3)

	_, err := h.svc.Push(ctx, []uuid.UUID{okOrder, badOrder}, "staff-1")
	typed := pkgerrors.As(err)
	assert.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// Nothing moved: both orders still pending, stock untouched, no events.
	assert.Equal(t, enums.OrderStatusPending, h.loadOrder(t, okOrder).Status)
	assert.Equal(t, enums.OrderStatusPending, h.loadOrder(t, badOrder).Status)
	assert.Equal(t, 10, h.loadProduct(t, plenty.ID).Units)
	assert.Equal(t, 1, h.loadProduct(t, scarce.ID).Units)
	assert.Empty(t, h.eventTypes(t))
}

func TestPushRejectsOnlineOrders(t *testing.T) {
	t.Parallel()

	h := newBatchHarness(t)
	product := h.seedProduct(t, "suya", 10, 2)

	dto, err := h.orderSvc.CreatePending(context.Background(), orders.CreateOrderInput{
		OrderType: enums.OrderTypeOnline,
		Items:     []orders.OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	_, err = h.svc.Push(context.Background(), []uuid.UUID{dto.ID}, "staff-1")
	typed := pkgerrors.As(err)
	assert.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// The rejected push rolled back the confirm.
	assert.Equal(t, enums.OrderStatusPending, h.loadOrder(t, dto.ID).Status)
	assert.Equal(t, 10, h.loadProduct(t, product.ID).Units)
}

func TestPushRejectsDuplicateMembers(t *testing.T) {
	t.Parallel()

	h := newBatchHarness(t)
	id := uuid.New()
	_, err := h.svc.Push(context.Background(), []uuid.UUID{id, id}, "staff-1")
	typed := pkgerrors.As(err)
	assert.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestStartPreparationMovesWholeBatch(t *testing.T) {
	t.Parallel()

	h := newBatchHarness(t)
	ctx := context.Background()

	product := h.seedProduct(t, "pounded yam", 10, 2)
	first := h.createDraft(t, product.ID, 1)
	second := h.createDraft(t, product.ID, 1)
	pushed, err := h.svc.Push(ctx, []uuid.UUID{first, second}, "staff-1")
	assert.NoError(t, err)

	dto, err := h.svc.StartPreparation(ctx, pushed.BatchID)
	assert.NoError(t, err)
	assert.Equal(t, BatchStatusPreparing, dto.Status)

	for _, id := range dto.OrderIDs {
		order := h.loadOrder(t, id)
		assert.Equal(t, enums.OrderStatusPreparing, order.Status)
		assert.NotNil(t, order.PreparingAt)
	}
	assert.Contains(t, h.eventTypes(t), enums.EventBatchStarted)

	// A second start finds nothing to move.
	_, err = h.svc.StartPreparation(ctx, pushed.BatchID)
	typed := pkgerrors.As(err)
	assert.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCompleteFinishesPreparingMembers(t *testing.T) {
	t.Parallel()

	h := newBatchHarness(t)
	ctx := context.Background()

	product := h.seedProduct(t, "akara", 10, 2)
	first := h.createDraft(t, product.ID, 1)
	second := h.createDraft(t, product.ID, 1)
	pushed, err := h.svc.Push(ctx, []uuid.UUID{first, second}, "staff-1")
	assert.NoError(t, err)
	_, err = h.svc.StartPreparation(ctx, pushed.BatchID)
	assert.NoError(t, err)

	dto, err := h.svc.Complete(ctx, pushed.BatchID)
	assert.NoError(t, err)
	assert.Equal(t, BatchStatusCompleted, dto.Status)
	for _, id := range dto.OrderIDs {
		order := h.loadOrder(t, id)
		assert.Equal(t, enums.OrderStatusCompleted, order.Status)
		assert.NotNil(t, order.CompletedAt)
	}
	assert.Contains(t, h.eventTypes(t), enums.EventBatchCompleted)
}

func TestCompleteRequiresPreparingMembers(t *testing.T) {
	t.Parallel()

	h := newBatchHarness(t)
	ctx := context.Background()

	product := h.seedProduct(t, "zobo", 10, 2)
	first := h.createDraft(t, product.ID, 1)
	pushed, err := h.svc.Push(ctx, []uuid.UUID{first}, "staff-1")
	assert.NoError(t, err)

	_, err = h.svc.Complete(ctx, pushed.BatchID)
	typed := pkgerrors.As(err)
	assert.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestGetBatchDerivesStatusAcrossMixedMembers(t *testing.T) {
	t.Parallel()

	h := newBatchHarness(t)
	ctx := context.Background()

	product := h.seedProduct(t, "plantain", 10, 2)
	first := h.createDraft(t, product.ID, 1)
	second := h.createDraft(t, product.ID, 1)
	pushed, err := h.svc.Push(ctx, []uuid.UUID{first, second}, "staff-1")
	assert.NoError(t, err)

	// Cancel one member: the batch still reads confirmed off the survivor.
	_, err = h.orderSvc.Cancel(ctx, first, "customer changed mind")
	assert.NoError(t, err)

	dto, err := h.svc.GetBatch(ctx, pushed.BatchID)
	assert.NoError(t, err)
	assert.Equal(t, BatchStatusConfirmed, dto.Status)

	_, err = h.svc.StartPreparation(ctx, pushed.BatchID)
	assert.NoError(t, err)
	dto, err = h.svc.GetBatch(ctx, pushed.BatchID)
	assert.NoError(t, err)
	assert.Equal(t, BatchStatusPreparing, dto.Status)

	// The cancelled member was not dragged along.
	assert.Equal(t, enums.OrderStatusCancelled, h.loadOrder(t, first).Status)
}

func TestGetBatchUnknownIsNotFound(t *testing.T) {
	t.Parallel()

	h := newBatchHarness(t)
	_, err := h.svc.GetBatch(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	assert.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeriveBatchStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		statuses []enums.OrderStatus
		want     BatchStatus
	}{
		{"all confirmed", []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusConfirmed}, BatchStatusConfirmed},
		{"any preparing wins", []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusPreparing}, BatchStatusPreparing},
		{"completed ignores cancelled", []enums.OrderStatus{enums.OrderStatusCompleted, enums.OrderStatusCancelled}, BatchStatusCompleted},
		{"all cancelled", []enums.OrderStatus{enums.OrderStatusCancelled}, BatchStatusCancelled},
		{"empty", nil, BatchStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveBatchStatus(tc.statuses))
		})
	}
}

func newBatchHarness(t *testing.T) *batchHarness {
	t.Helper()

	dsn := "file:batches_svc_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.StockEntry{},
		&models.Counter{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "batches-test", Output: io.Discard})
	events := outbox.NewService(outbox.NewRepository(db), logg)
	runner := &gormTxRunner{db: db}

	ledger, err := stock.NewService(runner, events, nil, logg)
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	orderSvc, err := orders.NewService(orders.NewRepository(db), runner, ledger, events, logg)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	svc, err := NewService(NewRepository(db), runner, orderSvc, events, logg)
	if err != nil {
		t.Fatalf("batches service: %v", err)
	}
	return &batchHarness{db: db, svc: svc, orderSvc: orderSvc}
}

func (h *batchHarness) seedProduct(t *testing.T, name string, units, threshold int) models.Product {
	t.Helper()
	product := models.Product{
		ID:                uuid.New(),
		Name:              name,
		Units:             units,
		LowStockThreshold: threshold,
		Status:            enums.DeriveStockStatus(units, threshold),
		Price:             decimal.RequireFromString("500.00"),
		TaxPerUnit:        decimal.RequireFromString("0.00"),
		IsActive:          true,
	}
	if err := h.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (h *batchHarness) createDraft(t *testing.T, productID uuid.UUID, qty int) uuid.UUID {
	t.Helper()
	dto, err := h.orderSvc.CreatePending(context.Background(), orders.CreateOrderInput{
		OrderType: enums.OrderTypeOffline,
		Items:     []orders.OrderItemInput{{ProductID: productID, Quantity: qty}},
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	return dto.ID
}

func (h *batchHarness) loadOrder(t *testing.T, id uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	return order
}

func (h *batchHarness) loadProduct(t *testing.T, id uuid.UUID) models.Product {
	t.Helper()
	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product
}

func (h *batchHarness) eventTypes(t *testing.T) []enums.OutboxEventType {
	t.Helper()
	var rows []models.OutboxEvent
	if err := h.db.Order("created_at ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	types := make([]enums.OutboxEventType, 0, len(rows))
	for _, row := range rows {
		types = append(types, row.EventType)
	}
	return types
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
