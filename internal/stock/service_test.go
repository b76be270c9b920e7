package stock

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/enums"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	"github.com/obafemi/chopwell-backend/pkg/outbox"
)

func TestDeductNeverGoesNegative(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, emitter := newTestService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, 5, 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Deduct(ctx, tx, product.ID, 6, Ref{Note: "order"})
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().([]ShortfallDetail)
	if !ok || len(details) != 1 {
		t.Fatalf("expected shortfall details, got %#v", typed.Details())
	}
	if details[0].Requested != 6 || details[0].Available != 5 {
		t.Fatalf("unexpected shortfall: %+v", details[0])
	}

	reloaded := loadTestProduct(t, db, product.ID)
	if reloaded.Units != 5 {
		t.Fatalf("units must be untouched, got %d", reloaded.Units)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("no events expected, got %d", len(emitter.events))
	}
}

func TestDeductDerivesStatusAndAppendsEntry(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, emitter := newTestService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, 5, 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Deduct(ctx, tx, product.ID, 3, Ref{Note: "order CW-000001", EnteredBy: "system"})
	})
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}

	reloaded := loadTestProduct(t, db, product.ID)
	if reloaded.Units != 2 {
		t.Fatalf("expected 2 units, got %d", reloaded.Units)
	}
	if reloaded.Status != enums.StockStatusLowStock {
		t.Fatalf("expected low_stock, got %s", reloaded.Status)
	}

	var entries []models.StockEntry
	if err := db.Find(&entries, "product_id = ?", product.ID).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].EntryType != enums.StockEntryTypeRemove || entries[0].Quantity != 3 {
		t.Fatalf("unexpected entry %+v", entries[0])
	}

	if len(emitter.events) != 1 {
		t.Fatalf("expected low stock event, got %d events", len(emitter.events))
	}
	if emitter.events[0].EventType != enums.EventStockLow {
		t.Fatalf("unexpected event type %s", emitter.events[0].EventType)
	}
}

func TestDeductToZeroIsOutOfStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, 2, 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Deduct(ctx, tx, product.ID, 2, Ref{})
	})
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	reloaded := loadTestProduct(t, db, product.ID)
	if reloaded.Units != 0 || reloaded.Status != enums.StockStatusOutOfStock {
		t.Fatalf("unexpected state: units=%d status=%s", reloaded.Units, reloaded.Status)
	}
}

func TestRestoreRecoversStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, emitter := newTestService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, 0, 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Restore(ctx, tx, product.ID, 10, Ref{Note: "cancelled CW-000002"})
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	reloaded := loadTestProduct(t, db, product.ID)
	if reloaded.Units != 10 || reloaded.Status != enums.StockStatusInStock {
		t.Fatalf("unexpected state: units=%d status=%s", reloaded.Units, reloaded.Status)
	}

	var entries []models.StockEntry
	if err := db.Find(&entries, "product_id = ?", product.ID).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 1 || entries[0].EntryType != enums.StockEntryTypeAdd {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("restore must not raise low stock alerts")
	}
}

func TestConfirmDeductAllOrNothing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	productA := seedProduct(t, db, 10, 3)
	productB := seedProduct(t, db, 1, 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.ConfirmDeduct(ctx, tx, []Line{
			{ProductID: productA.ID, Qty: 4},
			{ProductID: productB.ID, Qty: 2},
		}, Ref{Note: "confirm"})
	})
	if err == nil {
		t.Fatal("expected shortfall on product B")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}

	// Rollback must have reverted the deduction that already landed on A.
	if got := loadTestProduct(t, db, productA.ID).Units; got != 10 {
		t.Fatalf("product A units = %d, want 10", got)
	}
	if got := loadTestProduct(t, db, productB.ID).Units; got != 1 {
		t.Fatalf("product B units = %d, want 1", got)
	}

	var entries []models.StockEntry
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rolled back confirm must leave no entries, got %d", len(entries))
	}
}

func TestBulkDeductIsBestEffort(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	productA := seedProduct(t, db, 10, 3)
	productB := seedProduct(t, db, 1, 3)

	results, err := svc.BulkDeduct(ctx, []Line{
		{ProductID: productA.ID, Qty: 4},
		{ProductID: productB.ID, Qty: 2},
		{ProductID: uuid.New(), Qty: 1},
	}, Ref{Note: "stocktake"})
	if err != nil {
		t.Fatalf("bulk deduct aggregated unexpected errors: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Deducted {
		t.Fatalf("first line should deduct: %+v", results[0])
	}
	if results[1].Deducted || results[1].Reason != "insufficient_stock" {
		t.Fatalf("second line should fall short: %+v", results[1])
	}
	if results[2].Deducted || results[2].Reason != "not_found" {
		t.Fatalf("third line should be not found: %+v", results[2])
	}

	// Unlike ConfirmDeduct, the successful line stays applied.
	if got := loadTestProduct(t, db, productA.ID).Units; got != 6 {
		t.Fatalf("product A units = %d, want 6", got)
	}
	if got := loadTestProduct(t, db, productB.ID).Units; got != 1 {
		t.Fatalf("product B units = %d, want 1", got)
	}
}

func TestDeductValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	product := seedProduct(t, db, 5, 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Deduct(ctx, tx, product.ID, 0, Ref{})
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.StockEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *capturingEmitter) {
	t.Helper()
	emitter := &capturingEmitter{}
	logg := logger.New(logger.Options{ServiceName: "stock-test", Output: io.Discard})
	svc, err := NewService(&gormTxRunner{db: db}, emitter, nil, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, emitter
}

func seedProduct(t *testing.T, db *gorm.DB, units, threshold int) models.Product {
	t.Helper()
	product := models.Product{
		ID:                uuid.New(),
		Name:              "jollof rice",
		Units:             units,
		LowStockThreshold: threshold,
		Status:            enums.DeriveStockStatus(units, threshold),
		IsActive:          true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func loadTestProduct(t *testing.T, db *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type capturingEmitter struct {
	events []outbox.DomainEvent
}

func (c *capturingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}
