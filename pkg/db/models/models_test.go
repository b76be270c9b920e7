package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/pkg/enums"
)

func newModelsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}, &Order{}, &OrderItem{}, &StockEntry{}, &OutboxEvent{}, &Counter{}))
	return db
}

// The schema tags must migrate cleanly on sqlite so every service harness can
// stand up an in-memory database.
func TestAutoMigrateAndCreateOnSQLite(t *testing.T) {
	t.Parallel()

	db := newModelsDB(t)

	product := Product{
		Name:              "jollof rice",
		Units:             10,
		LowStockThreshold: 3,
		Status:            enums.StockStatusInStock,
		Price:             decimal.RequireFromString("1500.00"),
		IsActive:          true,
	}
	require.NoError(t, db.Create(&product).Error)
	require.NotEqual(t, uuid.Nil, product.ID)

	order := Order{
		OrderType:     enums.OrderTypeOffline,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		Subtotal:      decimal.RequireFromString("1500.00"),
		Tax:           decimal.Zero,
		Total:         decimal.RequireFromString("1500.00"),
	}
	require.NoError(t, db.Create(&order).Error)
	require.NotEqual(t, uuid.Nil, order.ID)

	item := OrderItem{
		OrderID:    order.ID,
		ProductID:  product.ID,
		Name:       product.Name,
		Quantity:   1,
		UnitPrice:  product.Price,
		TotalPrice: product.Price,
		OptionIDs:  pq.StringArray{"extra-plantain"},
	}
	require.NoError(t, db.Create(&item).Error)

	entry := StockEntry{
		ProductID: product.ID,
		Quantity:  1,
		EntryType: enums.StockEntryTypeRemove,
	}
	require.NoError(t, db.Create(&entry).Error)

	event := OutboxEvent{
		EventType:     enums.EventOrderConfirmed,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, db.Create(&event).Error)

	require.NoError(t, db.Create(&Counter{Name: "order_number", Value: 0}).Error)
}

// Drafts share an empty order number until confirmation assigns one; the
// column must not reject a second draft.
func TestTwoDraftsShareEmptyOrderNumber(t *testing.T) {
	t.Parallel()

	db := newModelsDB(t)

	for i := 0; i < 2; i++ {
		order := Order{
			OrderType:     enums.OrderTypeOnline,
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.PaymentStatusPending,
			Subtotal:      decimal.Zero,
			Tax:           decimal.Zero,
			Total:         decimal.Zero,
		}
		require.NoError(t, db.Create(&order).Error)
	}

	var count int64
	require.NoError(t, db.Model(&Order{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestBeforeCreateKeepsExplicitIDs(t *testing.T) {
	t.Parallel()

	db := newModelsDB(t)

	id := uuid.New()
	product := Product{
		ID:     id,
		Name:   "puff puff",
		Price:  decimal.RequireFromString("300.00"),
		Status: enums.StockStatusOutOfStock,
	}
	require.NoError(t, db.Create(&product).Error)
	require.Equal(t, id, product.ID)

	var loaded Product
	require.NoError(t, db.First(&loaded, "id = ?", id).Error)
	require.Equal(t, "puff puff", loaded.Name)
}
