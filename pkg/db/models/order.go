package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"github.com/shopspring/decimal"

	"github.com/obafemi/chopwell-backend/pkg/enums"
)

// Order is the aggregate root for a customer order. Rows are created once and
// mutated only through state-machine transitions; pending drafts are the only
// rows that may ever be deleted. Order numbers stay empty until confirmation;
// their uniqueness is enforced by a partial index in the migration.
type Order struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber           string              `gorm:"column:order_number;index"`
	OrderType             enums.OrderType     `gorm:"column:order_type;type:text;not null"`
	Status                enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentReference      *string             `gorm:"column:payment_reference;index"`
	MonnifyTransactionRef *string             `gorm:"column:monnify_transaction_ref;uniqueIndex"`
	CustomerID            *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	BatchID               *uuid.UUID          `gorm:"column:batch_id;type:uuid;index"`
	BatchCreatedAt        *time.Time          `gorm:"column:batch_created_at"`
	Subtotal              decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax                   decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null"`
	DeliveryFee           decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	Total                 decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	StockRestored         bool                `gorm:"column:stock_restored;not null;default:false"`
	ConfirmedAt           *time.Time          `gorm:"column:confirmed_at"`
	PreparingAt           *time.Time          `gorm:"column:preparing_at"`
	CompletedAt           *time.Time          `gorm:"column:completed_at"`
	CancelledAt           *time.Time          `gorm:"column:cancelled_at"`
	Items                 []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id app-side so inserts behave the same on every driver.
func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
