package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderItem is a line on an order. Immutable after creation except through the
// modify-pending path, which deletes and recreates the whole item set.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name       string          `gorm:"column:name;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TaxPerUnit decimal.Decimal `gorm:"column:tax_per_unit;type:numeric(12,2);not null;default:0"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	IsExtra    bool            `gorm:"column:is_extra;not null;default:false"`
	OptionIDs  pq.StringArray  `gorm:"column:option_ids;type:text[]"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the id app-side so inserts behave the same on every driver.
func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
