package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"github.com/shopspring/decimal"

	"github.com/obafemi/chopwell-backend/pkg/enums"
)

// Product is a menu item plus its stock level. Units and status are mutated only
// through the stock ledger; status always matches DeriveStockStatus(units, threshold).
type Product struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name              string            `gorm:"column:name;not null"`
	Units             int               `gorm:"column:units;not null;default:0"`
	LowStockThreshold int               `gorm:"column:low_stock_threshold;not null;default:5"`
	Status            enums.StockStatus `gorm:"column:status;type:text;not null;default:'out_of_stock'"`
	Price             decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	TaxPerUnit        decimal.Decimal   `gorm:"column:tax_per_unit;type:numeric(12,2);not null;default:0"`
	IsExtra           bool              `gorm:"column:is_extra;not null;default:false"`
	IsActive          bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id app-side so inserts behave the same on every driver.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
