package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/pkg/enums"
)

// StockEntry is the append-only audit trail for every stock mutation.
// Rows are never updated or deleted.
type StockEntry struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity  int                  `gorm:"column:quantity;not null"`
	EntryType enums.StockEntryType `gorm:"column:entry_type;type:text;not null"`
	Notes     string               `gorm:"column:notes"`
	EnteredBy string               `gorm:"column:entered_by"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the id app-side so inserts behave the same on every driver.
func (e *StockEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
