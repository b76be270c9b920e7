package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obafemi/chopwell-backend/pkg/enums"
)

// OrderItemInput is one requested line on a draft order.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	OptionIDs []string
}

// CreateOrderInput holds the validated payload to open a draft order.
type CreateOrderInput struct {
	OrderType   enums.OrderType
	CustomerID  *uuid.UUID
	DeliveryFee decimal.Decimal
	Items       []OrderItemInput
}

// PaymentDetails records the verified payment a confirmation is anchored to.
type PaymentDetails struct {
	PaymentReference string
	TransactionRef   string
	Actor            string
}

// ConfirmParams tunes a single-order confirmation.
type ConfirmParams struct {
	BatchID          *uuid.UUID
	PaymentReference *string
	TransactionRef   *string
	MarkPaid         bool
	Actor            string
}

// OrderItemDTO is the API shape of a line item.
type OrderItemDTO struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TaxPerUnit decimal.Decimal `json:"tax_per_unit"`
	TotalPrice decimal.Decimal `json:"total_price"`
	IsExtra    bool            `json:"is_extra"`
	OptionIDs  []string        `json:"option_ids,omitempty"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number,omitempty"`
	OrderType     enums.OrderType     `json:"order_type"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	CustomerID    *uuid.UUID          `json:"customer_id,omitempty"`
	BatchID       *uuid.UUID          `json:"batch_id,omitempty"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Tax           decimal.Decimal     `json:"tax"`
	DeliveryFee   decimal.Decimal     `json:"delivery_fee"`
	Total         decimal.Decimal     `json:"total"`
	Items         []OrderItemDTO      `json:"items"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// KitchenQueueEntry is one order on the kitchen display, oldest first.
type KitchenQueueEntry struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	OrderType   enums.OrderType   `json:"order_type"`
	Status      enums.OrderStatus `json:"status"`
	BatchID     *uuid.UUID        `json:"batch_id,omitempty"`
	TotalItems  int               `json:"total_items"`
	ConfirmedAt *time.Time        `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// KitchenQueueList wraps the paginated queue plus the next page cursor.
type KitchenQueueList struct {
	Orders     []KitchenQueueEntry `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}
