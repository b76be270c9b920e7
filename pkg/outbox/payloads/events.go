package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/obafemi/chopwell-backend/pkg/enums"
)

// OrderConfirmedEvent fans out when payment (or staff push) confirms an order
// and its stock has been deducted.
type OrderConfirmedEvent struct {
	OrderID     uuid.UUID        `json:"orderId"`
	OrderNumber string           `json:"orderNumber"`
	OrderType   enums.OrderType  `json:"orderType"`
	BatchID     *uuid.UUID       `json:"batchId,omitempty"`
	CustomerID  *uuid.UUID       `json:"customerId,omitempty"`
	Total       string           `json:"total"`
	ItemCount   int              `json:"itemCount"`
	ConfirmedAt time.Time        `json:"confirmedAt"`
}

// OrderStatusUpdatedEvent covers forward transitions that are not terminal
// (e.g. confirmed -> preparing).
type OrderStatusUpdatedEvent struct {
	OrderID        uuid.UUID         `json:"orderId"`
	OrderNumber    string            `json:"orderNumber"`
	PreviousStatus enums.OrderStatus `json:"previousStatus"`
	Status         enums.OrderStatus `json:"status"`
}

// OrderCompletedEvent marks an order served/collected.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID  `json:"orderId"`
	OrderNumber string     `json:"orderNumber"`
	BatchID     *uuid.UUID `json:"batchId,omitempty"`
	CompletedAt time.Time  `json:"completedAt"`
}

// OrderCancelledEvent records a cancellation and whether inventory was
// returned to the shelf.
type OrderCancelledEvent struct {
	OrderID        uuid.UUID         `json:"orderId"`
	OrderNumber    string            `json:"orderNumber"`
	PreviousStatus enums.OrderStatus `json:"previousStatus"`
	StockRestored  bool              `json:"stockRestored"`
	Reason         string            `json:"reason,omitempty"`
}

// BatchStartedEvent signals the kitchen began preparing a batch.
type BatchStartedEvent struct {
	BatchID  uuid.UUID   `json:"batchId"`
	OrderIDs []uuid.UUID `json:"orderIds"`
}

// BatchCompletedEvent signals every order in the batch is done.
type BatchCompletedEvent struct {
	BatchID  uuid.UUID   `json:"batchId"`
	OrderIDs []uuid.UUID `json:"orderIds"`
}

// StockLowEvent fires when a deduction pushes a product at or below its
// low-stock threshold.
type StockLowEvent struct {
	ProductID         uuid.UUID         `json:"productId"`
	Name              string            `json:"name"`
	Units             int               `json:"units"`
	LowStockThreshold int               `json:"lowStockThreshold"`
	Status            enums.StockStatus `json:"status"`
}
