package enums

// OrderStatus tracks an order through the kitchen lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusTransit   OrderStatus = "transit"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition is legal.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// IsConfirmedStage reports whether the order sits in the paid-but-not-preparing stage.
// Online orders confirm into transit, offline orders into confirmed; the two are the
// same stage of the state machine.
func (s OrderStatus) IsConfirmedStage() bool {
	return s == OrderStatusConfirmed || s == OrderStatusTransit
}
