package enums

// OrderType distinguishes website orders from walk-in/staff orders.
type OrderType string

const (
	OrderTypeOnline  OrderType = "online"
	OrderTypeOffline OrderType = "offline"
)
