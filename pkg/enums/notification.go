package enums

// NotificationChannel scopes fan-out of domain events to role dashboards.
type NotificationChannel string

const (
	ChannelKitchen  NotificationChannel = "kitchen"
	ChannelSales    NotificationChannel = "sales"
	ChannelAdmin    NotificationChannel = "admin"
	ChannelCustomer NotificationChannel = "customer"
)
