package enums

type OutboxEventType string

const (
	EventOrderConfirmed     OutboxEventType = "order.confirmed"
	EventOrderStatusUpdated OutboxEventType = "order.status_updated"
	EventOrderCompleted     OutboxEventType = "order.completed"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
	EventBatchStarted       OutboxEventType = "batch.started"
	EventBatchCompleted     OutboxEventType = "batch.completed"
	EventStockLow           OutboxEventType = "stock.low"
)

type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateBatch   OutboxAggregateType = "batch"
	AggregateProduct OutboxAggregateType = "product"
)
