package orders

const (
	TopicOrderCreated     = "order.created"
	TopicPaymentCompleted = "order.payment.completed"
	TopicPaymentFailed    = "order.payment.failed"
	TopicOrderCancelled   = "order.cancelled"
	TopicOrderCompleted   = "order.completed"
	TopicOrderRefunded    = "order.refunded"
)

// AllTopics untuk consumer yang subscribe seluruh lifecycle.
var AllTopics = []string{
	TopicOrderCreated,
	TopicPaymentCompleted,
	TopicPaymentFailed,
	TopicOrderCancelled,
	TopicOrderCompleted,
	TopicOrderRefunded,
}

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
