package orders

// Semua event lifecycle order lewat satu topic.
const TopicOrderEvents = "order.events"

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
