package kafka

import "time"

// StockChangedEvent is published whenever an update changes a product's stock
type StockChangedEvent struct {
	EventID     string    `avro:"event_id"`
	EventType   string    `avro:"event_type"`
	ProductID   int64     `avro:"product_id"`
	ProductName string    `avro:"product_name"`
	OldStock    int       `avro:"old_stock"`
	NewStock    int       `avro:"new_stock"`
	ChangedBy   string    `avro:"changed_by"`
	Timestamp   time.Time `avro:"timestamp"`
}

// Event types
const (
	EventTypeStockChanged = "stock.changed"
)

// Kafka topics
const (
	TopicStockChanged = "inventory.stock"
)

// Message headers
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)
