package kafka

import (
	"bytes"
	"fmt"

	"github.com/hamba/avro/v2"
)

const stockChangedSchemaText = `{
	"type": "record",
	"namespace": "inventory",
	"name": "stock_changed",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "event_type", "type": "string"},
		{"name": "product_id", "type": "long"},
		{"name": "product_name", "type": "string"},
		{"name": "old_stock", "type": "int"},
		{"name": "new_stock", "type": "int"},
		{"name": "changed_by", "type": "string"},
		{"name": "timestamp", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

var stockChangedSchema = avro.MustParse(stockChangedSchemaText)

// EncodeStockChanged serializes the event with the stock_changed Avro schema
func EncodeStockChanged(event StockChangedEvent) ([]byte, error) {
	data, err := avro.Marshal(stockChangedSchema, event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", EventTypeStockChanged, err)
	}
	return data, nil
}

// DecodeStockChanged parses an Avro encoded stock_changed event. Payloads that
// end early or carry trailing bytes are rejected.
func DecodeStockChanged(data []byte) (StockChangedEvent, error) {
	var event StockChangedEvent
	r := avro.NewReader(bytes.NewReader(data), len(data)+1)
	r.ReadVal(stockChangedSchema, &event)
	if r.Error != nil {
		return StockChangedEvent{}, fmt.Errorf("failed to decode %s event: %w", EventTypeStockChanged, r.Error)
	}

	// The reader stops at the last field, so re-encoding tells trailing bytes apart.
	encoded, err := avro.Marshal(stockChangedSchema, event)
	if err != nil {
		return StockChangedEvent{}, fmt.Errorf("failed to decode %s event: %w", EventTypeStockChanged, err)
	}
	if len(encoded) != len(data) {
		return StockChangedEvent{}, fmt.Errorf("failed to decode %s event: %d trailing bytes", EventTypeStockChanged, len(data)-len(encoded))
	}
	if event.EventID == "" || event.EventType == "" {
		return StockChangedEvent{}, fmt.Errorf("failed to decode %s event: missing event id or type", EventTypeStockChanged)
	}
	return event, nil
}
