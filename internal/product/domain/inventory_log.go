package domain

import (
	"context"
	"time"
)

// InventoryLog records one stock change of a product
type InventoryLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"productId" gorm:"not null;index"`
	OldStock  int       `json:"oldStock"`
	NewStock  int       `json:"newStock"`
	ChangedBy string    `json:"changedBy"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
}

// TableName specifies the table name
func (InventoryLog) TableName() string {
	return "inventory_logs"
}

// StockPoint is one point of the stock chart in the history panel.
type StockPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Stock     int       `json:"stock"`
}

// StockSeries turns a most-recent-first history into chronological chart points.
func StockSeries(logs []InventoryLog) []StockPoint {
	points := make([]StockPoint, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		points = append(points, StockPoint{Timestamp: logs[i].Timestamp, Stock: logs[i].NewStock})
	}
	return points
}

type actorKey struct{}

// DefaultActor is recorded when a change carries no actor.
const DefaultActor = "system"

// WithActor returns a context carrying the name recorded in inventory logs.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor, or DefaultActor.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}
