package domain

import "time"

// Order lifecycle statuses as they appear on the state queue.
const (
	StatusPublished = "Published"
	StatusTaken     = "Taken"
	StatusDelivered = "Delivered"
	StatusRefused   = "Refused"
	StatusDeleted   = "Deleted"
)

// StateMessage is the lifecycle event published to RabbitMQ on every order
// transition. Fire-and-forget: consumers get at-most-effort delivery.
type StateMessage struct {
	OrderID     string    `json:"orderId"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	MessageID   *int      `json:"messageId,omitempty"`
	ChatID      string    `json:"chatId,omitempty"`
	UserID      *int64    `json:"userId,omitempty"`
	UserName    string    `json:"userName,omitempty"`
	Republished *bool     `json:"republished,omitempty"`
}
