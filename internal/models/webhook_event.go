package models

import "time"

// WebhookEvent is the raw record of one inbound gateway callback, written
// before any processing so the payload survives a processing crash. Used for
// replay/debugging and duplicate detection; append-only.
type WebhookEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EventID        string    `gorm:"size:64;uniqueIndex;not null" json:"event_id"`
	ProviderCallID string    `gorm:"size:64;index:idx_webhook_call_event" json:"provider_call_id"`
	EventType      string    `gorm:"size:32;index:idx_webhook_call_event" json:"event_type"`
	Status         string    `gorm:"size:32" json:"status"`
	Payload        string    `gorm:"type:text" json:"payload"`
	Processed      bool      `gorm:"not null;default:false;index" json:"processed"`
	CreatedAt      time.Time `json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
