package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EscrowEvent is an append-only record written in the same transaction as
// every successful transition. The events service optionally forwards these
// to the external compressed ledger.
type EscrowEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Mint      string         `gorm:"column:mint;not null;index" json:"mint"`
	EventType string         `gorm:"column:event_type;not null" json:"event_type"`
	Actor     string         `gorm:"column:actor;not null" json:"actor"`
	EventData datatypes.JSON `gorm:"column:event_data;type:json" json:"event_data"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (EscrowEvent) TableName() string {
	return "EscrowEvents"
}

func (e *EscrowEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}

// RecordEvent appends an EscrowEvent inside the caller's transaction.
func RecordEvent(tx *gorm.DB, mint, eventType, actor string, data map[string]interface{}) error {
	payload, _ := json.Marshal(data)
	return tx.Create(&EscrowEvent{
		Mint:      mint,
		EventType: eventType,
		Actor:     actor,
		EventData: datatypes.JSON(payload),
	}).Error
}
