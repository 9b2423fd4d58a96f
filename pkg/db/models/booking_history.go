package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

// BookingHistory is one append-only audit entry for a booking.
type BookingHistory struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID uuid.UUID           `gorm:"column:booking_id;type:uuid;not null"`
	Sequence  int64               `gorm:"column:sequence;not null"`
	Action    enums.HistoryAction `gorm:"column:action;type:history_action;not null"`
	ActorID   *uuid.UUID          `gorm:"column:actor_id;type:uuid"`
	ActorRole enums.ActorRole     `gorm:"column:actor_role;type:text;not null"`
	Reason    *string             `gorm:"column:reason"`
	OldValue  json.RawMessage     `gorm:"column:old_value;type:jsonb"`
	NewValue  json.RawMessage     `gorm:"column:new_value;type:jsonb"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (BookingHistory) TableName() string {
	return "booking_history"
}
