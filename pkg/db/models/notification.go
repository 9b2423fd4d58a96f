package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

// BookingNotification records one rendered message handed to a recipient.
type BookingNotification struct {
	ID            uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID       uuid.UUID                  `gorm:"type:uuid;not null"`
	BookingID     uuid.UUID                  `gorm:"type:uuid;not null"`
	RecipientRole enums.RecipientRole        `gorm:"type:text;not null"`
	RecipientID   *uuid.UUID                 `gorm:"type:uuid"`
	Template      enums.NotificationTemplate `gorm:"type:notification_template;not null"`
	Locale        enums.Locale               `gorm:"type:text;not null"`
	Title         string                     `gorm:"type:text;not null"`
	Body          string                     `gorm:"type:text;not null"`
	CreatedAt     time.Time                  `gorm:"type:timestamptz;autoCreateTime"`
}
