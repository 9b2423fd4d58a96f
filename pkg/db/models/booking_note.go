package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

// BookingNote is an admin annotation attached to a booking. Notes are never edited.
type BookingNote struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID  uuid.UUID       `gorm:"column:booking_id;type:uuid;not null"`
	Text       string          `gorm:"column:text;not null"`
	Type       enums.NoteType  `gorm:"column:type;type:note_type;not null;default:'info'"`
	Pinned     bool            `gorm:"column:pinned;not null;default:false"`
	AuthorID   *uuid.UUID      `gorm:"column:author_id;type:uuid"`
	AuthorRole enums.ActorRole `gorm:"column:author_role;type:text;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
