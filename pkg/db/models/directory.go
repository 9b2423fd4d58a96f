package models

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

// Pilot is a directory record owned by the catalog service. Read-only here.
type Pilot struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID   *uuid.UUID   `gorm:"column:company_id;type:uuid"`
	DisplayName string       `gorm:"column:display_name;not null"`
	Locale      enums.Locale `gorm:"column:locale;type:text;not null;default:'en'"`
	Active      bool         `gorm:"column:active;not null;default:true"`
}

// Company is a directory record owned by the catalog service. Read-only here.
type Company struct {
	ID     uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	Name   string       `gorm:"column:name;not null"`
	Locale enums.Locale `gorm:"column:locale;type:text;not null;default:'en'"`
	Active bool         `gorm:"column:active;not null;default:true"`
}

func (Company) TableName() string {
	return "companies"
}
