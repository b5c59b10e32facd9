package models

import (
	"time"
)

// Route is the aggregate root. Its coordinates and endpoint locations are
// shared sub-objects; the foreign keys here are the reference count source of
// truth, and ownership lives on the referenced rows.
type Route struct {
	ID uint `json:"id" gorm:"primaryKey"`

	// Name is globally unique, 1-100 chars, letters/digits/space/_/-.
	Name string `json:"name" gorm:"size:100;not null;uniqueIndex"`

	Distance int64 `json:"distance" gorm:"not null"` // >= 2
	Rating   int64 `json:"rating" gorm:"not null"`   // >= 1

	CoordinatesID uint        `json:"coordinates_id" gorm:"not null;index"`
	Coordinates   Coordinates `json:"coordinates" gorm:"foreignKey:CoordinatesID"`

	FromLocationID uint     `json:"from_location_id" gorm:"not null;index"`
	From           Location `json:"from" gorm:"foreignKey:FromLocationID"`

	ToLocationID uint     `json:"to_location_id" gorm:"not null;index"`
	To           Location `json:"to" gorm:"foreignKey:ToLocationID"`

	CreationDate time.Time `json:"creation_date" gorm:"autoCreateTime"`
}
