package models

// Location is a shared endpoint value referenced by routes as "from" or "to".
// Equality for dedup is the exact (x, y, name) triple; a blank name and a
// missing name are different values on purpose.
type Location struct {
	ID uint `json:"id" gorm:"primaryKey"`

	X float64 `json:"x" gorm:"not null;uniqueIndex:idx_locations_value"`
	Y float64 `json:"y" gorm:"not null;uniqueIndex:idx_locations_value"`

	Name *string `json:"name" gorm:"size:255;uniqueIndex:idx_locations_value"`

	OwnerRouteID *uint `json:"owner_route_id" gorm:"index"`
}
