package models

// Coordinates is a shared value object referenced by routes.
// Two rows with equal (x, y) are the same logical value; dedup is enforced
// by the unique index plus the value store's insert-or-fetch path.
type Coordinates struct {
	ID uint `json:"id" gorm:"primaryKey"`

	// X is optional; nil and 0 are distinct values.
	X *float64 `json:"x" gorm:"uniqueIndex:idx_coordinates_value"`

	// Y must not exceed 807 (validated in the value store).
	Y float64 `json:"y" gorm:"not null;uniqueIndex:idx_coordinates_value"`

	// OwnerRouteID is the route responsible for this value's lifecycle.
	OwnerRouteID *uint `json:"owner_route_id" gorm:"index"`
}
