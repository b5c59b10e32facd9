package services

import (
	"errors"

	"gorm.io/gorm"

	"route_registry/internal/apperrors"
	"route_registry/internal/models"
)

// Relations a route holds on shared objects.
const (
	RelationCoordinates  = "coordinates"
	RelationFromLocation = "from"
	RelationToLocation   = "to"
)

// CoordinatesUsageExcluding counts the routes referencing a coordinates row,
// excluding the given route's own reference.
func CoordinatesUsageExcluding(db *gorm.DB, coordinatesID, excludeRouteID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Route{}).
		Where("coordinates_id = ? AND id <> ?", coordinatesID, excludeRouteID).
		Count(&count).Error
	return count, err
}

// LocationUsageExcluding counts the routes referencing a location row as
// either endpoint, excluding the given route's own reference.
func LocationUsageExcluding(db *gorm.DB, locationID, excludeRouteID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Route{}).
		Where("(from_location_id = ? OR to_location_id = ?) AND id <> ?", locationID, locationID, excludeRouteID).
		Count(&count).Error
	return count, err
}

// RoutesReferencingCoordinates lists the other routes holding a reference to
// a coordinates row. These are the rebind candidates for that relation.
func RoutesReferencingCoordinates(db *gorm.DB, coordinatesID, excludeRouteID uint) ([]models.Route, error) {
	var routes []models.Route
	err := db.Where("coordinates_id = ? AND id <> ?", coordinatesID, excludeRouteID).
		Order("id").Find(&routes).Error
	return routes, err
}

// RoutesReferencingLocation lists the other routes holding a reference to a
// location row (as from or to).
func RoutesReferencingLocation(db *gorm.DB, locationID, excludeRouteID uint) ([]models.Route, error) {
	var routes []models.Route
	err := db.Where("(from_location_id = ? OR to_location_id = ?) AND id <> ?", locationID, locationID, excludeRouteID).
		Order("id").Find(&routes).Error
	return routes, err
}

// ReassignCoordinatesOwner promotes an already-referencing route to owner of
// a coordinates row. Promotion of a route that holds no reference fails with
// InvalidRebindTargetError.
func ReassignCoordinatesOwner(tx *gorm.DB, coordinatesID, newOwnerRouteID uint) error {
	var refs int64
	if err := tx.Model(&models.Route{}).
		Where("coordinates_id = ? AND id = ?", coordinatesID, newOwnerRouteID).
		Count(&refs).Error; err != nil {
		return err
	}
	if refs == 0 {
		return &apperrors.InvalidRebindTargetError{Relation: RelationCoordinates, TargetRouteID: newOwnerRouteID}
	}
	return tx.Model(&models.Coordinates{}).Where("id = ?", coordinatesID).
		Update("owner_route_id", newOwnerRouteID).Error
}

// ReassignLocationOwner promotes an already-referencing route to owner of a
// location row.
func ReassignLocationOwner(tx *gorm.DB, locationID, newOwnerRouteID uint, relation string) error {
	var refs int64
	if err := tx.Model(&models.Route{}).
		Where("(from_location_id = ? OR to_location_id = ?) AND id = ?", locationID, locationID, newOwnerRouteID).
		Count(&refs).Error; err != nil {
		return err
	}
	if refs == 0 {
		return &apperrors.InvalidRebindTargetError{Relation: relation, TargetRouteID: newOwnerRouteID}
	}
	return tx.Model(&models.Location{}).Where("id = ?", locationID).
		Update("owner_route_id", newOwnerRouteID).Error
}

// DetachCoordinates settles a coordinates row after the given route stopped
// referencing it: garbage-collect at zero remaining references, otherwise
// re-home ownership to the smallest-id surviving referent when the detaching
// route was the owner.
func DetachCoordinates(tx *gorm.DB, coordinatesID, detachedRouteID uint) error {
	var remaining int64
	if err := tx.Model(&models.Route{}).
		Where("coordinates_id = ?", coordinatesID).
		Count(&remaining).Error; err != nil {
		return err
	}
	if remaining == 0 {
		return tx.Delete(&models.Coordinates{}, coordinatesID).Error
	}

	var coords models.Coordinates
	if err := tx.First(&coords, coordinatesID).Error; err != nil {
		return err
	}
	if coords.OwnerRouteID == nil || *coords.OwnerRouteID != detachedRouteID {
		return nil
	}

	var successor models.Route
	if err := tx.Where("coordinates_id = ?", coordinatesID).
		Order("id").First(&successor).Error; err != nil {
		return err
	}
	return tx.Model(&models.Coordinates{}).Where("id = ?", coordinatesID).
		Update("owner_route_id", successor.ID).Error
}

// DetachLocation is the location counterpart of DetachCoordinates.
func DetachLocation(tx *gorm.DB, locationID, detachedRouteID uint) error {
	var remaining int64
	if err := tx.Model(&models.Route{}).
		Where("from_location_id = ? OR to_location_id = ?", locationID, locationID).
		Count(&remaining).Error; err != nil {
		return err
	}
	if remaining == 0 {
		return tx.Delete(&models.Location{}, locationID).Error
	}

	var loc models.Location
	if err := tx.First(&loc, locationID).Error; err != nil {
		return err
	}
	if loc.OwnerRouteID == nil || *loc.OwnerRouteID != detachedRouteID {
		return nil
	}

	var successor models.Route
	if err := tx.Where("from_location_id = ? OR to_location_id = ?", locationID, locationID).
		Order("id").First(&successor).Error; err != nil {
		return err
	}
	return tx.Model(&models.Location{}).Where("id = ?", locationID).
		Update("owner_route_id", successor.ID).Error
}

// claimCoordinates sets the initial owner of a freshly created value.
func claimCoordinates(tx *gorm.DB, coordinatesID, ownerRouteID uint) error {
	return tx.Model(&models.Coordinates{}).Where("id = ?", coordinatesID).
		Update("owner_route_id", ownerRouteID).Error
}

func claimLocation(tx *gorm.DB, locationID, ownerRouteID uint) error {
	return tx.Model(&models.Location{}).Where("id = ?", locationID).
		Update("owner_route_id", ownerRouteID).Error
}

// notFound maps gorm's sentinel to the typed taxonomy error.
func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperrors.NotFoundError{Entity: entity, ID: id}
	}
	return err
}
