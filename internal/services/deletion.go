package services

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"route_registry/internal/apperrors"
	"route_registry/internal/models"
)

// DependencyReport is the read-only dependency check for a delete candidate:
// per-relation usage counts (excluding the candidate's own reference) and the
// rebind candidates a caller may choose from, per relation independently.
type DependencyReport struct {
	Route models.Route `json:"route"`

	CoordinatesUsageCount  int64 `json:"coordinates_usage_count"`
	FromLocationUsageCount int64 `json:"from_location_usage_count"`
	ToLocationUsageCount   int64 `json:"to_location_usage_count"`

	NeedsCoordinatesRebind  bool `json:"needs_coordinates_rebind"`
	NeedsFromLocationRebind bool `json:"needs_from_location_rebind"`
	NeedsToLocationRebind   bool `json:"needs_to_location_rebind"`

	CoordinatesCandidates  []models.Route `json:"coordinates_candidates"`
	FromLocationCandidates []models.Route `json:"from_location_candidates"`
	ToLocationCandidates   []models.Route `json:"to_location_candidates"`
}

// NeedsRebind reports whether any relation requires a rebind target before
// the route can be deleted.
func (r *DependencyReport) NeedsRebind() bool {
	return r.NeedsCoordinatesRebind || r.NeedsFromLocationRebind || r.NeedsToLocationRebind
}

// RebindPlan names the target route per relation that needs one. Targets for
// relations that do not need rebinding are ignored.
type RebindPlan struct {
	CoordinatesTargetRouteID  *uint `json:"coordinates_target_route_id"`
	FromLocationTargetRouteID *uint `json:"from_location_target_route_id"`
	ToLocationTargetRouteID   *uint `json:"to_location_target_route_id"`
}

// CheckDependencies computes the dependency report for a delete candidate.
func CheckDependencies(db *gorm.DB, routeID uint) (*DependencyReport, error) {
	route, err := GetRoute(db, routeID)
	if err != nil {
		return nil, err
	}
	return buildReport(db, route)
}

func buildReport(db *gorm.DB, route *models.Route) (*DependencyReport, error) {
	report := &DependencyReport{Route: *route}
	var err error

	report.CoordinatesUsageCount, err = CoordinatesUsageExcluding(db, route.CoordinatesID, route.ID)
	if err != nil {
		return nil, err
	}
	report.FromLocationUsageCount, err = LocationUsageExcluding(db, route.FromLocationID, route.ID)
	if err != nil {
		return nil, err
	}
	report.ToLocationUsageCount, err = LocationUsageExcluding(db, route.ToLocationID, route.ID)
	if err != nil {
		return nil, err
	}

	// Rebinding is only required where this route owns a still-shared object.
	report.NeedsCoordinatesRebind = report.CoordinatesUsageCount > 0 && ownsRoute(route.Coordinates.OwnerRouteID, route.ID)
	report.NeedsFromLocationRebind = report.FromLocationUsageCount > 0 && ownsRoute(route.From.OwnerRouteID, route.ID)
	report.NeedsToLocationRebind = report.ToLocationUsageCount > 0 && ownsRoute(route.To.OwnerRouteID, route.ID)

	if report.CoordinatesUsageCount > 0 {
		report.CoordinatesCandidates, err = RoutesReferencingCoordinates(db, route.CoordinatesID, route.ID)
		if err != nil {
			return nil, err
		}
	}
	if report.FromLocationUsageCount > 0 {
		report.FromLocationCandidates, err = RoutesReferencingLocation(db, route.FromLocationID, route.ID)
		if err != nil {
			return nil, err
		}
	}
	if report.ToLocationUsageCount > 0 {
		report.ToLocationCandidates, err = RoutesReferencingLocation(db, route.ToLocationID, route.ID)
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}

func ownsRoute(ownerRouteID *uint, routeID uint) bool {
	return ownerRouteID != nil && *ownerRouteID == routeID
}

// DeleteRoute removes a route through the resolver state machine: inspect,
// classify, validate the full rebind plan, then commit rebinds, the row
// delete and sub-object garbage collection in one transaction. A missing or
// invalid rebind target fails the whole operation before any mutation.
func DeleteRoute(db *gorm.DB, routeID uint, plan RebindPlan) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		route, err := GetRoute(tx, routeID)
		if err != nil {
			return err
		}
		report, err := buildReport(tx, route)
		if err != nil {
			return err
		}

		// Validate-all-then-commit: every required target must be present
		// and must actually reference the object it is taking over.
		if report.NeedsCoordinatesRebind && plan.CoordinatesTargetRouteID == nil {
			return &apperrors.MissingRebindTargetError{Relation: RelationCoordinates}
		}
		if report.NeedsFromLocationRebind && plan.FromLocationTargetRouteID == nil {
			return &apperrors.MissingRebindTargetError{Relation: RelationFromLocation}
		}
		if report.NeedsToLocationRebind && plan.ToLocationTargetRouteID == nil {
			return &apperrors.MissingRebindTargetError{Relation: RelationToLocation}
		}

		if report.NeedsCoordinatesRebind {
			if err := ReassignCoordinatesOwner(tx, route.CoordinatesID, *plan.CoordinatesTargetRouteID); err != nil {
				return err
			}
		}
		if report.NeedsFromLocationRebind {
			if err := ReassignLocationOwner(tx, route.FromLocationID, *plan.FromLocationTargetRouteID, RelationFromLocation); err != nil {
				return err
			}
		}
		if report.NeedsToLocationRebind {
			if err := ReassignLocationOwner(tx, route.ToLocationID, *plan.ToLocationTargetRouteID, RelationToLocation); err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Route{}, routeID).Error; err != nil {
			return err
		}

		// The route's references are gone; settle each sub-object.
		if err := DetachCoordinates(tx, route.CoordinatesID, routeID); err != nil {
			return err
		}
		if err := DetachLocation(tx, route.FromLocationID, routeID); err != nil {
			return err
		}
		if err := DetachLocation(tx, route.ToLocationID, routeID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithField("route_id", routeID).Info("route deleted")
	return nil
}
