package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"gorm.io/gorm"

	"route_registry/internal/apperrors"
	"route_registry/internal/models"
)

// RouteDraft carries the caller-supplied values for creating or updating a
// route. Sub-objects are given by value; resolution against existing shared
// rows happens inside the operation.
type RouteDraft struct {
	Name        string           `json:"name" binding:"required"`
	Distance    int64            `json:"distance" binding:"required"`
	Rating      int64            `json:"rating" binding:"required"`
	Coordinates CoordinatesValue `json:"coordinates" binding:"required"`
	From        LocationValue    `json:"from" binding:"required"`
	To          LocationValue    `json:"to" binding:"required"`
}

var routeNamePattern = regexp.MustCompile(`^[\p{L}\p{N} _-]+$`)

// Endpoints closer than this are considered the same point.
const zeroDistanceEpsilon = 1e-6

// ValidateDraft checks all field-level rules of a route draft.
func ValidateDraft(draft RouteDraft) error {
	name := strings.TrimSpace(draft.Name)
	if utf8.RuneCountInString(name) < 1 || utf8.RuneCountInString(name) > 100 {
		return apperrors.NewValidation("name", "must be between 1 and 100 characters")
	}
	if !routeNamePattern.MatchString(name) {
		return apperrors.NewValidation("name", "may only contain letters, digits, spaces, underscores and hyphens")
	}
	if draft.Distance < 2 {
		return apperrors.NewValidation("distance", "must be at least 2")
	}
	if draft.Rating < 1 {
		return apperrors.NewValidation("rating", "must be at least 1")
	}
	if err := ValidateCoordinates(draft.Coordinates); err != nil {
		return err
	}
	if err := ValidateLocation(draft.From); err != nil {
		return err
	}
	if err := ValidateLocation(draft.To); err != nil {
		return err
	}
	return validateNonZeroDistance(draft.From, draft.To)
}

// validateNonZeroDistance rejects drafts whose endpoints coincide: a positive
// route distance over a zero-length segment is a contradiction the caller
// must surface distinctly from generic validation.
func validateNonZeroDistance(from, to LocationValue) error {
	d := xy.Distance(geom.Coord{from.X, from.Y}, geom.Coord{to.X, to.Y})
	if d < zeroDistanceEpsilon {
		return &apperrors.ZeroDistanceRouteError{FromX: from.X, FromY: from.Y, ToX: to.X, ToY: to.Y}
	}
	return nil
}

// CreateRoute validates the draft and creates the route together with its
// resolved sub-objects in one transaction.
func CreateRoute(db *gorm.DB, draft RouteDraft) (*models.Route, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}

	var created *models.Route
	err := db.Transaction(func(tx *gorm.DB) error {
		route, err := createRouteInTx(tx, draft)
		if err != nil {
			return err
		}
		created = route
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"route_id": created.ID, "name": created.Name}).Info("route created")
	return GetRoute(db, created.ID)
}

// createRouteInTx is the shared create path used by CreateRoute and the bulk
// import pipeline. The caller owns the transaction and pre-validation.
func createRouteInTx(tx *gorm.DB, draft RouteDraft) (*models.Route, error) {
	name := strings.TrimSpace(draft.Name)

	if err := checkNameFree(tx, name, 0); err != nil {
		return nil, err
	}

	coords, coordsCreated, err := ResolveCoordinates(tx, draft.Coordinates)
	if err != nil {
		return nil, err
	}
	from, fromCreated, err := ResolveLocation(tx, draft.From)
	if err != nil {
		return nil, err
	}
	to, toCreated, err := ResolveLocation(tx, draft.To)
	if err != nil {
		return nil, err
	}
	if from.ID == to.ID {
		return nil, apperrors.NewValidation("to", "must differ from the from location")
	}

	route := models.Route{
		Name:           name,
		Distance:       draft.Distance,
		Rating:         draft.Rating,
		CoordinatesID:  coords.ID,
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
	}
	if err := tx.Create(&route).Error; err != nil {
		if isUniqueViolation(err) {
			// Concurrent create with the same name won the race.
			return nil, duplicateName(tx, name, 0)
		}
		return nil, err
	}

	// A freshly created value is owned by the route that caused it.
	if coordsCreated {
		if err := claimCoordinates(tx, coords.ID, route.ID); err != nil {
			return nil, err
		}
	}
	if fromCreated {
		if err := claimLocation(tx, from.ID, route.ID); err != nil {
			return nil, err
		}
	}
	if toCreated {
		if err := claimLocation(tx, to.ID, route.ID); err != nil {
			return nil, err
		}
	}
	return &route, nil
}

// UpdateRoute applies a full draft to an existing route. Changed sub-object
// references are resolved anew; the old objects are detached, with ownership
// re-homed or the row garbage-collected as needed.
func UpdateRoute(db *gorm.DB, id uint, draft RouteDraft) (*models.Route, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var route models.Route
		if err := tx.First(&route, id).Error; err != nil {
			return notFound(err, "route", id)
		}

		name := strings.TrimSpace(draft.Name)
		if err := checkNameFree(tx, name, id); err != nil {
			return err
		}

		coords, coordsCreated, err := ResolveCoordinates(tx, draft.Coordinates)
		if err != nil {
			return err
		}
		from, fromCreated, err := ResolveLocation(tx, draft.From)
		if err != nil {
			return err
		}
		to, toCreated, err := ResolveLocation(tx, draft.To)
		if err != nil {
			return err
		}
		if from.ID == to.ID {
			return apperrors.NewValidation("to", "must differ from the from location")
		}

		oldCoordsID := route.CoordinatesID
		oldFromID := route.FromLocationID
		oldToID := route.ToLocationID

		updates := map[string]interface{}{
			"name":             name,
			"distance":         draft.Distance,
			"rating":           draft.Rating,
			"coordinates_id":   coords.ID,
			"from_location_id": from.ID,
			"to_location_id":   to.ID,
		}
		if err := tx.Model(&models.Route{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return duplicateName(tx, name, id)
			}
			return err
		}

		if coordsCreated {
			if err := claimCoordinates(tx, coords.ID, id); err != nil {
				return err
			}
		}
		if fromCreated {
			if err := claimLocation(tx, from.ID, id); err != nil {
				return err
			}
		}
		if toCreated {
			if err := claimLocation(tx, to.ID, id); err != nil {
				return err
			}
		}

		// Settle the references this route no longer holds.
		if oldCoordsID != coords.ID {
			if err := DetachCoordinates(tx, oldCoordsID, id); err != nil {
				return err
			}
		}
		if oldFromID != from.ID && oldFromID != to.ID {
			if err := DetachLocation(tx, oldFromID, id); err != nil {
				return err
			}
		}
		if oldToID != to.ID && oldToID != from.ID && oldToID != oldFromID {
			if err := DetachLocation(tx, oldToID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("route_id", id).Info("route updated")
	return GetRoute(db, id)
}

// GetRoute loads a route with its sub-objects.
func GetRoute(db *gorm.DB, id uint) (*models.Route, error) {
	var route models.Route
	err := db.Preload("Coordinates").Preload("From").Preload("To").First(&route, id).Error
	if err != nil {
		return nil, notFound(err, "route", id)
	}
	return &route, nil
}

// checkNameFree fails with DuplicateNameError when another route (excluding
// excludeID) already carries the name. The unique index backs this up under
// concurrency.
func checkNameFree(tx *gorm.DB, name string, excludeID uint) error {
	var existing models.Route
	err := tx.Where("name = ? AND id <> ?", name, excludeID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return &apperrors.DuplicateNameError{Name: name, Conflicting: &existing}
}

// duplicateName builds the taxonomy error after a constraint race, fetching
// the conflicting route when it can still be found.
func duplicateName(tx *gorm.DB, name string, excludeID uint) error {
	var conflicting models.Route
	err := tx.Where("name = ? AND id <> ?", name, excludeID).First(&conflicting).Error
	if err != nil {
		return &apperrors.DuplicateNameError{Name: name}
	}
	return &apperrors.DuplicateNameError{Name: name, Conflicting: &conflicting}
}

// Sortable route columns, keyed by the caller-facing sort name.
var routeSortColumns = map[string]string{
	"id":            "id",
	"name":          "name",
	"distance":      "distance",
	"rating":        "rating",
	"creation_date": "creation_date",
}

func sortColumn(sortBy string) (string, error) {
	if sortBy == "" {
		return "id", nil
	}
	col, ok := routeSortColumns[strings.ToLower(sortBy)]
	if !ok {
		return "", apperrors.NewInvalidArgument("unsupported sort column %q", sortBy)
	}
	return col, nil
}

func sortDirection(direction string) (string, error) {
	switch strings.ToLower(direction) {
	case "", "asc":
		return "ASC", nil
	case "desc":
		return "DESC", nil
	default:
		return "", apperrors.NewInvalidArgument("unsupported sort direction %q", direction)
	}
}

// ListFiltered returns routes matching a case-insensitive name substring,
// ordered by the requested column with id as the deterministic tie-break.
func ListFiltered(db *gorm.DB, nameSubstring, sortBy, direction string) ([]models.Route, error) {
	col, err := sortColumn(sortBy)
	if err != nil {
		return nil, err
	}
	dir, err := sortDirection(direction)
	if err != nil {
		return nil, err
	}

	query := db.Preload("Coordinates").Preload("From").Preload("To")
	query = applyNameFilter(query, nameSubstring)

	order := fmt.Sprintf("%s %s", col, dir)
	if col != "id" {
		order += fmt.Sprintf(", id %s", dir)
	}

	var routes []models.Route
	if err := query.Order(order).Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}

func applyNameFilter(query *gorm.DB, nameSubstring string) *gorm.DB {
	trimmed := strings.TrimSpace(nameSubstring)
	if trimmed == "" {
		return query
	}
	return query.Where("LOWER(name) LIKE LOWER(?)", "%"+trimmed+"%")
}

// ListPaged is the offset/limit flavor of ListFiltered for callers that ask
// for classic page numbers instead of cursors.
func ListPaged(db *gorm.DB, nameSubstring, sortBy, direction string, page, size int) ([]models.Route, int64, error) {
	if page < 0 || size < 1 {
		return nil, 0, apperrors.NewInvalidArgument("page must be >= 0 and size >= 1")
	}
	col, err := sortColumn(sortBy)
	if err != nil {
		return nil, 0, err
	}
	dir, err := sortDirection(direction)
	if err != nil {
		return nil, 0, err
	}

	total, err := CountFiltered(db, nameSubstring)
	if err != nil {
		return nil, 0, err
	}

	order := fmt.Sprintf("%s %s", col, dir)
	if col != "id" {
		order += fmt.Sprintf(", id %s", dir)
	}

	var routes []models.Route
	query := applyNameFilter(db.Preload("Coordinates").Preload("From").Preload("To"), nameSubstring)
	err = query.Order(order).Offset(page * size).Limit(size).Find(&routes).Error
	return routes, total, err
}

// CountFiltered counts routes under the same filter as ListFiltered.
func CountFiltered(db *gorm.DB, nameSubstring string) (int64, error) {
	var count int64
	err := applyNameFilter(db.Model(&models.Route{}), nameSubstring).Count(&count).Error
	return count, err
}

// MaxNameRoute returns the route with the lexicographically greatest name,
// or nil when the registry is empty.
func MaxNameRoute(db *gorm.DB) (*models.Route, error) {
	var route models.Route
	err := db.Preload("Coordinates").Preload("From").Preload("To").
		Order("name DESC, id ASC").First(&route).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// CountRatingBelow counts routes with rating strictly below the threshold.
func CountRatingBelow(db *gorm.DB, threshold int64) (int64, error) {
	var count int64
	err := db.Model(&models.Route{}).Where("rating < ?", threshold).Count(&count).Error
	return count, err
}

// RoutesRatingAbove lists routes with rating strictly above the threshold.
func RoutesRatingAbove(db *gorm.DB, threshold int64) ([]models.Route, error) {
	var routes []models.Route
	err := db.Preload("Coordinates").Preload("From").Preload("To").
		Where("rating > ?", threshold).
		Order("rating DESC, id ASC").Find(&routes).Error
	return routes, err
}

var coordinatePairPattern = regexp.MustCompile(`^\(\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*\)$`)

// RoutesBetweenLocations lists routes whose endpoints match the two given
// descriptors, as the literal from/to pair only (no implicit symmetry). A
// descriptor is a location name, or a "(x, y)" pair to match by position.
func RoutesBetweenLocations(db *gorm.DB, fromDescriptor, toDescriptor, sortBy string) ([]models.Route, error) {
	query := db.Preload("Coordinates").Preload("From").Preload("To").
		Joins("JOIN locations AS from_loc ON from_loc.id = routes.from_location_id").
		Joins("JOIN locations AS to_loc ON to_loc.id = routes.to_location_id")

	query = applyLocationDescriptor(query, "from_loc", fromDescriptor)
	query = applyLocationDescriptor(query, "to_loc", toDescriptor)

	switch strings.ToLower(sortBy) {
	case "distance":
		query = query.Order("routes.distance ASC, routes.id ASC")
	case "rating":
		query = query.Order("routes.rating DESC, routes.id ASC")
	case "creation_date":
		query = query.Order("routes.creation_date DESC, routes.id ASC")
	default:
		query = query.Order("routes.name ASC, routes.id ASC")
	}

	var routes []models.Route
	err := query.Find(&routes).Error
	return routes, err
}

func applyLocationDescriptor(query *gorm.DB, alias, descriptor string) *gorm.DB {
	trimmed := strings.TrimSpace(descriptor)
	if trimmed == "" {
		return query
	}
	if m := coordinatePairPattern.FindStringSubmatch(trimmed); m != nil {
		x, errX := strconv.ParseFloat(m[1], 64)
		y, errY := strconv.ParseFloat(m[2], 64)
		if errX == nil && errY == nil {
			return query.Where(fmt.Sprintf("%s.x = ? AND %s.y = ?", alias, alias), x, y)
		}
	}
	return query.Where(fmt.Sprintf("%s.name = ?", alias), trimmed)
}

// AllCoordinates lists every coordinates value currently in the store.
func AllCoordinates(db *gorm.DB) ([]models.Coordinates, error) {
	var values []models.Coordinates
	err := db.Order("id").Find(&values).Error
	return values, err
}

// AllLocations lists every location value currently in the store.
func AllLocations(db *gorm.DB) ([]models.Location, error) {
	var values []models.Location
	err := db.Order("id").Find(&values).Error
	return values, err
}

// DistinctLocationNames lists the distinct non-null location names.
func DistinctLocationNames(db *gorm.DB) ([]string, error) {
	var names []string
	err := db.Model(&models.Location{}).
		Where("name IS NOT NULL").
		Distinct("name").Order("name").Pluck("name", &names).Error
	return names, err
}
