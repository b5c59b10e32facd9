package services

import (
	"errors"
	"math"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"route_registry/internal/apperrors"
	"route_registry/internal/models"
)

// MaxCoordinateY is the upper bound for the coordinates y field.
const MaxCoordinateY = 807

// CoordinatesValue is a candidate coordinates value for resolution. No
// binding tags on the fields: zero is a legal value for y, so range and
// finiteness checks live in ValidateCoordinates instead.
type CoordinatesValue struct {
	X *float64 `json:"x"`
	Y float64  `json:"y"`
}

// LocationValue is a candidate location value for resolution.
type LocationValue struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Name *string `json:"name"`
}

// ResolveCoordinates returns the existing coordinates row matching the value,
// or creates one. The second return reports whether a new row was created (the
// caller then becomes its owner). Concurrent resolution of the same value is
// handled by the unique index: a lost insert race falls back to fetching the
// winner's row.
func ResolveCoordinates(tx *gorm.DB, value CoordinatesValue) (*models.Coordinates, bool, error) {
	if err := ValidateCoordinates(value); err != nil {
		return nil, false, err
	}

	if existing, err := findCoordinates(tx, value); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	created := models.Coordinates{X: value.X, Y: value.Y}
	if err := tx.Create(&created).Error; err != nil {
		if !isUniqueViolation(err) {
			return nil, false, err
		}
		// Lost the insert race; the equal row must exist now.
		existing, ferr := findCoordinates(tx, value)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return &created, true, nil
}

// ResolveLocation is the location counterpart of ResolveCoordinates. Equality
// is the exact (x, y, name) triple; nil and empty names are distinct.
func ResolveLocation(tx *gorm.DB, value LocationValue) (*models.Location, bool, error) {
	if err := ValidateLocation(value); err != nil {
		return nil, false, err
	}

	if existing, err := findLocation(tx, value); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	created := models.Location{X: value.X, Y: value.Y, Name: value.Name}
	if err := tx.Create(&created).Error; err != nil {
		if !isUniqueViolation(err) {
			return nil, false, err
		}
		existing, ferr := findLocation(tx, value)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return &created, true, nil
}

// ValidateCoordinates checks range and finiteness of a coordinates value.
func ValidateCoordinates(value CoordinatesValue) error {
	if value.X != nil && !isFinite(*value.X) {
		return apperrors.NewValidation("coordinates.x", "must be a finite number")
	}
	if !isFinite(value.Y) {
		return apperrors.NewValidation("coordinates.y", "must be a finite number")
	}
	if value.Y > MaxCoordinateY {
		return apperrors.NewValidation("coordinates.y", "must not exceed %d", MaxCoordinateY)
	}
	return nil
}

// ValidateLocation checks finiteness of a location value.
func ValidateLocation(value LocationValue) error {
	if !isFinite(value.X) {
		return apperrors.NewValidation("location.x", "must be a finite number")
	}
	if !isFinite(value.Y) {
		return apperrors.NewValidation("location.y", "must be a finite number")
	}
	return nil
}

func findCoordinates(tx *gorm.DB, value CoordinatesValue) (*models.Coordinates, error) {
	var existing models.Coordinates
	query := tx.Where("y = ?", value.Y)
	if value.X == nil {
		query = query.Where("x IS NULL")
	} else {
		query = query.Where("x = ?", *value.X)
	}
	err := query.Order("id").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func findLocation(tx *gorm.DB, value LocationValue) (*models.Location, error) {
	var existing models.Location
	query := tx.Where("x = ? AND y = ?", value.X, value.Y)
	if value.Name == nil {
		query = query.Where("name IS NULL")
	} else {
		query = query.Where("name = ?", *value.Name)
	}
	err := query.Order("id").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// isUniqueViolation recognizes unique-constraint failures across drivers:
// gorm's translated sentinel plus the raw Postgres error code.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
