package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"route_registry/internal/config"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "registry.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

// draftFixture builds a valid draft with distinct endpoints. Callers tweak
// the fields they are testing.
func draftFixture(name string) RouteDraft {
	return RouteDraft{
		Name:        name,
		Distance:    12,
		Rating:      4,
		Coordinates: CoordinatesValue{X: floatPtr(10), Y: 20},
		From:        LocationValue{X: 0, Y: 0, Name: strPtr("Alpha Station")},
		To:          LocationValue{X: 30, Y: 40, Name: strPtr("Beta Station")},
	}
}
