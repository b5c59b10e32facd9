package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route_registry/internal/apperrors"
	"route_registry/internal/models"
)

const importHeader = "name,coordinates_x,coordinates_y,from_x,from_y,from_name,to_x,to_y,to_name,distance,rating\n"

func TestImportRoutesSuccess(t *testing.T) {
	db := setupTestDB(t)

	content := importHeader +
		"City Loop,10,20,0,0,Alpha,30,40,Beta,12,4\n" +
		"Night Line,10,20,0,0,Alpha,70,80,Gamma,25,7\n"

	op, err := ImportRoutes(db, "alice", "routes.csv", content)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusSuccess, op.Status)
	assert.Equal(t, 2, op.TotalRecords)
	assert.Equal(t, 2, op.SuccessfulRecords)
	require.NotNil(t, op.EndTime)
	require.NotNil(t, op.FileKey)
	require.NotNil(t, op.FileSize)
	assert.EqualValues(t, len(content), *op.FileSize)

	var routeCount int64
	require.NoError(t, db.Model(&models.Route{}).Count(&routeCount).Error)
	assert.EqualValues(t, 2, routeCount)

	// Equal values across records collapse into shared rows.
	var coordCount int64
	require.NoError(t, db.Model(&models.Coordinates{}).Count(&coordCount).Error)
	assert.EqualValues(t, 1, coordCount)
	var locCount int64
	require.NoError(t, db.Model(&models.Location{}).Count(&locCount).Error)
	assert.EqualValues(t, 3, locCount)
}

func TestImportRoutesAbortsOnAnyBadRecord(t *testing.T) {
	db := setupTestDB(t)

	content := importHeader +
		"Good Line,10,20,0,0,Alpha,30,40,Beta,12,4\n" +
		"Bad Line,10,20,0,0,Alpha,70,80,Gamma,25,0\n"

	op, err := ImportRoutes(db, "alice", "routes.csv", content)
	var aborted *apperrors.ImportAbortedError
	require.ErrorAs(t, err, &aborted)
	require.NotNil(t, op)
	assert.Equal(t, op.ID, aborted.OperationID)
	assert.Equal(t, models.ImportStatusFailed, op.Status)

	require.Len(t, aborted.Errors, 1)
	assert.Contains(t, aborted.Errors[0], "line 3")

	// The failed operation records the same line-indexed errors.
	var recorded []string
	require.NoError(t, json.Unmarshal(op.Errors, &recorded))
	assert.Equal(t, aborted.Errors, recorded)

	// All-or-nothing: the good record was not committed either.
	var routeCount int64
	require.NoError(t, db.Model(&models.Route{}).Count(&routeCount).Error)
	assert.Zero(t, routeCount)
}

func TestImportRoutesRejectsDuplicateWithinBatch(t *testing.T) {
	db := setupTestDB(t)

	content := importHeader +
		"City Loop,10,20,0,0,Alpha,30,40,Beta,12,4\n" +
		"City Loop,10,20,0,0,Alpha,70,80,Gamma,25,7\n"

	_, err := ImportRoutes(db, "alice", "routes.csv", content)
	var aborted *apperrors.ImportAbortedError
	require.ErrorAs(t, err, &aborted)
	require.Len(t, aborted.Errors, 1)
	assert.Contains(t, aborted.Errors[0], "line 3")
}

func TestImportRoutesNameUniquenessIsCaseSensitive(t *testing.T) {
	db := setupTestDB(t)

	// Names differing only in case are distinct, matching the unique index
	// and the single-create path.
	content := importHeader +
		"City Loop,10,20,0,0,Alpha,30,40,Beta,12,4\n" +
		"city loop,10,20,0,0,Alpha,70,80,Gamma,25,7\n"

	op, err := ImportRoutes(db, "alice", "routes.csv", content)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusSuccess, op.Status)

	var routeCount int64
	require.NoError(t, db.Model(&models.Route{}).Count(&routeCount).Error)
	assert.EqualValues(t, 2, routeCount)
}

func TestImportRoutesRejectsDuplicateAgainstExisting(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateRoute(db, draftFixture("City Loop"))
	require.NoError(t, err)

	content := importHeader +
		"City Loop,10,20,0,0,Alpha,30,40,Beta,12,4\n"

	_, err = ImportRoutes(db, "alice", "routes.csv", content)
	var aborted *apperrors.ImportAbortedError
	require.ErrorAs(t, err, &aborted)

	var routeCount int64
	require.NoError(t, db.Model(&models.Route{}).Count(&routeCount).Error)
	assert.EqualValues(t, 1, routeCount)
}

func TestImportRoutesRejectsBadHeader(t *testing.T) {
	db := setupTestDB(t)

	content := "title,x,y\nCity Loop,1,2\n"
	op, err := ImportRoutes(db, "alice", "routes.csv", content)
	var aborted *apperrors.ImportAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, models.ImportStatusFailed, op.Status)
}

func TestImportRoutesParsesOptionalFields(t *testing.T) {
	db := setupTestDB(t)

	// Empty coordinates_x and empty location names stay null.
	content := importHeader +
		"Sparse Line,,20,0,0,,30,40,,12,4\n"

	_, err := ImportRoutes(db, "alice", "routes.csv", content)
	require.NoError(t, err)

	var coords models.Coordinates
	require.NoError(t, db.First(&coords).Error)
	assert.Nil(t, coords.X)

	var locations []models.Location
	require.NoError(t, db.Find(&locations).Error)
	require.Len(t, locations, 2)
	for _, loc := range locations {
		assert.Nil(t, loc.Name)
	}
}

func TestImportHistoryAndStats(t *testing.T) {
	db := setupTestDB(t)

	okContent := importHeader + "First Line,10,20,0,0,Alpha,30,40,Beta,12,4\n"
	_, err := ImportRoutes(db, "alice", "first.csv", okContent)
	require.NoError(t, err)

	badContent := importHeader + "Second Line,10,20,0,0,Alpha,70,80,Gamma,25,0\n"
	_, err = ImportRoutes(db, "alice", "second.csv", badContent)
	require.Error(t, err)

	otherContent := importHeader + "Other Line,10,20,0,0,Alpha,30,40,Beta,12,4\n"
	_, err = ImportRoutes(db, "bob", "other.csv", otherContent)
	require.NoError(t, err)

	ops, total, err := ImportHistory(db, "alice", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, ops, 2)
	for _, op := range ops {
		assert.Equal(t, "alice", op.Username)
	}

	stats, err := ImportStatsFor(db, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalOperations)
	assert.EqualValues(t, 1, stats.SuccessfulOperations)
	assert.EqualValues(t, 1, stats.FailedOperations)

	detail, err := ImportOperationDetail(db, ops[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ops[0].ID, detail.ID)

	_, err = ImportOperationDetail(db, 9999)
	var missing *apperrors.NotFoundError
	require.ErrorAs(t, err, &missing)
}
