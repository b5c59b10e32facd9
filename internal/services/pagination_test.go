package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"route_registry/internal/apperrors"
	"route_registry/internal/models"
)

func seedRoutes(t *testing.T, db *gorm.DB, count int) []models.Route {
	t.Helper()
	routes := make([]models.Route, 0, count)
	for i := 1; i <= count; i++ {
		draft := draftFixture(fmt.Sprintf("Stop %02d", i))
		draft.Distance = int64(10 + i)
		route, err := CreateRoute(db, draft)
		require.NoError(t, err)
		routes = append(routes, *route)
	}
	return routes
}

func contentIDs(page *RoutePage) []uint {
	ids := make([]uint, len(page.Content))
	for i, r := range page.Content {
		ids[i] = r.ID
	}
	return ids
}

func TestPageRoutesWalkForwardAndBack(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedRoutes(t, db, 7)

	first, err := PageRoutes(db, "", "id", "asc", "", 3, "")
	require.NoError(t, err)
	assert.Equal(t, []uint{seeded[0].ID, seeded[1].ID, seeded[2].ID}, contentIDs(first))
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrev)
	assert.Nil(t, first.PrevCursor)
	assert.EqualValues(t, 7, first.TotalCount)
	require.NotNil(t, first.NextCursor)

	second, err := PageRoutes(db, "", "id", "asc", *first.NextCursor, 3, NavNext)
	require.NoError(t, err)
	assert.Equal(t, []uint{seeded[3].ID, seeded[4].ID, seeded[5].ID}, contentIDs(second))
	assert.True(t, second.HasNext)
	assert.True(t, second.HasPrev)
	require.NotNil(t, second.NextCursor)

	third, err := PageRoutes(db, "", "id", "asc", *second.NextCursor, 3, NavNext)
	require.NoError(t, err)
	assert.Equal(t, []uint{seeded[6].ID}, contentIDs(third))
	assert.False(t, third.HasNext)
	assert.True(t, third.HasPrev)
	require.NotNil(t, third.PrevCursor)

	// Walking back from the last page reproduces the middle page in order.
	back, err := PageRoutes(db, "", "id", "asc", *third.PrevCursor, 3, NavPrev)
	require.NoError(t, err)
	assert.Equal(t, contentIDs(second), contentIDs(back))
	assert.True(t, back.HasNext)
	assert.True(t, back.HasPrev)
}

func TestPageRoutesFullRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	seedRoutes(t, db, 10)

	// Forward walk to the last page.
	var forward []*RoutePage
	page, err := PageRoutes(db, "", "id", "asc", "", 3, "")
	require.NoError(t, err)
	forward = append(forward, page)
	for page.HasNext {
		require.NotNil(t, page.NextCursor)
		page, err = PageRoutes(db, "", "id", "asc", *page.NextCursor, 3, NavNext)
		require.NoError(t, err)
		forward = append(forward, page)
	}
	require.Len(t, forward, 4)

	// Walking prev from the last page reproduces every forward page in
	// reverse order and terminates on the first page.
	back := forward[len(forward)-1]
	for i := len(forward) - 2; i >= 0; i-- {
		require.True(t, back.HasPrev)
		require.NotNil(t, back.PrevCursor)
		back, err = PageRoutes(db, "", "id", "asc", *back.PrevCursor, 3, NavPrev)
		require.NoError(t, err)
		assert.Equal(t, contentIDs(forward[i]), contentIDs(back))
	}
	assert.False(t, back.HasPrev)
	assert.True(t, back.HasNext)
}

func TestPageRoutesDescendingByDistance(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedRoutes(t, db, 5)

	first, err := PageRoutes(db, "", "distance", "desc", "", 2, "")
	require.NoError(t, err)
	assert.Equal(t, []uint{seeded[4].ID, seeded[3].ID}, contentIDs(first))
	require.NotNil(t, first.NextCursor)

	second, err := PageRoutes(db, "", "distance", "desc", *first.NextCursor, 2, NavNext)
	require.NoError(t, err)
	assert.Equal(t, []uint{seeded[2].ID, seeded[1].ID}, contentIDs(second))
	assert.True(t, second.HasNext)
}

func TestPageRoutesCursorSortMismatch(t *testing.T) {
	db := setupTestDB(t)
	seedRoutes(t, db, 3)

	first, err := PageRoutes(db, "", "name", "asc", "", 2, "")
	require.NoError(t, err)
	require.NotNil(t, first.NextCursor)

	_, err = PageRoutes(db, "", "distance", "asc", *first.NextCursor, 2, NavNext)
	var invalid *apperrors.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)

	_, err = PageRoutes(db, "", "name", "desc", *first.NextCursor, 2, NavNext)
	require.ErrorAs(t, err, &invalid)
}

func TestPageRoutesRejectsBadInput(t *testing.T) {
	db := setupTestDB(t)

	var invalid *apperrors.InvalidArgumentError

	_, err := PageRoutes(db, "", "id", "asc", "", 0, "")
	require.ErrorAs(t, err, &invalid)

	_, err = PageRoutes(db, "", "id", "asc", "not-a-cursor!!", 2, NavNext)
	require.ErrorAs(t, err, &invalid)

	_, err = PageRoutes(db, "", "id", "asc", "", 2, "backwards")
	require.ErrorAs(t, err, &invalid)
}

func TestDecodeCursorRoundTrip(t *testing.T) {
	original := Cursor{SortField: "name", SortValue: "Stop 03", ID: 3, SortDirection: "ASC"}
	decoded, err := DecodeCursor(original.Encode())
	require.NoError(t, err)
	assert.Equal(t, original, *decoded)
}
