package services

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"route_registry/internal/apperrors"
	"route_registry/internal/models"
)

// Navigation directions for cursor paging.
const (
	NavNext = "next"
	NavPrev = "prev"
)

// Cursor is the composite pagination boundary: the sort column value and the
// id of the last-seen row, plus the sort settings it was issued under. It
// travels base64(JSON)-encoded and is opaque to callers.
type Cursor struct {
	SortField     string `json:"sortField"`
	SortValue     string `json:"sortValue"`
	ID            uint   `json:"id"`
	SortDirection string `json:"sortDirection"`
}

// Encode serializes the cursor into its opaque wire form.
func (c Cursor) Encode() string {
	raw, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque cursor token. A malformed token fails with
// InvalidArgumentError.
func DecodeCursor(encoded string) (*Cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, apperrors.NewInvalidArgument("invalid cursor format")
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, apperrors.NewInvalidArgument("invalid cursor format")
	}
	return &cursor, nil
}

// RoutePage is one bounded, order-stable page of routes.
type RoutePage struct {
	Content    []models.Route `json:"content"`
	NextCursor *string        `json:"next_cursor"`
	PrevCursor *string        `json:"prev_cursor"`
	HasNext    bool           `json:"has_next"`
	HasPrev    bool           `json:"has_prev"`
	TotalCount int64          `json:"total_count"`
}

// PageRoutes fetches one page of routes relative to an optional cursor.
// The comparison predicate (sortValue, id) > cursor keeps the walk free of
// duplicates and skips regardless of concurrent inserts or deletes around
// the boundary; totalCount comes from a separate count query and may drift
// under concurrent writes.
func PageRoutes(db *gorm.DB, nameFilter, sortBy, direction string, encodedCursor string, pageSize int, navDirection string) (*RoutePage, error) {
	if pageSize < 1 {
		return nil, apperrors.NewInvalidArgument("page size must be at least 1, got %d", pageSize)
	}
	col, err := sortColumn(sortBy)
	if err != nil {
		return nil, err
	}
	dir, err := sortDirection(direction)
	if err != nil {
		return nil, err
	}
	nav := strings.ToLower(navDirection)
	if nav == "" {
		nav = NavNext
	}
	if nav != NavNext && nav != NavPrev {
		return nil, apperrors.NewInvalidArgument("navigation must be %q or %q", NavNext, NavPrev)
	}

	var cursor *Cursor
	if strings.TrimSpace(encodedCursor) != "" {
		cursor, err = DecodeCursor(encodedCursor)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(cursor.SortField, col) || !strings.EqualFold(cursor.SortDirection, dir) {
			return nil, apperrors.NewInvalidArgument("cursor was issued under a different sort order")
		}
	}

	totalCount, err := CountFiltered(db, nameFilter)
	if err != nil {
		return nil, err
	}

	// prev from the first page is a no-op: serve the first page.
	if cursor == nil {
		return firstPage(db, nameFilter, col, dir, pageSize, totalCount)
	}

	query := applyNameFilter(db.Preload("Coordinates").Preload("From").Preload("To"), nameFilter)

	predicate, args, err := cursorPredicate(col, dir, nav, cursor)
	if err != nil {
		return nil, err
	}
	query = query.Where(predicate, args...)

	// For prev pages the scan runs in inverted order and is flipped back.
	orderDir := dir
	if nav == NavPrev {
		orderDir = invertDirection(dir)
	}
	query = query.Order(orderClause(col, orderDir)).Limit(pageSize + 1)

	var rows []models.Route
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	if nav == NavPrev {
		reverseRoutes(rows)
	}

	page := &RoutePage{Content: rows, TotalCount: totalCount}
	if nav == NavNext {
		page.HasPrev = true
		page.HasNext = hasMore
	} else {
		page.HasNext = true
		page.HasPrev = hasMore
	}
	attachCursors(page, col, dir)
	return page, nil
}

func firstPage(db *gorm.DB, nameFilter, col, dir string, pageSize int, totalCount int64) (*RoutePage, error) {
	query := applyNameFilter(db.Preload("Coordinates").Preload("From").Preload("To"), nameFilter)
	var rows []models.Route
	if err := query.Order(orderClause(col, dir)).Limit(pageSize + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	page := &RoutePage{Content: rows, HasNext: hasNext, HasPrev: false, TotalCount: totalCount}
	attachCursors(page, col, dir)
	page.PrevCursor = nil
	return page, nil
}

// cursorPredicate builds the keyset comparison for the requested column and
// walk direction. The operator flips once for desc ordering and once more
// for prev navigation.
func cursorPredicate(col, dir, nav string, cursor *Cursor) (string, []interface{}, error) {
	op := ">"
	if strings.EqualFold(dir, "DESC") {
		op = "<"
	}
	if nav == NavPrev {
		if op == ">" {
			op = "<"
		} else {
			op = ">"
		}
	}

	if col == "id" {
		return fmt.Sprintf("id %s ?", op), []interface{}{cursor.ID}, nil
	}

	value, err := cursorValue(col, cursor.SortValue)
	if err != nil {
		return "", nil, err
	}
	predicate := fmt.Sprintf("(%s %s ? OR (%s = ? AND id %s ?))", col, op, col, op)
	return predicate, []interface{}{value, value, cursor.ID}, nil
}

func cursorValue(col, raw string) (interface{}, error) {
	switch col {
	case "name":
		return raw, nil
	case "distance", "rating":
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, apperrors.NewInvalidArgument("invalid cursor value for %s", col)
		}
		return v, nil
	case "creation_date":
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, apperrors.NewInvalidArgument("invalid cursor value for %s", col)
		}
		return t, nil
	default:
		return nil, apperrors.NewInvalidArgument("unsupported sort column %q", col)
	}
}

func orderClause(col, dir string) string {
	if col == "id" {
		return fmt.Sprintf("id %s", dir)
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

func invertDirection(dir string) string {
	if strings.EqualFold(dir, "DESC") {
		return "ASC"
	}
	return "DESC"
}

// attachCursors derives the boundary cursors from the trimmed page content.
func attachCursors(page *RoutePage, col, dir string) {
	if len(page.Content) == 0 {
		return
	}
	first := page.Content[0]
	last := page.Content[len(page.Content)-1]

	next := Cursor{SortField: col, SortValue: sortValueOf(col, last), ID: last.ID, SortDirection: dir}.Encode()
	prev := Cursor{SortField: col, SortValue: sortValueOf(col, first), ID: first.ID, SortDirection: dir}.Encode()
	page.NextCursor = &next
	page.PrevCursor = &prev
}

func sortValueOf(col string, route models.Route) string {
	switch col {
	case "name":
		return route.Name
	case "distance":
		return strconv.FormatInt(route.Distance, 10)
	case "rating":
		return strconv.FormatInt(route.Rating, 10)
	case "creation_date":
		return route.CreationDate.Format(time.RFC3339Nano)
	default:
		return strconv.FormatUint(uint64(route.ID), 10)
	}
}

func reverseRoutes(rows []models.Route) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
