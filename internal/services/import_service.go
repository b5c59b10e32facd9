package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"route_registry/internal/apperrors"
	"route_registry/internal/models"
)

var importHeaders = []string{
	"name", "coordinates_x", "coordinates_y",
	"from_x", "from_y", "from_name",
	"to_x", "to_y", "to_name",
	"distance", "rating",
}

const importContentType = "text/csv"

// ImportRoutes runs the bulk import pipeline: audit row, parse, validate
// everything, then commit all records in one transaction or none of them.
// On abort the returned error is an *apperrors.ImportAbortedError and the
// finalized FAILED operation is still returned alongside it.
func ImportRoutes(db *gorm.DB, username, filename, content string) (*models.ImportOperation, error) {
	op := models.ImportOperation{
		Username:  username,
		Filename:  filename,
		Status:    models.ImportStatusInProgress,
		StartTime: time.Now(),
	}
	fileKey := uuid.NewString()
	fileSize := int64(len(content))
	contentType := importContentType
	op.FileKey = &fileKey
	op.FileSize = &fileSize
	op.FileContentType = &contentType
	if err := db.Create(&op).Error; err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"operation_id": op.ID,
		"username":     username,
		"filename":     filename,
	}).Info("import started")

	drafts, parseErrors, headerErr := parseImportRecords(content)
	if headerErr != nil {
		return failImport(db, &op, 0, []string{headerErr.Error()}, headerErr.Error())
	}

	recordErrors := append([]string{}, parseErrors...)
	recordErrors = append(recordErrors, validateImportDrafts(db, drafts)...)

	if len(recordErrors) > 0 {
		return failImport(db, &op, len(drafts), recordErrors, "import failed due to validation errors")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range drafts {
			if _, err := createRouteInTx(tx, entry.draft); err != nil {
				return fmt.Errorf("line %d: %w", entry.line, err)
			}
		}
		return nil
	})
	if err != nil {
		return failImport(db, &op, len(drafts), []string{err.Error()}, "import failed during commit")
	}

	now := time.Now()
	op.Status = models.ImportStatusSuccess
	op.EndTime = &now
	op.TotalRecords = len(drafts)
	op.ProcessedRecords = len(drafts)
	op.SuccessfulRecords = len(drafts)
	if err := db.Save(&op).Error; err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"operation_id": op.ID, "records": len(drafts)}).Info("import completed")
	return &op, nil
}

// failImport finalizes the audit row exactly once with the per-record error
// list and returns the taxonomy error carrying the same list.
func failImport(db *gorm.DB, op *models.ImportOperation, total int, recordErrors []string, message string) (*models.ImportOperation, error) {
	now := time.Now()
	op.Status = models.ImportStatusFailed
	op.EndTime = &now
	op.TotalRecords = total
	op.ProcessedRecords = total
	op.SuccessfulRecords = 0
	op.FailedRecords = len(recordErrors)
	op.ErrorMessage = &message
	if raw, err := json.Marshal(recordErrors); err == nil {
		op.Errors = datatypes.JSON(raw)
	}
	if err := db.Save(op).Error; err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"operation_id": op.ID,
		"errors":       len(recordErrors),
	}).Warn("import aborted")
	return op, &apperrors.ImportAbortedError{OperationID: op.ID, Errors: recordErrors}
}

type importEntry struct {
	line  int
	draft RouteDraft
}

// parseImportRecords reads the CSV batch. Header problems abort parsing
// outright; per-row problems are collected line-indexed so every failing
// record is reported.
func parseImportRecords(content string) ([]importEntry, []string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewInvalidArgument("malformed CSV: %v", err)
	}
	if len(rows) == 0 {
		return nil, nil, apperrors.NewInvalidArgument("CSV content is empty")
	}

	header := rows[0]
	if len(header) != len(importHeaders) {
		return nil, nil, apperrors.NewInvalidArgument(
			"CSV must have exactly %d columns: %s", len(importHeaders), strings.Join(importHeaders, ", "))
	}
	for i, expected := range importHeaders {
		if !strings.EqualFold(strings.TrimSpace(header[i]), expected) {
			return nil, nil, apperrors.NewInvalidArgument(
				"invalid header at column %d: expected %q, found %q", i+1, expected, strings.TrimSpace(header[i]))
		}
	}

	var entries []importEntry
	var errs []string
	for i, row := range rows[1:] {
		line := i + 2 // header is line 1
		if isBlankRow(row) {
			continue
		}
		if len(row) != len(importHeaders) {
			errs = append(errs, fmt.Sprintf("line %d: expected %d columns, found %d", line, len(importHeaders), len(row)))
			continue
		}
		draft, err := parseImportRow(row)
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		entries = append(entries, importEntry{line: line, draft: draft})
	}

	if len(entries) == 0 && len(errs) == 0 {
		return nil, nil, apperrors.NewInvalidArgument("no data rows found in CSV content")
	}
	return entries, errs, nil
}

func isBlankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func parseImportRow(row []string) (RouteDraft, error) {
	var draft RouteDraft
	draft.Name = strings.TrimSpace(row[0])

	coordX, err := parseOptionalFloat(row[1])
	if err != nil {
		return draft, fmt.Errorf("invalid coordinates_x: %v", err)
	}
	draft.Coordinates.X = coordX

	if draft.Coordinates.Y, err = parseFloat(row[2]); err != nil {
		return draft, fmt.Errorf("invalid coordinates_y: %v", err)
	}
	if draft.From.X, err = parseFloat(row[3]); err != nil {
		return draft, fmt.Errorf("invalid from_x: %v", err)
	}
	if draft.From.Y, err = parseFloat(row[4]); err != nil {
		return draft, fmt.Errorf("invalid from_y: %v", err)
	}
	draft.From.Name = optionalString(row[5])

	if draft.To.X, err = parseFloat(row[6]); err != nil {
		return draft, fmt.Errorf("invalid to_x: %v", err)
	}
	if draft.To.Y, err = parseFloat(row[7]); err != nil {
		return draft, fmt.Errorf("invalid to_y: %v", err)
	}
	draft.To.Name = optionalString(row[8])

	if draft.Distance, err = parseInt(row[9]); err != nil {
		return draft, fmt.Errorf("invalid distance: %v", err)
	}
	if draft.Rating, err = parseInt(row[10]); err != nil {
		return draft, fmt.Errorf("invalid rating: %v", err)
	}
	return draft, nil
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func parseOptionalFloat(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseInt(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// validateImportDrafts applies the create-time rules to every record, plus
// name uniqueness within the batch itself, and returns one line-indexed
// message per failing record.
func validateImportDrafts(db *gorm.DB, entries []importEntry) []string {
	var errs []string
	seenNames := make(map[string]int)

	for _, entry := range entries {
		if err := ValidateDraft(entry.draft); err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", entry.line, err))
			continue
		}

		// Exact-match dedup, same policy as the unique index on routes.name.
		name := strings.TrimSpace(entry.draft.Name)
		if firstLine, dup := seenNames[name]; dup {
			errs = append(errs, fmt.Sprintf("line %d: duplicate route name %q within the batch (first used on line %d)", entry.line, name, firstLine))
			continue
		}
		seenNames[name] = entry.line

		if err := checkNameFree(db, name, 0); err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", entry.line, err))
		}
	}
	return errs
}

// ImportStats summarizes a user's import history.
type ImportStats struct {
	TotalOperations      int64 `json:"total_operations"`
	SuccessfulOperations int64 `json:"successful_operations"`
	FailedOperations     int64 `json:"failed_operations"`
}

// ImportHistory lists a user's import operations, newest first.
func ImportHistory(db *gorm.DB, username string, page, size int) ([]models.ImportOperation, int64, error) {
	if page < 0 || size < 1 {
		return nil, 0, apperrors.NewInvalidArgument("page must be >= 0 and size >= 1")
	}

	var total int64
	if err := db.Model(&models.ImportOperation{}).Where("username = ?", username).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ops []models.ImportOperation
	err := db.Where("username = ?", username).
		Order("start_time DESC, id DESC").
		Offset(page * size).Limit(size).
		Find(&ops).Error
	return ops, total, err
}

// ImportStatsFor aggregates per-user operation counts.
func ImportStatsFor(db *gorm.DB, username string) (*ImportStats, error) {
	stats := &ImportStats{}
	if err := db.Model(&models.ImportOperation{}).
		Where("username = ?", username).
		Count(&stats.TotalOperations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ImportOperation{}).
		Where("username = ? AND status = ?", username, models.ImportStatusSuccess).
		Count(&stats.SuccessfulOperations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ImportOperation{}).
		Where("username = ? AND status = ?", username, models.ImportStatusFailed).
		Count(&stats.FailedOperations).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// ImportOperationDetail loads a single audit row.
func ImportOperationDetail(db *gorm.DB, id uint) (*models.ImportOperation, error) {
	var op models.ImportOperation
	if err := db.First(&op, id).Error; err != nil {
		return nil, notFound(err, "import operation", id)
	}
	return &op, nil
}
