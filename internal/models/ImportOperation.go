package models

import (
	"time"

	"gorm.io/datatypes"
)

// Import operation statuses.
const (
	ImportStatusInProgress = "IN_PROGRESS"
	ImportStatusSuccess    = "SUCCESS"
	ImportStatusFailed     = "FAILED"
)

// ImportOperation is the audit row for one bulk import call. It is created
// IN_PROGRESS when the pipeline starts and finalized exactly once.
type ImportOperation struct {
	ID uint `json:"id" gorm:"primaryKey"`

	Username string `json:"username" gorm:"size:255;not null;index"`
	Filename string `json:"filename" gorm:"size:255;not null"`

	Status string `json:"status" gorm:"size:32;not null"`

	StartTime time.Time  `json:"start_time" gorm:"not null"`
	EndTime   *time.Time `json:"end_time"`

	TotalRecords      int `json:"total_records"`
	ProcessedRecords  int `json:"processed_records"`
	SuccessfulRecords int `json:"successful_records"`
	FailedRecords     int `json:"failed_records"`

	// Errors holds the ordered, line-indexed error messages as a JSON array.
	Errors datatypes.JSON `json:"errors"`

	ErrorMessage *string `json:"error_message" gorm:"type:text"`

	// Uploaded file metadata.
	FileKey         *string `json:"file_key" gorm:"size:64"`
	FileSize        *int64  `json:"file_size"`
	FileContentType *string `json:"file_content_type" gorm:"size:128"`
}
