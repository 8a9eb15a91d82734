package domain

import (
	"time"

	"github.com/google/uuid"
)

type RosterImportStatus string

const (
	RosterImportStatusProcessing RosterImportStatus = "processing"
	RosterImportStatusCompleted  RosterImportStatus = "completed"
	RosterImportStatusFailed     RosterImportStatus = "failed"
)

type RosterRowStatus string

const (
	RosterRowCreated         RosterRowStatus = "created"
	RosterRowSkippedExisting RosterRowStatus = "skipped_existing"
	RosterRowInvalid         RosterRowStatus = "invalid"
	RosterRowValid           RosterRowStatus = "valid"
)

type RosterImportJob struct {
	ID          uuid.UUID          `db:"id" json:"id"`
	UploadedBy  uuid.UUID          `db:"uploaded_by" json:"uploadedBy"`
	Status      RosterImportStatus `db:"status" json:"status"`
	DryRun      bool               `db:"dry_run" json:"dryRun"`
	FileKey     string             `db:"file_key" json:"fileKey"`
	TotalRows   int                `db:"total_rows" json:"totalRows"`
	Created     int                `db:"rows_created" json:"rowsCreated"`
	Skipped     int                `db:"rows_skipped" json:"rowsSkipped"`
	Invalid     int                `db:"rows_invalid" json:"rowsInvalid"`
	SubmittedAt time.Time          `db:"submitted_at" json:"submittedAt"`
	CompletedAt *time.Time         `db:"completed_at" json:"completedAt,omitempty"`
	Rows        []RosterImportRow  `db:"-" json:"rows,omitempty"`
}

type RosterImportRow struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	JobID            uuid.UUID       `db:"job_id" json:"jobId"`
	RowNumber        int             `db:"row_number" json:"rowNumber"`
	EnrollmentNumber string          `db:"enrollment_number" json:"enrollmentNumber"`
	Email            string          `db:"email" json:"email"`
	Status           RosterRowStatus `db:"status" json:"status"`
	StudentID        *uuid.UUID      `db:"student_id" json:"studentId,omitempty"`
	ErrorMessage     *string         `db:"error" json:"error,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
}
