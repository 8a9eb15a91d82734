package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

const rosterJobColumns = `
	id, uploaded_by, status, dry_run, file_key, total_rows,
	rows_created, rows_skipped, rows_invalid, submitted_at, completed_at
`

type RosterImportRepository struct {
	db *sqlx.DB
}

func NewRosterImportRepo(db *sqlx.DB) *RosterImportRepository {
	return &RosterImportRepository{db: db}
}

func (r *RosterImportRepository) CreateJob(ctx context.Context, job *domain.RosterImportJob) (*domain.RosterImportJob, error) {
	query := `
		INSERT INTO roster_import_job (
			id, uploaded_by, status, dry_run, file_key, total_rows,
			rows_created, rows_skipped, rows_invalid, submitted_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + rosterJobColumns

	var inserted domain.RosterImportJob
	if err := r.db.GetContext(ctx, &inserted, query,
		job.ID,
		job.UploadedBy,
		job.Status,
		job.DryRun,
		job.FileKey,
		job.TotalRows,
		job.Created,
		job.Skipped,
		job.Invalid,
		job.SubmittedAt,
		nullTimePtr(job.CompletedAt),
	); err != nil {
		return nil, errors.Wrap(err, "insert roster import job")
	}
	return &inserted, nil
}

func (r *RosterImportRepository) UpdateJob(ctx context.Context, job *domain.RosterImportJob) (*domain.RosterImportJob, error) {
	query := `
		UPDATE roster_import_job
		SET status = $2,
		    total_rows = $3,
		    rows_created = $4,
		    rows_skipped = $5,
		    rows_invalid = $6,
		    completed_at = $7
		WHERE id = $1
		RETURNING ` + rosterJobColumns

	var updated domain.RosterImportJob
	if err := r.db.GetContext(ctx, &updated, query,
		job.ID,
		job.Status,
		job.TotalRows,
		job.Created,
		job.Skipped,
		job.Invalid,
		nullTimePtr(job.CompletedAt),
	); err != nil {
		return nil, errors.Wrapf(err, "update roster import job %s", job.ID)
	}
	return &updated, nil
}

func (r *RosterImportRepository) FindJobByID(ctx context.Context, id uuid.UUID) (*domain.RosterImportJob, error) {
	query := `SELECT ` + rosterJobColumns + ` FROM roster_import_job WHERE id = $1`
	var job domain.RosterImportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, errors.Wrapf(err, "find roster import job %s", id)
	}
	return &job, nil
}

func (r *RosterImportRepository) InsertRow(ctx context.Context, row *domain.RosterImportRow) (*domain.RosterImportRow, error) {
	const query = `
		INSERT INTO roster_import_row (job_id, row_number, enrollment_number, email, status, student_id, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, job_id, row_number, enrollment_number, email, status, student_id, error, created_at
	`
	var inserted domain.RosterImportRow
	if err := r.db.GetContext(ctx, &inserted, query,
		row.JobID,
		row.RowNumber,
		row.EnrollmentNumber,
		row.Email,
		row.Status,
		uuidPtrOrNil(row.StudentID),
		nullStringPtr(row.ErrorMessage),
	); err != nil {
		return nil, errors.Wrap(err, "insert roster import row")
	}
	return &inserted, nil
}

func (r *RosterImportRepository) ListRowsByJob(ctx context.Context, jobID uuid.UUID) ([]domain.RosterImportRow, error) {
	const query = `
		SELECT id, job_id, row_number, enrollment_number, email, status, student_id, error, created_at
		FROM roster_import_row
		WHERE job_id = $1
		ORDER BY row_number
	`
	rows := make([]domain.RosterImportRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, jobID); err != nil {
		return nil, errors.Wrap(err, "list roster import rows")
	}
	return rows, nil
}
