package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

const submissionColumns = `
	sub.id, sub.assignment_id, sub.student_id, sub.attempt_number, sub.answers, sub.submitted_at,
	sub.score, sub.feedback, sub.graded_at, sub.graded_by, sub.status,
	s.full_name AS student_name, s.enrollment_number
`

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepo(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *domain.Submission) (*domain.Submission, error) {
	const query = `
		INSERT INTO submission (assignment_id, student_id, attempt_number, answers, submitted_at, score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id uuid.UUID
	if err := r.db.GetContext(ctx, &id, query,
		sub.AssignmentID,
		sub.StudentID,
		sub.AttemptNumber,
		sub.Answers,
		sub.SubmittedAt,
		nullFloatPtr(sub.Score),
		sub.Status,
	); err != nil {
		return nil, errors.Wrap(err, "insert submission")
	}
	return r.FindByID(ctx, id)
}

func (r *SubmissionRepository) UpdateGrading(ctx context.Context, sub *domain.Submission) (*domain.Submission, error) {
	const query = `
		UPDATE submission
		SET answers = $2,
		    score = $3,
		    feedback = $4,
		    graded_at = $5,
		    graded_by = $6,
		    status = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		sub.ID,
		sub.Answers,
		nullFloatPtr(sub.Score),
		nullStringPtr(sub.Feedback),
		nullTimePtr(sub.GradedAt),
		uuidPtrOrNil(sub.GradedBy),
		sub.Status,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "update submission %s", sub.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errors.Wrapf(sql.ErrNoRows, "update submission %s", sub.ID)
	}
	return r.FindByID(ctx, sub.ID)
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submission sub
		JOIN student s ON s.id = sub.student_id
		WHERE sub.id = $1`
	var sub domain.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, errors.Wrapf(err, "find submission %s", id)
	}
	return &sub, nil
}

func (r *SubmissionRepository) CountByStudent(ctx context.Context, assignmentID, studentID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM submission WHERE assignment_id = $1 AND student_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, assignmentID, studentID); err != nil {
		return 0, errors.Wrap(err, "count student submissions")
	}
	return count, nil
}

func (r *SubmissionRepository) CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM submission WHERE assignment_id = $1`, assignmentID); err != nil {
		return 0, errors.Wrap(err, "count assignment submissions")
	}
	return count, nil
}

func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]domain.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submission sub
		JOIN student s ON s.id = sub.student_id
		WHERE sub.assignment_id = $1
		ORDER BY s.enrollment_number, sub.attempt_number`
	subs := make([]domain.Submission, 0)
	if err := r.db.SelectContext(ctx, &subs, query, assignmentID); err != nil {
		return nil, errors.Wrap(err, "list submissions by assignment")
	}
	return subs, nil
}

func (r *SubmissionRepository) ListByStudent(ctx context.Context, assignmentID, studentID uuid.UUID) ([]domain.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submission sub
		JOIN student s ON s.id = sub.student_id
		WHERE sub.assignment_id = $1 AND sub.student_id = $2
		ORDER BY sub.attempt_number`
	subs := make([]domain.Submission, 0)
	if err := r.db.SelectContext(ctx, &subs, query, assignmentID, studentID); err != nil {
		return nil, errors.Wrap(err, "list submissions by student")
	}
	return subs, nil
}
