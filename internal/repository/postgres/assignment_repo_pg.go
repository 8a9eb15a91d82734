package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

const assignmentColumns = `
	id, title, description, batch, instructor_id, questions, total_points, due_date,
	is_published, is_locked, is_active, settings, published_at, created_at, updated_at
`

type AssignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepo(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	query := `
		INSERT INTO assignment (
			title, description, batch, instructor_id, questions, total_points, due_date,
			is_published, is_locked, is_active, settings, published_at
		) VALUES (
			:title, :description, :batch, :instructor_id, :questions, :total_points, :due_date,
			:is_published, :is_locked, :is_active, :settings, :published_at
		)
		RETURNING ` + assignmentColumns

	args := map[string]any{
		"title":         a.Title,
		"description":   nullStringPtr(a.Description),
		"batch":         a.Batch,
		"instructor_id": a.InstructorID,
		"questions":     a.Questions,
		"total_points":  a.TotalPoints,
		"due_date":      a.DueDate,
		"is_published":  a.IsPublished,
		"is_locked":     a.IsLocked,
		"is_active":     a.IsActive,
		"settings":      a.Settings,
		"published_at":  nullTimePtr(a.PublishedAt),
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, errors.Wrap(err, "insert assignment")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, "insert assignment")
		}
		return nil, errors.New("insert assignment: no row returned")
	}
	var created domain.Assignment
	if err := rows.StructScan(&created); err != nil {
		return nil, errors.Wrap(err, "scan assignment")
	}
	return &created, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	query := `
		UPDATE assignment
		SET title = $2,
		    description = $3,
		    batch = $4,
		    questions = $5,
		    total_points = $6,
		    due_date = $7,
		    is_published = $8,
		    is_locked = $9,
		    is_active = $10,
		    settings = $11,
		    published_at = $12,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + assignmentColumns

	var updated domain.Assignment
	if err := r.db.GetContext(ctx, &updated, query,
		a.ID,
		a.Title,
		nullStringPtr(a.Description),
		a.Batch,
		a.Questions,
		a.TotalPoints,
		a.DueDate,
		a.IsPublished,
		a.IsLocked,
		a.IsActive,
		a.Settings,
		nullTimePtr(a.PublishedAt),
	); err != nil {
		return nil, errors.Wrapf(err, "update assignment %s", a.ID)
	}
	return &updated, nil
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignment WHERE id = $1`
	var a domain.Assignment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, errors.Wrapf(err, "find assignment %s", id)
	}
	return &a, nil
}

func (r *AssignmentRepository) List(ctx context.Context, filter domain.AssignmentFilter) ([]domain.Assignment, error) {
	var (
		parts []string
		args  []any
		idx   = 1
	)

	if filter.InstructorID != nil {
		parts = append(parts, fmt.Sprintf("instructor_id = $%d", idx))
		args = append(args, *filter.InstructorID)
		idx++
	}
	if len(filter.Batches) > 0 {
		parts = append(parts, fmt.Sprintf("batch = ANY($%d)", idx))
		args = append(args, pq.Array(filter.Batches))
	}
	if filter.PublishedOnly {
		parts = append(parts, "is_published")
	}
	if !filter.IncludeInactive {
		parts = append(parts, "is_active")
	}

	where := ""
	if len(parts) > 0 {
		where = "WHERE " + strings.Join(parts, " AND ")
	}
	query := fmt.Sprintf(`SELECT %s FROM assignment %s ORDER BY due_date`, assignmentColumns, where)

	assignments := make([]domain.Assignment, 0)
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, errors.Wrap(err, "list assignments")
	}
	return assignments, nil
}
