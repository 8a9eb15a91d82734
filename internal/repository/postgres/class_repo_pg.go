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

const classColumns = `
	id, title, description, batch, instructor_id, start_time, end_time,
	meeting_link, cancelled, created_at, updated_at
`

type ClassRepository struct {
	db *sqlx.DB
}

func NewClassRepo(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) Create(ctx context.Context, class *domain.Class) (*domain.Class, error) {
	query := `
		INSERT INTO class_session (title, description, batch, instructor_id, start_time, end_time, meeting_link, cancelled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + classColumns

	var created domain.Class
	if err := r.db.GetContext(ctx, &created, query,
		class.Title,
		nullStringPtr(class.Description),
		class.Batch,
		class.InstructorID,
		class.StartTime,
		class.EndTime,
		nullStringPtr(class.MeetingLink),
		class.Cancelled,
	); err != nil {
		return nil, errors.Wrap(err, "insert class")
	}
	return &created, nil
}

func (r *ClassRepository) Update(ctx context.Context, class *domain.Class) (*domain.Class, error) {
	query := `
		UPDATE class_session
		SET title = $2,
		    description = $3,
		    batch = $4,
		    start_time = $5,
		    end_time = $6,
		    meeting_link = $7,
		    cancelled = $8,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + classColumns

	var updated domain.Class
	if err := r.db.GetContext(ctx, &updated, query,
		class.ID,
		class.Title,
		nullStringPtr(class.Description),
		class.Batch,
		class.StartTime,
		class.EndTime,
		nullStringPtr(class.MeetingLink),
		class.Cancelled,
	); err != nil {
		return nil, errors.Wrapf(err, "update class %s", class.ID)
	}
	return &updated, nil
}

func (r *ClassRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Class, error) {
	query := `SELECT ` + classColumns + ` FROM class_session WHERE id = $1`
	var class domain.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, errors.Wrapf(err, "find class %s", id)
	}
	return &class, nil
}

func (r *ClassRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM class_session WHERE id = $1`, id)
	return errors.Wrapf(err, "delete class %s", id)
}

func (r *ClassRepository) List(ctx context.Context, filter domain.ClassFilter) ([]domain.Class, error) {
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
		idx++
	}
	if filter.From != nil {
		parts = append(parts, fmt.Sprintf("end_time >= $%d", idx))
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		parts = append(parts, fmt.Sprintf("start_time <= $%d", idx))
		args = append(args, *filter.To)
	}

	where := ""
	if len(parts) > 0 {
		where = "WHERE " + strings.Join(parts, " AND ")
	}
	query := fmt.Sprintf(`SELECT %s FROM class_session %s ORDER BY start_time`, classColumns, where)

	classes := make([]domain.Class, 0)
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, errors.Wrap(err, "list classes")
	}
	return classes, nil
}

func (r *ClassRepository) UpsertAttendance(ctx context.Context, records []domain.AttendanceRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	const query = `
		INSERT INTO attendance (class_id, student_id, status, marked_at, marked_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (class_id, student_id) DO UPDATE
		SET status = EXCLUDED.status,
		    marked_at = EXCLUDED.marked_at,
		    marked_by = EXCLUDED.marked_by
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin attendance tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, rec := range records {
		if _, err = tx.ExecContext(ctx, query, rec.ClassID, rec.StudentID, rec.Status, rec.MarkedAt, rec.MarkedBy); err != nil {
			return errors.Wrapf(err, "upsert attendance for student %s", rec.StudentID)
		}
	}
	return errors.Wrap(tx.Commit(), "commit attendance")
}

func (r *ClassRepository) ListAttendanceByClass(ctx context.Context, classID uuid.UUID) ([]domain.AttendanceRecord, error) {
	const query = `
		SELECT a.class_id, a.student_id, a.status, a.marked_at, a.marked_by,
		       s.full_name AS student_name, s.enrollment_number, c.title AS class_title
		FROM attendance a
		JOIN student s ON s.id = a.student_id
		JOIN class_session c ON c.id = a.class_id
		WHERE a.class_id = $1
		ORDER BY s.enrollment_number
	`
	records := make([]domain.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, classID); err != nil {
		return nil, errors.Wrap(err, "list attendance by class")
	}
	return records, nil
}

func (r *ClassRepository) ListAttendanceByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.AttendanceRecord, error) {
	const query = `
		SELECT a.class_id, a.student_id, a.status, a.marked_at, a.marked_by,
		       s.full_name AS student_name, s.enrollment_number, c.title AS class_title
		FROM attendance a
		JOIN student s ON s.id = a.student_id
		JOIN class_session c ON c.id = a.class_id
		WHERE a.student_id = $1
		ORDER BY c.start_time DESC
	`
	records := make([]domain.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, errors.Wrap(err, "list attendance by student")
	}
	return records, nil
}
