package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/repository/ports"
)

var (
	ErrClassNotFound        = errors.New("class not found")
	ErrClassNotStarted      = errors.New("attendance can only be recorded once the class has started")
	ErrClassCancelled       = errors.New("class is cancelled")
	ErrAttendanceValidation = errors.New("attendance validation failed")
)

type ClassInput struct {
	Title       string
	Description *string
	Batch       string
	StartTime   time.Time
	EndTime     time.Time
	MeetingLink *string
}

type AttendanceInput struct {
	StudentID uuid.UUID
	Status    domain.AttendanceStatus
}

type ClassService struct {
	classes  ports.ClassRepository
	students ports.StudentRepository
	now      func() time.Time
}

func NewClassService(classes ports.ClassRepository, students ports.StudentRepository) *ClassService {
	return &ClassService{classes: classes, students: students, now: time.Now}
}

func (s *ClassService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *ClassService) Create(ctx context.Context, instructor *domain.Instructor, input ClassInput) (*domain.Class, error) {
	class := &domain.Class{InstructorID: instructor.ID}
	if err := applyClassInput(class, input); err != nil {
		return nil, err
	}
	if !instructor.ManagesBatch(class.Batch) {
		return nil, ErrForbidden
	}
	created, err := s.classes.Create(ctx, class)
	if err != nil {
		return nil, err
	}
	return s.withStatus(created), nil
}

func (s *ClassService) Update(ctx context.Context, instructor *domain.Instructor, classID uuid.UUID, input ClassInput) (*domain.Class, error) {
	class, err := s.ownedClass(ctx, instructor, classID)
	if err != nil {
		return nil, err
	}
	if err := applyClassInput(class, input); err != nil {
		return nil, err
	}
	if !instructor.ManagesBatch(class.Batch) {
		return nil, ErrForbidden
	}
	updated, err := s.classes.Update(ctx, class)
	if err != nil {
		return nil, err
	}
	return s.withStatus(updated), nil
}

func (s *ClassService) Cancel(ctx context.Context, instructor *domain.Instructor, classID uuid.UUID) (*domain.Class, error) {
	class, err := s.ownedClass(ctx, instructor, classID)
	if err != nil {
		return nil, err
	}
	if class.Cancelled {
		return s.withStatus(class), nil
	}
	class.Cancelled = true
	updated, err := s.classes.Update(ctx, class)
	if err != nil {
		return nil, err
	}
	return s.withStatus(updated), nil
}

func (s *ClassService) Delete(ctx context.Context, instructor *domain.Instructor, classID uuid.UUID) error {
	if _, err := s.ownedClass(ctx, instructor, classID); err != nil {
		return err
	}
	return s.classes.Delete(ctx, classID)
}

func (s *ClassService) Get(ctx context.Context, principal *domain.Principal, classID uuid.UUID) (*domain.Class, error) {
	class, err := s.find(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !canSeeBatch(principal, class.Batch) {
		return nil, ErrForbidden
	}
	return s.withStatus(class), nil
}

// ListForInstructor returns the instructor's classes, optionally narrowed to
// one derived status.
func (s *ClassService) ListForInstructor(ctx context.Context, instructor *domain.Instructor, status *domain.ClassStatus) ([]domain.Class, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}
	classes, err := s.classes.List(ctx, domain.ClassFilter{InstructorID: &instructor.ID})
	if err != nil {
		return nil, err
	}
	return s.filterByStatus(classes, status), nil
}

func (s *ClassService) ListForStudent(ctx context.Context, student *domain.Student, status *domain.ClassStatus) ([]domain.Class, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}
	classes, err := s.classes.List(ctx, domain.ClassFilter{Batches: []string{student.Batch}})
	if err != nil {
		return nil, err
	}
	return s.filterByStatus(classes, status), nil
}

// RecordAttendance upserts attendance for students of the class batch. It is
// rejected before the class starts and for cancelled classes.
func (s *ClassService) RecordAttendance(ctx context.Context, instructor *domain.Instructor, classID uuid.UUID, entries []AttendanceInput) ([]domain.AttendanceRecord, error) {
	class, err := s.ownedClass(ctx, instructor, classID)
	if err != nil {
		return nil, err
	}
	if class.Cancelled {
		return nil, ErrClassCancelled
	}
	now := s.now()
	if now.Before(class.StartTime) {
		return nil, ErrClassNotStarted
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: at least one entry is required", ErrAttendanceValidation)
	}

	roster, err := s.students.ListByBatch(ctx, class.Batch)
	if err != nil {
		return nil, err
	}
	inBatch := make(map[uuid.UUID]struct{}, len(roster))
	for _, st := range roster {
		inBatch[st.ID] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{}, len(entries))
	records := make([]domain.AttendanceRecord, 0, len(entries))
	for _, entry := range entries {
		if !entry.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid status %q", ErrAttendanceValidation, entry.Status)
		}
		if _, ok := inBatch[entry.StudentID]; !ok {
			return nil, fmt.Errorf("%w: student %s is not in batch %s", ErrAttendanceValidation, entry.StudentID, class.Batch)
		}
		if _, dup := seen[entry.StudentID]; dup {
			return nil, fmt.Errorf("%w: student %s listed twice", ErrAttendanceValidation, entry.StudentID)
		}
		seen[entry.StudentID] = struct{}{}
		records = append(records, domain.AttendanceRecord{
			ClassID:   class.ID,
			StudentID: entry.StudentID,
			Status:    entry.Status,
			MarkedAt:  now,
			MarkedBy:  instructor.ID,
		})
	}

	if err := s.classes.UpsertAttendance(ctx, records); err != nil {
		return nil, err
	}
	return s.classes.ListAttendanceByClass(ctx, class.ID)
}

func (s *ClassService) ListAttendance(ctx context.Context, instructor *domain.Instructor, classID uuid.UUID) ([]domain.AttendanceRecord, error) {
	if _, err := s.ownedClass(ctx, instructor, classID); err != nil {
		return nil, err
	}
	return s.classes.ListAttendanceByClass(ctx, classID)
}

func (s *ClassService) StudentAttendance(ctx context.Context, student *domain.Student) ([]domain.AttendanceRecord, error) {
	return s.classes.ListAttendanceByStudent(ctx, student.ID)
}

func (s *ClassService) find(ctx context.Context, classID uuid.UUID) (*domain.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return class, nil
}

func (s *ClassService) ownedClass(ctx context.Context, instructor *domain.Instructor, classID uuid.UUID) (*domain.Class, error) {
	class, err := s.find(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.InstructorID != instructor.ID && !instructor.ManagesBatch(class.Batch) {
		return nil, ErrForbidden
	}
	return class, nil
}

func (s *ClassService) withStatus(class *domain.Class) *domain.Class {
	class.Status = class.DeriveStatus(s.now())
	return class
}

func (s *ClassService) filterByStatus(classes []domain.Class, status *domain.ClassStatus) []domain.Class {
	now := s.now()
	out := make([]domain.Class, 0, len(classes))
	for _, c := range classes {
		c.Status = c.DeriveStatus(now)
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, c)
	}
	return out
}

func applyClassInput(class *domain.Class, input ClassInput) error {
	fields := map[string]string{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		fields["title"] = "title is required"
	}
	batch := strings.TrimSpace(input.Batch)
	if batch == "" {
		fields["batch"] = "batch is required"
	}
	if input.StartTime.IsZero() {
		fields["startTime"] = "start time is required"
	}
	if !input.EndTime.After(input.StartTime) {
		fields["endTime"] = "end time must be after start time"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	class.Title = title
	class.Description = normalizeString(input.Description)
	class.Batch = batch
	class.StartTime = input.StartTime.UTC()
	class.EndTime = input.EndTime.UTC()
	class.MeetingLink = normalizeString(input.MeetingLink)
	return nil
}

func validateStatusFilter(status *domain.ClassStatus) error {
	if status != nil && !status.Valid() {
		return &ValidationError{Fields: map[string]string{"status": "must be scheduled, ongoing, completed or cancelled"}}
	}
	return nil
}

func canSeeBatch(principal *domain.Principal, batch string) bool {
	switch {
	case principal.IsStudent():
		return strings.EqualFold(principal.Student.Batch, batch)
	case principal.IsInstructor():
		return principal.Instructor.ManagesBatch(batch)
	}
	return false
}
