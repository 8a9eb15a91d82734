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
	ErrAssignmentNotFound       = errors.New("assignment not found")
	ErrAssignmentValidation     = errors.New("assignment validation failed")
	ErrAssignmentPublished      = errors.New("questions can only be changed while the assignment is unpublished")
	ErrAssignmentHasSubmissions = errors.New("assignment already has submissions")
	ErrQuestionNotFound         = errors.New("question not found")
)

const defaultMaxAttempts = 3

type AssignmentInput struct {
	Title       string
	Description *string
	Batch       string
	DueDate     time.Time
	Settings    domain.AssignmentSettings
	Questions   []QuestionInput
}

type QuestionInput struct {
	Type    domain.QuestionType
	Prompt  string
	Points  float64
	Options []domain.QuestionOption
}

type AssignmentService struct {
	assignments ports.AssignmentRepository
	submissions ports.SubmissionRepository
	now         func() time.Time
}

func NewAssignmentService(assignments ports.AssignmentRepository, submissions ports.SubmissionRepository) *AssignmentService {
	return &AssignmentService{assignments: assignments, submissions: submissions, now: time.Now}
}

func (s *AssignmentService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create stores a draft assignment. Initial questions are optional.
func (s *AssignmentService) Create(ctx context.Context, instructor *domain.Instructor, input AssignmentInput) (*domain.Assignment, error) {
	a := &domain.Assignment{
		InstructorID: instructor.ID,
		IsActive:     true,
		Questions:    domain.Questions{},
	}
	if err := applyAssignmentInput(a, input); err != nil {
		return nil, err
	}
	if !instructor.ManagesBatch(a.Batch) {
		return nil, ErrForbidden
	}
	for i, qi := range input.Questions {
		q, err := buildQuestion(uuid.New(), qi)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrAssignmentValidation, i+1, err)
		}
		a.Questions = append(a.Questions, q)
	}
	a.RecomputeTotal()
	return s.assignments.Create(ctx, a)
}

// Update edits assignment details. The batch is fixed once published.
func (s *AssignmentService) Update(ctx context.Context, instructor *domain.Instructor, id uuid.UUID, input AssignmentInput) (*domain.Assignment, error) {
	a, err := s.owned(ctx, instructor, id)
	if err != nil {
		return nil, err
	}
	previousBatch := a.Batch
	if err := applyAssignmentInput(a, input); err != nil {
		return nil, err
	}
	if !instructor.ManagesBatch(a.Batch) {
		return nil, ErrForbidden
	}
	if a.IsPublished && !strings.EqualFold(previousBatch, a.Batch) {
		return nil, fmt.Errorf("%w: batch cannot change after publishing", ErrAssignmentValidation)
	}
	return s.assignments.Update(ctx, a)
}

func (s *AssignmentService) AddQuestion(ctx context.Context, instructor *domain.Instructor, id uuid.UUID, input QuestionInput) (*domain.Assignment, error) {
	a, err := s.editableDraft(ctx, instructor, id)
	if err != nil {
		return nil, err
	}
	q, err := buildQuestion(uuid.New(), input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssignmentValidation, err)
	}
	a.Questions = append(a.Questions, q)
	a.RecomputeTotal()
	return s.assignments.Update(ctx, a)
}

func (s *AssignmentService) UpdateQuestion(ctx context.Context, instructor *domain.Instructor, id, questionID uuid.UUID, input QuestionInput) (*domain.Assignment, error) {
	a, err := s.editableDraft(ctx, instructor, id)
	if err != nil {
		return nil, err
	}
	existing, ok := a.Question(questionID)
	if !ok {
		return nil, ErrQuestionNotFound
	}
	q, err := buildQuestion(questionID, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssignmentValidation, err)
	}
	*existing = q
	a.RecomputeTotal()
	return s.assignments.Update(ctx, a)
}

func (s *AssignmentService) RemoveQuestion(ctx context.Context, instructor *domain.Instructor, id, questionID uuid.UUID) (*domain.Assignment, error) {
	a, err := s.editableDraft(ctx, instructor, id)
	if err != nil {
		return nil, err
	}
	kept := make(domain.Questions, 0, len(a.Questions))
	for _, q := range a.Questions {
		if q.ID != questionID {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(a.Questions) {
		return nil, ErrQuestionNotFound
	}
	a.Questions = kept
	a.RecomputeTotal()
	return s.assignments.Update(ctx, a)
}

// Publish opens the assignment to students. It needs at least one question
// and a due date in the future.
func (s *AssignmentService) Publish(ctx context.Context, instructor *domain.Instructor, id uuid.UUID) (*domain.Assignment, error) {
	a, err := s.owned(ctx, instructor, id)
	if err != nil {
		return nil, err
	}
	if a.IsPublished {
		return a, nil
	}
	if len(a.Questions) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required to publish", ErrAssignmentValidation)
	}
	now := s.now()
	if !a.DueDate.After(now) {
		return nil, fmt.Errorf("%w: due date must be in the future to publish", ErrAssignmentValidation)
	}
	a.IsPublished = true
	a.PublishedAt = &now
	return s.assignments.Update(ctx, a)
}

// Unpublish returns an assignment to draft while nobody has submitted yet.
func (s *AssignmentService) Unpublish(ctx context.Context, instructor *domain.Instructor, id uuid.UUID) (*domain.Assignment, error) {
	a, err := s.owned(ctx, instructor, id)
	if err != nil {
		return nil, err
	}
	if !a.IsPublished {
		return a, nil
	}
	count, err := s.submissions.CountByAssignment(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAssignmentHasSubmissions
	}
	a.IsPublished = false
	a.PublishedAt = nil
	return s.assignments.Update(ctx, a)
}

func (s *AssignmentService) SetLocked(ctx context.Context, instructor *domain.Instructor, id uuid.UUID, locked bool) (*domain.Assignment, error) {
	a, err := s.owned(ctx, instructor, id)
	if err != nil {
		return nil, err
	}
	if a.IsLocked == locked {
		return a, nil
	}
	a.IsLocked = locked
	return s.assignments.Update(ctx, a)
}

// Delete deactivates the assignment; submissions are kept.
func (s *AssignmentService) Delete(ctx context.Context, instructor *domain.Instructor, id uuid.UUID) error {
	a, err := s.owned(ctx, instructor, id)
	if err != nil {
		return err
	}
	a.IsActive = false
	_, err = s.assignments.Update(ctx, a)
	return err
}

func (s *AssignmentService) GetForInstructor(ctx context.Context, instructor *domain.Instructor, id uuid.UUID) (*domain.Assignment, error) {
	return s.owned(ctx, instructor, id)
}

func (s *AssignmentService) ListForInstructor(ctx context.Context, instructor *domain.Instructor, includeInactive bool) ([]domain.Assignment, error) {
	if len(instructor.Batches) == 0 {
		return []domain.Assignment{}, nil
	}
	return s.assignments.List(ctx, domain.AssignmentFilter{
		Batches:         []string(instructor.Batches),
		IncludeInactive: includeInactive,
	})
}

// ListForStudent returns published assignments of the student's batch with
// answer keys hidden as appropriate.
func (s *AssignmentService) ListForStudent(ctx context.Context, student *domain.Student) ([]domain.Assignment, error) {
	list, err := s.assignments.List(ctx, domain.AssignmentFilter{
		Batches:       []string{student.Batch},
		PublishedOnly: true,
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]domain.Assignment, 0, len(list))
	for _, a := range list {
		out = append(out, a.ForStudent(now))
	}
	return out, nil
}

func (s *AssignmentService) GetForStudent(ctx context.Context, student *domain.Student, id uuid.UUID) (*domain.Assignment, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsActive || !a.IsPublished {
		return nil, ErrAssignmentNotFound
	}
	if !strings.EqualFold(a.Batch, student.Batch) {
		return nil, ErrForbidden
	}
	view := a.ForStudent(s.now())
	return &view, nil
}

func (s *AssignmentService) find(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	a, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AssignmentService) owned(ctx context.Context, instructor *domain.Instructor, id uuid.UUID) (*domain.Assignment, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, ErrAssignmentNotFound
	}
	if !instructor.ManagesBatch(a.Batch) {
		return nil, ErrForbidden
	}
	return a, nil
}

func (s *AssignmentService) editableDraft(ctx context.Context, instructor *domain.Instructor, id uuid.UUID) (*domain.Assignment, error) {
	a, err := s.owned(ctx, instructor, id)
	if err != nil {
		return nil, err
	}
	if a.IsPublished {
		return nil, ErrAssignmentPublished
	}
	return a, nil
}

func applyAssignmentInput(a *domain.Assignment, input AssignmentInput) error {
	fields := map[string]string{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		fields["title"] = "title is required"
	}
	batch := strings.TrimSpace(input.Batch)
	if batch == "" {
		fields["batch"] = "batch is required"
	}
	if input.DueDate.IsZero() {
		fields["dueDate"] = "due date is required"
	}
	if input.Settings.MaxAttempts < 0 {
		fields["settings.maxAttempts"] = "must not be negative"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	settings := input.Settings
	if !settings.AllowMultipleAttempts {
		settings.MaxAttempts = 1
	} else if settings.MaxAttempts == 0 {
		settings.MaxAttempts = defaultMaxAttempts
	}

	a.Title = title
	a.Description = normalizeString(input.Description)
	a.Batch = batch
	a.DueDate = input.DueDate.UTC()
	a.Settings = settings
	return nil
}

func buildQuestion(id uuid.UUID, input QuestionInput) (domain.Question, error) {
	q := domain.Question{
		ID:     id,
		Type:   input.Type,
		Prompt: strings.TrimSpace(input.Prompt),
		Points: input.Points,
	}
	if len(input.Options) > 0 {
		q.Options = make([]domain.QuestionOption, len(input.Options))
		for i, opt := range input.Options {
			q.Options[i] = domain.QuestionOption{Text: strings.TrimSpace(opt.Text), IsCorrect: opt.IsCorrect}
		}
	}
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}
