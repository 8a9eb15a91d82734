package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/media"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/repository/ports"
)

var (
	ErrSubmissionClosed     = errors.New("assignment is not accepting submissions")
	ErrAlreadySubmitted     = errors.New("you have already submitted this assignment")
	ErrMaxAttemptsReached   = errors.New("maximum number of attempts reached")
	ErrSubmissionConflict   = errors.New("another submission is being processed, please retry")
	ErrSubmissionValidation = errors.New("submission validation failed")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrScoreOutOfRange      = errors.New("score must be between 0 and the assignment total points")
	ErrUploadEmpty          = errors.New("uploaded file is empty")
	ErrUploadTooLarge       = errors.New("uploaded file exceeds maximum size")
	ErrUploadType           = errors.New("file type is not allowed")
)

// SubmissionClosedError names why an assignment refused a submission.
type SubmissionClosedError struct {
	Reason string
}

func (e *SubmissionClosedError) Error() string { return e.Reason }

func (e *SubmissionClosedError) Unwrap() error { return ErrSubmissionClosed }

type SubmissionServiceConfig struct {
	Bucket            string
	MaxUploadBytes    int64
	AllowedMIMETypes  []string
	ImageProcessor    media.Processor
	ImageMaxDimension int
}

type AnswerFile struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type SubmitResult struct {
	Submission      *domain.Submission
	AutoGradedScore *float64
}

const defaultMaxUploadBytes = int64(10 * 1024 * 1024)

var defaultUploadMIMEs = []string{
	"application/pdf",
	"application/zip",
	"text/plain",
	"image/jpeg",
	"image/png",
	"image/webp",
}

type SubmissionService struct {
	assignments ports.AssignmentRepository
	submissions ports.SubmissionRepository
	storage     ports.ObjectStorage

	bucket            string
	maxUploadBytes    int64
	allowedMIMEs      map[string]struct{}
	imageProcessor    media.Processor
	imageMaxDimension int
	now               func() time.Time
}

func NewSubmissionService(assignments ports.AssignmentRepository, submissions ports.SubmissionRepository, storage ports.ObjectStorage, cfg SubmissionServiceConfig) *SubmissionService {
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	allowed := cfg.AllowedMIMETypes
	if len(allowed) == 0 {
		allowed = defaultUploadMIMEs
	}
	mimeSet := make(map[string]struct{}, len(allowed))
	for _, mt := range allowed {
		mimeSet[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}
	maxDimension := cfg.ImageMaxDimension
	if maxDimension <= 0 {
		maxDimension = media.DefaultMaxDimension
	}
	return &SubmissionService{
		assignments:       assignments,
		submissions:       submissions,
		storage:           storage,
		bucket:            strings.TrimSpace(cfg.Bucket),
		maxUploadBytes:    maxBytes,
		allowedMIMEs:      mimeSet,
		imageProcessor:    cfg.ImageProcessor,
		imageMaxDimension: maxDimension,
		now:               time.Now,
	}
}

func (s *SubmissionService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Submit validates and stores a student's answers, grading objective
// questions immediately.
func (s *SubmissionService) Submit(ctx context.Context, student *domain.Student, assignmentID uuid.UUID, answers domain.Answers) (*SubmitResult, error) {
	a, err := s.openAssignment(ctx, student, assignmentID)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: at least one answer is required", ErrSubmissionValidation)
	}
	if err := a.ValidateAnswers(answers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionValidation, err)
	}

	count, err := s.submissions.CountByStudent(ctx, a.ID, student.ID)
	if err != nil {
		return nil, err
	}
	if err := attemptError(a, count); err != nil {
		return nil, err
	}

	graded := domain.AutoGrade(a, answers)
	created, err := s.submissions.Create(ctx, &domain.Submission{
		AssignmentID:  a.ID,
		StudentID:     student.ID,
		AttemptNumber: count + 1,
		Answers:       graded.Answers,
		SubmittedAt:   s.now(),
		Score:         graded.Score,
		Status:        graded.Status(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, s.conflictError(ctx, a, student.ID)
		}
		return nil, err
	}
	return &SubmitResult{Submission: created, AutoGradedScore: graded.Score}, nil
}

// conflictError explains a lost race on the attempt number.
func (s *SubmissionService) conflictError(ctx context.Context, a *domain.Assignment, studentID uuid.UUID) error {
	count, err := s.submissions.CountByStudent(ctx, a.ID, studentID)
	if err != nil {
		return err
	}
	if err := attemptError(a, count); err != nil {
		return err
	}
	return ErrSubmissionConflict
}

func attemptError(a *domain.Assignment, count int) error {
	if count == 0 {
		return nil
	}
	if !a.Settings.AllowMultipleAttempts {
		return ErrAlreadySubmitted
	}
	if count >= a.Settings.AttemptLimit() {
		return ErrMaxAttemptsReached
	}
	return nil
}

// UploadAnswerFile stores a file for a file_upload answer and returns the
// URL the student submits as fileUrl.
func (s *SubmissionService) UploadAnswerFile(ctx context.Context, student *domain.Student, assignmentID uuid.UUID, file AnswerFile) (string, error) {
	a, err := s.openAssignment(ctx, student, assignmentID)
	if err != nil {
		return "", err
	}
	if file.Reader == nil || file.Size <= 0 {
		return "", ErrUploadEmpty
	}
	if file.Size > s.maxUploadBytes {
		return "", ErrUploadTooLarge
	}
	contentType := strings.ToLower(strings.TrimSpace(file.ContentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if _, ok := s.allowedMIMEs[contentType]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUploadType, contentType)
	}
	if s.storage == nil || s.bucket == "" {
		return "", errors.New("file storage is not configured")
	}

	reader, size, finalType, err := prepareUpload(ctx, s.imageProcessor, media.Upload{
		Reader:      file.Reader,
		Size:        file.Size,
		FileName:    file.FileName,
		ContentType: contentType,
	}, s.imageMaxDimension)
	if err != nil {
		if errors.Is(err, media.ErrImageTooLarge) {
			return "", fmt.Errorf("%w: %v", ErrUploadTooLarge, err)
		}
		return "", err
	}

	objectName := fmt.Sprintf("submissions/%s/%s/%s%s", a.ID, student.ID, uuid.NewString(), strings.ToLower(filepath.Ext(file.FileName)))
	return s.storage.Upload(ctx, s.bucket, objectName, finalType, reader, size)
}

// Grade records an instructor's score, overriding any automatic score.
func (s *SubmissionService) Grade(ctx context.Context, instructor *domain.Instructor, assignmentID, submissionID uuid.UUID, score float64, feedback *string) (*domain.Submission, error) {
	a, sub, err := s.instructorSubmission(ctx, instructor, assignmentID, submissionID)
	if err != nil {
		return nil, err
	}
	if score < 0 || score > a.TotalPoints {
		return nil, ErrScoreOutOfRange
	}

	now := s.now()
	gradedBy := instructor.ID
	sub.Score = &score
	sub.Feedback = normalizeString(feedback)
	sub.GradedAt = &now
	sub.GradedBy = &gradedBy
	sub.Status = domain.SubmissionGraded
	return s.submissions.UpdateGrading(ctx, sub)
}

func (s *SubmissionService) GetForInstructor(ctx context.Context, instructor *domain.Instructor, assignmentID, submissionID uuid.UUID) (*domain.Submission, error) {
	_, sub, err := s.instructorSubmission(ctx, instructor, assignmentID, submissionID)
	return sub, err
}

func (s *SubmissionService) ListForAssignment(ctx context.Context, instructor *domain.Instructor, assignmentID uuid.UUID) ([]domain.Submission, error) {
	a, err := s.findAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !instructor.ManagesBatch(a.Batch) {
		return nil, ErrForbidden
	}
	return s.submissions.ListByAssignment(ctx, a.ID)
}

func (s *SubmissionService) ListForStudent(ctx context.Context, student *domain.Student, assignmentID uuid.UUID) ([]domain.Submission, error) {
	a, err := s.findAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(a.Batch, student.Batch) {
		return nil, ErrForbidden
	}
	return s.submissions.ListByStudent(ctx, a.ID, student.ID)
}

func (s *SubmissionService) openAssignment(ctx context.Context, student *domain.Student, assignmentID uuid.UUID) (*domain.Assignment, error) {
	a, err := s.findAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(a.Batch, student.Batch) {
		return nil, ErrForbidden
	}
	if ok, reason := a.CanSubmit(s.now()); !ok {
		return nil, &SubmissionClosedError{Reason: reason}
	}
	return a, nil
}

func (s *SubmissionService) findAssignment(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	a, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *SubmissionService) instructorSubmission(ctx context.Context, instructor *domain.Instructor, assignmentID, submissionID uuid.UUID) (*domain.Assignment, *domain.Submission, error) {
	a, err := s.findAssignment(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	if !instructor.ManagesBatch(a.Batch) {
		return nil, nil, ErrForbidden
	}
	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrSubmissionNotFound
		}
		return nil, nil, err
	}
	if sub.AssignmentID != a.ID {
		return nil, nil, ErrSubmissionNotFound
	}
	return a, sub, nil
}
