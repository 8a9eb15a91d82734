package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/repository/ports"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

var (
	ErrImportEmptyFile        = errors.New("csv file is empty")
	ErrImportTooLarge         = errors.New("csv file exceeds maximum size")
	ErrImportInvalidHeaders   = errors.New("csv headers missing required columns")
	ErrImportRowLimitExceeded = errors.New("csv exceeds maximum allowed rows")
	ErrImportJobNotFound      = errors.New("import job not found")
)

var rosterColumns = []string{"enrollment_number", "email", "full_name", "batch"}

// CredentialsSender emails temporary passwords to imported students.
type CredentialsSender interface {
	SendTemporaryCredentials(ctx context.Context, email, fullName, enrollmentNumber, password string) error
}

type RosterImportServiceConfig struct {
	Bucket       string
	MaxRows      int
	MaxFileBytes int64
}

type RosterImportService struct {
	repo     ports.RosterImportRepository
	students ports.StudentRepository
	storage  ports.ObjectStorage
	mailer   CredentialsSender
	reporter FailureReporter

	bucket       string
	maxRows      int
	maxFileBytes int64
	now          func() time.Time
	tempPassword func() (string, error)
}

func NewRosterImportService(repo ports.RosterImportRepository, students ports.StudentRepository, storage ports.ObjectStorage, mailer CredentialsSender, cfg RosterImportServiceConfig) *RosterImportService {
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 500
	}
	maxFile := cfg.MaxFileBytes
	if maxFile <= 0 {
		maxFile = 2 * 1024 * 1024
	}
	return &RosterImportService{
		repo:         repo,
		students:     students,
		storage:      storage,
		mailer:       mailer,
		bucket:       strings.TrimSpace(cfg.Bucket),
		maxRows:      maxRows,
		maxFileBytes: maxFile,
		now:          time.Now,
		tempPassword: util.GenerateTemporaryPassword,
	}
}

func (s *RosterImportService) SetReporter(reporter FailureReporter) {
	s.reporter = reporter
}

// Import creates student accounts from a CSV roster. Each row ends up
// created, skipped because the student exists, or invalid. A dry run only
// validates; valid rows are reported with status "valid".
func (s *RosterImportService) Import(ctx context.Context, admin *domain.Instructor, filename string, contents []byte, dryRun bool) (_ *domain.RosterImportJob, err error) {
	if !admin.IsAdmin {
		return nil, ErrForbidden
	}
	if len(contents) == 0 {
		return nil, ErrImportEmptyFile
	}
	if int64(len(contents)) > s.maxFileBytes {
		return nil, ErrImportTooLarge
	}

	header, records, err := parseRosterCSV(contents)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrImportEmptyFile
	}
	if len(records) > s.maxRows {
		return nil, ErrImportRowLimitExceeded
	}
	if missing := missingColumns(header, rosterColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrImportInvalidHeaders, strings.Join(missing, ", "))
	}

	jobID := uuid.New()
	objectName := rosterObjectName(jobID, filename)
	if s.storage != nil && s.bucket != "" {
		if _, err := s.storage.Upload(ctx, s.bucket, objectName, "text/csv", bytes.NewReader(contents), int64(len(contents))); err != nil {
			return nil, err
		}
	}

	job, err := s.repo.CreateJob(ctx, &domain.RosterImportJob{
		ID:          jobID,
		UploadedBy:  admin.ID,
		Status:      domain.RosterImportStatusProcessing,
		DryRun:      dryRun,
		FileKey:     objectName,
		TotalRows:   len(records),
		SubmittedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.failJob(ctx, job)
		}
	}()

	seenEnrollment := make(map[string]int)
	seenEmail := make(map[string]int)
	rows := make([]domain.RosterImportRow, 0, len(records))

	for _, record := range records {
		rowNumber := record.line
		values := rowToMap(header, record.values)
		entry := rosterEntry{
			EnrollmentNumber: domain.NormalizeEnrollmentNumber(values["enrollment_number"]),
			Email:            domain.NormalizeEmail(values["email"]),
			FullName:         strings.TrimSpace(values["full_name"]),
			Batch:            strings.TrimSpace(values["batch"]),
		}

		problems := entry.validate()
		if prev, ok := seenEnrollment[entry.EnrollmentNumber]; ok && entry.EnrollmentNumber != "" {
			problems = append(problems, fmt.Sprintf("enrollment number duplicates row %d", prev))
		} else if entry.EnrollmentNumber != "" {
			seenEnrollment[entry.EnrollmentNumber] = rowNumber
		}
		if prev, ok := seenEmail[entry.Email]; ok && entry.Email != "" {
			problems = append(problems, fmt.Sprintf("email duplicates row %d", prev))
		} else if entry.Email != "" {
			seenEmail[entry.Email] = rowNumber
		}

		row := domain.RosterImportRow{
			JobID:            job.ID,
			RowNumber:        rowNumber,
			EnrollmentNumber: entry.EnrollmentNumber,
			Email:            entry.Email,
		}

		switch {
		case len(problems) > 0:
			row.Status = domain.RosterRowInvalid
			message := strings.Join(problems, "; ")
			row.ErrorMessage = &message
		default:
			exists, err := s.students.ExistsByEnrollmentOrEmail(ctx, entry.EnrollmentNumber, entry.Email)
			if err != nil {
				return nil, err
			}
			switch {
			case exists:
				row.Status = domain.RosterRowSkippedExisting
			case dryRun:
				row.Status = domain.RosterRowValid
			default:
				studentID, err := s.createStudent(ctx, entry)
				if err != nil {
					if !isUniqueViolation(err) {
						return nil, err
					}
					row.Status = domain.RosterRowSkippedExisting
				} else {
					row.Status = domain.RosterRowCreated
					row.StudentID = &studentID
				}
			}
		}

		switch row.Status {
		case domain.RosterRowCreated:
			job.Created++
		case domain.RosterRowSkippedExisting:
			job.Skipped++
		case domain.RosterRowInvalid:
			job.Invalid++
		}

		inserted, err := s.repo.InsertRow(ctx, &row)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *inserted)
	}

	completed := s.now()
	job.Status = domain.RosterImportStatusCompleted
	job.CompletedAt = &completed
	updated, err := s.repo.UpdateJob(ctx, job)
	if err != nil {
		return nil, err
	}
	updated.Rows = rows
	return updated, nil
}

func (s *RosterImportService) GetJob(ctx context.Context, admin *domain.Instructor, jobID uuid.UUID) (*domain.RosterImportJob, error) {
	if !admin.IsAdmin {
		return nil, ErrForbidden
	}
	job, err := s.repo.FindJobByID(ctx, jobID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrImportJobNotFound
		}
		return nil, err
	}
	rows, err := s.repo.ListRowsByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	job.Rows = rows
	return job, nil
}

// createStudent stores the account and emails the temporary password. A
// failed email is logged and reported; the student can still use forgot-password.
func (s *RosterImportService) createStudent(ctx context.Context, entry rosterEntry) (uuid.UUID, error) {
	password, err := s.tempPassword()
	if err != nil {
		return uuid.Nil, err
	}
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return uuid.Nil, err
	}
	created, err := s.students.Create(ctx, &domain.Student{
		EnrollmentNumber:   entry.EnrollmentNumber,
		Email:              entry.Email,
		FullName:           entry.FullName,
		Batch:              entry.Batch,
		PasswordHash:       hash,
		PasswordSalt:       salt,
		MustChangePassword: true,
	})
	if err != nil {
		return uuid.Nil, err
	}
	if s.mailer != nil {
		if err := s.mailer.SendTemporaryCredentials(ctx, created.Email, created.FullName, created.EnrollmentNumber, password); err != nil {
			log.Printf("roster: send credentials to %s: %v", created.EnrollmentNumber, err)
			if s.reporter != nil {
				s.reporter.Report(ctx, err, map[string]interface{}{
					"student_id":        created.ID.String(),
					"enrollment_number": created.EnrollmentNumber,
				})
			}
		}
	}
	return created.ID, nil
}

func (s *RosterImportService) failJob(ctx context.Context, job *domain.RosterImportJob) {
	completed := s.now()
	job.Status = domain.RosterImportStatusFailed
	job.CompletedAt = &completed
	if _, err := s.repo.UpdateJob(ctx, job); err != nil {
		log.Printf("roster: mark job %s failed: %v", job.ID, err)
	}
}

type rosterEntry struct {
	EnrollmentNumber string
	Email            string
	FullName         string
	Batch            string
}

func (e rosterEntry) validate() []string {
	var problems []string
	if e.EnrollmentNumber == "" {
		problems = append(problems, "enrollment number is required")
	}
	if e.Email == "" {
		problems = append(problems, "email is required")
	} else if addr, err := mail.ParseAddress(e.Email); err != nil || addr.Address != e.Email {
		problems = append(problems, "email is invalid")
	}
	if e.FullName == "" {
		problems = append(problems, "full name is required")
	}
	if e.Batch == "" {
		problems = append(problems, "batch is required")
	}
	return problems
}

type rosterRecord struct {
	line   int
	values []string
}

func parseRosterCSV(contents []byte) ([]string, []rosterRecord, error) {
	reader := csv.NewReader(bytes.NewReader(contents))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrImportEmptyFile
		}
		return nil, nil, err
	}
	for i, h := range header {
		header[i] = normalizeHeader(h)
	}

	var rows []rosterRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if isRecordEmpty(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, rosterRecord{line: line, values: record})
	}
	return header, rows, nil
}

func missingColumns(header []string, required []string) []string {
	set := make(map[string]struct{}, len(header))
	for _, h := range header {
		set[h] = struct{}{}
	}
	var missing []string
	for _, req := range required {
		if _, ok := set[req]; !ok {
			missing = append(missing, req)
		}
	}
	return missing
}

func rowToMap(header []string, record []string) map[string]string {
	out := make(map[string]string, len(header))
	for idx, key := range header {
		if idx < len(record) {
			out[key] = strings.TrimSpace(record[idx])
		}
	}
	return out
}

func isRecordEmpty(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

func rosterObjectName(jobID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".csv"
	}
	return fmt.Sprintf("imports/roster/%s%s", jobID, ext)
}
