package service

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/media"
)

type fakeStudentRepo struct {
	mu       sync.Mutex
	students map[uuid.UUID]*domain.Student

	savedStates    []domain.OTPState
	passwordCalls  []uuid.UUID
	createCalls    []domain.Student
	createErr      error
	resetErr       error
	existsOverride *bool
}

func newFakeStudentRepo(students ...*domain.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: map[uuid.UUID]*domain.Student{}}
	for _, st := range students {
		repo.students[st.ID] = st
	}
	return repo
}

func (f *fakeStudentRepo) clone(st *domain.Student) *domain.Student {
	c := *st
	return &c
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *domain.Student) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, *student)
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.students {
		if existing.EnrollmentNumber == student.EnrollmentNumber || existing.Email == student.Email {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	created := *student
	created.ID = uuid.New()
	f.students[created.ID] = &created
	return f.clone(&created), nil
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.students[id]; ok {
		return f.clone(st), nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) FindByEnrollmentNumber(ctx context.Context, enrollmentNumber string) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, st := range f.students {
		if st.EnrollmentNumber == enrollmentNumber {
			return f.clone(st), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) FindByEnrollmentAndEmail(ctx context.Context, enrollmentNumber, email string) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, st := range f.students {
		if st.EnrollmentNumber == enrollmentNumber && st.Email == email {
			return f.clone(st), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) ExistsByEnrollmentOrEmail(ctx context.Context, enrollmentNumber, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsOverride != nil {
		return *f.existsOverride, nil
	}
	for _, st := range f.students {
		if st.EnrollmentNumber == enrollmentNumber || st.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudentRepo) ListByBatch(ctx context.Context, batch string) ([]domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Student
	for _, st := range f.students {
		if strings.EqualFold(st.Batch, batch) {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) SaveOTPState(ctx context.Context, id uuid.UUID, prev, next domain.OTPState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	if !st.OTPState.SameGuard(prev) {
		return domain.ErrOTPStateChanged
	}
	st.OTPState = next
	f.savedStates = append(f.savedStates, next)
	return nil
}

func (f *fakeStudentRepo) ResetPasswordWithOTP(ctx context.Context, id uuid.UUID, prev domain.OTPState, passwordHash, passwordSalt []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return f.resetErr
	}
	st, ok := f.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	if !st.OTPState.SameGuard(prev) {
		return domain.ErrOTPStateChanged
	}
	st.PasswordHash = append([]byte(nil), passwordHash...)
	st.PasswordSalt = append([]byte(nil), passwordSalt...)
	st.MustChangePassword = false
	st.OTPState = domain.OTPState{}
	f.passwordCalls = append(f.passwordCalls, id)
	return nil
}

func (f *fakeStudentRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte, mustChange bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	st.PasswordHash = append([]byte(nil), passwordHash...)
	st.PasswordSalt = append([]byte(nil), passwordSalt...)
	st.MustChangePassword = mustChange
	st.OTPState = domain.OTPState{}
	f.passwordCalls = append(f.passwordCalls, id)
	return nil
}

func (f *fakeStudentRepo) get(id uuid.UUID) domain.Student {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.students[id]
}

type fakeInstructorRepo struct {
	instructors map[uuid.UUID]*domain.Instructor

	createInput   *domain.Instructor
	createErr     error
	passwordInput struct {
		id   uuid.UUID
		hash []byte
	}
}

func newFakeInstructorRepo(instructors ...*domain.Instructor) *fakeInstructorRepo {
	repo := &fakeInstructorRepo{instructors: map[uuid.UUID]*domain.Instructor{}}
	for _, in := range instructors {
		repo.instructors[in.ID] = in
	}
	return repo
}

func (f *fakeInstructorRepo) Create(ctx context.Context, instructor *domain.Instructor) (*domain.Instructor, error) {
	f.createInput = instructor
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *instructor
	created.ID = uuid.New()
	f.instructors[created.ID] = &created
	return &created, nil
}

func (f *fakeInstructorRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Instructor, error) {
	if in, ok := f.instructors[id]; ok {
		c := *in
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeInstructorRepo) FindByEmail(ctx context.Context, email string) (*domain.Instructor, error) {
	for _, in := range f.instructors {
		if in.Email == email {
			c := *in
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeInstructorRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	f.passwordInput.id = id
	f.passwordInput.hash = append([]byte(nil), passwordHash...)
	return nil
}

type fakeDenylist struct {
	revoked     map[string]domain.RevokedToken
	purgeCalls  []time.Time
	purgeErr    error
	isRevokedIn []string
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: map[string]domain.RevokedToken{}}
}

func (f *fakeDenylist) Revoke(ctx context.Context, token domain.RevokedToken) error {
	f.revoked[token.JTI] = token
	return nil
}

func (f *fakeDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	f.isRevokedIn = append(f.isRevokedIn, jti)
	_, ok := f.revoked[jti]
	return ok, nil
}

func (f *fakeDenylist) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	f.purgeCalls = append(f.purgeCalls, before)
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	var n int64
	for jti, tok := range f.revoked {
		if !tok.ExpiresAt.After(before) {
			delete(f.revoked, jti)
			n++
		}
	}
	return n, nil
}

type fakeClassRepo struct {
	classes    map[uuid.UUID]*domain.Class
	attendance map[uuid.UUID]map[uuid.UUID]domain.AttendanceRecord
	upserts    [][]domain.AttendanceRecord
	lastFilter domain.ClassFilter
}

func newFakeClassRepo(classes ...*domain.Class) *fakeClassRepo {
	repo := &fakeClassRepo{
		classes:    map[uuid.UUID]*domain.Class{},
		attendance: map[uuid.UUID]map[uuid.UUID]domain.AttendanceRecord{},
	}
	for _, c := range classes {
		repo.classes[c.ID] = c
	}
	return repo
}

func (f *fakeClassRepo) Create(ctx context.Context, class *domain.Class) (*domain.Class, error) {
	created := *class
	created.ID = uuid.New()
	f.classes[created.ID] = &created
	c := created
	return &c, nil
}

func (f *fakeClassRepo) Update(ctx context.Context, class *domain.Class) (*domain.Class, error) {
	if _, ok := f.classes[class.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	stored := *class
	f.classes[class.ID] = &stored
	c := stored
	return &c, nil
}

func (f *fakeClassRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Class, error) {
	if c, ok := f.classes[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeClassRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.classes, id)
	return nil
}

func (f *fakeClassRepo) List(ctx context.Context, filter domain.ClassFilter) ([]domain.Class, error) {
	f.lastFilter = filter
	out := make([]domain.Class, 0)
	for _, c := range f.classes {
		if filter.InstructorID != nil && c.InstructorID != *filter.InstructorID {
			continue
		}
		if len(filter.Batches) > 0 && !containsFold(filter.Batches, c.Batch) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeClassRepo) UpsertAttendance(ctx context.Context, records []domain.AttendanceRecord) error {
	f.upserts = append(f.upserts, records)
	for _, rec := range records {
		if f.attendance[rec.ClassID] == nil {
			f.attendance[rec.ClassID] = map[uuid.UUID]domain.AttendanceRecord{}
		}
		f.attendance[rec.ClassID][rec.StudentID] = rec
	}
	return nil
}

func (f *fakeClassRepo) ListAttendanceByClass(ctx context.Context, classID uuid.UUID) ([]domain.AttendanceRecord, error) {
	out := make([]domain.AttendanceRecord, 0)
	for _, rec := range f.attendance[classID] {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeClassRepo) ListAttendanceByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.AttendanceRecord, error) {
	out := make([]domain.AttendanceRecord, 0)
	for _, byStudent := range f.attendance {
		if rec, ok := byStudent[studentID]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	assignments map[uuid.UUID]*domain.Assignment
	updates     int
	lastFilter  domain.AssignmentFilter
}

func newFakeAssignmentRepo(assignments ...*domain.Assignment) *fakeAssignmentRepo {
	repo := &fakeAssignmentRepo{assignments: map[uuid.UUID]*domain.Assignment{}}
	for _, a := range assignments {
		repo.assignments[a.ID] = a
	}
	return repo
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	created := *a
	created.ID = uuid.New()
	f.assignments[created.ID] = &created
	c := created
	return &c, nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	if _, ok := f.assignments[a.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	f.updates++
	stored := *a
	f.assignments[a.ID] = &stored
	c := stored
	return &c, nil
}

func (f *fakeAssignmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	if a, ok := f.assignments[id]; ok {
		clone := *a
		clone.Questions = append(domain.Questions(nil), a.Questions...)
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAssignmentRepo) List(ctx context.Context, filter domain.AssignmentFilter) ([]domain.Assignment, error) {
	f.lastFilter = filter
	out := make([]domain.Assignment, 0)
	for _, a := range f.assignments {
		if len(filter.Batches) > 0 && !containsFold(filter.Batches, a.Batch) {
			continue
		}
		if filter.PublishedOnly && !a.IsPublished {
			continue
		}
		if !filter.IncludeInactive && !a.IsActive {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[uuid.UUID]*domain.Submission
	graded      []domain.Submission
	createErrs  []error
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: map[uuid.UUID]*domain.Submission{}}
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, sub *domain.Submission) (*domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	for _, existing := range f.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID && existing.AttemptNumber == sub.AttemptNumber {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	created := *sub
	created.ID = uuid.New()
	f.submissions[created.ID] = &created
	c := created
	return &c, nil
}

func (f *fakeSubmissionRepo) UpdateGrading(ctx context.Context, sub *domain.Submission) (*domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.submissions[sub.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	stored := *sub
	f.submissions[sub.ID] = &stored
	f.graded = append(f.graded, stored)
	c := stored
	return &c, nil
}

func (f *fakeSubmissionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub, ok := f.submissions[id]; ok {
		c := *sub
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubmissionRepo) CountByStudent(ctx context.Context, assignmentID, studentID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sub := range f.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSubmissionRepo) CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sub := range f.submissions {
		if sub.AssignmentID == assignmentID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Submission, 0)
	for _, sub := range f.submissions {
		if sub.AssignmentID == assignmentID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListByStudent(ctx context.Context, assignmentID, studentID uuid.UUID) ([]domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Submission, 0)
	for _, sub := range f.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			out = append(out, *sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

type fakeRosterRepo struct {
	jobs       map[uuid.UUID]*domain.RosterImportJob
	rows       []domain.RosterImportRow
	jobUpdates []domain.RosterImportJob
}

func newFakeRosterRepo() *fakeRosterRepo {
	return &fakeRosterRepo{jobs: map[uuid.UUID]*domain.RosterImportJob{}}
}

func (f *fakeRosterRepo) CreateJob(ctx context.Context, job *domain.RosterImportJob) (*domain.RosterImportJob, error) {
	stored := *job
	f.jobs[job.ID] = &stored
	c := stored
	return &c, nil
}

func (f *fakeRosterRepo) UpdateJob(ctx context.Context, job *domain.RosterImportJob) (*domain.RosterImportJob, error) {
	stored := *job
	stored.Rows = nil
	f.jobs[job.ID] = &stored
	f.jobUpdates = append(f.jobUpdates, stored)
	c := stored
	return &c, nil
}

func (f *fakeRosterRepo) FindJobByID(ctx context.Context, id uuid.UUID) (*domain.RosterImportJob, error) {
	if job, ok := f.jobs[id]; ok {
		c := *job
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRosterRepo) InsertRow(ctx context.Context, row *domain.RosterImportRow) (*domain.RosterImportRow, error) {
	stored := *row
	stored.ID = uuid.New()
	f.rows = append(f.rows, stored)
	return &stored, nil
}

func (f *fakeRosterRepo) ListRowsByJob(ctx context.Context, jobID uuid.UUID) ([]domain.RosterImportRow, error) {
	out := make([]domain.RosterImportRow, 0)
	for _, row := range f.rows {
		if row.JobID == jobID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeStorage struct {
	uploaded []struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
		body        []byte
	}
	err error
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	body, _ := io.ReadAll(reader)
	f.uploaded = append(f.uploaded, struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
		body        []byte
	}{bucket: bucket, objectName: objectName, contentType: contentType, size: size, body: body})
	return "https://storage/" + bucket + "/" + objectName, nil
}

// fakeImageProcessor replaces every image with output and counts calls.
type fakeImageProcessor struct {
	output      []byte
	contentType string
	calls       int
}

func (f *fakeImageProcessor) Process(ctx context.Context, upload media.Upload, maxDimension int) (*media.Result, error) {
	f.calls++
	return &media.Result{Bytes: f.output, ContentType: f.contentType, Resized: true}, nil
}

type fakeMailer struct {
	otps []struct {
		email   string
		code    string
		purpose domain.OTPPurpose
	}
	credentials []struct {
		email    string
		password string
	}
	err error
}

func (f *fakeMailer) SendOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.otps = append(f.otps, struct {
		email   string
		code    string
		purpose domain.OTPPurpose
	}{email: email, code: code, purpose: purpose})
	return nil
}

func (f *fakeMailer) SendTemporaryCredentials(ctx context.Context, email, fullName, enrollmentNumber, password string) error {
	if f.err != nil {
		return f.err
	}
	f.credentials = append(f.credentials, struct {
		email    string
		password string
	}{email: email, password: password})
	return nil
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
