package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
)

type fakeAuthenticator struct {
	principals map[string]*domain.Principal
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*domain.Principal, error) {
	if p, ok := f.principals[token]; ok {
		return p, nil
	}
	return nil, service.ErrInvalidToken
}

type recordingReporter struct {
	mu     sync.Mutex
	errors []error
}

func (r *recordingReporter) ReportRequest(_ *http.Request, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recordingReporter) Report(_ context.Context, err error, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recordingReporter) Close() error { return nil }

func newTestRouter() (*echo.Echo, *recordingReporter) {
	reporter := &recordingReporter{}
	return NewRouter([]string{"*"}, reporter), reporter
}

func doJSON(e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			buf.WriteString(v)
		default:
			_ = json.NewEncoder(&buf).Encode(v)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newRawRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func studentPrincipal(batch string) *domain.Principal {
	st := &domain.Student{ID: uuid.New(), EnrollmentNumber: "CC-001", Email: "ada@example.com", FullName: "Ada", Batch: batch}
	return &domain.Principal{Kind: domain.PrincipalStudent, ID: st.ID, Student: st}
}

func instructorPrincipal(admin bool, batches ...string) *domain.Principal {
	in := &domain.Instructor{ID: uuid.New(), Email: "grace@example.com", FullName: "Grace", Batches: batches, IsAdmin: admin}
	return &domain.Principal{Kind: domain.PrincipalInstructor, ID: in.ID, Instructor: in}
}

// memoryStudents is a minimal student store for handler flows.
type memoryStudents struct {
	mu       sync.Mutex
	students map[uuid.UUID]domain.Student
}

func newMemoryStudents(students ...domain.Student) *memoryStudents {
	m := &memoryStudents{students: map[uuid.UUID]domain.Student{}}
	for _, st := range students {
		m.students[st.ID] = st
	}
	return m
}

func (m *memoryStudents) Create(_ context.Context, student *domain.Student) (*domain.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *student
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	m.students[stored.ID] = stored
	return &stored, nil
}

func (m *memoryStudents) FindByID(_ context.Context, id uuid.UUID) (*domain.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &st, nil
}

func (m *memoryStudents) FindByEnrollmentNumber(_ context.Context, enrollment string) (*domain.Student, error) {
	return m.find(func(st domain.Student) bool { return st.EnrollmentNumber == enrollment })
}

func (m *memoryStudents) FindByEnrollmentAndEmail(_ context.Context, enrollment, email string) (*domain.Student, error) {
	return m.find(func(st domain.Student) bool { return st.EnrollmentNumber == enrollment && st.Email == email })
}

func (m *memoryStudents) ExistsByEnrollmentOrEmail(_ context.Context, enrollment, email string) (bool, error) {
	_, err := m.find(func(st domain.Student) bool { return st.EnrollmentNumber == enrollment || st.Email == email })
	return err == nil, nil
}

func (m *memoryStudents) ListByBatch(_ context.Context, batch string) ([]domain.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Student
	for _, st := range m.students {
		if st.Batch == batch {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memoryStudents) SaveOTPState(_ context.Context, id uuid.UUID, prev, next domain.OTPState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	if !st.OTPState.SameGuard(prev) {
		return domain.ErrOTPStateChanged
	}
	st.OTPState = next
	m.students[id] = st
	return nil
}

func (m *memoryStudents) ResetPasswordWithOTP(_ context.Context, id uuid.UUID, prev domain.OTPState, hash, salt []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	if !st.OTPState.SameGuard(prev) {
		return domain.ErrOTPStateChanged
	}
	st.PasswordHash, st.PasswordSalt = hash, salt
	st.MustChangePassword = false
	st.OTPState = domain.OTPState{}
	m.students[id] = st
	return nil
}

func (m *memoryStudents) UpdatePassword(_ context.Context, id uuid.UUID, hash, salt []byte, mustChange bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	st.PasswordHash, st.PasswordSalt = hash, salt
	st.MustChangePassword = mustChange
	st.OTPState = domain.OTPState{}
	m.students[id] = st
	return nil
}

func (m *memoryStudents) find(match func(domain.Student) bool) (*domain.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.students {
		if match(st) {
			return &st, nil
		}
	}
	return nil, sql.ErrNoRows
}

type capturingMailer struct {
	mu    sync.Mutex
	codes []string
}

func (m *capturingMailer) SendOTP(_ context.Context, _ string, code string, _ domain.OTPPurpose, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *capturingMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) == 0 {
		return ""
	}
	return m.codes[len(m.codes)-1]
}

type memoryAssignments struct {
	items map[uuid.UUID]domain.Assignment
}

func (m *memoryAssignments) Create(_ context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	m.items[a.ID] = *a
	return a, nil
}

func (m *memoryAssignments) Update(_ context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	m.items[a.ID] = *a
	return a, nil
}

func (m *memoryAssignments) FindByID(_ context.Context, id uuid.UUID) (*domain.Assignment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	a.Questions = append(domain.Questions(nil), a.Questions...)
	return &a, nil
}

func (m *memoryAssignments) List(context.Context, domain.AssignmentFilter) ([]domain.Assignment, error) {
	out := make([]domain.Assignment, 0, len(m.items))
	for _, a := range m.items {
		out = append(out, a)
	}
	return out, nil
}

type memorySubmissions struct {
	mu    sync.Mutex
	items []domain.Submission
}

func (m *memorySubmissions) Create(_ context.Context, s *domain.Submission) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *s
	stored.ID = uuid.New()
	m.items = append(m.items, stored)
	return &stored, nil
}

func (m *memorySubmissions) UpdateGrading(_ context.Context, s *domain.Submission) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == s.ID {
			m.items[i] = *s
		}
	}
	return s, nil
}

func (m *memorySubmissions) FindByID(_ context.Context, id uuid.UUID) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.items {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memorySubmissions) CountByStudent(_ context.Context, assignmentID, studentID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.items {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (m *memorySubmissions) CountByAssignment(_ context.Context, assignmentID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.items {
		if s.AssignmentID == assignmentID {
			n++
		}
	}
	return n, nil
}

func (m *memorySubmissions) ListByAssignment(_ context.Context, assignmentID uuid.UUID) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Submission
	for _, s := range m.items {
		if s.AssignmentID == assignmentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memorySubmissions) ListByStudent(_ context.Context, assignmentID, studentID uuid.UUID) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Submission
	for _, s := range m.items {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}
