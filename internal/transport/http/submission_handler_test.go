package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
)

type submissionFixture struct {
	e           *echo.Echo
	assignment  domain.Assignment
	submissions *memorySubmissions
	singleID    uuid.UUID
	multiID     uuid.UUID
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	single := domain.Question{ID: uuid.New(), Type: domain.QuestionSingleChoice, Prompt: "2+2", Points: 5, Options: []domain.QuestionOption{
		{Text: "3"}, {Text: "4", IsCorrect: true},
	}}
	multi := domain.Question{ID: uuid.New(), Type: domain.QuestionMultipleSelect, Prompt: "primes", Points: 3, Options: []domain.QuestionOption{
		{Text: "2", IsCorrect: true}, {Text: "4"}, {Text: "5", IsCorrect: true},
	}}
	assignment := domain.Assignment{
		ID:          uuid.New(),
		Title:       "Warmup",
		Batch:       "B-2024",
		Questions:   domain.Questions{single, multi},
		TotalPoints: 8,
		DueDate:     time.Now().Add(24 * time.Hour),
		IsPublished: true,
		IsActive:    true,
	}

	assignments := &memoryAssignments{items: map[uuid.UUID]domain.Assignment{assignment.ID: assignment}}
	submissions := &memorySubmissions{}
	assignmentSvc := service.NewAssignmentService(assignments, submissions)
	submissionSvc := service.NewSubmissionService(assignments, submissions, nil, service.SubmissionServiceConfig{})

	auth := &fakeAuthenticator{principals: map[string]*domain.Principal{
		"student":    studentPrincipal("B-2024"),
		"outsider":   studentPrincipal("B-2023"),
		"instructor": instructorPrincipal(false, "B-2024"),
	}}
	e, _ := newTestRouter()
	RegisterAssignments(e, auth, assignmentSvc, submissionSvc)

	return &submissionFixture{e: e, assignment: assignment, submissions: submissions, singleID: single.ID, multiID: multi.ID}
}

func (f *submissionFixture) submitPath() string {
	return "/assignments/student/assignment/" + f.assignment.ID.String() + "/submit"
}

func TestSubmitAutoGradesObjectiveAnswers(t *testing.T) {
	f := newSubmissionFixture(t)

	rec := doJSON(f.e, http.MethodPost, f.submitPath(), "student", echo.Map{
		"answers": []echo.Map{
			{"questionId": f.singleID, "answerType": "single_choice", "selectedOption": 1},
			{"questionId": f.multiID, "answerType": "multiple_select", "selectedOptions": []int{2, 0}},
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Submission successful", body["msg"])
	assert.EqualValues(t, 8, body["autoGradedScore"])
	submission := body["submission"].(map[string]interface{})
	assert.Equal(t, "auto_graded", submission["status"])
	assert.EqualValues(t, 1, submission["attemptNumber"])
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	f := newSubmissionFixture(t)
	payload := echo.Map{"answers": []echo.Map{{"questionId": f.singleID, "answerType": "single_choice", "selectedOption": 0}}}

	first := doJSON(f.e, http.MethodPost, f.submitPath(), "student", payload)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(f.e, http.MethodPost, f.submitPath(), "student", payload)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, service.ErrAlreadySubmitted.Error(), decodeBody(t, second)["msg"])
	assert.Len(t, f.submissions.items, 1)
}

func TestSubmitValidatesRequestShape(t *testing.T) {
	f := newSubmissionFixture(t)

	rec := doJSON(f.e, http.MethodPost, f.submitPath(), "student", echo.Map{
		"answers": []echo.Map{{"answerType": "essay"}},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "answers[0].questionId")
	assert.Contains(t, errs, "answers[0].answerType")
}

func TestSubmitRejectsOtherBatch(t *testing.T) {
	f := newSubmissionFixture(t)

	rec := doJSON(f.e, http.MethodPost, f.submitPath(), "outsider", echo.Map{
		"answers": []echo.Map{{"questionId": f.singleID, "answerType": "single_choice", "selectedOption": 1}},
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitUnknownAssignment(t *testing.T) {
	f := newSubmissionFixture(t)

	rec := doJSON(f.e, http.MethodPost, "/assignments/student/assignment/"+uuid.NewString()+"/submit", "student", echo.Map{
		"answers": []echo.Map{{"questionId": f.singleID, "answerType": "single_choice", "selectedOption": 1}},
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitRoutesRequireStudent(t *testing.T) {
	f := newSubmissionFixture(t)

	rec := doJSON(f.e, http.MethodPost, f.submitPath(), "instructor", echo.Map{"answers": []echo.Map{}})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGradeSubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	submitted := doJSON(f.e, http.MethodPost, f.submitPath(), "student", echo.Map{
		"answers": []echo.Map{{"questionId": f.singleID, "answerType": "single_choice", "selectedOption": 0}},
	})
	require.Equal(t, http.StatusCreated, submitted.Code)
	subID := decodeBody(t, submitted)["submission"].(map[string]interface{})["id"].(string)
	gradePath := "/assignments/instructor/assignment/" + f.assignment.ID.String() + "/submission/" + subID + "/grade"

	tooHigh := doJSON(f.e, http.MethodPost, gradePath, "instructor", echo.Map{"score": 9})
	assert.Equal(t, http.StatusBadRequest, tooHigh.Code)

	missing := doJSON(f.e, http.MethodPost, gradePath, "instructor", echo.Map{"feedback": "ok"})
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Contains(t, decodeBody(t, missing)["errors"], "score")

	rec := doJSON(f.e, http.MethodPost, gradePath, "instructor", echo.Map{"score": 6.5, "feedback": " Nice work "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Submission graded", body["msg"])
	graded := body["submission"].(map[string]interface{})
	assert.EqualValues(t, 6.5, graded["score"])
	assert.Equal(t, "Nice work", graded["feedback"])
	assert.Equal(t, "graded", graded["status"])
}

func TestGradeRejectsInvalidIDs(t *testing.T) {
	f := newSubmissionFixture(t)

	rec := doJSON(f.e, http.MethodPost, "/assignments/instructor/assignment/not-a-uuid/submission/x/grade", "instructor", echo.Map{"score": 1})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid id", decodeBody(t, rec)["msg"])
}

func TestUploadRequiresFile(t *testing.T) {
	f := newSubmissionFixture(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("note", "no file here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/assignments/student/assignment/"+f.assignment.ID.String()+"/upload", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer student")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file is required", decodeBody(t, rec)["msg"])
}
