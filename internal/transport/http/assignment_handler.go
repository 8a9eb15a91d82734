package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

type assignmentRequest struct {
	Title       string                    `json:"title" validate:"notblank"`
	Description *string                   `json:"description"`
	Batch       string                    `json:"batch" validate:"notblank"`
	DueDate     time.Time                 `json:"dueDate" validate:"required"`
	Settings    domain.AssignmentSettings `json:"settings"`
	Questions   []questionRequest         `json:"questions" validate:"dive"`
}

type questionRequest struct {
	Type    domain.QuestionType     `json:"type" validate:"required,oneof=single_choice multiple_select text file_upload"`
	Prompt  string                  `json:"prompt" validate:"notblank"`
	Points  float64                 `json:"points" validate:"gt=0"`
	Options []domain.QuestionOption `json:"options"`
}

func (r questionRequest) input() service.QuestionInput {
	return service.QuestionInput{
		Type:    r.Type,
		Prompt:  r.Prompt,
		Points:  r.Points,
		Options: r.Options,
	}
}

func (r assignmentRequest) input() service.AssignmentInput {
	questions := make([]service.QuestionInput, 0, len(r.Questions))
	for _, q := range r.Questions {
		questions = append(questions, q.input())
	}
	return service.AssignmentInput{
		Title:       r.Title,
		Description: r.Description,
		Batch:       r.Batch,
		DueDate:     r.DueDate,
		Settings:    r.Settings,
		Questions:   questions,
	}
}

type AssignmentHandler struct {
	assignments *service.AssignmentService
	submissions *service.SubmissionService
}

// RegisterAssignments mounts the instructor authoring routes and the student
// submission routes.
func RegisterAssignments(e *echo.Echo, auth Authenticator, assignments *service.AssignmentService, submissions *service.SubmissionService) {
	h := &AssignmentHandler{assignments: assignments, submissions: submissions}

	instructor := e.Group("/assignments/instructor", RequireAuth(auth), RequireInstructor())
	instructor.POST("/assignment", h.create)
	instructor.GET("/assignments", h.listForInstructor)
	instructor.GET("/assignment/:id", h.getForInstructor)
	instructor.PUT("/assignment/:id", h.update)
	instructor.DELETE("/assignment/:id", h.delete)
	instructor.POST("/assignment/:id/questions", h.addQuestion)
	instructor.PUT("/assignment/:id/questions/:questionId", h.updateQuestion)
	instructor.DELETE("/assignment/:id/questions/:questionId", h.removeQuestion)
	instructor.POST("/assignment/:id/publish", h.publish)
	instructor.POST("/assignment/:id/unpublish", h.unpublish)
	instructor.POST("/assignment/:id/lock", h.lock)
	instructor.POST("/assignment/:id/unlock", h.unlock)
	instructor.GET("/assignment/:id/submissions", h.listSubmissions)
	instructor.GET("/assignment/:id/submission/:subId", h.getSubmission)
	instructor.POST("/assignment/:id/submission/:subId/grade", h.grade)

	student := e.Group("/assignments/student", RequireAuth(auth), RequireStudent())
	student.GET("/assignments", h.listForStudent)
	student.GET("/assignment/:id", h.getForStudent)
	student.POST("/assignment/:id/submit", h.submit)
	student.POST("/assignment/:id/upload", h.upload)
	student.GET("/assignment/:id/submissions", h.mySubmissions)
}

func (h *AssignmentHandler) create(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	var req assignmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	assignment, err := h.assignments.Create(c.Request().Context(), instructor, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, util.Message("Assignment created").With("assignment", assignment))
}

func (h *AssignmentHandler) update(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req assignmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	assignment, err := h.assignments.Update(c.Request().Context(), instructor, id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Assignment updated").With("assignment", assignment))
}

func (h *AssignmentHandler) delete(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.assignments.Delete(c.Request().Context(), instructor, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Assignment deleted"))
}

func (h *AssignmentHandler) getForInstructor(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	assignment, err := h.assignments.GetForInstructor(c.Request().Context(), instructor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("assignment", assignment))
}

func (h *AssignmentHandler) listForInstructor(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	includeInactive, _ := strconv.ParseBool(c.QueryParam("includeInactive"))
	list, err := h.assignments.ListForInstructor(c.Request().Context(), instructor, includeInactive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("assignments", list))
}

func (h *AssignmentHandler) addQuestion(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req questionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	assignment, err := h.assignments.AddQuestion(c.Request().Context(), instructor, id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, util.Message("Question added").With("assignment", assignment))
}

func (h *AssignmentHandler) updateQuestion(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	questionID, err := parseIDParam(c, "questionId")
	if err != nil {
		return err
	}
	var req questionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	assignment, err := h.assignments.UpdateQuestion(c.Request().Context(), instructor, id, questionID, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Question updated").With("assignment", assignment))
}

func (h *AssignmentHandler) removeQuestion(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	questionID, err := parseIDParam(c, "questionId")
	if err != nil {
		return err
	}
	assignment, err := h.assignments.RemoveQuestion(c.Request().Context(), instructor, id, questionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Question removed").With("assignment", assignment))
}

func (h *AssignmentHandler) publish(c echo.Context) error {
	return h.transition(c, "Assignment published", h.assignments.Publish)
}

func (h *AssignmentHandler) unpublish(c echo.Context) error {
	return h.transition(c, "Assignment unpublished", h.assignments.Unpublish)
}

func (h *AssignmentHandler) lock(c echo.Context) error {
	return h.transition(c, "Assignment locked", func(ctx context.Context, instructor *domain.Instructor, id uuid.UUID) (*domain.Assignment, error) {
		return h.assignments.SetLocked(ctx, instructor, id, true)
	})
}

func (h *AssignmentHandler) unlock(c echo.Context) error {
	return h.transition(c, "Assignment unlocked", func(ctx context.Context, instructor *domain.Instructor, id uuid.UUID) (*domain.Assignment, error) {
		return h.assignments.SetLocked(ctx, instructor, id, false)
	})
}

func (h *AssignmentHandler) transition(c echo.Context, msg string, apply func(context.Context, *domain.Instructor, uuid.UUID) (*domain.Assignment, error)) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	assignment, err := apply(c.Request().Context(), instructor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message(msg).With("assignment", assignment))
}

func (h *AssignmentHandler) listForStudent(c echo.Context) error {
	student, err := currentStudent(c)
	if err != nil {
		return err
	}
	list, err := h.assignments.ListForStudent(c.Request().Context(), student)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("assignments", list))
}

func (h *AssignmentHandler) getForStudent(c echo.Context) error {
	student, err := currentStudent(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	assignment, err := h.assignments.GetForStudent(c.Request().Context(), student, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("assignment", assignment))
}
