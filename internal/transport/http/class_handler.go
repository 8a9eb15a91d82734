package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

type classRequest struct {
	Title       string    `json:"title" validate:"notblank"`
	Description *string   `json:"description"`
	Batch       string    `json:"batch" validate:"notblank"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	MeetingLink *string   `json:"meetingLink" validate:"omitempty,url"`
}

func (r classRequest) input() service.ClassInput {
	return service.ClassInput{
		Title:       r.Title,
		Description: r.Description,
		Batch:       r.Batch,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		MeetingLink: r.MeetingLink,
	}
}

type attendanceRequest struct {
	Records []attendanceEntry `json:"records" validate:"required,min=1,dive"`
}

type attendanceEntry struct {
	StudentID uuid.UUID               `json:"studentId" validate:"required"`
	Status    domain.AttendanceStatus `json:"status" validate:"required,oneof=present absent late"`
}

type ClassHandler struct {
	classes *service.ClassService
}

func RegisterClasses(e *echo.Echo, auth Authenticator, classes *service.ClassService) {
	h := &ClassHandler{classes: classes}

	instructor := e.Group("/classes/instructor", RequireAuth(auth), RequireInstructor())
	instructor.POST("", h.create)
	instructor.GET("", h.listForInstructor)
	instructor.GET("/:id", h.get)
	instructor.PUT("/:id", h.update)
	instructor.POST("/:id/cancel", h.cancel)
	instructor.DELETE("/:id", h.delete)
	instructor.POST("/:id/attendance", h.recordAttendance)
	instructor.GET("/:id/attendance", h.listAttendance)

	student := e.Group("/classes/student", RequireAuth(auth), RequireStudent())
	student.GET("", h.listForStudent)
	student.GET("/attendance", h.studentAttendance)
	student.GET("/:id", h.get)
}

func (h *ClassHandler) create(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	var req classRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	class, err := h.classes.Create(c.Request().Context(), instructor, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, util.Message("Class created").With("class", class))
}

func (h *ClassHandler) update(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req classRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	class, err := h.classes.Update(c.Request().Context(), instructor, id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Class updated").With("class", class))
}

func (h *ClassHandler) cancel(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	class, err := h.classes.Cancel(c.Request().Context(), instructor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Class cancelled").With("class", class))
}

func (h *ClassHandler) delete(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.classes.Delete(c.Request().Context(), instructor, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Class deleted"))
}

func (h *ClassHandler) get(c echo.Context) error {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return errAuthRequired
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	class, err := h.classes.Get(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("class", class))
}

func (h *ClassHandler) listForInstructor(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	classes, err := h.classes.ListForInstructor(c.Request().Context(), instructor, statusFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("classes", classes))
}

func (h *ClassHandler) listForStudent(c echo.Context) error {
	student, err := currentStudent(c)
	if err != nil {
		return err
	}
	classes, err := h.classes.ListForStudent(c.Request().Context(), student, statusFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("classes", classes))
}

func (h *ClassHandler) recordAttendance(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req attendanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	entries := make([]service.AttendanceInput, 0, len(req.Records))
	for _, record := range req.Records {
		entries = append(entries, service.AttendanceInput{StudentID: record.StudentID, Status: record.Status})
	}
	records, err := h.classes.RecordAttendance(c.Request().Context(), instructor, id, entries)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Attendance recorded").With("attendance", records))
}

func (h *ClassHandler) listAttendance(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	records, err := h.classes.ListAttendance(c.Request().Context(), instructor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("attendance", records))
}

func (h *ClassHandler) studentAttendance(c echo.Context) error {
	student, err := currentStudent(c)
	if err != nil {
		return err
	}
	records, err := h.classes.StudentAttendance(c.Request().Context(), student)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("attendance", records))
}

func parseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, errInvalidIDParam
	}
	return id, nil
}

func statusFilter(c echo.Context) *domain.ClassStatus {
	raw := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	if raw == "" {
		return nil
	}
	status := domain.ClassStatus(raw)
	return &status
}
