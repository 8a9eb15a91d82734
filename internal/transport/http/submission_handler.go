package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

type submitRequest struct {
	Answers []answerRequest `json:"answers" validate:"required,min=1,dive"`
}

type answerRequest struct {
	QuestionID      uuid.UUID           `json:"questionId" validate:"required"`
	AnswerType      domain.QuestionType `json:"answerType" validate:"required,oneof=single_choice multiple_select text file_upload"`
	SelectedOption  *int                `json:"selectedOption" validate:"omitempty,min=0"`
	SelectedOptions []int               `json:"selectedOptions" validate:"omitempty,dive,min=0"`
	TextAnswer      *string             `json:"textAnswer"`
	FileURL         *string             `json:"fileUrl"`
}

func (r submitRequest) answers() domain.Answers {
	out := make(domain.Answers, 0, len(r.Answers))
	for _, a := range r.Answers {
		out = append(out, domain.Answer{
			QuestionID:      a.QuestionID,
			AnswerType:      a.AnswerType,
			SelectedOption:  a.SelectedOption,
			SelectedOptions: a.SelectedOptions,
			TextAnswer:      a.TextAnswer,
			FileURL:         a.FileURL,
		})
	}
	return out
}

type gradeRequest struct {
	Score    *float64 `json:"score" validate:"required"`
	Feedback *string  `json:"feedback"`
}

func (h *AssignmentHandler) submit(c echo.Context) error {
	student, err := currentStudent(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req submitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.submissions.Submit(c.Request().Context(), student, id, req.answers())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, util.Message("Submission successful").
		With("submission", result.Submission).
		With("autoGradedScore", result.AutoGradedScore))
}

func (h *AssignmentHandler) upload(c echo.Context) error {
	student, err := currentStudent(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errMissingFile
	}
	src, err := fileHeader.Open()
	if err != nil {
		return errUnreadableFile
	}
	defer src.Close()

	url, err := h.submissions.UploadAnswerFile(c.Request().Context(), student, id, service.AnswerFile{
		Reader:      src,
		Size:        fileHeader.Size,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, util.Message("File uploaded").With("fileUrl", url))
}

func (h *AssignmentHandler) mySubmissions(c echo.Context) error {
	student, err := currentStudent(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	list, err := h.submissions.ListForStudent(c.Request().Context(), student, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("submissions", list))
}

func (h *AssignmentHandler) listSubmissions(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	list, err := h.submissions.ListForAssignment(c.Request().Context(), instructor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("submissions", list))
}

func (h *AssignmentHandler) getSubmission(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	subID, err := parseIDParam(c, "subId")
	if err != nil {
		return err
	}
	sub, err := h.submissions.GetForInstructor(c.Request().Context(), instructor, id, subID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("submission", sub))
}

func (h *AssignmentHandler) grade(c echo.Context) error {
	instructor, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	subID, err := parseIDParam(c, "subId")
	if err != nil {
		return err
	}
	var req gradeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sub, err := h.submissions.Grade(c.Request().Context(), instructor, id, subID, *req.Score, req.Feedback)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Submission graded").With("submission", sub))
}
