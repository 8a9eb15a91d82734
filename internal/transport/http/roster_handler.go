package http

import (
	"bytes"
	"encoding/csv"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

type RosterImportHandler struct {
	service       *service.RosterImportService
	maxUploadSize int64
}

func RegisterRosterImports(e *echo.Echo, auth Authenticator, svc *service.RosterImportService, maxUpload int64) {
	if svc == nil {
		return
	}
	handler := &RosterImportHandler{
		service:       svc,
		maxUploadSize: maxUpload,
	}

	group := e.Group("/admin/roster-imports", RequireAuth(auth), RequireAdmin())
	group.GET("/template", handler.template)
	group.POST("", handler.create)
	group.GET("/:id", handler.getJob)
}

func (h *RosterImportHandler) template(c echo.Context) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"enrollment_number", "email", "full_name", "batch"})
	_ = writer.Write([]string{"CC-2024-001", "ada@example.com", "Ada Lovelace", "B-2024"})
	writer.Flush()

	if err := writer.Error(); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="roster-import-template.csv"`)
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *RosterImportHandler) create(c echo.Context) error {
	admin, err := currentInstructor(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return errMissingFile
	}
	src, err := file.Open()
	if err != nil {
		return errUnreadableFile
	}
	defer src.Close()

	limit := h.maxUploadSize
	if limit <= 0 {
		limit = 2 * 1024 * 1024
	}
	// one byte over the limit is enough for the service to reject the file
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return errUnreadableFile
	}

	dryRun, _ := strconv.ParseBool(c.QueryParam("dry_run"))
	job, err := h.service.Import(c.Request().Context(), admin, file.Filename, data, dryRun)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	return c.JSON(status, util.Message("Roster processed").With("job", job))
}

func (h *RosterImportHandler) getJob(c echo.Context) error {
	admin, err := currentInstructor(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	job, err := h.service.GetJob(c.Request().Context(), admin, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Data("job", job))
}
