package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	"github.com/rendezvous-csd/rendezvous-api/internal/services"
	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
)

// uploadField is the multipart field carrying the workbook
const uploadField = "file"

// ImportHandler handles spreadsheet uploads
type ImportHandler struct {
	service services.ImportServiceInterface
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(service services.ImportServiceInterface) *ImportHandler {
	return &ImportHandler{service: service}
}

// ImportCourses handles POST /admin/insertcourses
func (h *ImportHandler) ImportCourses(c *gin.Context) {
	h.ingest(c, models.CoursesTarget)
}

// ImportTeachers handles POST /admin
func (h *ImportHandler) ImportTeachers(c *gin.Context) {
	h.ingest(c, models.TeachersTarget)
}

func (h *ImportHandler) ingest(c *gin.Context, target models.ImportTarget) {
	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, codeFileTooLarge, "Uploaded file is too large", err)
			return
		}
		respondError(c, http.StatusBadRequest, codeNoFile, "No file uploaded", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, codeNoFile, "Uploaded file could not be read", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, http.StatusBadRequest, codeNoFile, "Uploaded file could not be read", err)
		return
	}

	report, err := h.service.Ingest(c.Request.Context(), target, fileHeader.Filename, data)
	if err != nil {
		h.respondIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ImportResponse{
		Message:  "Data imported successfully",
		Imported: report.Succeeded,
	})
}

func (h *ImportHandler) respondIngestError(c *gin.Context, err error) {
	var rowErr *apperrors.RowParseError
	var importErr *apperrors.ImportError

	switch {
	case apperrors.Is(err, apperrors.ErrEmptySheet):
		respondError(c, http.StatusBadRequest, codeEmptySheet, "The spreadsheet has no data rows", err)

	case apperrors.As(err, &rowErr):
		respondErrorWithDetails(c, http.StatusBadRequest, codeParseFailed,
			"Row columns do not match the first row", gin.H{"row": rowErr.Row}, err)

	case apperrors.Is(err, apperrors.ErrParse):
		respondError(c, http.StatusBadRequest, codeParseFailed, "An error occurred while parsing the Excel file", err)

	case apperrors.As(err, &importErr):
		details := gin.H{"row": importErr.Row, "imported": importErr.Succeeded}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			respondErrorWithDetails(c, http.StatusServiceUnavailable, codeImportAborted, "The import was interrupted", details, err)
			return
		}
		respondErrorWithDetails(c, http.StatusInternalServerError, codeInsertFailed,
			"An error occurred while importing data", details, err)

	default:
		respondError(c, http.StatusInternalServerError, codeInternal, "An error occurred while importing data", err)
	}
}
