package handlers

import (
	"github.com/gin-gonic/gin"
)

// Stable error codes returned to clients
const (
	codeValidationFailed = "validation_failed"
	codeStorageError     = "storage_error"
	codeNotLoggedIn      = "not_logged_in"
	codeNoFile           = "no_file"
	codeFileTooLarge     = "file_too_large"
	codeParseFailed      = "parse_failed"
	codeEmptySheet       = "empty_sheet"
	codeInsertFailed     = "insert_failed"
	codeImportAborted    = "import_aborted"
	codeInternal         = "internal_error"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends {"error":{"code","message"}} and keeps err for the request log only
func respondError(c *gin.Context, status int, code, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondErrorWithDetails adds a details object next to code and message
func respondErrorWithDetails(c *gin.Context, status int, code, message string, details any, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message, "details": details}})
}
