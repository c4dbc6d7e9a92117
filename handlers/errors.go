package handlers

import (
	"net/http"

	"driveschool/services/booking"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Conflicts carry the specific message through so clients can show
// "slot no longer available" and refresh, rather than a generic error.
func respondServiceError(c *gin.Context, err error) {
	var status int
	switch booking.CodeOf(err) {
	case booking.CodeValidation:
		status = http.StatusBadRequest
	case booking.CodeNotFound:
		status = http.StatusNotFound
	case booking.CodeConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
