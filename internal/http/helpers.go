package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kidopedia/kidopedia/internal/profiles"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError records the error for the request logger and sends a
// 500 Internal Server Error response. The actual error is not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	_ = c.Error(err).SetMeta(context)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
// Use the specific helpers (respondBadRequest, respondNotFound, etc.) when possible.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondProfileError maps profile service errors onto status codes.
func respondProfileError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, profiles.ErrProfileNotFound):
		respondNotFound(c, "profile")
	case errors.Is(err, profiles.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_profile"})
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// AgeSource supplies the viewer age when a request does not carry one.
type AgeSource interface {
	ViewerAge() (int, error)
}

// parseAgeQuery reads the "age" query parameter, falling back to the active
// viewer's age. Returns false after responding with an error.
func parseAgeQuery(c *gin.Context, ages AgeSource) (int, bool) {
	raw := c.Query("age")
	if raw == "" {
		age, err := ages.ViewerAge()
		if err != nil {
			respondInternalError(c, err, "viewer age")
			return 0, false
		}
		return age, true
	}
	age, err := strconv.Atoi(raw)
	if err != nil || age < 0 || age > 120 {
		respondBadRequest(c, "invalid age")
		return 0, false
	}
	return age, true
}

// parseLimitQuery reads an optional positive "limit" query parameter.
// Zero means the service default.
func parseLimitQuery(c *gin.Context, max int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		respondBadRequest(c, "invalid limit")
		return 0, false
	}
	if limit > max {
		limit = max
	}
	return limit, true
}

// requireParam extracts a non-empty URL parameter or responds with a 400 error.
func requireParam(c *gin.Context, name string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		respondBadRequest(c, name+" is required")
		return "", false
	}
	return v, true
}
