package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

// Envelope is the contract of the catalog, semester, group and exception endpoints.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// Timetable data changes with every write, so nothing is cacheable.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// resolve normalises err and attaches server-side failures to the gin context
// so the request logger records the cause hidden from the client.
func resolve(c *gin.Context, err error) *appErrors.Error {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	return appErr
}

// JSON sends a success envelope with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error envelope with the status of the typed error.
func Error(c *gin.Context, err error) {
	appErr := resolve(c, err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func flat(success bool, fields map[string]interface{}) gin.H {
	body := make(gin.H, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = success
	return body
}

// Success writes the flat scheduling contract: {"success": true, ...fields}.
func Success(c *gin.Context, status int, fields map[string]interface{}) {
	noStore(c)
	c.JSON(status, flat(true, fields))
}

// Rejected writes a soft failure the client may resubmit with force.
func Rejected(c *gin.Context, message string, fields map[string]interface{}) {
	body := flat(false, fields)
	body["error"] = message
	noStore(c)
	c.JSON(http.StatusBadRequest, body)
}

// Failure writes {"success": false, "error", "code"} with the status of the typed error.
func Failure(c *gin.Context, err error) {
	appErr := resolve(c, err)
	body := flat(false, nil)
	body["error"] = appErr.Message
	body["code"] = appErr.Code
	noStore(c)
	c.JSON(appErr.Status, body)
}
