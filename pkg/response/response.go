package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/n-kyan/microsoft-auth/pkg/errors"
)

// Envelope represents the common error contract.
type Envelope struct {
	Data  interface{}      `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
}

// JSON writes data as the top-level body. Auth payloads carry device codes, so
// nothing is cacheable.
func JSON(c *gin.Context, status int, data interface{}) {
	noStore(c)
	c.JSON(status, data)
}

// Raw writes an upstream JSON body verbatim.
func Raw(c *gin.Context, status int, body []byte) {
	noStore(c)
	c.Data(status, "application/json; charset=utf-8", body)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
