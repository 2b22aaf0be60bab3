package response

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/collegeprep-backend/internal/platform/apierr"
)

// RespondAPIError writes err using the status and code it carries.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	RespondError(c, ae.Status, ae.Code, ae.Err)
}
