// Package core holds the shared HTTP response envelope for all handlers.
package core

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weft-sh/weft/pkg/errorx"
	"github.com/weft-sh/weft/pkg/logger"
)

// ErrResponse defines the return message when an error occurred.
// Reference will be shown only when it is set.
type ErrResponse struct {
	// Code defines the business error code.
	Code int `json:"code"`

	// Message contains the detail of this message.
	// This message is suitable to be exposed to external.
	Message string `json:"message"`

	// Reference returns the reference document which maybe useful to solve this error.
	Reference string `json:"reference,omitempty"`
}

// WriteResponse writes err or data into the gin context. Coded errors map to
// their registered HTTP status; everything else is a 500.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err != nil {
		logger.Error("%v", err)
		coder := errorx.ParseCoder(err)
		c.JSON(coder.HTTPStatus(), ErrResponse{
			Code:      coder.Code(),
			Message:   coder.String(),
			Reference: coder.Reference(),
		})

		return
	}

	c.JSON(http.StatusOK, data)
}
