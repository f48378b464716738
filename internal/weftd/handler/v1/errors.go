package v1

import (
	"net/http"

	"github.com/weft-sh/weft/pkg/errorx"
)

// Weftd handler error codes.
// Code format: 1XXYYZ
//   - 1:  module prefix (weftd handler)
//   - XX: resource group (00=common, 01=chat)
//   - YY: sequential error number
//   - Z:  reserved (0)

const (
	// Common request errors (100xxx).
	ErrBind       = 100001
	ErrValidation = 100002

	// Chat completions errors (1001xx).
	ErrMessagesEmpty = 100101
	ErrStreamSplice  = 100102
)

func init() {
	// Common.
	errorx.MustRegister(newCoder(ErrBind, http.StatusBadRequest, "Request body binding failed"))
	errorx.MustRegister(newCoder(ErrValidation, http.StatusBadRequest, "Request validation failed"))

	// Chat completions.
	errorx.MustRegister(newCoder(ErrMessagesEmpty, http.StatusBadRequest, "Messages array is required and must not be empty"))
	errorx.MustRegister(newCoder(ErrStreamSplice, http.StatusInternalServerError, "Stream splice error"))
}

type coder struct {
	code int
	http int
	msg  string
}

func newCoder(code, httpStatus int, msg string) *coder {
	return &coder{code: code, http: httpStatus, msg: msg}
}

func (c *coder) Code() int         { return c.code }
func (c *coder) HTTPStatus() int   { return c.http }
func (c *coder) String() string    { return c.msg }
func (c *coder) Reference() string { return "" }
