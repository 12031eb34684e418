package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/yirikai/yirikai/internal/pkg/errcode"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes a failure using the http status conventionally paired with code.
func Error(c *gin.Context, code int, message string) {
	ErrorWithStatus(c, StatusOf(code), code, message)
}

func ErrorWithStatus(c *gin.Context, status int, code int, message string) {
	proxyutil.FailJson(c, status, AsCodeErr(uint32(code), message))
}

func StatusOf(code int) int {
	switch code {
	case errcode.ErrUnauthorized:
		return http.StatusUnauthorized
	case errcode.ErrForbidden:
		return http.StatusForbidden
	case errcode.ErrNotFound, errcode.ErrEmptyDocument:
		return http.StatusNotFound
	case errcode.ErrInvalid:
		return http.StatusBadRequest
	case errcode.ErrConflict:
		return http.StatusConflict
	case errcode.ErrTooMany, errcode.ErrQueryLimit:
		return http.StatusTooManyRequests
	case errcode.ErrAIUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
