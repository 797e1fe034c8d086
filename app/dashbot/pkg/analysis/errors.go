package analysis

import (
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
)

// 错误原因，用于区分失败类型
const (
	ReasonValidation  = "VALIDATION_FAILED"
	ReasonTimeout     = "ANALYSIS_TIMEOUT"
	ReasonServer      = "SERVER_ERROR"
	ReasonMalformed   = "MALFORMED_RESPONSE"
	ReasonBusiness    = "ANALYSIS_FAILED"
	ReasonUnavailable = "BACKEND_UNAVAILABLE"
)

// ErrorValidation 输入不合法，未发起网络请求
func ErrorValidation(format string, args ...any) *errors.Error {
	return errors.Newf(http.StatusBadRequest, ReasonValidation, format, args...)
}

// ErrorTimeout 请求超过了允许的等待时间
func ErrorTimeout(format string, args ...any) *errors.Error {
	return errors.Newf(http.StatusGatewayTimeout, ReasonTimeout, format, args...)
}

// ErrorServer 后端返回了非 2xx 状态码，Code 即 HTTP 状态码
func ErrorServer(status int, body string) *errors.Error {
	if status < http.StatusContinue {
		status = http.StatusInternalServerError
	}
	return errors.New(status, ReasonServer, body)
}

// ErrorMalformed 响应体无法解析
func ErrorMalformed(format string, args ...any) *errors.Error {
	return errors.Newf(http.StatusBadGateway, ReasonMalformed, format, args...)
}

// ErrorBusiness 后端明确返回 success=false
func ErrorBusiness(message string) *errors.Error {
	return errors.New(http.StatusUnprocessableEntity, ReasonBusiness, message)
}

// ErrorUnavailable 后端不可达
func ErrorUnavailable(format string, args ...any) *errors.Error {
	return errors.Newf(http.StatusServiceUnavailable, ReasonUnavailable, format, args...)
}

func IsValidation(err error) bool  { return errors.Reason(err) == ReasonValidation }
func IsTimeout(err error) bool     { return errors.Reason(err) == ReasonTimeout }
func IsServer(err error) bool      { return errors.Reason(err) == ReasonServer }
func IsMalformed(err error) bool   { return errors.Reason(err) == ReasonMalformed }
func IsBusiness(err error) bool    { return errors.Reason(err) == ReasonBusiness }
func IsUnavailable(err error) bool { return errors.Reason(err) == ReasonUnavailable }

// StatusCode 返回错误携带的状态码
func StatusCode(err error) int {
	return errors.Code(err)
}

// Message 返回错误的可读信息
func Message(err error) string {
	if e := errors.FromError(err); e != nil && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
