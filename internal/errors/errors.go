package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown       ErrorCode = 1000
	ErrInvalidParam  ErrorCode = 1001
	ErrNotFound      ErrorCode = 1002
	ErrAlreadyExists ErrorCode = 1003
	ErrTimeout       ErrorCode = 1004
	ErrUnavailable   ErrorCode = 1005

	// 游戏错误 (2000-2999)
	ErrGameNotFound       ErrorCode = 2000
	ErrGameAlreadyStarted ErrorCode = 2001
	ErrRoomCodeConflict   ErrorCode = 2002
	ErrRoomCodeExhausted  ErrorCode = 2003
	ErrPlayerNotFound     ErrorCode = 2004
	ErrMissionNotFound    ErrorCode = 2005
	ErrNotEnoughPlayers   ErrorCode = 2006
	ErrInvalidAction      ErrorCode = 2007
	ErrGameFinished       ErrorCode = 2008

	// 通信错误 (4000-4999)
	ErrWebSocketSend   ErrorCode = 4000
	ErrWebSocketClosed ErrorCode = 4001
	ErrMessageFormat   ErrorCode = 4002

	// 数据库错误 (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrDatabaseInsert  ErrorCode = 5002
	ErrDatabaseUpdate  ErrorCode = 5003

	// 配置错误 (6000-6999)
	ErrConfigLoad  ErrorCode = 6000
	ErrConfigParse ErrorCode = 6001

	// 安全错误 (7000-7999)
	ErrAuthentication ErrorCode = 7000
	ErrTokenExpired   ErrorCode = 7001
	ErrTokenInvalid   ErrorCode = 7002
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	// 通用错误
	ErrUnknown:       "未知错误",
	ErrInvalidParam:  "无效的参数",
	ErrNotFound:      "资源未找到",
	ErrAlreadyExists: "资源已存在",
	ErrTimeout:       "操作超时",
	ErrUnavailable:   "服务暂不可用",

	// 游戏错误
	ErrGameNotFound:       "游戏不存在",
	ErrGameAlreadyStarted: "游戏已经开始",
	ErrRoomCodeConflict:   "房间码已被占用",
	ErrRoomCodeExhausted:  "房间码生成失败，请稍后重试",
	ErrPlayerNotFound:     "玩家不存在",
	ErrMissionNotFound:    "任务不存在",
	ErrNotEnoughPlayers:   "玩家数量不足",
	ErrInvalidAction:      "无效的玩家操作",
	ErrGameFinished:       "游戏已结束",

	// 通信错误
	ErrWebSocketSend:   "WebSocket发送失败",
	ErrWebSocketClosed: "WebSocket连接已关闭",
	ErrMessageFormat:   "消息格式错误",

	// 数据库错误
	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrDatabaseInsert:  "数据库插入失败",
	ErrDatabaseUpdate:  "数据库更新失败",

	// 配置错误
	ErrConfigLoad:  "配置加载失败",
	ErrConfigParse: "配置解析失败",

	// 安全错误
	ErrAuthentication: "认证失败",
	ErrTokenExpired:   "令牌已过期",
	ErrTokenInvalid:   "无效的令牌",
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`            // 错误码
	Message string       `json:"message"`         // 错误消息
	Details string       `json:"details"`         // 详细信息
	Cause   error        `json:"-"`               // 原始错误
	Stack   []StackFrame `json:"stack,omitempty"` // 调用栈
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	// 捕获调用栈
	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return New(code, details)
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	if appErr, ok := err.(*AppError); ok {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr := New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return Wrap(err, code, details)
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// IsNotFound 判断是否为未找到类错误
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrNotFound, ErrGameNotFound, ErrPlayerNotFound, ErrMissionNotFound:
		return true
	default:
		return false
	}
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)

	if n > 0 {
		frames := runtime.CallersFrames(pcs[:n])
		for {
			frame, more := frames.Next()

			// 跳过runtime和本包的调用
			if strings.Contains(frame.Function, "runtime.") ||
				strings.Contains(frame.Function, "github.com/wfunc/secret-mission/internal/errors") {
				if !more {
					break
				}
				continue
			}

			e.Stack = append(e.Stack, StackFrame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})

			if !more {
				break
			}

			// 只保留前10个栈帧
			if len(e.Stack) >= 10 {
				break
			}
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frame := range e.Stack {
		builder.WriteString(fmt.Sprintf("%d. %s\n   %s:%d\n",
			i+1, frame.Function, frame.File, frame.Line))
	}

	return builder.String()
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidParam || e.Code == ErrGameAlreadyStarted ||
		e.Code == ErrNotEnoughPlayers || e.Code == ErrInvalidAction ||
		e.Code == ErrGameFinished:
		return 400 // Bad Request
	case IsNotFound(e):
		return 404 // Not Found
	case e.Code == ErrAlreadyExists || e.Code == ErrRoomCodeConflict:
		return 409 // Conflict
	case e.Code == ErrRoomCodeExhausted:
		return 429 // Too Many Requests
	case e.Code >= 7000 && e.Code <= 7999:
		return 401 // Unauthorized
	case e.Code == ErrTimeout:
		return 408 // Request Timeout
	case e.Code >= 5000 && e.Code <= 5999 || e.Code == ErrUnavailable:
		return 503 // Service Unavailable
	default:
		return 500 // Internal Server Error
	}
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch GetCode(err) {
	case ErrTimeout, ErrUnavailable, ErrDatabaseConnect, ErrRoomCodeConflict:
		return true
	default:
		return false
	}
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
