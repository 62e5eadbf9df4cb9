package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	// 测试基本错误创建
	err := New(ErrInvalidParam)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("无效的参数", err.Message)
	suite.Empty(err.Details)

	// 测试带详情的错误
	err = New(ErrGameNotFound, "房间码 482913")
	suite.NotNil(err)
	suite.Equal(ErrGameNotFound, err.Code)
	suite.Equal("游戏不存在", err.Message)
	suite.Equal("房间码 482913", err.Details)

	// 测试多个详情
	err = New(ErrDatabaseConnect, "连接失败", "主机: localhost", "端口: 5432")
	suite.Equal("连接失败; 主机: localhost; 端口: 5432", err.Details)
}

// 测试格式化错误创建
func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrRoomCodeExhausted, "尝试 %d 次后仍有冲突", 5)
	suite.NotNil(err)
	suite.Equal(ErrRoomCodeExhausted, err.Code)
	suite.Equal("尝试 5 次后仍有冲突", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	// 包装标准错误
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrDatabaseQuery)
	suite.NotNil(wrappedErr)
	suite.Equal(ErrDatabaseQuery, wrappedErr.Code)
	suite.Equal("原始错误", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	// 包装nil错误
	nilErr := Wrap(nil, ErrUnknown)
	suite.Nil(nilErr)

	// 包装已有的AppError
	appErr := New(ErrPlayerNotFound, "玩家不存在")
	wrappedAppErr := Wrap(appErr, ErrInvalidParam, "额外信息")
	suite.Equal(ErrPlayerNotFound, wrappedAppErr.Code) // 保留原始错误码
	suite.Contains(wrappedAppErr.Details, "额外信息")
}

// 测试错误码判断
func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrGameAlreadyStarted)
	suite.True(Is(err, ErrGameAlreadyStarted))
	suite.False(Is(err, ErrGameNotFound))
	suite.False(Is(nil, ErrGameAlreadyStarted))
	suite.False(Is(errors.New("普通错误"), ErrGameAlreadyStarted))
}

// 测试获取错误码
func (suite *ErrorsTestSuite) TestGetCode() {
	suite.Equal(ErrorCode(0), GetCode(nil))
	suite.Equal(ErrUnknown, GetCode(errors.New("普通错误")))
	suite.Equal(ErrMissionNotFound, GetCode(New(ErrMissionNotFound)))
}

// 测试未找到类错误判断
func (suite *ErrorsTestSuite) TestIsNotFound() {
	suite.True(IsNotFound(New(ErrNotFound)))
	suite.True(IsNotFound(New(ErrGameNotFound)))
	suite.True(IsNotFound(New(ErrPlayerNotFound)))
	suite.True(IsNotFound(New(ErrMissionNotFound)))
	suite.False(IsNotFound(New(ErrRoomCodeConflict)))
	suite.False(IsNotFound(nil))
}

// 测试HTTP状态码映射
func (suite *ErrorsTestSuite) TestHTTPStatus() {
	suite.Equal(400, New(ErrInvalidParam).HTTPStatus())
	suite.Equal(400, New(ErrGameAlreadyStarted).HTTPStatus())
	suite.Equal(404, New(ErrGameNotFound).HTTPStatus())
	suite.Equal(404, New(ErrPlayerNotFound).HTTPStatus())
	suite.Equal(409, New(ErrRoomCodeConflict).HTTPStatus())
	suite.Equal(429, New(ErrRoomCodeExhausted).HTTPStatus())
	suite.Equal(401, New(ErrTokenExpired).HTTPStatus())
	suite.Equal(503, New(ErrDatabaseConnect).HTTPStatus())
	suite.Equal(500, New(ErrUnknown).HTTPStatus())
}

// 测试可重试判断
func (suite *ErrorsTestSuite) TestIsRetryable() {
	suite.True(IsRetryable(New(ErrRoomCodeConflict)))
	suite.True(IsRetryable(New(ErrTimeout)))
	suite.False(IsRetryable(New(ErrGameNotFound)))
	suite.False(IsRetryable(nil))
}

// 测试错误消息格式
func (suite *ErrorsTestSuite) TestErrorString() {
	err := New(ErrRoomCodeConflict)
	suite.Equal("[2002] 房间码已被占用", err.Error())

	err = New(ErrRoomCodeConflict, "482913")
	suite.Equal("[2002] 房间码已被占用: 482913", err.Error())
}

// 测试Unwrap
func (suite *ErrorsTestSuite) TestUnwrap() {
	originalErr := errors.New("底层错误")
	appErr := New(ErrDatabaseUpdate).WithCause(originalErr)
	suite.Equal(originalErr, appErr.Unwrap())
	suite.True(errors.Is(appErr, originalErr))
}

func TestErrorsTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
