// Package errors provides structured error handling for the application.
// It defines AppError type with error codes for consistent API responses.
package errors

import (
	"errors"
	"fmt"
)

// Error codes organized by category
const (
	// General errors (1000-1099)
	CodeSuccess       = 0
	CodeUnknown       = 1000
	CodeInvalidParams = 1001
	CodeNotFound      = 1002

	// Media processing errors (1100-1199)
	CodeProbeFailed        = 1100
	CodeAudioExtract       = 1101
	CodeMediaNotFound      = 1102
	CodeSilenceDetect      = 1103
	CodeInvalidSilenceData = 1104
	CodeSilenceTrim        = 1105

	// Transcription errors (1200-1299)
	CodeTranscribeFailed  = 1200
	CodeTranscribeTimeout = 1201
	CodeEmptyTranscript   = 1202

	// Analysis errors (1300-1399)
	CodeAnalysisFailed    = 1300
	CodeProposalRejected  = 1301
	CodeLLMQuotaExceeded  = 1302

	// Render errors (1400-1499)
	CodeRenderFailed = 1400
	CodeConcatFailed = 1401

	// Storage errors (1500-1599)
	CodeDBError        = 1500
	CodeFileNotFound   = 1501
	CodeFileWriteError = 1502
)

// AppError represents a structured application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetail wraps an error with additional detail
func WrapWithDetail(code int, message string, detail string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}

// Is checks if the target error is an AppError with the specified code
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts error code from error, returns CodeUnknown if not AppError
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage extracts message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Predefined common errors
var (
	ErrInvalidParams = New(CodeInvalidParams, "参数错误 Invalid parameters")
	ErrNotFound      = New(CodeNotFound, "资源不存在 Resource not found")

	// Media
	ErrProbeFailed        = New(CodeProbeFailed, "媒体探测失败 Media probe failed")
	ErrAudioExtract       = New(CodeAudioExtract, "音频提取失败 Audio extraction failed")
	ErrMediaNotFound      = New(CodeMediaNotFound, "媒体文件不存在 Media file not found")
	ErrInvalidSilenceData = New(CodeInvalidSilenceData, "静音区间数据非法 Invalid silence interval data")

	// Transcription
	ErrTranscribeFailed = New(CodeTranscribeFailed, "语音识别失败 Transcription failed")
	ErrEmptyTranscript  = New(CodeEmptyTranscript, "字幕内容为空 Empty transcript")

	// Analysis
	ErrAnalysisFailed   = New(CodeAnalysisFailed, "剪辑点分析失败 Clip analysis failed")
	ErrLLMQuotaExceeded = New(CodeLLMQuotaExceeded, "LLM配额耗尽 LLM quota exceeded")

	// Render
	ErrRenderFailed = New(CodeRenderFailed, "切片渲染失败 Clip render failed")
	ErrConcatFailed = New(CodeConcatFailed, "静音裁剪合成失败 Silence trim concat failed")

	// Storage
	ErrDBError      = New(CodeDBError, "数据库错误 Database error")
	ErrFileNotFound = New(CodeFileNotFound, "文件不存在 File not found")
)
