package model

import (
	"fmt"
	"strings"
)

// FieldIssue は入力検証で見つかったフィールド単位の問題を表す。
type FieldIssue struct {
	Path    string // 問題のあるフィールド名（例: "email"）
	Message string // 問題の内容
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: validation, conflict, routing, system
	Action   string       // ユーザー向け対処方法
	Issues   []FieldIssue // 入力検証エラーの場合のフィールド詳細
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, strings.Join(parts, "; "))
}

// 定義済みエラーコード
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeDuplicateSubscriber = "DUPLICATE_SUBSCRIBER"
	ErrCodeProcedureNotFound   = "PROCEDURE_NOT_FOUND"
	ErrCodeMethodNotSupported  = "METHOD_NOT_SUPPORTED"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// DuplicateSubscriberMessage は重複購読時にユーザーへ返すメッセージ。
const DuplicateSubscriberMessage = "This email is already subscribed"

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(issues ...FieldIssue) *APIError {
	return &APIError{
		Code:     ErrCodeBadRequest,
		Message:  "Input validation failed.",
		Category: "validation",
		Action:   "Check the highlighted fields and try again.",
		Issues:   issues,
	}
}

// NewDuplicateSubscriberError は既に購読済みのメールアドレスを再度登録しようとした場合のエラーを生成する。
func NewDuplicateSubscriberError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSubscriber,
		Message:  DuplicateSubscriberMessage,
		Category: "conflict",
		Action:   "No further action is needed; this address already receives the newsletter.",
	}
}

// NewProcedureNotFoundError は存在しないプロシージャが呼ばれた場合のエラーを生成する。
func NewProcedureNotFoundError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeProcedureNotFound,
		Message:  fmt.Sprintf("No procedure found on path %q", name),
		Category: "routing",
		Action:   "Check the procedure name.",
	}
}

// NewMethodNotSupportedError はプロシージャ種別とHTTPメソッドが一致しない場合のエラーを生成する。
func NewMethodNotSupportedError(name, kind string) *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotSupported,
		Message:  fmt.Sprintf("Procedure %q is a %s and cannot be called with this method", name, kind),
		Category: "routing",
		Action:   "Use GET for queries and POST for mutations.",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait and try again later.",
	}
}
