package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/bulletin/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法、入力検証エラーの場合はフィールド詳細を含む。
type ErrorResponseBody struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Category string      `json:"category"`
	Action   string      `json:"action"`
	Issues   []IssueBody `json:"issues,omitempty"`
}

// IssueBody はフィールド単位の検証エラー。
type IssueBody struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ErrorEnvelope はエラーレスポンスのトップレベル構造（{"error": {...}}）。
type ErrorEnvelope struct {
	Error ErrorResponseBody `json:"error"`
}

// NewErrorEnvelope はAPIErrorをレスポンス用のエンベロープに変換する。
func NewErrorEnvelope(apiErr *model.APIError) ErrorEnvelope {
	body := ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	}
	for _, issue := range apiErr.Issues {
		body.Issues = append(body.Issues, IssueBody{Path: issue.Path, Message: issue.Message})
	}
	return ErrorEnvelope{Error: body}
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(NewErrorEnvelope(apiErr))
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
