package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bulletin/internal/model"
)

// TestWriteErrorResponse_WritesUnifiedFormat は統一エラーフォーマットでレスポンスが書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	apiErr := &model.APIError{
		Code:     "TEST_ERROR",
		Message:  "test message",
		Category: "validation",
		Action:   "fix the input",
	}

	WriteErrorResponse(w, http.StatusBadRequest, apiErr)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var env ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	body := env.Error
	if body.Code != "TEST_ERROR" {
		t.Errorf("code = %q, want %q", body.Code, "TEST_ERROR")
	}
	if body.Message != "test message" {
		t.Errorf("message = %q, want %q", body.Message, "test message")
	}
	if body.Category != "validation" {
		t.Errorf("category = %q, want %q", body.Category, "validation")
	}
	if body.Action != "fix the input" {
		t.Errorf("action = %q, want %q", body.Action, "fix the input")
	}
	if len(body.Issues) != 0 {
		t.Errorf("issues = %+v, want empty", body.Issues)
	}
}

// TestWriteErrorResponse_IncludesIssues は検証エラーのフィールド詳細が出力されることを検証する。
func TestWriteErrorResponse_IncludesIssues(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(
		model.FieldIssue{Path: "email", Message: "Invalid email"},
	))

	var raw map[string]map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	issues, ok := raw["error"]["issues"].([]any)
	if !ok || len(issues) != 1 {
		t.Fatalf("issues = %v, want 1 element", raw["error"]["issues"])
	}
	issue := issues[0].(map[string]any)
	if issue["path"] != "email" || issue["message"] != "Invalid email" {
		t.Errorf("issue = %v", issue)
	}
}

// TestWriteErrorResponse_OmitsEmptyIssues はissuesが無い場合にキー自体が出力されないことを検証する。
func TestWriteErrorResponse_OmitsEmptyIssues(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusConflict, model.NewDuplicateSubscriberError())

	var raw map[string]map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if _, exists := raw["error"]["issues"]; exists {
		t.Error("issues key should be omitted")
	}
	if raw["error"]["message"] != "This email is already subscribed" {
		t.Errorf("message = %v", raw["error"]["message"])
	}
}

// TestWriteInternalServerError は内部エラーの統一レスポンスを検証する。
func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var env ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if env.Error.Code != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", env.Error.Code, model.ErrCodeInternal)
	}
	if env.Error.Category != "system" {
		t.Errorf("category = %q, want %q", env.Error.Category, "system")
	}
}
