package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bulletin/internal/middleware"
	"github.com/hitoshi/bulletin/internal/model"
)

// maxInputBytes はmutationのリクエストボディの上限。
const maxInputBytes = 1 << 20

// maxBatchCalls は1回のバッチ呼び出しに含められるプロシージャ呼び出しの上限。
const maxBatchCalls = 10

// RPCMetrics はRPC呼び出しのメトリクスを記録するインターフェース。
type RPCMetrics interface {
	RecordRPC(procedure, kind string, statusCode int, duration time.Duration)
}

// successEnvelope は成功レスポンスの構造（{"result": {"data": ...}}）。
type successEnvelope struct {
	Result resultBody `json:"result"`
}

type resultBody struct {
	Data any `json:"data"`
}

// Registry はプロシージャを名前で登録し、/api/trpc/{procedure} へのリクエストを振り分ける。
//
// 単発呼び出し:
//
//	GET  /api/trpc/post.hello?input={"text":"world"}
//	POST /api/trpc/post.create  body: {"name":"..."}
//
// バッチ呼び出し（?batch=1）では、カンマ区切りのプロシージャ名と
// 添字をキーとする入力オブジェクト（{"0": {...}, "1": {...}}）を受け取り、
// 結果を配列で返す。
type Registry struct {
	procedures map[string]Procedure
	metrics    RPCMetrics
	logger     *slog.Logger
}

// NewRegistry はRegistryを生成する。metricsはnilでもよい。
func NewRegistry(logger *slog.Logger, metrics RPCMetrics) *Registry {
	return &Registry{
		procedures: make(map[string]Procedure),
		metrics:    metrics,
		logger:     logger,
	}
}

// Register はプロシージャを登録する。同名のプロシージャが既にある場合はpanicする。
func (reg *Registry) Register(procs ...Procedure) {
	for _, p := range procs {
		if _, exists := reg.procedures[p.Name]; exists {
			panic("handler: duplicate procedure " + p.Name)
		}
		reg.procedures[p.Name] = p
	}
}

// ServeHTTP はchiのURLパラメータ {procedure} に対応するプロシージャを呼び出す。
func (reg *Registry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "procedure")

	raw, err := readInput(w, r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(
			model.FieldIssue{Path: "", Message: err.Error()},
		))
		return
	}

	if isBatch(r) {
		reg.serveBatch(w, r, path, raw)
		return
	}

	status, body := reg.call(r, path, raw)
	writeJSON(w, status, body)
}

// serveBatch はバッチ呼び出しを処理する。
// 全呼び出しのステータスが同じ場合はそのステータス、異なる場合は207を返す。
func (reg *Registry) serveBatch(w http.ResponseWriter, r *http.Request, path string, raw json.RawMessage) {
	names := strings.Split(path, ",")
	if len(names) > maxBatchCalls {
		writeAPIErrorResponse(w, http.StatusBadRequest, newBatchTooLargeError())
		return
	}

	inputs := map[string]json.RawMessage{}
	if trimmed := strings.TrimSpace(string(raw)); trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(raw, &inputs); err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(
				model.FieldIssue{Path: "", Message: "Batch input must be an object keyed by call index"},
			))
			return
		}
	}

	results := make([]any, len(names))
	status := 0
	for i, name := range names {
		s, body := reg.call(r, name, inputs[strconv.Itoa(i)])
		results[i] = body
		switch {
		case status == 0:
			status = s
		case status != s:
			status = http.StatusMultiStatus
		}
	}

	writeJSON(w, status, results)
}

// call は1件のプロシージャ呼び出しを実行し、HTTPステータスとレスポンスボディを返す。
func (reg *Registry) call(r *http.Request, name string, raw json.RawMessage) (int, any) {
	proc, ok := reg.procedures[name]
	if !ok {
		return errorBody(model.NewProcedureNotFoundError(name), http.StatusNotFound)
	}

	if !methodAllowed(proc.Kind, r.Method) {
		return errorBody(model.NewMethodNotSupportedError(name, string(proc.Kind)), http.StatusMethodNotAllowed)
	}

	start := time.Now()
	out, err := proc.invoke(r.Context(), raw)

	status := http.StatusOK
	var body any = successEnvelope{Result: resultBody{Data: out}}
	if err != nil {
		status, body = reg.errorResponse(name, err)
	}

	if reg.metrics != nil {
		reg.metrics.RecordRPC(name, string(proc.Kind), status, time.Since(start))
	}
	return status, body
}

// errorResponse はプロシージャから返されたエラーをHTTPステータスとエラーボディに変換する。
// APIError以外のエラーは内部エラーとしてログに記録し、詳細は返さない。
func (reg *Registry) errorResponse(name string, err error) (int, any) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return errorBody(apiErr, mapAPIErrorToHTTPStatus(apiErr))
	}

	reg.logger.Error("internal server error",
		slog.String("procedure", name),
		slog.String("error", err.Error()),
	)
	return errorBody(model.NewInternalError(), http.StatusInternalServerError)
}

// isBatch はバッチ呼び出しかどうかを返す。
func isBatch(r *http.Request) bool {
	return r.URL.Query().Get("batch") == "1"
}

// calledProcedures はリクエストが呼び出すプロシージャ名を呼び出し順に返す。
// バッチ呼び出しではカンマ区切りのパスを分割する。
func calledProcedures(r *http.Request) []string {
	path := chi.URLParam(r, "procedure")
	if !isBatch(r) {
		return []string{path}
	}
	return strings.Split(path, ",")
}

func newBatchTooLargeError() *model.APIError {
	return model.NewValidationError(model.FieldIssue{
		Path:    "",
		Message: "Batch must contain at most " + strconv.Itoa(maxBatchCalls) + " calls",
	})
}

// methodAllowed はプロシージャ種別に対してHTTPメソッドが許可されているかを返す。
func methodAllowed(kind ProcedureKind, method string) bool {
	switch kind {
	case KindQuery:
		return method == http.MethodGet
	case KindMutation:
		return method == http.MethodPost
	default:
		return false
	}
}

// readInput はリクエストから入力JSONを取り出す。
// GETはクエリパラメータinput、POSTはリクエストボディを使う。
func readInput(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	if r.Method != http.MethodPost {
		if input := r.URL.Query().Get("input"); input != "" {
			return json.RawMessage(input), nil
		}
		return nil, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInputBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errors.New("Request body is too large")
		}
		return nil, errors.New("Failed to read request body")
	}
	return body, nil
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeBadRequest:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateSubscriber:
		return http.StatusConflict
	case model.ErrCodeProcedureNotFound:
		return http.StatusNotFound
	case model.ErrCodeMethodNotSupported:
		return http.StatusMethodNotAllowed
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// errorBody はAPIErrorを統一エラーフォーマットのボディに変換する。
func errorBody(apiErr *model.APIError, status int) (int, any) {
	return status, middleware.NewErrorEnvelope(apiErr)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
