package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/hitoshi/bulletin/internal/model"
)

// ProcedureKind はプロシージャの種別。queryはGET、mutationはPOSTで呼び出す。
type ProcedureKind string

const (
	KindQuery    ProcedureKind = "query"
	KindMutation ProcedureKind = "mutation"
)

// Procedure は名前付きのRPCエンドポイント。
type Procedure struct {
	Name string
	Kind ProcedureKind

	invoke func(ctx context.Context, raw json.RawMessage) (any, error)
}

// validatable は入力値の検証を行う入力型が実装するインターフェース。
type validatable interface {
	Validate() []model.FieldIssue
}

// noInput は入力を受け取らないプロシージャの入力型。送られた入力は無視する。
type noInput struct{}

// Query はquery種別のプロシージャを生成する。
func Query[In, Out any](name string, fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return newProcedure(name, KindQuery, fn)
}

// Mutation はmutation種別のプロシージャを生成する。
func Mutation[In, Out any](name string, fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return newProcedure(name, KindMutation, fn)
}

// newProcedure は入力のデコードと検証を行ってからfnを呼び出すProcedureを生成する。
// デコードまたは検証で問題があった場合、fnは呼び出さずに検証エラーを返す。
func newProcedure[In, Out any](name string, kind ProcedureKind, fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return Procedure{
		Name: name,
		Kind: kind,
		invoke: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in In
			if _, ignored := any(&in).(*noInput); !ignored {
				if issues := decodeInput(raw, &in); len(issues) > 0 {
					return nil, model.NewValidationError(issues...)
				}
			}
			if v, ok := any(&in).(validatable); ok {
				if issues := v.Validate(); len(issues) > 0 {
					return nil, model.NewValidationError(issues...)
				}
			}

			out, err := fn(ctx, in)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

// decodeInput はJSON入力をtargetにデコードする。
// 入力が空またはnullの場合はゼロ値のままにする（必須チェックはValidateで行う）。
// 未知のフィールドは無視する。
func decodeInput(raw json.RawMessage, target any) []model.FieldIssue {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	err := json.Unmarshal(trimmed, target)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []model.FieldIssue{{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("Expected %s, received %s", jsonTypeName(typeErr.Type), typeErr.Value),
		}}
	}
	return []model.FieldIssue{{Path: "", Message: "Invalid JSON input"}}
}

// jsonTypeName はGoの型に対応するJSONの型名を返す。
func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return t.Kind().String()
	}
}
