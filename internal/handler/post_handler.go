package handler

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/bulletin/internal/model"
)

// maxPostNameLength は投稿名の最大文字数（posts.nameの列長）。
const maxPostNameLength = 256

// PostServiceInterface は投稿プロシージャが必要とするサービスインターフェース。
type PostServiceInterface interface {
	Hello(text string) model.Greeting
	Create(ctx context.Context, name string) (*model.Post, error)
	// Latest は最新の投稿を返す。投稿が無い場合はnilを返す。
	Latest(ctx context.Context) (*model.Post, error)
}

// --- 入力型 ---

// helloInput はpost.helloの入力。
type helloInput struct {
	Text *string `json:"text"`
}

// Validate はtextが指定されていることを検証する。空文字列は許容する。
func (in helloInput) Validate() []model.FieldIssue {
	if in.Text == nil {
		return []model.FieldIssue{{Path: "text", Message: "Required"}}
	}
	return nil
}

// createPostInput はpost.createの入力。
type createPostInput struct {
	Name *string `json:"name"`
}

// Validate はnameが1文字以上、列長以下であることを検証する。
func (in createPostInput) Validate() []model.FieldIssue {
	switch {
	case in.Name == nil:
		return []model.FieldIssue{{Path: "name", Message: "Required"}}
	case utf8.RuneCountInString(*in.Name) < 1:
		return []model.FieldIssue{{Path: "name", Message: "String must contain at least 1 character(s)"}}
	case utf8.RuneCountInString(*in.Name) > maxPostNameLength:
		return []model.FieldIssue{{Path: "name", Message: "String must contain at most 256 character(s)"}}
	}
	return nil
}

// --- レスポンス型 ---

type greetingResponse struct {
	Greeting string `json:"greeting"`
}

type postResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// toPostResponse はmodel.PostからAPIレスポンスに変換する。nilはnilのまま返す。
func toPostResponse(p *model.Post) *postResponse {
	if p == nil {
		return nil
	}
	return &postResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// PostProcedures はpost.hello、post.create、post.getLatestの各プロシージャを返す。
func PostProcedures(service PostServiceInterface) []Procedure {
	return []Procedure{
		Query("post.hello", func(ctx context.Context, in helloInput) (greetingResponse, error) {
			g := service.Hello(*in.Text)
			return greetingResponse{Greeting: g.Greeting}, nil
		}),

		Mutation("post.create", func(ctx context.Context, in createPostInput) (*postResponse, error) {
			p, err := service.Create(ctx, *in.Name)
			if err != nil {
				return nil, err
			}
			return toPostResponse(p), nil
		}),

		// 投稿が無い場合は {"result":{"data":null}} を返す
		Query("post.getLatest", func(ctx context.Context, _ noInput) (*postResponse, error) {
			p, err := service.Latest(ctx)
			if err != nil {
				return nil, err
			}
			return toPostResponse(p), nil
		}),
	}
}
