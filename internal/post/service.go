// Package post は投稿の作成・取得と挨拶クエリを提供する。
package post

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/bulletin/internal/model"
	"github.com/hitoshi/bulletin/internal/repository"
	"github.com/hitoshi/bulletin/internal/security"
)

// Service は投稿に関するユースケースを提供する。
type Service struct {
	repo      repository.PostRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.PostRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Hello は入力テキストに対する挨拶を返す。
func (s *Service) Hello(text string) model.Greeting {
	return model.Greeting{Greeting: "Hello " + text}
}

// Create は投稿を作成する。
// 名前からHTMLタグを除去し、除去後に空になる場合は検証エラーを返す。
func (s *Service) Create(ctx context.Context, name string) (*model.Post, error) {
	cleaned := s.sanitizer.StripTags(name)
	if cleaned == "" {
		return nil, model.NewValidationError(model.FieldIssue{
			Path:    "name",
			Message: "Name must contain at least 1 character",
		})
	}

	now := s.now().UTC()
	p := &model.Post{
		ID:        uuid.NewString(),
		Name:      cleaned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return p, nil
}

// Latest は最も新しく作成された投稿を返す。投稿が1件もない場合はnilを返す。
func (s *Service) Latest(ctx context.Context) (*model.Post, error) {
	p, err := s.repo.FindLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("最新投稿の取得に失敗しました: %w", err)
	}
	return p, nil
}
