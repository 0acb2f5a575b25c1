// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/bulletin/internal/model"
)

// ErrUniqueViolation は一意制約違反により作成が拒否されたことを示す。
// 呼び出し元はerrors.Isで判定する。
var ErrUniqueViolation = errors.New("unique constraint violation")

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// FindLatest は作成日時が最も新しい投稿を1件取得する。
	// 投稿が存在しない場合はnilを返す。
	FindLatest(ctx context.Context) (*model.Post, error)
}

// SubscriberRepository は購読者データの永続化インターフェース。
type SubscriberRepository interface {
	// FindByEmail は正規化済みメールアドレスで購読者を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Subscriber, error)

	// Create は購読者を作成する。
	// 同じメールアドレスが既に存在する場合はErrUniqueViolationをラップしたエラーを返す。
	Create(ctx context.Context, subscriber *model.Subscriber) error
}
