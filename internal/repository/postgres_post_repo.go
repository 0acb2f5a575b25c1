package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bulletin/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		post.ID, post.Name, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return nil
}

// FindLatest は作成日時が最も新しい投稿を1件取得する。見つからない場合はnilを返す。
// 作成日時が同一の場合はidの降順で決定する。
func (r *PostgresPostRepo) FindLatest(ctx context.Context) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at
		 FROM posts ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&post.ID, &post.Name, &post.CreatedAt, &post.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("最新の投稿の取得に失敗しました: %w", err)
	}

	return post, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
