package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bulletin/internal/model"
)

// PostgresSubscriberRepo はPostgreSQLを使用した購読者リポジトリ。
type PostgresSubscriberRepo struct {
	db *sql.DB
}

// NewPostgresSubscriberRepo はPostgresSubscriberRepoを生成する。
func NewPostgresSubscriberRepo(db *sql.DB) *PostgresSubscriberRepo {
	return &PostgresSubscriberRepo{db: db}
}

// FindByEmail はメールアドレスで購読者を検索する。見つからない場合はnilを返す。
func (r *PostgresSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	sub := &model.Subscriber{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM subscribers WHERE email = $1`,
		email,
	).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscriber by email: %w", err)
	}

	return sub, nil
}

// Create は購読者を作成する。
// subscribers.emailの一意制約に違反した場合はErrUniqueViolationをラップして返す。
func (r *PostgresSubscriberRepo) Create(ctx context.Context, sub *model.Subscriber) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, email, created_at) VALUES ($1, $2, $3)`,
		sub.ID, sub.Email, sub.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("購読者の作成に失敗しました: %w", ErrUniqueViolation)
		}
		return fmt.Errorf("購読者の作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SubscriberRepository = (*PostgresSubscriberRepo)(nil)
