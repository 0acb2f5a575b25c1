// Package newsletter はニュースレター購読登録のワークフローを提供する。
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/bulletin/internal/mailer"
	"github.com/hitoshi/bulletin/internal/model"
	"github.com/hitoshi/bulletin/internal/repository"
)

// ウェルカムメールの件名と本文
const (
	WelcomeSubject = "Welcome to the newsletter!"
	WelcomeHTML    = `<h1>Thanks for subscribing!</h1>
<p>You're on the list. We'll send you our latest posts and updates as soon as they're published.</p>
<p>If you didn't sign up, you can safely ignore this email.</p>`
)

// 購読登録の結果区分（メトリクスのラベルに使用する）
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// MetricsRecorder は購読登録ワークフローが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordSubscription(outcome string)
	RecordWelcomeEmail(sent bool)
}

// ServiceConfig はServiceの設定。
type ServiceConfig struct {
	// From はウェルカムメールの送信者。
	From string
}

// Service は購読登録を行うサービス。
type Service struct {
	repo    repository.SubscriberRepository
	sender  mailer.Sender
	metrics MetricsRecorder
	logger  *slog.Logger
	config  ServiceConfig
	now     func() time.Time
}

// NewService はServiceを生成する。
// metricsがnilの場合はメトリクスを記録しない。
func NewService(
	repo repository.SubscriberRepository,
	sender mailer.Sender,
	metrics MetricsRecorder,
	logger *slog.Logger,
	config ServiceConfig,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		repo:    repo,
		sender:  sender,
		metrics: metrics,
		logger:  logger,
		config:  config,
		now:     time.Now,
	}
}

// Subscribe はメールアドレスを正規化して購読者として登録し、ウェルカムメールを送信する。
//
// 処理フロー:
//  1. 形式を検証し、正規化する（前後の空白除去、小文字化）
//  2. 既存の購読者を検索し、存在すれば重複エラーを返す
//  3. 購読者を作成する。一意制約違反（同時登録との競合）も重複エラーに変換する
//  4. ウェルカムメールを送信する
//
// ウェルカムメールの送信はベストエフォートで行う。
// 購読者の作成が完了した後に送信が失敗しても、登録は取り消さず成功として返し、
// 結果のWelcomeEmailSentをfalseにする。
func (s *Service) Subscribe(ctx context.Context, email string) (*model.SubscribeResult, error) {
	if reason := ValidateEmail(email); reason != "" {
		return nil, model.NewValidationError(model.FieldIssue{Path: "email", Message: reason})
	}
	normalized := NormalizeEmail(email)

	existing, err := s.repo.FindByEmail(ctx, normalized)
	if err != nil {
		s.metrics.RecordSubscription(OutcomeFailed)
		return nil, fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}
	if existing != nil {
		s.metrics.RecordSubscription(OutcomeDuplicate)
		return nil, model.NewDuplicateSubscriberError()
	}

	sub := &model.Subscriber{
		ID:        uuid.NewString(),
		Email:     normalized,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			s.metrics.RecordSubscription(OutcomeDuplicate)
			return nil, model.NewDuplicateSubscriberError()
		}
		s.metrics.RecordSubscription(OutcomeFailed)
		return nil, fmt.Errorf("購読者の登録に失敗しました: %w", err)
	}
	s.metrics.RecordSubscription(OutcomeCreated)

	sent := s.sendWelcome(ctx, sub)

	return &model.SubscribeResult{
		Success:          true,
		Subscriber:       sub,
		WelcomeEmailSent: sent,
	}, nil
}

// sendWelcome はウェルカムメールを送信し、成功したかどうかを返す。
// 失敗はログとメトリクスにのみ記録する。
func (s *Service) sendWelcome(ctx context.Context, sub *model.Subscriber) bool {
	err := s.sender.Send(ctx, mailer.Message{
		From:    s.config.From,
		To:      sub.Email,
		Subject: WelcomeSubject,
		HTML:    WelcomeHTML,
	})
	if err != nil {
		s.metrics.RecordWelcomeEmail(false)
		s.logger.Warn("welcome email failed",
			slog.String("subscriber_id", sub.ID),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.metrics.RecordWelcomeEmail(true)
	return true
}

// nopMetrics は何も記録しないMetricsRecorder。
type nopMetrics struct{}

func (nopMetrics) RecordSubscription(string) {}
func (nopMetrics) RecordWelcomeEmail(bool)   {}
