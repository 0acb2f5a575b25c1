package handler

import (
	"context"
	"time"

	"github.com/hitoshi/bulletin/internal/model"
	"github.com/hitoshi/bulletin/internal/newsletter"
)

// NewsletterServiceInterface は購読登録プロシージャが必要とするサービスインターフェース。
type NewsletterServiceInterface interface {
	Subscribe(ctx context.Context, email string) (*model.SubscribeResult, error)
}

// subscribeInput はpost.subscribeEmailの入力。
type subscribeInput struct {
	Email *string `json:"email"`
}

// Validate はemailがメールアドレスとして妥当な形式であることを検証する。
func (in subscribeInput) Validate() []model.FieldIssue {
	if in.Email == nil {
		return []model.FieldIssue{{Path: "email", Message: "Required"}}
	}
	if reason := newsletter.ValidateEmail(*in.Email); reason != "" {
		return []model.FieldIssue{{Path: "email", Message: reason}}
	}
	return nil
}

type subscriberResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type subscribeResponse struct {
	Success          bool               `json:"success"`
	Subscriber       subscriberResponse `json:"subscriber"`
	WelcomeEmailSent bool               `json:"welcomeEmailSent"`
}

// SubscribeProcedure はpost.subscribeEmailプロシージャを返す。
func SubscribeProcedure(service NewsletterServiceInterface) Procedure {
	return Mutation("post.subscribeEmail", func(ctx context.Context, in subscribeInput) (*subscribeResponse, error) {
		result, err := service.Subscribe(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		return &subscribeResponse{
			Success: result.Success,
			Subscriber: subscriberResponse{
				ID:        result.Subscriber.ID,
				Email:     result.Subscriber.Email,
				CreatedAt: result.Subscriber.CreatedAt,
			},
			WelcomeEmailSent: result.WelcomeEmailSent,
		}, nil
	})
}
