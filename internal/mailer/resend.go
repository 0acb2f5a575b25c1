package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// resendEmails はResend SDKのメール送信APIのうち、本パッケージが利用する部分。
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender はResend APIを使用してメールを送信する。
type ResendSender struct {
	emails resendEmails
	logger *slog.Logger
}

// NewResendSender はResendSenderを生成する。
func NewResendSender(apiKey string, logger *slog.Logger) *ResendSender {
	client := resend.NewClient(apiKey)
	return &ResendSender{
		emails: client.Emails,
		logger: logger,
	}
}

// Send はメールを1通送信する。
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: メール送信に失敗しました: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("provider", ProviderResend),
		slog.String("message_id", resp.Id),
	)
	return nil
}
