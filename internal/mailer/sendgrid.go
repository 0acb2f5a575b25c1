package mailer

import (
	"context"
	"fmt"
	"log/slog"
	netmail "net/mail"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendGridClient はSendGrid SDKのクライアントのうち、本パッケージが利用する部分。
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridSender はSendGrid APIを使用してメールを送信する。
type SendGridSender struct {
	client sendGridClient
	logger *slog.Logger
}

// NewSendGridSender はSendGridSenderを生成する。
func NewSendGridSender(apiKey string, logger *slog.Logger) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		logger: logger,
	}
}

// Send はメールを1通送信する。
// SendGridは4xx/5xxでもエラーを返さないため、ステータスコードで成否を判定する。
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	from, err := parseAddress(msg.From)
	if err != nil {
		return fmt.Errorf("sendgrid: 送信者アドレスが不正です: %w", err)
	}

	personalization := sgmail.NewPersonalization()
	personalization.AddTos(sgmail.NewEmail("", msg.To))

	message := sgmail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = msg.Subject
	message.AddPersonalizations(personalization)
	message.AddContent(sgmail.NewContent("text/html", msg.HTML))

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: メール送信に失敗しました: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: APIがステータス %d を返しました", resp.StatusCode)
	}

	s.logger.Info("email sent",
		slog.String("provider", ProviderSendGrid),
		slog.Int("http_status", resp.StatusCode),
	)
	return nil
}

// parseAddress は "Name <addr@example.com>" または "addr@example.com" 形式の送信者を分解する。
func parseAddress(s string) (*sgmail.Email, error) {
	addr, err := netmail.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	return sgmail.NewEmail(addr.Name, addr.Address), nil
}
