// Package mailer はトランザクションメールの送信を提供する。
// 送信プロバイダ（Resend、SendGrid）ごとの差異をSenderインターフェースで吸収する。
package mailer

import (
	"context"
	"fmt"
	"log/slog"
)

// Message は送信するメール1通を表す。
type Message struct {
	From    string // 送信者（"Name <addr@example.com>" 形式も可）
	To      string
	Subject string
	HTML    string
}

// Sender はメール送信のインターフェース。
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// 対応している送信プロバイダ
const (
	ProviderResend   = "resend"
	ProviderSendGrid = "sendgrid"
	ProviderLog      = "log"
)

// Config は送信プロバイダの設定。
type Config struct {
	Provider string
	APIKey   string
}

// New は設定されたプロバイダに対応するSenderを生成する。
func New(cfg Config, logger *slog.Logger) (Sender, error) {
	switch cfg.Provider {
	case ProviderResend, "":
		return NewResendSender(cfg.APIKey, logger), nil
	case ProviderSendGrid:
		return NewSendGridSender(cfg.APIKey, logger), nil
	case ProviderLog:
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %q", cfg.Provider)
	}
}
