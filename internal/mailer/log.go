package mailer

import (
	"context"
	"log/slog"
)

// LogSender は実際には送信せず、送信内容をログに出力する。
// ローカル開発用。
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender はLogSenderを生成する。
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send は送信内容をログに記録する。
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email sent",
		slog.String("provider", ProviderLog),
		slog.String("from", msg.From),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
