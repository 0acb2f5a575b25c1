package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// --- モック ---

type mockResendEmails struct {
	sendFn func(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

func (m *mockResendEmails) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	return m.sendFn(ctx, params)
}

type mockSendGridClient struct {
	sendFn func(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

func (m *mockSendGridClient) SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
	return m.sendFn(ctx, email)
}

var testMessage = Message{
	From:    "Bulletin <hello@example.com>",
	To:      "reader@example.com",
	Subject: "Welcome",
	HTML:    "<p>hi</p>",
}

// --- New ---

func TestNew_SelectsProvider(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	tests := []struct {
		provider string
		check    func(Sender) bool
	}{
		{ProviderResend, func(s Sender) bool { _, ok := s.(*ResendSender); return ok }},
		{"", func(s Sender) bool { _, ok := s.(*ResendSender); return ok }},
		{ProviderSendGrid, func(s Sender) bool { _, ok := s.(*SendGridSender); return ok }},
		{ProviderLog, func(s Sender) bool { _, ok := s.(*LogSender); return ok }},
	}

	for _, tt := range tests {
		t.Run("provider="+tt.provider, func(t *testing.T) {
			s, err := New(Config{Provider: tt.provider, APIKey: "key"}, logger)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if !tt.check(s) {
				t.Errorf("unexpected sender type %T", s)
			}
		})
	}
}

func TestNew_UnknownProvider_ReturnsError(t *testing.T) {
	var buf bytes.Buffer
	if _, err := New(Config{Provider: "carrier-pigeon"}, newTestLogger(&buf)); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

// --- Resend ---

func TestResendSender_Send_BuildsRequest(t *testing.T) {
	var buf bytes.Buffer
	var captured *resend.SendEmailRequest
	s := &ResendSender{
		emails: &mockResendEmails{
			sendFn: func(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
				captured = params
				return &resend.SendEmailResponse{Id: "msg-1"}, nil
			},
		},
		logger: newTestLogger(&buf),
	}

	if err := s.Send(context.Background(), testMessage); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if captured.From != testMessage.From {
		t.Errorf("From = %q, want %q", captured.From, testMessage.From)
	}
	if len(captured.To) != 1 || captured.To[0] != "reader@example.com" {
		t.Errorf("To = %v, want [reader@example.com]", captured.To)
	}
	if captured.Subject != "Welcome" {
		t.Errorf("Subject = %q, want %q", captured.Subject, "Welcome")
	}
	if captured.Html != "<p>hi</p>" {
		t.Errorf("Html = %q, want %q", captured.Html, "<p>hi</p>")
	}
	if !strings.Contains(buf.String(), "msg-1") {
		t.Errorf("ログにメッセージIDが含まれていない: %s", buf.String())
	}
}

func TestResendSender_Send_PropagatesError(t *testing.T) {
	var buf bytes.Buffer
	apiErr := errors.New("invalid api key")
	s := &ResendSender{
		emails: &mockResendEmails{
			sendFn: func(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
				return nil, apiErr
			},
		},
		logger: newTestLogger(&buf),
	}

	err := s.Send(context.Background(), testMessage)
	if !errors.Is(err, apiErr) {
		t.Errorf("err = %v, want wrapping %v", err, apiErr)
	}
}

// --- SendGrid ---

func TestSendGridSender_Send_BuildsMessage(t *testing.T) {
	var buf bytes.Buffer
	var captured *sgmail.SGMailV3
	s := &SendGridSender{
		client: &mockSendGridClient{
			sendFn: func(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
				captured = email
				return &rest.Response{StatusCode: 202}, nil
			},
		},
		logger: newTestLogger(&buf),
	}

	if err := s.Send(context.Background(), testMessage); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if captured.From.Name != "Bulletin" || captured.From.Address != "hello@example.com" {
		t.Errorf("From = %+v, want Bulletin <hello@example.com>", captured.From)
	}
	if captured.Subject != "Welcome" {
		t.Errorf("Subject = %q, want %q", captured.Subject, "Welcome")
	}
	if len(captured.Personalizations) != 1 || captured.Personalizations[0].To[0].Address != "reader@example.com" {
		t.Errorf("宛先が正しく設定されていない: %+v", captured.Personalizations)
	}
	if len(captured.Content) != 1 || captured.Content[0].Type != "text/html" {
		t.Errorf("Content = %+v, want single text/html", captured.Content)
	}
}

func TestSendGridSender_Send_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	s := &SendGridSender{
		client: &mockSendGridClient{
			sendFn: func(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
				return &rest.Response{StatusCode: 401, Body: "unauthorized"}, nil
			},
		},
		logger: newTestLogger(&buf),
	}

	if err := s.Send(context.Background(), testMessage); err == nil {
		t.Fatal("ステータス401でエラーが返らなかった")
	}
}

func TestSendGridSender_Send_InvalidFrom(t *testing.T) {
	var buf bytes.Buffer
	called := false
	s := &SendGridSender{
		client: &mockSendGridClient{
			sendFn: func(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
				called = true
				return &rest.Response{StatusCode: 202}, nil
			},
		},
		logger: newTestLogger(&buf),
	}

	msg := testMessage
	msg.From = "not an address"
	if err := s.Send(context.Background(), msg); err == nil {
		t.Fatal("不正な送信者でエラーが返らなかった")
	}
	if called {
		t.Error("不正な送信者でAPIが呼び出された")
	}
}

// --- Log ---

func TestLogSender_Send_WritesLog(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(newTestLogger(&buf))

	if err := s.Send(context.Background(), testMessage); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if !strings.Contains(buf.String(), `"to":"reader@example.com"`) {
		t.Errorf("ログに宛先が含まれていない: %s", buf.String())
	}
}
