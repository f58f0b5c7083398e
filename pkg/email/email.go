// Package email, doğrulama maili gönderimi için soyutlama katmanı sağlar.
//
// Service'ler EmailSender interface'ine bağımlıdır; Resend implementasyonu
// main'de wire edilir. Email ayarları yoksa sender nil bırakılır ve hesaplar
// otomatik doğrulanır.
package email

import (
	"context"
	"fmt"
	"html"
	"net/url"

	"github.com/resend/resend-go/v3"
)

// EmailSender, email gönderimi için interface.
type EmailSender interface {
	// SendConfirmation, plaintext token'ı linke gömerek doğrulama maili gönderir.
	SendConfirmation(ctx context.Context, toEmail, token string) error
}

// resendSender, Resend API ile gönderen EmailSender implementasyonu.
type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender, Resend client'ı ile yeni bir EmailSender oluşturur.
// fromEmail Resend'de doğrulanmış bir domain altında olmalı.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

// ConfirmationLink, {appURL}/confirm?token={token} formatında link üretir.
func ConfirmationLink(appURL, token string) string {
	return fmt.Sprintf("%s/confirm?token=%s", appURL, url.QueryEscape(token))
}

// SendConfirmation, hesap doğrulama maili gönderir.
// Token mailde plaintext bulunur; DB'de SHA256 hash'i saklanır.
func (s *resendSender) SendConfirmation(ctx context.Context, toEmail, token string) error {
	link := html.EscapeString(ConfirmationLink(s.appURL, token))

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:24px;background-color:#f8fafc;font-family:Arial,Helvetica,sans-serif;">
  <h1 style="color:#0f172a;font-size:22px;margin:0 0 8px 0;">VoteSpace</h1>
  <p style="color:#334155;font-size:15px;line-height:1.6;">
    Confirm your email address to start creating polls and voting.
  </p>
  <p><a href="%s" style="background-color:#2563eb;color:#ffffff;padding:10px 24px;border-radius:6px;text-decoration:none;">Confirm email</a></p>
  <p style="color:#64748b;font-size:13px;">This link expires in 24 hours. If the button does not work, open: <a href="%s">%s</a></p>
</body>
</html>`, link, link, link)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("VoteSpace <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: "Confirm your VoteSpace account",
		Html:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	return nil
}
