package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/lwatty24/fortniteshop.site/internal/config"
	"github.com/lwatty24/fortniteshop.site/internal/domain/task"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// Sender delivers templated notification emails. Callers treat delivery as
// fire-and-forget: a returned error is for logging, never for rollback.
type Sender interface {
	SendItemAlert(ctx context.Context, to string, items []task.AlertItem) error
	SendWelcome(ctx context.Context, to string) error
}

type resendSender struct {
	httpClient *resty.Client
	from       string
}

func NewResendSender(cfg config.EmailConfig) Sender {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10 * time.Second).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &resendSender{
		httpClient: client,
		from:       cfg.From,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

func (s *resendSender) SendItemAlert(ctx context.Context, to string, items []task.AlertItem) error {
	body, err := renderItemAlert(items)
	if err != nil {
		return fmt.Errorf("failed to render item alert: %w", err)
	}

	subject := "Your wishlisted items are back in the shop!"
	if len(items) == 1 {
		subject = fmt.Sprintf("%s is back in the shop!", items[0].Name)
	}

	return s.send(ctx, to, subject, body)
}

func (s *resendSender) SendWelcome(ctx context.Context, to string) error {
	body, err := renderWelcome()
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	return s.send(ctx, to, "Welcome to ITEM SHOP! 🎮", body)
}

func (s *resendSender) send(ctx context.Context, to, subject, body string) error {
	var result sendResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(sendRequest{From: s.from, To: to, Subject: subject, HTML: body}).
		SetResult(&result).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	if resp.IsError() {
		return fmt.Errorf("email provider error for %s: %d %s", to, resp.StatusCode(), resp.Status())
	}

	log.Infof("📧 Sent %q to %s (message %s)", subject, to, result.ID)
	return nil
}

var alertTemplate = template.Must(template.New("item_alert").Parse(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;font-family:-apple-system,'Segoe UI',Roboto,sans-serif;background-color:#1A1A1A;color:white;">
    <div style="max-width:600px;margin:0 auto;padding:40px 20px;">
      <h1 style="font-size:32px;font-weight:900;margin:0;">ITEM SHOP</h1>
      <p style="color:rgba(255,255,255,0.7);margin-top:12px;">Items from your wishlist are back in today's shop.</p>
      {{range .Items}}
      <div style="display:flex;align-items:center;background:rgba(255,255,255,0.05);padding:16px;border-radius:12px;margin-top:16px;">
        <img src="{{.Image}}" alt="{{.Name}}" width="64" height="64" style="border-radius:8px;">
        <div style="margin-left:16px;">
          <div style="font-size:16px;font-weight:600;">{{.Name}}</div>
          <div style="font-size:13px;color:rgba(255,255,255,0.5);">{{.Rarity}} {{.Type}}</div>
          {{if .Price}}<div style="font-size:13px;color:#3B82F6;">{{.Price}} V-Bucks</div>{{end}}
        </div>
      </div>
      {{end}}
    </div>
  </body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;font-family:-apple-system,'Segoe UI',Roboto,sans-serif;background-color:#1A1A1A;color:white;">
    <div style="max-width:600px;margin:0 auto;padding:80px 20px;text-align:center;">
      <h1 style="font-size:48px;font-weight:900;margin:0;">ITEM SHOP</h1>
      <p style="color:rgba(255,255,255,0.9);margin-top:24px;font-size:20px;">Welcome to the community!</p>
      <p style="color:rgba(255,255,255,0.7);margin-top:12px;">You're all set to receive notifications when wishlisted items return to the shop.</p>
    </div>
  </body>
</html>`))

func renderItemAlert(items []task.AlertItem) (string, error) {
	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, struct{ Items []task.AlertItem }{Items: items}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderWelcome() (string, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, nil); err != nil {
		return "", err
	}
	return buf.String(), nil
}
