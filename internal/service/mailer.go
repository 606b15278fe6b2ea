package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/realriphub/cmt-rr/internal/config"
	"github.com/realriphub/cmt-rr/internal/dto"
	"github.com/realriphub/cmt-rr/internal/logger"
	"github.com/realriphub/cmt-rr/pkg/content"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mail 待发送邮件
type Mail struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Mailer 发信接口
type Mailer interface {
	Send(ctx context.Context, mail Mail, smtp dto.SMTPSettings) error
}

// MailDispatcher 优先使用 SMTP，失败或未配置时回退到 HTTP 邮件网关
type MailDispatcher struct {
	gatewayURL   string
	gatewayToken string
	fromName     string
	client       *http.Client
	attempts     uint
	sendSMTP     func(smtp dto.SMTPSettings, msg *gomail.Message) error
	logger       *zap.SugaredLogger
}

// NewMailDispatcher 创建发信器
func NewMailDispatcher(cfg config.MailConfig) *MailDispatcher {
	fromName := cfg.FromName
	if fromName == "" {
		fromName = "评论通知"
	}
	return &MailDispatcher{
		gatewayURL:   cfg.GatewayURL,
		gatewayToken: cfg.GatewayToken,
		fromName:     fromName,
		client:       &http.Client{Timeout: 15 * time.Second},
		attempts:     3,
		sendSMTP:     dialAndSend,
		logger:       logger.GetSugaredLogger(),
	}
}

func dialAndSend(smtp dto.SMTPSettings, msg *gomail.Message) error {
	d := gomail.NewDialer(smtp.Host, smtp.Port, smtp.User, smtp.Pass)
	// secure 为 true 时使用隐式 TLS，否则由 STARTTLS 协商
	d.SSL = smtp.Secure
	return d.DialAndSend(msg)
}

// Send 发送邮件
func (d *MailDispatcher) Send(ctx context.Context, mail Mail, smtp dto.SMTPSettings) error {
	if smtp.User != "" && smtp.Pass != "" {
		msg := gomail.NewMessage()
		msg.SetAddressHeader("From", smtp.User, d.fromName)
		msg.SetHeader("To", mail.To...)
		msg.SetHeader("Subject", mail.Subject)
		msg.SetBody("text/html", mail.HTML)

		err := d.sendSMTP(smtp, msg)
		if err == nil {
			d.logger.Infow("SMTP发送成功", "to", mail.To, "host", smtp.Host)
			return nil
		}
		d.logger.Errorw("SMTP发送失败", "host", smtp.Host, "user", smtp.User, "error", err)
		if d.gatewayURL == "" {
			return fmt.Errorf("smtp send failed: %w", err)
		}
	}

	if d.gatewayURL == "" {
		return ErrNoMailTransport
	}
	return d.sendGateway(ctx, mail)
}

func (d *MailDispatcher) sendGateway(ctx context.Context, mail Mail) error {
	body, err := json.Marshal(mail)
	if err != nil {
		return err
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.gatewayURL, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			if d.gatewayToken != "" {
				req.Header.Set("X-Auth-Token", d.gatewayToken)
			}

			resp, err := d.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				err := fmt.Errorf("mail gateway returned %s", resp.Status)
				if resp.StatusCode < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return nil
		},
		retry.Attempts(d.attempts),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.logger.Warnf("邮件网关发送失败，第%d次重试: %v", n+1, err)
		}),
	)
}

var (
	replyMailTemplate = template.Must(template.New("reply").Parse(`<div style="background-color:#f4f4f5;padding:24px 0;">
  <div style="max-width:640px;margin:0 auto;background:#ffffff;border-radius:12px;border:1px solid #e5e7eb;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',system-ui,sans-serif;color:#111827;">
    <div style="padding:20px 28px;border-bottom:1px solid #e5e7eb;background:#2563eb;">
      <h1 style="margin:0;font-size:18px;color:#f9fafb;">评论回复 - {{.PostTitle}}</h1>
    </div>
    <div style="padding:24px 28px;">
      <p style="font-size:14px;">Hi <b>{{.ToName}}</b>，</p>
      <p style="font-size:14px;"><b>{{.AuthorName}}</b> 回复了你在《{{.PostTitle}}》中的评论：</p>
      <div style="padding:14px 16px;border-radius:10px;background:#f3f4f6;">
        <div style="font-size:12px;color:#6b7280;">你之前的评论</div>
        <div style="font-size:14px;">{{.ParentContent}}</div>
      </div>
      <div style="margin-top:12px;padding:14px 16px;border-radius:10px;background:#eff6ff;">
        <div style="font-size:12px;color:#1d4ed8;">最新回复</div>
        <div style="font-size:14px;">{{.Content}}</div>
      </div>
      <p style="text-align:center;"><a href="{{.PostURL}}">打开文章查看完整对话</a></p>
    </div>
    <p style="padding:14px 20px;font-size:11px;color:#9ca3af;text-align:center;">此邮件由系统自动发送，请勿直接回复。</p>
  </div>
</div>`))

	adminMailTemplate = template.Must(template.New("admin").Parse(`<div style="background-color:#f4f4f5;padding:24px 0;">
  <div style="max-width:640px;margin:0 auto;background:#ffffff;border-radius:12px;border:1px solid #e5e7eb;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',system-ui,sans-serif;color:#111827;">
    <div style="padding:20px 28px;border-bottom:1px solid #e5e7eb;background:#059669;">
      <h1 style="margin:0;font-size:18px;color:#f9fafb;">新评论提醒</h1>
    </div>
    <div style="padding:24px 28px;">
      <p style="font-size:14px;"><b>{{.AuthorName}}</b> 在文章《{{.PostTitle}}》下发表了新评论：</p>
      <div style="padding:14px 16px;border-radius:10px;background:#f9fafb;">
        <div style="font-size:14px;">{{.Content}}</div>
      </div>
      <p><a href="{{.PostURL}}">打开后台查看并管理评论</a></p>
    </div>
    <p style="padding:14px 20px;font-size:11px;color:#9ca3af;text-align:center;">此邮件由系统自动发送，如非本人操作可忽略本邮件。</p>
  </div>
</div>`))
)

// mailData 邮件模板数据，评论内容已经过白名单过滤
type mailData struct {
	PostTitle     string
	PostURL       string
	ToName        string
	AuthorName    string
	Content       template.HTML
	ParentContent template.HTML
}

var mailPolicy = content.NewPolicy()

// trustedHTML 再过一遍白名单，导入的数据可能未经清洗
func trustedHTML(s string) template.HTML {
	return template.HTML(mailPolicy.Sanitize(s))
}

func renderMail(tpl *template.Template, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
