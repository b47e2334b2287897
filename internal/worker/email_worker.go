package worker

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"
	"net/mail"
	"net/smtp"
	"time"

	"github.com/aminshahid573/authapi/internal/config"
	"github.com/aminshahid573/authapi/internal/templates"
)

const (
	JobEmailConfirmation = "email_confirmation"
	JobPasswordReset     = "password_reset"
)

type EmailJob struct {
	Type           string // JobEmailConfirmation, JobPasswordReset
	RecipientEmail string
	RecipientName  string
	ActionURL      string
	ExpiresAt      time.Time
}

type EmailWorker struct {
	cfg       config.EmailConfig
	logger    *slog.Logger
	jobs      chan EmailJob
	templates *template.Template
	send      func(to, subject, body string) error
}

func NewEmailWorker(cfg config.EmailConfig, logger *slog.Logger) (*EmailWorker, error) {
	tmpl, err := templates.LoadEmailTemplates()
	if err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	w := &EmailWorker{
		cfg:       cfg,
		logger:    logger,
		jobs:      make(chan EmailJob, 100), // Buffer of 100 jobs
		templates: tmpl,
	}
	w.send = w.sendEmail
	return w, nil
}

// Start processes queued jobs until ctx is cancelled. Jobs still buffered
// at that point are dropped.
func (w *EmailWorker) Start(ctx context.Context) {
	w.logger.Info("Email worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Email worker stopping", "pending", len(w.jobs))
			return
		case job := <-w.jobs:
			if err := w.ProcessJob(job); err != nil {
				w.logger.Error("Failed to process email job",
					"error", err,
					"type", job.Type,
				)
			} else {
				w.logger.Info("Email sent successfully",
					"type", job.Type,
					"recipient", job.RecipientEmail,
				)
			}
		}
	}
}

// QueueJob enqueues job without blocking. It reports false when the queue
// is full and the job was dropped.
func (w *EmailWorker) QueueJob(job EmailJob) bool {
	select {
	case w.jobs <- job:
		w.logger.Debug("Email job queued", "type", job.Type)
		return true
	default:
		w.logger.Warn("Email job queue full, dropping job", "type", job.Type)
		return false
	}
}

func (w *EmailWorker) ProcessJob(job EmailJob) error {
	if job.RecipientEmail == "" {
		return fmt.Errorf("recipient email is required for job type: %s", job.Type)
	}

	var (
		subject, body string
		err           error
	)

	switch job.Type {
	case JobEmailConfirmation:
		subject, body, err = w.buildConfirmationEmail(job)
	case JobPasswordReset:
		subject, body, err = w.buildPasswordResetEmail(job)
	default:
		return fmt.Errorf("unknown email type: %s", job.Type)
	}
	if err != nil {
		return err
	}

	return w.send(job.RecipientEmail, subject, body)
}

func (w *EmailWorker) sendEmail(to, subject, body string) error {
	// Skip sending if SMTP is not configured (development mode)
	if w.cfg.SMTPHost == "" || w.cfg.SMTPHost == "smtp.example.com" {
		w.logger.Info("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := mail.Address{Name: w.cfg.FromName, Address: w.cfg.FromEmail}
	toAddr := mail.Address{Address: to}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from.String())
	fmt.Fprintf(&msg, "To: %s\r\n", toAddr.String())
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", w.cfg.SMTPUsername, w.cfg.SMTPPassword, w.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", w.cfg.SMTPHost, w.cfg.SMTPPort)

	// Port 465 is implicit TLS; anything else negotiates STARTTLS.
	if w.cfg.SMTPPort == 465 {
		return w.sendEmailTLS(addr, auth, w.cfg.FromEmail, []string{to}, msg.Bytes())
	}

	return smtp.SendMail(addr, auth, w.cfg.FromEmail, []string{to}, msg.Bytes())
}

func (w *EmailWorker) sendEmailTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: w.cfg.SMTPHost})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, w.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("new client: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("rcpt: %w", err)
		}
	}

	dataWriter, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := dataWriter.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := dataWriter.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return client.Quit()
}
