package worker

import (
	"bytes"
	"fmt"
	"time"
)

type emailData struct {
	Subject         string
	EmailType       string
	AppName         string
	RecipientName   string
	RecipientEmail  string
	ActionURL       string
	ActionLabel     string
	ExpiresIn       string
	BackgroundColor string
	PrimaryColor    string
}

func (w *EmailWorker) buildConfirmationEmail(job EmailJob) (string, string, error) {
	subject := "Please Confirm Your E-mail Address"
	if w.cfg.FromName != "" {
		subject = fmt.Sprintf("[%s] %s", w.cfg.FromName, subject)
	}

	return w.render(subject, emailData{
		EmailType:       JobEmailConfirmation,
		RecipientName:   job.RecipientName,
		RecipientEmail:  job.RecipientEmail,
		ActionURL:       job.ActionURL,
		ActionLabel:     "Confirm e-mail",
		ExpiresIn:       formatExpiry(job.ExpiresAt),
		BackgroundColor: "#f8fafc",
		PrimaryColor:    "#2563eb",
	})
}

func (w *EmailWorker) buildPasswordResetEmail(job EmailJob) (string, string, error) {
	subject := "Password Reset E-mail"
	if w.cfg.FromName != "" {
		subject = fmt.Sprintf("[%s] %s", w.cfg.FromName, subject)
	}

	return w.render(subject, emailData{
		EmailType:       JobPasswordReset,
		RecipientName:   job.RecipientName,
		RecipientEmail:  job.RecipientEmail,
		ActionURL:       job.ActionURL,
		ActionLabel:     "Reset password",
		ExpiresIn:       formatExpiry(job.ExpiresAt),
		BackgroundColor: "#f8fafc",
		PrimaryColor:    "#dc2626",
	})
}

func (w *EmailWorker) render(subject string, data emailData) (string, string, error) {
	data.Subject = subject
	data.AppName = w.cfg.FromName

	var body bytes.Buffer
	if err := w.templates.ExecuteTemplate(&body, "base", data); err != nil {
		return "", "", fmt.Errorf("render %s email: %w", data.EmailType, err)
	}
	return subject, body.String(), nil
}

func formatExpiry(expiresAt time.Time) string {
	if expiresAt.IsZero() {
		return "soon"
	}
	return "on " + expiresAt.UTC().Format("2006-01-02 15:04 MST")
}
