package templates

import (
	"embed"
	"html/template"
)

//go:embed email/*.html
var emailTemplatesFS embed.FS

func LoadEmailTemplates() (*template.Template, error) {
	return template.ParseFS(
		emailTemplatesFS,
		"email/base.html",
		"email/confirm_email.html",
		"email/password_reset.html",
	)
}
