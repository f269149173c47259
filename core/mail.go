package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	mailTemplatesFS   fs.FS
	mailTextTemplates *texttmpl.Template
	mailHTMLTemplates *htmltmpl.Template
	tmplInit          sync.Once
)

// SetMailTemplatesFS registers the filesystem that holds the email templates;
// "<name>.txt" and "<name>.gohtml" pairs under "templates/email".
func SetMailTemplatesFS(fsys fs.FS) {
	mailTemplatesFS = fsys
}

func parseTemplates() {
	if mailTemplatesFS == nil {
		return
	}
	if t, err := texttmpl.ParseFS(mailTemplatesFS, "templates/email/*.txt"); err == nil {
		mailTextTemplates = t
	}
	if t, err := htmltmpl.ParseFS(mailTemplatesFS, "templates/email/*.gohtml"); err == nil {
		mailHTMLTemplates = t
	}
}

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) renderText() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" || mailTextTemplates == nil {
		return nil
	}
	tmpl := mailTextTemplates.Lookup(m.TemplateName + ".txt")
	if tmpl == nil {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData()); err != nil {
		return errors.Wrap(err, "rendering text template")
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML() error {
	if m.TemplateName == "" || mailHTMLTemplates == nil {
		return nil
	}
	tmpl := mailHTMLTemplates.Lookup(m.TemplateName + ".gohtml")
	if tmpl == nil {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData()); err != nil {
		return errors.Wrap(err, "rendering html template")
	}
	m.HTMLContent = buff.String()
	return nil
}

func (m *EmailMessage) Render() error {
	if m.TemplateName != "" {
		tmplInit.Do(parseTemplates) // only parse once during first send
	}
	if err := m.renderText(); err != nil {
		return err
	}
	return m.renderHTML()
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.BodyStr != "" || m.TemplateName != "" || m.TextContent != "" || m.HTMLContent != ""
}

func (m *EmailMessage) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// guessContentType falls back on the file extension when no explicit type is given.
func guessContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

func (m *EmailMessage) Attach(content *bytes.Buffer, filename string, ct ...string) {
	at := Attachment{Content: content, Filename: filename}
	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = guessContentType(filename)
	}
	m.Attachments = append(m.Attachments, at)
}
