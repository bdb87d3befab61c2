package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// ContactEmailData holds the data for contact form emails
type ContactEmailData struct {
	SenderName  string
	SenderEmail string
	Subject     string
	Message     string
	SubmittedAt time.Time
}

// SubmittedAtUTC formats the submission time for the templates.
func (d ContactEmailData) SubmittedAtUTC() string {
	return d.SubmittedAt.UTC().Format("2006-01-02 15:04:05 MST")
}

// operatorTemplate is the notification sent to the site operators
const operatorTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Contact Form Submission</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #111827; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .field { margin-bottom: 15px; }
        .label { font-weight: bold; color: #555; }
        .value { margin-top: 5px; }
        .message-box { background: white; padding: 15px; border-left: 4px solid #6366f1; margin-top: 10px; white-space: pre-wrap; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Contact Form Submission</h1>
        </div>
        <div class="content">
            <div class="field">
                <div class="label">Name:</div>
                <div class="value">{{.SenderName}}</div>
            </div>
            <div class="field">
                <div class="label">Email:</div>
                <div class="value">{{.SenderEmail}}</div>
            </div>
            <div class="field">
                <div class="label">Subject:</div>
                <div class="value">{{.Subject}}</div>
            </div>
            <div class="field">
                <div class="label">Message:</div>
                <div class="message-box">{{.Message}}</div>
            </div>
        </div>
        <div class="footer">
            <p>Submitted at {{.SubmittedAtUTC}} from the Dubhe website contact form.</p>
            <p>Reply to this email to answer {{.SenderEmail}} directly.</p>
        </div>
    </div>
</body>
</html>`

// confirmationTemplate is the acknowledgment sent back to the submitter
const confirmationTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Thank you for contacting Dubhe</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #111827; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Thank you for reaching out</h1>
        </div>
        <div class="content">
            <p>Hi {{.SenderName}},</p>
            <p>We have received your message about "{{.Subject}}" and will get back to you as soon as possible.</p>
            <p>The Dubhe Team</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>`

var (
	operatorTmpl     = template.Must(template.New("operator").Parse(operatorTemplate))
	confirmationTmpl = template.Must(template.New("confirmation").Parse(confirmationTemplate))
)

// OperatorSubject is the subject line of the operator notification.
func OperatorSubject(subject string) string {
	return fmt.Sprintf("Contact Form: %s", subject)
}

// ConfirmationSubject is the subject line of the submitter confirmation.
const ConfirmationSubject = "Thank you for contacting Dubhe"

// RenderOperatorNotification renders the HTML and plain text bodies of the
// operator notification.
func RenderOperatorNotification(data ContactEmailData) (htmlBody, textBody string, err error) {
	htmlBody, err = render(operatorTmpl, data)
	if err != nil {
		return "", "", err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "New contact form submission\n\n")
	fmt.Fprintf(&text, "Name: %s\nEmail: %s\nSubject: %s\nSubmitted at: %s\n\n",
		data.SenderName, data.SenderEmail, data.Subject, data.SubmittedAtUTC())
	text.WriteString(data.Message)
	text.WriteString("\n")

	return htmlBody, text.String(), nil
}

// RenderConfirmation renders the HTML and plain text bodies of the
// submitter confirmation.
func RenderConfirmation(data ContactEmailData) (htmlBody, textBody string, err error) {
	htmlBody, err = render(confirmationTmpl, data)
	if err != nil {
		return "", "", err
	}

	textBody = fmt.Sprintf("Hi %s,\n\nWe have received your message about %q and will get back to you as soon as possible.\n\nThe Dubhe Team\n",
		data.SenderName, data.Subject)
	return htmlBody, textBody, nil
}

func render(tmpl *template.Template, data ContactEmailData) (string, error) {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template %q: %w", tmpl.Name(), err)
	}
	return body.String(), nil
}
