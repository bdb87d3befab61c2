package models

// MaxMessageLength caps the message field, counted in characters (runes).
const MaxMessageLength = 4000

// ContactSubmission represents a contact form submission. It lives only for
// the duration of one request and is never persisted.
type ContactSubmission struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// ValidationResult is the verdict of the validation and sanitization step.
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Data   *ContactSubmission `json:"data"`
	Errors []string           `json:"errors"`
}

// ClientContext identifies the caller of one request for logging.
type ClientContext struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
}

// EmailDispatchOutcome is the result of one email send.
type EmailDispatchOutcome struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// Failed reports whether the send returned an error.
func (o EmailDispatchOutcome) Failed() bool {
	return o.Error != ""
}

// FieldError is a structured schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Outcome is the terminal state of a submission.
type Outcome string

const (
	OutcomeSent            Outcome = "sent"
	OutcomeAcceptedDev     Outcome = "accepted_dev"
	OutcomeAcceptedProd    Outcome = "accepted_prod"
	OutcomeInvalidInput    Outcome = "invalid_input"
	OutcomeRejectedContent Outcome = "rejected_content"
	OutcomeEmailFailed     Outcome = "email_failed"
	OutcomeParseError      Outcome = "parse_error"
)

// ContactResponse is the JSON body returned by POST /api/contact
type ContactResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	ID      string  `json:"id,omitempty"`
	Error   string  `json:"error,omitempty"`
	Details any     `json:"details,omitempty"`
	Outcome Outcome `json:"-"`
}
