// Package contactform drives the website contact form: it owns the field
// values, submits them to the contact API and turns the response into a
// transient notification.
package contactform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/0xobelisk/dubhe-website-sub001/pkg/httpclient"
)

const (
	// MaxMessageLength is the character cap on the message field
	MaxMessageLength = 4000

	// DefaultDismissAfter is how long a notification stays visible
	DefaultDismissAfter = 5 * time.Second

	// maxResponseBytes bounds how much of a response body is decoded
	maxResponseBytes = 1 << 20
)

// Field names accepted by UpdateField.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSubject = "subject"
	FieldMessage = "message"
)

var (
	// ErrSubmissionInFlight is returned while a previous Submit is pending
	ErrSubmissionInFlight = errors.New("submission already in progress")

	// ErrMissingField is returned when a required field is empty
	ErrMissingField = errors.New("required field is empty")

	// ErrInvalidEmail is returned when the email field is not address shaped
	ErrInvalidEmail = errors.New("email address is not valid")
)

// emailShape mirrors the browser's type=email check.
var emailShape = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Subject is one of the options offered in the subject selector.
type Subject struct {
	Value string
	Label string
}

var subjects = []Subject{
	{Value: "general", Label: "General Inquiry"},
	{Value: "technical", Label: "Technical Support"},
	{Value: "partnership", Label: "Partnership"},
	{Value: "media", Label: "Media & Press"},
	{Value: "other", Label: "Other"},
}

// Subjects lists the subject options. The server does not enforce them.
func Subjects() []Subject {
	out := make([]Subject, len(subjects))
	copy(out, subjects)
	return out
}

// Fields holds the current form values.
type Fields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// NotificationKind distinguishes success and error banners.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is the banner shown after a submission.
type Notification struct {
	Kind NotificationKind
	Text string
}

// State is a snapshot of the controller.
type State struct {
	Fields       Fields
	Submitting   bool
	Notification *Notification
}

// Messages are the user-facing strings, usually loaded from the locale bundle.
type Messages struct {
	Success      string
	GenericError string
	NetworkError string
}

// DefaultMessages are the English strings.
var DefaultMessages = Messages{
	Success:      "Thank you! Your message has been sent successfully.",
	GenericError: "Failed to send message. Please try again.",
	NetworkError: "Network error. Please check your connection and try again.",
}

// Option configures a Controller.
type Option func(*Controller)

// WithDismissAfter sets how long notifications stay visible.
func WithDismissAfter(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.dismissAfter = d
		}
	}
}

// WithMessages overrides the notification strings. Empty entries keep the defaults.
func WithMessages(m Messages) Option {
	return func(c *Controller) {
		if m.Success != "" {
			c.messages.Success = m.Success
		}
		if m.GenericError != "" {
			c.messages.GenericError = m.GenericError
		}
		if m.NetworkError != "" {
			c.messages.NetworkError = m.NetworkError
		}
	}
}

// WithOnChange registers a callback invoked with a snapshot after every state change.
// It runs outside the controller's lock.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// Controller is safe for concurrent use.
type Controller struct {
	endpoint     string
	client       httpclient.Client
	dismissAfter time.Duration
	messages     Messages
	onChange     func(State)

	mu           sync.Mutex
	fields       Fields
	submitting   bool
	notification *Notification
	generation   uint64
	dismiss      *time.Timer
	closed       bool
}

// New creates a controller posting to endpoint (e.g. https://dubhe.obelisk.build/api/contact).
func New(endpoint string, client httpclient.Client, opts ...Option) *Controller {
	c := &Controller{
		endpoint:     endpoint,
		client:       client,
		dismissAfter: DefaultDismissAfter,
		messages:     DefaultMessages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateField sets one field. Unknown names are ignored, and a message longer
// than MaxMessageLength characters leaves the field unchanged.
func (c *Controller) UpdateField(name, value string) {
	c.mu.Lock()
	switch name {
	case FieldName:
		c.fields.Name = value
	case FieldEmail:
		c.fields.Email = value
	case FieldSubject:
		c.fields.Subject = value
	case FieldMessage:
		if utf8.RuneCountInString(value) > MaxMessageLength {
			c.mu.Unlock()
			return
		}
		c.fields.Message = value
	default:
		c.mu.Unlock()
		return
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Submit posts the current fields and blocks until the response is mapped to
// a notification. Server-side failures are reported through the notification,
// not the returned error.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	fields := c.fields
	if err := checkFields(fields); err != nil {
		c.mu.Unlock()
		return err
	}
	c.submitting = true
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)

	ok, text := c.post(ctx, fields)

	c.mu.Lock()
	c.submitting = false
	kind := NotificationError
	if ok {
		kind = NotificationSuccess
		c.fields = Fields{}
	}
	c.showLocked(&Notification{Kind: kind, Text: text})
	snapshot = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)

	return nil
}

// Close cancels a pending notification dismissal.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
	if c.dismiss != nil {
		c.dismiss.Stop()
		c.dismiss = nil
	}
}

func checkFields(f Fields) error {
	required := []struct{ name, value string }{
		{FieldName, f.Name},
		{FieldEmail, f.Email},
		{FieldSubject, f.Subject},
		{FieldMessage, f.Message},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s: %w", r.name, ErrMissingField)
		}
	}
	if !emailShape.MatchString(f.Email) {
		return ErrInvalidEmail
	}
	return nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

// post returns whether the submission succeeded and the notification text.
func (c *Controller) post(ctx context.Context, fields Fields) (bool, string) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return false, c.messages.GenericError
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return false, c.messages.NetworkError
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, c.messages.NetworkError
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return false, c.messages.NetworkError
	}

	if body.Success && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, c.messages.Success
	}

	if details := joinDetails(body.Details); details != "" {
		return false, details
	}
	if body.Error != "" {
		return false, body.Error
	}
	return false, c.messages.GenericError
}

// joinDetails flattens the details array. Entries are either plain strings or
// objects carrying a message.
func joinDetails(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				parts = append(parts, s)
			}
			continue
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Message != "" {
			parts = append(parts, obj.Message)
		}
	}
	return strings.Join(parts, ", ")
}

// showLocked replaces the notification and schedules its dismissal. The
// generation check keeps a stale timer from clearing a newer notification.
func (c *Controller) showLocked(n *Notification) {
	c.generation++
	if c.dismiss != nil {
		c.dismiss.Stop()
		c.dismiss = nil
	}
	c.notification = n
	if c.closed {
		return
	}

	gen := c.generation
	c.dismiss = time.AfterFunc(c.dismissAfter, func() {
		c.mu.Lock()
		if c.generation != gen {
			c.mu.Unlock()
			return
		}
		c.notification = nil
		c.dismiss = nil
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot)
	})
}

func (c *Controller) snapshotLocked() State {
	s := State{Fields: c.fields, Submitting: c.submitting}
	if c.notification != nil {
		n := *c.notification
		s.Notification = &n
	}
	return s
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
