package smtprelay

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/0xobelisk/dubhe-website-sub001/pkg/email"
	apperrors "github.com/0xobelisk/dubhe-website-sub001/pkg/errors"
	"github.com/google/uuid"
)

const (
	providerName = "smtp"

	// implicitTLSPort is the submissions port that expects TLS from the first byte
	implicitTLSPort = 465

	defaultTimeout = 30 * time.Second
)

// Config describes the relay the sender submits to
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	HeloName string

	// TLSConfig overrides the TLS settings used for STARTTLS and implicit TLS
	TLSConfig *tls.Config
}

// Sender submits messages to an authenticated SMTP relay
type Sender struct {
	cfg    Config
	signer *Signer
	now    func() time.Time
}

// NewSender creates a relay sender. signer may be nil to skip DKIM signing.
func NewSender(cfg Config, signer *Signer) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.HeloName == "" {
		cfg.HeloName = "localhost"
	}
	return &Sender{cfg: cfg, signer: signer, now: time.Now}
}

// Send builds, optionally signs, and submits msg. The returned id is the
// generated Message-ID without angle brackets.
func (s *Sender) Send(ctx context.Context, msg *email.Message) (*email.SendResult, error) {
	envelopeFrom := email.AddressOnly(msg.From)
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		recipients = append(recipients, email.AddressOnly(to))
	}
	if len(recipients) == 0 {
		return nil, apperrors.InvalidInputError("to", "at least one recipient is required")
	}

	messageID := fmt.Sprintf("%s@%s", uuid.NewString(), messageIDDomain(envelopeFrom, s.cfg.Host))
	raw, err := buildMessage(msg, messageID, s.now())
	if err != nil {
		return nil, err
	}
	if s.signer != nil {
		if raw, err = s.signer.Sign(raw, envelopeFrom); err != nil {
			return nil, err
		}
	}

	if err := s.submit(ctx, envelopeFrom, recipients, raw); err != nil {
		return nil, classify(err)
	}
	return &email.SendResult{ID: messageID}, nil
}

func (s *Sender) submit(ctx context.Context, from string, to []string, data []byte) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("new client: %w", err)
	}
	defer client.Close()

	if err := client.Hello(s.cfg.HeloName); err != nil {
		return fmt.Errorf("helo: %w", err)
	}

	if _, isTLS := conn.(*tls.Conn); !isTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.tlsConfig()); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to: %w", err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data start: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("data write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close: %w", err)
	}

	return client.Quit()
}

func (s *Sender) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: defaultTimeout}
	if s.cfg.Port == implicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: s.tlsConfig()}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (s *Sender) tlsConfig() *tls.Config {
	if s.cfg.TLSConfig != nil {
		return s.cfg.TLSConfig
	}
	return &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
}

// classify separates relay refusals from connection failures.
func classify(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return apperrors.ProviderRejectedError(providerName, err.Error())
	}
	return apperrors.ProviderUnavailableError(providerName, err)
}

func messageIDDomain(from, host string) string {
	if d := domainOf(from); d != "" {
		return d
	}
	return host
}
