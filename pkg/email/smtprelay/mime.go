package smtprelay

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/0xobelisk/dubhe-website-sub001/pkg/email"
)

// buildMessage renders msg as a multipart/alternative MIME message with CRLF
// line endings.
func buildMessage(msg *email.Message, messageID string, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if msg.Text != "" {
		if err := writePart(mw, "text/plain; charset=UTF-8", msg.Text); err != nil {
			return nil, err
		}
	}
	if msg.HTML != "" {
		if err := writePart(mw, "text/html; charset=UTF-8", msg.HTML); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	var out bytes.Buffer
	header := func(name, value string) {
		fmt.Fprintf(&out, "%s: %s\r\n", name, value)
	}
	header("From", encodeAddress(msg.From))
	header("To", strings.Join(encodeAddresses(msg.To), ", "))
	if msg.ReplyTo != "" {
		header("Reply-To", encodeAddress(msg.ReplyTo))
	}
	header("Subject", mime.QEncoding.Encode("UTF-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", "<"+messageID+">")
	header("MIME-Version", "1.0")
	header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary()))
	out.WriteString("\r\n")
	out.Write(body.Bytes())

	return out.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, content string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(content)); err != nil {
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	return qp.Close()
}

// encodeAddress Q-encodes a non-ASCII display name and leaves the address as is.
func encodeAddress(address string) string {
	name, addr, ok := splitAddress(address)
	if !ok || name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", name), addr)
}

func encodeAddresses(addresses []string) []string {
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, encodeAddress(a))
	}
	return out
}

func splitAddress(address string) (name, addr string, ok bool) {
	open := strings.LastIndex(address, "<")
	if open < 0 || !strings.HasSuffix(address, ">") {
		return "", "", false
	}
	return strings.TrimSpace(address[:open]), address[open+1 : len(address)-1], true
}
