package smtprelay

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	msgauthdkim "github.com/emersion/go-msgauth/dkim"
)

var signedHeaders = []string{
	"from",
	"to",
	"reply-to",
	"subject",
	"date",
	"message-id",
	"mime-version",
	"content-type",
}

// Signer adds a DKIM-Signature header to outgoing messages.
type Signer struct {
	domain   string
	selector string
	key      crypto.Signer
}

// NewSigner parses a PEM encoded RSA or Ed25519 key. An empty domain means the
// domain of the sender address is used.
func NewSigner(domain, selector, pemKey string) (*Signer, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("dkim: selector is required")
	}
	key, err := parsePrivateKey([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("dkim: parse private key: %w", err)
	}
	return &Signer{
		domain:   strings.ToLower(strings.TrimSpace(domain)),
		selector: strings.TrimSpace(selector),
		key:      key,
	}, nil
}

// Sign returns message with a relaxed/relaxed DKIM signature prepended.
func (s *Signer) Sign(message []byte, from string) ([]byte, error) {
	domain := s.domain
	if domain == "" {
		domain = domainOf(from)
	}
	if domain == "" {
		return nil, fmt.Errorf("dkim: unable to determine signing domain")
	}

	opts := &msgauthdkim.SignOptions{
		Domain:                 domain,
		Selector:               s.selector,
		Signer:                 s.key,
		HeaderCanonicalization: msgauthdkim.CanonicalizationRelaxed,
		BodyCanonicalization:   msgauthdkim.CanonicalizationRelaxed,
		HeaderKeys:             signedHeaders,
	}

	var signed bytes.Buffer
	if err := msgauthdkim.Sign(&signed, bytes.NewReader(message), opts); err != nil {
		return nil, fmt.Errorf("dkim: signing failed: %w", err)
	}
	return signed.Bytes(), nil
}

func parsePrivateKey(pemData []byte) (crypto.Signer, error) {
	for {
		block, rest := pem.Decode(pemData)
		if block == nil {
			break
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			return key, nil
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			if signer, ok := key.(crypto.Signer); ok {
				return signer, nil
			}
			return nil, fmt.Errorf("unsupported private key type in PKCS#8 container")
		}
		pemData = rest
	}
	return nil, fmt.Errorf("no private key found in PEM data")
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i+1 < len(address) {
		return strings.ToLower(strings.Trim(address[i+1:], "> "))
	}
	return ""
}
