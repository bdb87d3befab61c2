package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() ContactEmailData {
	return ContactEmailData{
		SenderName:  "张三",
		SenderEmail: "zhangsan@example.com",
		Subject:     "技术咨询",
		Message:     "Tom & <Jerry>",
		SubmittedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestRenderOperatorNotification(t *testing.T) {
	html, text, err := RenderOperatorNotification(sampleData())
	require.NoError(t, err)

	assert.Contains(t, html, "张三")
	assert.Contains(t, html, "zhangsan@example.com")
	assert.Contains(t, html, "技术咨询")
	assert.Contains(t, html, "Tom &amp; &lt;Jerry&gt;")
	assert.NotContains(t, html, "<Jerry>")
	assert.Contains(t, html, "2026-03-01 12:30:00 UTC")

	assert.Contains(t, text, "Name: 张三")
	assert.Contains(t, text, "Tom & <Jerry>")
}

func TestRenderConfirmation(t *testing.T) {
	html, text, err := RenderConfirmation(sampleData())
	require.NoError(t, err)

	assert.Contains(t, html, "Hi 张三,")
	assert.Contains(t, html, "技术咨询")
	assert.NotContains(t, html, "Tom &amp;")
	assert.Contains(t, text, "Hi 张三,")
}

func TestOperatorSubject(t *testing.T) {
	assert.Equal(t, "Contact Form: partnership", OperatorSubject("partnership"))
}

func TestAddressOnly(t *testing.T) {
	assert.Equal(t, "noreply@obelisk.build", AddressOnly("Dubhe Website <noreply@obelisk.build>"))
	assert.Equal(t, "contact@obelisk.build", AddressOnly("contact@obelisk.build"))
	assert.Equal(t, "not an address", AddressOnly(" not an address "))
}
