package sender

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@licenzo.dev", "kim@example.com", "URGENT: Serial License Expired", "<html><body>hi</body></html>"))

	lines := strings.Split(msg, "\r\n")
	assert.Equal(t, "From: noreply@licenzo.dev", lines[0])
	assert.Equal(t, "To: kim@example.com", lines[1])
	assert.Equal(t, "Subject: URGENT: Serial License Expired", lines[2])
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=utf-8\r\n")

	// Headers and body separated by a blank line.
	assert.Contains(t, msg, "\r\n\r\n<html><body>hi</body></html>\r\n")
}

func TestHost(t *testing.T) {
	assert.Equal(t, "smtp.example.com", host("smtp.example.com:587"))
	assert.Equal(t, "localhost", host("localhost:1025"))
	assert.Equal(t, "mailhog", host("mailhog"))
}

func TestNewMailer(t *testing.T) {
	m := NewMailer(SMTPConfig{
		Addr:       "localhost:1025",
		From:       "noreply@licenzo.dev",
		Timeout:    5 * time.Second,
		SubjPrefix: "[Licenzo]",
	})
	assert.Equal(t, "localhost:1025", m.Addr())
	assert.Nil(t, m.auth)

	withAuth := NewMailer(SMTPConfig{Addr: "smtp.example.com:587", User: "svc", Password: "s3cret"})
	assert.NotNil(t, withAuth.auth)

	assert.Same(t, m, m.WithLogger(nil))
}
