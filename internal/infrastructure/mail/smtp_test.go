package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "store@example.com", Password: "pw"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.Send(context.Background(), "ada@example.com", "Your order\r\nBcc: x", "line1\nline2"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "store@example.com", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: Your order  Bcc: x\r\n")
	assert.True(t, strings.HasSuffix(msg, "line1\r\nline2"))

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	assert.Error(t, m.Send(context.Background(), "ada@example.com", "s", "b"))
}

func TestBuildMessage_Headers(t *testing.T) {
	msg := string(buildMessage("a@x.com", "b@y.com", "Hi", "body", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Contains(t, msg, "From: a@x.com\r\n")
	assert.Contains(t, msg, "Date: Thu, 02 Jan 2025 03:04:05 +0000\r\n")
	assert.Contains(t, msg, "\r\n\r\nbody")
}

func TestNew(t *testing.T) {
	_, ok := New(config.SMTPConfig{}).(LogMailer)
	assert.True(t, ok)
	_, ok = New(config.SMTPConfig{Host: "smtp.example.com", Port: 25}).(*SMTPMailer)
	assert.True(t, ok)
}
