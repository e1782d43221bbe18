package smtp

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmail(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	m := &mailer{
		host: "mail.local", port: "25", from: "noreply@rider.app",
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
			return nil
		},
	}

	require.NoError(t, m.SendEmail("a@b.com", "Hello", "body"))

	assert.Equal(t, "mail.local:25", gotAddr)
	assert.Nil(t, gotAuth)
	assert.Equal(t, "noreply@rider.app", gotFrom)
	assert.Equal(t, []string{"a@b.com"}, gotTo)
	assert.Equal(t, "From: noreply@rider.app\r\nTo: a@b.com\r\nSubject: Hello\r\n\r\nbody", string(gotMsg))
}

func TestSendEmail_WithAuth(t *testing.T) {
	var gotAuth smtp.Auth
	m := &mailer{
		host: "mail.local", port: "587", from: "x@y", username: "user", password: "pw",
		send: func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
			gotAuth = a
			return nil
		},
	}

	require.NoError(t, m.SendEmail("a@b.com", "s", "b"))
	assert.NotNil(t, gotAuth)
}

func TestSendEmail_Error(t *testing.T) {
	m := &mailer{host: "h", port: "25", send: func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("refused")
	}}

	assert.EqualError(t, m.SendEmail("a@b.com", "s", "b"), "send mail to a@b.com: refused")
}

func TestVerificationBody(t *testing.T) {
	assert.Contains(t, VerificationBody("", "123456"), "Hi rider,")
	assert.Contains(t, VerificationBody("Ana", "123456"), "Your verification code is 123456.")
}
