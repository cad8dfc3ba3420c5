package notifier

import (
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"

	"github.com/amirasaad/paylink/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PicksBackend(t *testing.T) {
	_, isLog := New(&config.SMTP{}, slog.Default()).(*LogNotifier)
	assert.True(t, isLog)
	_, isSMTP := New(&config.SMTP{Host: "mail.local", Port: 25}, slog.Default()).(*SMTPNotifier)
	assert.True(t, isSMTP)
}

func TestSMTPNotifier_Send(t *testing.T) {
	n := NewSMTPNotifier(&config.SMTP{
		Host: "mail.local", Port: 587, Username: "u", Password: "p", From: "no-reply@paylink.local",
	}, slog.Default())

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		assert.NotNil(t, a)
		return nil
	}

	err := n.Send(context.Background(), Message{To: "m@example.com", Subject: "Paid", Body: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:587", gotAddr)
	assert.Equal(t, []string{"m@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Paid\r\n")
	assert.Contains(t, string(gotMsg), "line1\r\nline2")
}

func TestSMTPNotifier_RejectsHeaderInjection(t *testing.T) {
	n := NewSMTPNotifier(&config.SMTP{Host: "mail.local", Port: 25}, slog.Default())
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("must not send")
		return nil
	}
	err := n.Send(context.Background(), Message{To: "a@b.c\r\nBcc: x@y.z", Subject: "s"})
	assert.Error(t, err)
}

func TestSMTPNotifier_WrapsSendError(t *testing.T) {
	n := NewSMTPNotifier(&config.SMTP{Host: "mail.local", Port: 25}, slog.Default())
	boom := errors.New("connection refused")
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }
	assert.ErrorIs(t, n.Send(context.Background(), Message{To: "a@b.c"}), boom)
}

func TestRenderTransaction(t *testing.T) {
	out, err := RenderTransaction(TransactionMailData{
		Name: "Shop", Kind: "withdrawal", Amount: "150.00", Currency: "USD",
		Provider: "flutterwave", Status: "failed", Reason: "insufficient float", Reference: "wd-1",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Hello Shop,"))
	assert.Contains(t, out, "150.00 USD via flutterwave is now failed.")
	assert.Contains(t, out, "Reason: insufficient float")
}
