package notify

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotsync/internal/shared"
)

type captured struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func testConfig() shared.EmailConfig {
	return shared.EmailConfig{
		Enabled:      true,
		SMTPHost:     "smtp.example.com",
		SMTPPort:     587,
		SMTPUser:     "me@example.com",
		SMTPPassword: "pw",
		To:           "a@example.com, b@example.com",
	}
}

func newTestMailer(cfg shared.EmailConfig, got *captured, err error) *Mailer {
	m := New(cfg).WithSender(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*got = captured{addr: addr, auth: a, from: from, to: to, msg: string(msg)}
		return err
	})
	m.now = func() time.Time { return time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC) }
	return m
}

func TestMailer(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		var got captured
		cfg := testConfig()
		cfg.Enabled = false
		if err := newTestMailer(cfg, &got, nil).Notify(Result{}); err != nil {
			t.Fatal(err)
		}
		if got.addr != "" {
			t.Error("expected nothing sent")
		}
	})

	t.Run("Success", func(t *testing.T) {
		var got captured
		start := time.Date(2025, 3, 15, 8, 58, 0, 0, time.UTC)
		err := newTestMailer(testConfig(), &got, nil).Notify(Result{
			Summary:  map[string]string{"created": "2", "tracks_added": "40"},
			Log:      []string{"09:00:00 INFO sync finished"},
			Started:  start,
			Finished: start.Add(2 * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}

		if got.addr != "smtp.example.com:587" || got.from != "me@example.com" {
			t.Errorf("unexpected envelope %+v", got)
		}
		if len(got.to) != 2 || got.to[1] != "b@example.com" {
			t.Errorf("unexpected recipients %v", got.to)
		}
		if got.auth == nil {
			t.Error("expected auth")
		}
		for _, want := range []string{
			"Subject: [Spotify Sync] ✅ Sync succeeded\r\n",
			"created: 2\r\ntracks_added: 40\r\n",
			"INFO sync finished",
			"took 2 minutes",
		} {
			if !strings.Contains(got.msg, want) {
				t.Errorf("message missing %q:\n%s", want, got.msg)
			}
		}
	})

	t.Run("Failure", func(t *testing.T) {
		var got captured
		cfg := testConfig()
		cfg.SubjectPrefix = "[cron]"
		cfg.From = "bot@example.com"
		err := newTestMailer(cfg, &got, nil).Notify(Result{Err: errors.New("rate limited")})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(got.msg, "Subject: [cron] ❌ Sync failed") || !strings.Contains(got.msg, "rate limited") {
			t.Errorf("unexpected message:\n%s", got.msg)
		}
		if got.from != "bot@example.com" {
			t.Errorf("expected explicit sender, got %s", got.from)
		}
	})

	t.Run("Send Error", func(t *testing.T) {
		var got captured
		err := newTestMailer(testConfig(), &got, errors.New("connection refused")).Notify(Result{})
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("expected wrapped send error, got %v", err)
		}
	})

	t.Run("Missing Sender", func(t *testing.T) {
		var got captured
		cfg := testConfig()
		cfg.SMTPUser = ""
		err := newTestMailer(cfg, &got, nil).Notify(Result{})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
