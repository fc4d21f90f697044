// Package notify sends plain-text email summaries of sync runs
package notify

import (
	"bytes"
	"fmt"
	"net/smtp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/dustin/go-humanize"
)

const defaultSubjectPrefix = "[Spotify Sync]"

// SendFunc matches [smtp.SendMail].
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends run notifications. SendMail negotiates STARTTLS when the server offers it.
type Mailer struct {
	cfg  shared.EmailConfig
	send SendFunc
	now  func() time.Time
}

// Result describes one finished run.
type Result struct {
	Summary  map[string]string
	Err      error
	Log      []string
	Started  time.Time
	Finished time.Time
}

// New returns a Mailer for cfg. It is a no-op unless cfg.Enabled.
func New(cfg shared.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

// WithSender replaces the SMTP transport.
func (m *Mailer) WithSender(send SendFunc) *Mailer {
	m.send = send
	return m
}

// Enabled reports whether notifications are configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled && m.cfg.SMTPHost != "" && m.cfg.To != ""
}

// Notify mails the result of a run. It returns nil without sending when disabled.
func (m *Mailer) Notify(res Result) error {
	if !m.Enabled() {
		return nil
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.SMTPUser
	}
	if from == "" {
		return fmt.Errorf("%w: email sender not set", shared.ErrInvalidConfig)
	}

	port := m.cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	addr := m.cfg.SMTPHost + ":" + strconv.Itoa(port)

	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	to := recipients(m.cfg.To)
	msg := m.message(from, to, res)
	if err := m.send(addr, auth, from, to, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// Subject returns the subject line for a run result.
func (m *Mailer) Subject(res Result) string {
	prefix := m.cfg.SubjectPrefix
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	if res.Err != nil {
		return prefix + " ❌ Sync failed"
	}
	return prefix + " ✅ Sync succeeded"
}

func (m *Mailer) message(from string, to []string, res Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", m.Subject(res))
	fmt.Fprintf(&buf, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(strings.ReplaceAll(Body(res), "\n", "\r\n"))
	return buf.Bytes()
}

// Body renders the summary, the error if any and the captured log.
func Body(res Result) string {
	var b strings.Builder

	if !res.Started.IsZero() && !res.Finished.IsZero() {
		fmt.Fprintf(&b, "Started:  %s\n", res.Started.Format(time.DateTime))
		fmt.Fprintf(&b, "Finished: %s (took %s)\n\n", res.Finished.Format(time.DateTime),
			strings.TrimSpace(humanize.RelTime(res.Started, res.Finished, "", "")))
	}

	if len(res.Summary) > 0 {
		b.WriteString("Summary\n-------\n")
		keys := make([]string, 0, len(res.Summary))
		for k := range res.Summary {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, res.Summary[k])
		}
		b.WriteString("\n")
	}

	if res.Err != nil {
		fmt.Fprintf(&b, "Error\n-----\n%v\n\n", res.Err)
	}

	if len(res.Log) > 0 {
		b.WriteString("Log\n---\n")
		for _, line := range res.Log {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func recipients(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
