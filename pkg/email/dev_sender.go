package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender stores messages on disk instead of sending them. Each message
// becomes <timestamp>_<subject>.json plus one file per attachment.
type DevSender struct {
	dir string
	now func() time.Time
}

func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now}
}

type devRecord struct {
	Timestamp   string   `json:"timestamp"`
	To          string   `json:"to"`
	ReplyTo     string   `json:"reply_to,omitempty"`
	Subject     string   `json:"subject"`
	Tag         string   `json:"tag,omitempty"`
	TextBody    string   `json:"text_body,omitempty"`
	HTMLBody    string   `json:"html_body,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

func (d *DevSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir: %v", ErrSendFailed, err)
	}

	now := d.now()
	base := now.Format("2006_01_02_150405.000000") + "_" + safeName(msg.Subject)

	rec := devRecord{
		Timestamp: now.Format(time.RFC3339Nano),
		To:        msg.To,
		ReplyTo:   msg.ReplyTo,
		Subject:   msg.Subject,
		Tag:       msg.Tag,
		TextBody:  msg.TextBody,
		HTMLBody:  msg.HTMLBody,
	}
	for _, a := range msg.Attachments {
		name := base + "_" + safeName(a.Filename)
		if err := os.WriteFile(filepath.Join(d.dir, name), a.Content, 0o644); err != nil {
			return fmt.Errorf("%w: write attachment: %v", ErrSendFailed, err)
		}
		rec.Attachments = append(rec.Attachments, name)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), data, 0o644); err != nil {
		return fmt.Errorf("%w: write message: %v", ErrSendFailed, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func safeName(s string) string {
	s = unsafeChars.ReplaceAllString(strings.ReplaceAll(s, " ", "_"), "")
	if len(s) > 80 {
		s = s[:80]
	}
	if s == "" {
		return "email"
	}
	return s
}
