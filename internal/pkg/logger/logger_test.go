package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestRedactEmail(t *testing.T) {
	cases := map[string]string{
		"jane.doe@example.com": "ja***@example.com",
		"ab@example.com":       "***@example.com",
		"not-an-email":         "***@***",
	}
	for in, want := range cases {
		if got := RedactEmail(in); got != want {
			t.Errorf("RedactEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogRedactsEmailFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("lead suppressed", "email", "jane.doe@example.com", "reason", "bounce")

	var entry map[string]string
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["email"] != "ja***@example.com" {
		t.Errorf("email field not redacted: %q", entry["email"])
	}
	if entry["reason"] != "bounce" {
		t.Errorf("reason field mangled: %q", entry["reason"])
	}
}

func TestLogRedactsEmbeddedEmails(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Warn("reply received", "detail", "reply from jane.doe@example.com bounced")

	if strings.Contains(buf.String(), "jane.doe@example.com") {
		t.Errorf("embedded email not redacted: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != DEBUG {
		t.Error("debug")
	}
	if ParseLevel("WARN") != WARN {
		t.Error("warn")
	}
	if ParseLevel("bogus") != INFO {
		t.Error("unknown should default to INFO")
	}
}
