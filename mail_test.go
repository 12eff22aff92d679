package sendgrid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewMail_RequiredFields(t *testing.T) {
	t.Parallel()

	m := NewMail(
		Destination{Address: "a@x.com", Name: "A"},
		"Test",
		Destination{Address: "b@x.com", Name: "B"},
	)

	if len(m.To) != 1 || m.To[0] != "a@x.com" {
		t.Errorf("To: got %v, want [a@x.com]", m.To)
	}
	if len(m.ToName) != 1 || m.ToName[0] != "A" {
		t.Errorf("ToName: got %v, want [A]", m.ToName)
	}
	if m.From != "b@x.com" {
		t.Errorf("From: got %q, want %q", m.From, "b@x.com")
	}
	if m.FromName != "B" {
		t.Errorf("FromName: got %q, want %q", m.FromName, "B")
	}
	if m.Subject != "Test" {
		t.Errorf("Subject: got %q, want %q", m.Subject, "Test")
	}
	if m.HTML != "" || m.Text != "" || m.ReplyTo != "" || m.Date != "" || m.XSMTPAPI != "" {
		t.Error("optional fields should start empty")
	}
}

func TestAddRecipients_ParallelOrder(t *testing.T) {
	t.Parallel()

	m := NewMail(Destination{Address: "first@x.com", Name: "First"}, "s", Destination{Address: "f@x.com"}).
		AddTo(Destination{Address: "second@x.com", Name: "Second"}).
		AddCc(Destination{Address: "cc1@x.com", Name: "Cc One"}).
		AddCc(Destination{Address: "cc2@x.com", Name: "Cc Two"}).
		AddBcc(Destination{Address: "bcc1@x.com"})

	if len(m.To) != 2 || m.To[1] != "second@x.com" || m.ToName[1] != "Second" {
		t.Errorf("To/ToName: got %v / %v", m.To, m.ToName)
	}
	if len(m.Cc) != 2 || m.Cc[0] != "cc1@x.com" || m.CcName[0] != "Cc One" {
		t.Errorf("Cc/CcName: got %v / %v", m.Cc, m.CcName)
	}
	if m.Cc[1] != "cc2@x.com" || m.CcName[1] != "Cc Two" {
		t.Errorf("Cc order not preserved: got %v / %v", m.Cc, m.CcName)
	}
	if len(m.Bcc) != 1 || m.Bcc[0] != "bcc1@x.com" || m.BccName[0] != "" {
		t.Errorf("Bcc/BccName: got %v / %v", m.Bcc, m.BccName)
	}
}

func TestAddRecipients_NoDeduplication(t *testing.T) {
	t.Parallel()

	m := NewMail(Destination{Address: "a@x.com", Name: "A"}, "s", Destination{Address: "f@x.com"}).
		AddTo(Destination{Address: "a@x.com", Name: "A"})

	if len(m.To) != 2 {
		t.Errorf("To: got %d entries, want 2 (duplicates must be kept)", len(m.To))
	}
}

func TestSetBodies_DoNotClearEachOther(t *testing.T) {
	t.Parallel()

	m := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"}).
		SetText("plain").
		SetHTML("<p>rich</p>")

	if m.Text != "plain" {
		t.Errorf("Text: got %q, want %q", m.Text, "plain")
	}
	if m.HTML != "<p>rich</p>" {
		t.Errorf("HTML: got %q, want %q", m.HTML, "<p>rich</p>")
	}
}

func TestBuild_MissingBody(t *testing.T) {
	t.Parallel()

	m := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"})

	if _, err := m.Build(); !errors.Is(err, ErrMissingBody) {
		t.Errorf("Build: got %v, want ErrMissingBody", err)
	}
}

func TestBuild_SingleBodyVariant(t *testing.T) {
	t.Parallel()

	textOnly := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"}).SetText("t")
	if _, err := textOnly.Build(); err != nil {
		t.Errorf("Build with text: unexpected error: %v", err)
	}

	htmlOnly := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"}).SetHTML("<p>h</p>")
	if _, err := htmlOnly.Build(); err != nil {
		t.Errorf("Build with html: unexpected error: %v", err)
	}
}

func TestAddAttachment(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("attachment body"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"})
	if err := m.AddAttachment(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := m.Attachments[path]
	if !ok {
		t.Fatalf("attachment not stored under path key %q; have %v", path, m.Attachments)
	}
	if got != "attachment body" {
		t.Errorf("content: got %q, want %q", got, "attachment body")
	}
}

func TestAddAttachment_MissingFile(t *testing.T) {
	t.Parallel()

	m := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"})
	err := m.AddAttachment(filepath.Join(t.TempDir(), "does-not-exist.txt"))

	var sgErr *Error
	if !errors.As(err, &sgErr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if sgErr.Kind != KindIO {
		t.Errorf("Kind: got %v, want KindIO", sgErr.Kind)
	}
}

func TestAddAttachment_InvalidUTF8Path(t *testing.T) {
	t.Parallel()

	m := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"})
	err := m.AddAttachment(string([]byte{0xff, 0xfe, 0xfd}))

	var sgErr *Error
	if !errors.As(err, &sgErr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if sgErr.Kind != KindInvalidFilename {
		t.Errorf("Kind: got %v, want KindInvalidFilename", sgErr.Kind)
	}
}

func TestAddAttachment_NonUTF8Content(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "binary.dat")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"})
	err := m.AddAttachment(path)

	var sgErr *Error
	if !errors.As(err, &sgErr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if sgErr.Kind != KindIO {
		t.Errorf("Kind: got %v, want KindIO", sgErr.Kind)
	}
}

func TestAddHeader_OverwritesDuplicates(t *testing.T) {
	t.Parallel()

	m := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"}).
		AddHeader("X-Test", "1").
		AddHeader("X-Test", "2")

	if got := m.Headers["X-Test"]; got != "2" {
		t.Errorf("X-Test: got %q, want %q", got, "2")
	}
	if len(m.Headers) != 1 {
		t.Errorf("Headers: got %d entries, want 1", len(m.Headers))
	}
}

func TestAddContent_OverwritesDuplicates(t *testing.T) {
	t.Parallel()

	m := NewMail(Destination{Address: "a@x.com"}, "s", Destination{Address: "f@x.com"}).
		AddContent("logo", "old").
		AddContent("logo", "new")

	if got := m.Content["logo"]; got != "new" {
		t.Errorf("content[logo]: got %q, want %q", got, "new")
	}
}
