package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCleanFromStdin(t *testing.T) {
	out, err := run(t, "Dear team,\nI build widgets.\n---\nThis letter highlights your skills.", "clean")
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if out != "Dear team,\nI build widgets.\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestResolveUsesFlags(t *testing.T) {
	out, err := run(t, "Regards, [your name] ([Email Address])", "resolve", "--name", "Robin Park", "--email", "robin@example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != "Regards, Robin Park (robin@example.com)\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

const sampleYAML = `name: Acme Platform
profile:
  name: Robin Park
  email: robin@example.com
content:
  header:
    fullName: "[Your Name]"
  recipient:
    company: Acme
  body: |
    Dear Hiring Manager,

    I would love to build widgets at Acme.
  closing: Best,
`

func TestRenderFallbackOnly(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "letter.yaml")
	if err := os.WriteFile(in, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	outPath := filepath.Join(dir, "letter.pdf")

	out, err := run(t, "", "render", "--in", in, "--out", outPath, "--fallback-only")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "(fallback,") {
		t.Fatalf("expected fallback path in output, got %q", out)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("expected a PDF")
	}
}

func TestLoadLetterRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letter.txt")
	if err := os.WriteFile(path, []byte("name: x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadLetter(path); err == nil {
		t.Fatal("expected error for .txt input")
	}
}

func TestLoadLetterJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letter.json")
	body := `{"name":"Acme","profile":{"name":"Robin Park"},"content":{"body":"Hello"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	letter, err := loadLetter(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if letter.Profile.Name != "Robin Park" || letter.Content.Body != "Hello" {
		t.Fatalf("unexpected letter %+v", letter)
	}
}
