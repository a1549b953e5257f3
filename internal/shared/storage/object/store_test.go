package object

import (
	"strings"
	"testing"
)

func TestExportKeyHashesUser(t *testing.T) {
	key := ExportKey("guest:abc", "exp-1", "Acme/Letter_2024-01-01.pdf")
	if strings.Contains(key, "guest:abc") {
		t.Fatalf("key leaks user id: %s", key)
	}
	if !strings.HasSuffix(key, "/exports/exp-1/Acme_Letter_2024-01-01.pdf") {
		t.Fatalf("unexpected key %s", key)
	}
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"abc/exports/1/file.pdf", true},
		{"", false},
		{"/etc/passwd", false},
		{"../secret", false},
		{"a/../../b", false},
		{"a\\..\\..\\b", false},
	}
	for _, tt := range tests {
		if got := ValidKey(tt.key); got != tt.want {
			t.Fatalf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestKeysAreStablePerOwner(t *testing.T) {
	a := ExportKey("google:1", "e", "x.pdf")
	b := ImportKey("google:1", "i", "x.pdf")
	if strings.SplitN(a, "/", 2)[0] != strings.SplitN(b, "/", 2)[0] {
		t.Fatalf("owner prefix differs: %s vs %s", a, b)
	}
	if len(strings.SplitN(a, "/", 2)[0]) != 64 {
		t.Fatalf("expected sha256 hex prefix, got %s", a)
	}
}

func TestSafeName(t *testing.T) {
	for in, want := range map[string]string{
		"Letter.pdf":   "Letter.pdf",
		"a\\b.pdf":     "a_b.pdf",
		"../etc":       "file",
		"   ":          "file",
		" Acme/x.pdf ": "Acme_x.pdf",
	} {
		if got := safeName(in); got != want {
			t.Fatalf("safeName(%q) = %q, want %q", in, got, want)
		}
	}
}
