package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"coverletter-backend/internal/shared/storage/object/local"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Dear Hiring Manager,</w:t></w:r></w:p>
<w:p><w:r><w:t>I am excited to apply.</w:t></w:r></w:p>
</w:body>
</w:document>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDocx(t *testing.T) []byte {
	t.Helper()
	return buildDocxWith(t, documentXML)
}

func buildDocxWith(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml":            body,
		"word/_rels/document.xml.rels": documentRels,
	}
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextFromBytes_Docx(t *testing.T) {
	text, err := ExtractTextFromBytes(context.Background(), buildDocx(t), MimeDOCX, "letter.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "Dear Hiring Manager,\nI am excited to apply."
	if text != want {
		t.Fatalf("got %q want %q", text, want)
	}
}

func TestExtractTextFromBytes_DocxKeepsOnlyTextRuns(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>
      <w:r><w:instrText> DATE \@ "MMMM d, yyyy" </w:instrText></w:r>
      <w:r><w:t>March 5, 2024</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>Jane Doe</w:t><w:br/><w:t>Acme Corp</w:t></w:r>
    </w:p>
    <w:p><w:r><w:t xml:space="preserve">Dear </w:t></w:r><w:r><w:t>Hiring Manager,</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := ExtractTextFromBytes(context.Background(), buildDocxWith(t, body), MimeDOCX, "letter.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "March 5, 2024\nJane Doe\nAcme Corp\nDear Hiring Manager,"
	if text != want {
		t.Fatalf("got %q want %q", text, want)
	}
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	if _, err := ExtractTextFromBytes(context.Background(), buildDocx(t), "application/zip", "letter.docx"); err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = ExtractTextFromBytes(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestNormalizeMimeTypeFromExtension(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		fileName string
		data     []byte
		want     string
	}{
		{name: "declared pdf", mime: "application/pdf; charset=binary", fileName: "x", want: MimePDF},
		{name: "octet pdf ext", mime: "application/octet-stream", fileName: "letter.PDF", want: MimePDF},
		{name: "empty txt ext", mime: "", fileName: "letter.txt", want: MimeText},
		{name: "sniffed pdf", mime: "", fileName: "upload", data: []byte("%PDF-1.7"), want: MimePDF},
		{name: "unknown", mime: "image/png", fileName: "a.png", want: "image/png"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMimeType(tt.mime, tt.fileName, tt.data); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextStoresDerivedCopy(t *testing.T) {
	ctx := context.Background()
	store := local.New(t.TempDir())
	key := "user/imports/1/letter.txt"
	if _, err := store.Put(ctx, key, MimeText, strings.NewReader("  Hello there\r\n")); err != nil {
		t.Fatalf("put: %v", err)
	}

	text, err := ExtractText(ctx, store, key, MimeText, "letter.txt")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "Hello there" {
		t.Fatalf("unexpected text %q", text)
	}

	rc, err := store.Open(ctx, key+".extracted.txt")
	if err != nil {
		t.Fatalf("open derived copy: %v", err)
	}
	defer rc.Close()
	saved, _ := io.ReadAll(rc)
	if string(saved) != "Hello there" {
		t.Fatalf("unexpected derived copy %q", saved)
	}
}
