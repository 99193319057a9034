package docload

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKindForPath(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"resume.pdf", KindPDF},
		{"resume.PDF", KindPDF},
		{"resume.docx", KindDOCX},
		{"posting.html", KindHTML},
		{"posting.htm", KindHTML},
		{"notes.txt", KindText},
		{"notes.md", KindText},
		{"noext", KindText},
	}
	for _, tt := range tests {
		if got := KindForPath(tt.path); got != tt.want {
			t.Errorf("KindForPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestLoadFile_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain resume text"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got != "plain resume text" {
		t.Errorf("LoadFile = %q", got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt"))

	var degraded *DegradedError
	if !errors.As(err, &degraded) {
		t.Fatalf("LoadFile error = %v, want *DegradedError", err)
	}
	if degraded.Kind != KindText {
		t.Errorf("Kind = %s, want text", degraded.Kind)
	}
}

func writeDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_DOCX(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Senior Go Engineer</w:t></w:r></w:p>
    <w:p><w:r><w:t>Built distributed </w:t></w:r><w:r><w:t>systems.</w:t></w:r></w:p>
  </w:body>
</w:document>`
	path := writeDOCX(t, doc)

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !strings.Contains(got, "Senior Go Engineer") {
		t.Errorf("missing first paragraph: %q", got)
	}
	if !strings.Contains(got, "Built distributed systems.") {
		t.Errorf("runs within a paragraph should join without breaks: %q", got)
	}
	if !strings.Contains(got, "Engineer\n") {
		t.Errorf("paragraphs should be newline-separated: %q", got)
	}
}

func TestLoadFile_DOCXWithoutDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("word/other.xml")
	w.Write([]byte("<x/>"))
	zw.Close()
	f.Close()

	_, err = LoadFile(path)
	var degraded *DegradedError
	if !errors.As(err, &degraded) || degraded.Kind != KindDOCX {
		t.Errorf("LoadFile error = %v, want docx DegradedError", err)
	}
}

func TestLoadFile_HTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posting.html")
	html := `<html><head><title>x</title><script>var a=1;</script><style>.b{}</style></head>
<body><h1>Backend Engineer</h1><p>Go, SQL, and gRPC experience.</p></body></html>`
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !strings.Contains(got, "Backend Engineer") || !strings.Contains(got, "gRPC experience") {
		t.Errorf("missing body text: %q", got)
	}
	if strings.Contains(got, "var a=1") {
		t.Errorf("script content leaked into text: %q", got)
	}
}

func TestFetchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Remote job posting</p></body></html>`))
	}))
	defer srv.Close()

	got, err := FetchURL(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("FetchURL: %v", err)
	}
	if !strings.Contains(got, "Remote job posting") {
		t.Errorf("FetchURL = %q", got)
	}
}

func TestFetchURL_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := FetchURL(context.Background(), srv.Client(), srv.URL)
	var degraded *DegradedError
	if !errors.As(err, &degraded) || degraded.Kind != KindHTML {
		t.Errorf("FetchURL error = %v, want html DegradedError", err)
	}
}
