// Package docload extracts plain text from job descriptions and resumes.
//
// Inputs are typed by label only (file extension or explicit kind); no
// magic-byte sniffing is performed. Extraction failures surface as a typed
// *DegradedError carrying whatever partial text was recovered, rather than
// being embedded in the returned text.
package docload

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Kind labels the declared format of an input document.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindText Kind = "text"
	KindHTML Kind = "html"
)

const maxFetchSize = 5 << 20 // 5MB

// DegradedError reports a partially failed extraction. Partial holds any text
// recovered before the failure; it may be empty.
type DegradedError struct {
	Kind    Kind
	Partial string
	Err     error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("extracting %s text: %v", e.Kind, e.Err)
}

func (e *DegradedError) Unwrap() error { return e.Err }

// KindForPath maps a file extension to a Kind. Unknown extensions are treated
// as plain text.
func KindForPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".html", ".htm":
		return KindHTML
	default:
		return KindText
	}
}

// LoadFile extracts plain text from the file at path, dispatching on its
// extension.
func LoadFile(path string) (string, error) {
	switch kind := KindForPath(path); kind {
	case KindPDF:
		return loadPDF(path)
	case KindDOCX:
		return loadDOCX(path)
	case KindHTML:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &DegradedError{Kind: KindHTML, Err: err}
		}
		return HTMLText(strings.NewReader(string(data)))
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &DegradedError{Kind: KindText, Err: err}
		}
		return string(data), nil
	}
}

// FetchURL downloads the given URL and extracts the page text. Intended for
// job postings pasted as links.
func FetchURL(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &DegradedError{Kind: KindHTML, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &DegradedError{Kind: KindHTML, Err: fmt.Errorf("url returned status %d", resp.StatusCode)}
	}

	body := io.LimitReader(resp.Body, maxFetchSize)
	return HTMLText(body)
}

func loadPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", &DegradedError{Kind: KindPDF, Err: err}
	}
	defer f.Close()

	var sb strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", &DegradedError{Kind: KindPDF, Partial: sb.String(), Err: fmt.Errorf("page %d: %w", i, err)}
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func loadDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", &DegradedError{Kind: KindDOCX, Err: err}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", &DegradedError{Kind: KindDOCX, Err: err}
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", &DegradedError{Kind: KindDOCX, Err: fmt.Errorf("word/document.xml not found in archive")}
}
