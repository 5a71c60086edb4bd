package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
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

func slideXML(text string) string {
	return `<p:sld xmlns:p="p" xmlns:a="a"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestExtractTextFromBytes_PPTXSlidesInOrder(t *testing.T) {
	files := map[string]string{"ppt/presentation.xml": "<p:presentation/>"}
	for i := 1; i <= 10; i++ {
		files["ppt/slides/slide"+strconv.Itoa(i)+".xml"] = slideXML("Slide " + strconv.Itoa(i))
	}
	data := buildZip(t, files)

	text, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "deck.pptx")
	if err != nil {
		t.Fatalf("ExtractTextFromBytes: %v", err)
	}
	if !strings.HasPrefix(text, "Slide 1\n") || !strings.HasSuffix(text, "Slide 10") {
		t.Fatalf("unexpected slide order: %q", text)
	}
	if strings.Index(text, "Slide 9") > strings.Index(text, "Slide 10") {
		t.Fatalf("slide 10 sorted before slide 9: %q", text)
	}
}

func TestExtractTextFromBytes_DOCX(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="w"><w:body><w:p><w:r><w:t>Team</w:t></w:r></w:p><w:p><w:r><w:t>Traction</w:t></w:r></w:p></w:body></w:document>`,
	})

	text, err := ExtractTextFromBytes(context.Background(), data, "", "memo.docx")
	if err != nil {
		t.Fatalf("ExtractTextFromBytes: %v", err)
	}
	if text != "Team\nTraction" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "hello"})

	_, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "notes.zip")
	if err == nil {
		t.Fatal("expected unsupported mime error for zip")
	}
	if !strings.Contains(err.Error(), "unsupported mime type: application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTextFromURL(t *testing.T) {
	deck := buildZip(t, map[string]string{
		"ppt/presentation.xml":  "<p:presentation/>",
		"ppt/slides/slide1.xml": slideXML("We sell shovels"),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(deck)
	}))
	defer srv.Close()

	ex := New(5 * time.Second)

	text, err := ex.TextFromURL(context.Background(), srv.URL+"/deck.pptx")
	if err != nil {
		t.Fatalf("TextFromURL: %v", err)
	}
	if text != "We sell shovels" {
		t.Fatalf("unexpected text %q", text)
	}

	_, err = ex.TextFromURL(context.Background(), srv.URL+"/missing.pdf")
	var extractErr *Error
	if !errors.As(err, &extractErr) || extractErr.Status != http.StatusNotFound {
		t.Fatalf("expected typed 404 error, got %v", err)
	}
}
