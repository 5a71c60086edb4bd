package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ledongthuc/pdf"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Error is a failed extraction. Status is set when the fetch returned a non-success code.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("extract text url=%s: fetch status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("extract text url=%s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Extractor converts a document URL into plain text.
type Extractor struct {
	http *resty.Client
}

// New constructs an Extractor whose fetches time out after timeout.
func New(timeout time.Duration) *Extractor {
	return &Extractor{http: resty.New().SetTimeout(timeout)}
}

// TextFromURL downloads the document at url and returns its text.
func (e *Extractor) TextFromURL(ctx context.Context, url string) (string, error) {
	resp, err := e.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	if resp.IsError() {
		return "", &Error{URL: url, Status: resp.StatusCode()}
	}
	text, err := ExtractTextFromBytes(ctx, resp.Body(), resp.Header().Get("Content-Type"), path.Base(resp.Request.RawRequest.URL.Path))
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	return text, nil
}

// ExtractTextFromBytes extracts text from an in-memory payload.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractOOXML(data, func(name string) bool { return name == "word/document.xml" })
	case mimePPTX:
		return extractOOXML(data, isSlide)
	default:
		return "", fmt.Errorf("unsupported mime type: %s", normalized)
	}
}

func extractPDF(data []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func isSlide(name string) bool {
	return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
}

// extractOOXML concatenates the text of every part accepted by want, in part-name order.
func extractOOXML(data []byte, want func(name string) bool) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty document data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var parts []*zip.File
	for _, f := range zr.File {
		if want(strings.ReplaceAll(f.Name, "\\", "/")) {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts found")
	}
	// slide10 must follow slide9
	sort.Slice(parts, func(i, j int) bool {
		if len(parts[i].Name) != len(parts[j].Name) {
			return len(parts[i].Name) < len(parts[j].Name)
		}
		return parts[i].Name < parts[j].Name
	})

	var out []string
	for _, f := range parts {
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		if text := stripXML(string(raw)); text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n\n"), nil
}

func stripXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == "" || clean == "application/octet-stream" || clean == "binary/octet-stream" {
		clean = strings.Split(http.DetectContentType(data), ";")[0]
	}
	if clean != "application/zip" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	switch strings.ToLower(path.Ext(fileName)) {
	case ".docx":
		return mimeDOCX
	case ".pptx":
		return mimePPTX
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "word/document.xml":
			return mimeDOCX
		case "ppt/presentation.xml":
			return mimePPTX
		}
	}
	return ""
}
