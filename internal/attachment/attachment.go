// Package attachment turns CV and cover-letter files into the blob and text
// pair stored on a job application.
package attachment

import (
	"bytes"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	apperrors "jobvault/internal/common/errors"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var ErrUnsupportedType = stderrors.New("unsupported attachment type")

// Detect sniffs the MIME type of data.
func Detect(data []byte) string {
	return mimetype.Detect(data).String()
}

// ExtractText returns the plain text of a PDF, DOCX or text file. Anything
// else fails with ErrUnsupportedType wrapped in an ATTACHMENT_UNSUPPORTED error.
func ExtractText(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is(MimePDF):
		return extractPDFText(bytes.NewReader(data))
	case mt.Is(MimeDOCX):
		return extractDocxText(data)
	case mt.Is(MimeText):
		return strings.TrimSpace(string(data)), nil
	}

	se := apperrors.NewAttachmentUnsupportedError(mt.String())
	se.Cause = fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	return "", se
}

func extractPDFText(reader *bytes.Reader) (string, error) {
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		textBuilder.WriteString(text)
	}
	return strings.TrimSpace(textBuilder.String()), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return wordMLText(doc.Editable().GetContent())
}

// wordMLText keeps the character data of document.xml, one line per paragraph.
func wordMLText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		case xml.StartElement:
			if t.Name.Local == "tab" {
				sb.WriteByte('\t')
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Export writes data to a new file in cacheDir so the OS viewer can open it.
// The file name is random; the extension follows the detected type.
func Export(cacheDir string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("nothing to export")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}

	path := filepath.Join(cacheDir, uuid.NewString()+mimetype.Detect(data).Extension())
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return path, nil
}
