package textextract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/ledongthuc/pdf"

	"marineai-backend/internal/model"
)

// Extractor returns the raw text of a source file. An empty string with a nil
// error means the file had no extractable text; the ingestion pipeline treats
// that as a terminal extraction failure.
type Extractor interface {
	Extract(path, fileType string) (string, error)
}

// FileExtractor extracts PDF text via the pdf library and image text through
// an external OCR binary when one is available.
type FileExtractor struct {
	// OCRCommand is the OCR binary for image files, "tesseract" by default.
	// When the binary is not installed, image extraction yields no text.
	OCRCommand string
}

func New() *FileExtractor {
	return &FileExtractor{OCRCommand: "tesseract"}
}

func (e *FileExtractor) Extract(path, fileType string) (string, error) {
	switch fileType {
	case model.FileTypePDF:
		return e.extractPDF(path)
	case model.FileTypeImage:
		return e.extractImage(path)
	default:
		return "", fmt.Errorf("unsupported file type: %s", fileType)
	}
}

func (e *FileExtractor) extractPDF(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf failed: %w", err)
	}
	if len(b) == 0 {
		return "", nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(out), nil
}

func (e *FileExtractor) extractImage(path string) (string, error) {
	bin := e.OCRCommand
	if bin == "" {
		bin = "tesseract"
	}
	if _, err := exec.LookPath(bin); err != nil {
		// OCR not installed; no text to extract.
		return "", nil
	}
	// "-" writes the recognized text to stdout.
	out, err := exec.Command(bin, path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("ocr command failed: %w", err)
	}
	return string(out), nil
}
