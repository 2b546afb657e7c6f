// Package ocr extracts text from uploaded images and PDFs.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
)

// Sentinel errors returned by Service.Extract.
var (
	ErrUnsupportedType = errors.New("ocr: unsupported file type")
	ErrTooLarge        = errors.New("ocr: file too large")
	ErrNotConfigured   = errors.New("ocr: not configured")
	ErrEmptyFile       = errors.New("ocr: empty file")
)

// Accepted MIME types.
const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimePDF  = "application/pdf"
)

// DefaultMaxBytes is the upload limit.
const DefaultMaxBytes = 10 << 20

// DefaultSource labels results without an explicit source.
const DefaultSource = "upload"

// MaxPDFPages is the number of leading PDF pages sent for recognition.
const MaxPDFPages = 5

// Page is recognized text with a confidence in 0..1.
type Page struct {
	Text       string
	Confidence float64
}

// Recognizer turns file bytes into pages of text.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte, mimeType string) ([]Page, error)
	Close() error
}

// Result is the response body of a successful extraction.
type Result struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// Service validates uploads and delegates to a Recognizer.
type Service struct {
	rec      Recognizer
	maxBytes int64
}

// NewService creates a Service. rec may be nil, in which case Extract
// returns ErrNotConfigured.
func NewService(rec Recognizer, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{rec: rec, maxBytes: maxBytes}
}

// MaxBytes returns the upload limit.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Configured reports whether a Recognizer is set.
func (s *Service) Configured() bool { return s.rec != nil }

// Extract recognizes data. declaredType is the client's content type and is
// only trusted when sniffing is inconclusive.
func (s *Service) Extract(ctx context.Context, data []byte, declaredType, source string) (Result, error) {
	if s.rec == nil {
		return Result{}, ErrNotConfigured
	}
	if len(data) == 0 {
		return Result{}, ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return Result{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), s.maxBytes)
	}
	mimeType, err := DetectType(data, declaredType)
	if err != nil {
		return Result{}, err
	}

	pages, err := s.rec.Recognize(ctx, data, mimeType)
	if err != nil {
		return Result{}, fmt.Errorf("recognize: %w", err)
	}

	source = strings.TrimSpace(source)
	if source == "" {
		source = DefaultSource
	}
	return Result{Text: joinPages(pages), Source: source, Confidence: meanConfidence(pages)}, nil
}

// Close releases the Recognizer.
func (s *Service) Close() error {
	if s.rec == nil {
		return nil
	}
	return s.rec.Close()
}

// DetectType returns the MIME type of data, or ErrUnsupportedType.
func DetectType(data []byte, declared string) (string, error) {
	sniffed := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(sniffed, MimePNG):
		return MimePNG, nil
	case strings.HasPrefix(sniffed, MimeJPEG):
		return MimeJPEG, nil
	case strings.HasPrefix(sniffed, MimePDF):
		return MimePDF, nil
	}

	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if sniffed == "application/octet-stream" {
		switch declared {
		case MimePNG, MimeJPEG, MimePDF:
			return declared, nil
		case "image/jpg":
			return MimeJPEG, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, sniffed)
}

func joinPages(pages []Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

func meanConfidence(pages []Page) float64 {
	if len(pages) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pages {
		sum += p.Confidence
	}
	return math.Max(0, math.Min(1, sum/float64(len(pages))))
}
