package ocr

import (
	"context"
	"errors"
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/sertugser/assessai/internal/logger"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	pdfHeader  = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		want     string
		wantErr  bool
	}{
		{"png", pngHeader, "", MimePNG, false},
		{"jpeg", jpegHeader, "application/octet-stream", MimeJPEG, false},
		{"pdf", pdfHeader, "", MimePDF, false},
		{"sniff beats declared", pngHeader, "application/pdf", MimePNG, false},
		{"text rejected", []byte("hello world"), "text/plain", "", true},
		{"text declared as png rejected", []byte("hello world"), "image/png", "", true},
		{"gif rejected", []byte("GIF89a\x01\x00"), "image/gif", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectType(tt.data, tt.declared)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Fatalf("expected ErrUnsupportedType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	rec := &MockRecognizer{Pages: []Page{
		{Text: "  My summer holiday  ", Confidence: 0.9},
		{Text: "", Confidence: 0},
		{Text: "was great.", Confidence: 0.6},
	}}
	svc := NewService(rec, 0)

	res, err := svc.Extract(context.Background(), pdfHeader, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "My summer holiday\n\nwas great." {
		t.Errorf("text = %q", res.Text)
	}
	if res.Source != DefaultSource {
		t.Errorf("source = %q", res.Source)
	}
	if res.Confidence < 0.49 || res.Confidence > 0.51 {
		t.Errorf("confidence = %v, want 0.5", res.Confidence)
	}
	if calls := rec.Calls(); len(calls) != 1 || calls[0] != MimePDF {
		t.Errorf("calls = %v", calls)
	}

	res, err = svc.Extract(context.Background(), pngHeader, "image/png", "homework")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != "homework" {
		t.Errorf("source = %q", res.Source)
	}
}

func TestExtract_Errors(t *testing.T) {
	big := make([]byte, 11)
	copy(big, pngHeader)

	tests := []struct {
		name string
		svc  *Service
		data []byte
		want error
	}{
		{"not configured", NewService(nil, 0), pngHeader, ErrNotConfigured},
		{"empty", NewService(&MockRecognizer{}, 0), nil, ErrEmptyFile},
		{"too large", NewService(&MockRecognizer{}, 10), big, ErrTooLarge},
		{"unsupported", NewService(&MockRecognizer{}, 0), []byte("plain text"), ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Extract(context.Background(), tt.data, "", "")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExtract_RecognizerError(t *testing.T) {
	svc := NewService(&MockRecognizer{Err: errors.New("quota")}, 0)
	if _, err := svc.Extract(context.Background(), jpegHeader, "", ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestVisionRecognizer_Image(t *testing.T) {
	var got *visionpb.BatchAnnotateImagesRequest
	r := newVisionRecognizer(logger.Nop(), 0,
		func(_ context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			got = req
			return &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{
				FullTextAnnotation: &visionpb.TextAnnotation{
					Text: "Dear friend,",
					Pages: []*visionpb.Page{{
						Blocks: []*visionpb.Block{{Confidence: 0.8}, {Confidence: 0.6}},
					}},
				},
			}}}, nil
		}, nil)

	pages, err := r.Recognize(context.Background(), pngHeader, MimePNG)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0].Text != "Dear friend," {
		t.Fatalf("pages = %+v", pages)
	}
	if c := pages[0].Confidence; c < 0.69 || c > 0.71 {
		t.Errorf("confidence = %v, want block mean 0.7", c)
	}
	if f := got.GetRequests()[0].GetFeatures()[0].GetType(); f != visionpb.Feature_DOCUMENT_TEXT_DETECTION {
		t.Errorf("feature = %v", f)
	}
}

func TestVisionRecognizer_PDF(t *testing.T) {
	var got *visionpb.BatchAnnotateFilesRequest
	r := newVisionRecognizer(logger.Nop(), 0, nil,
		func(_ context.Context, req *visionpb.BatchAnnotateFilesRequest) (*visionpb.BatchAnnotateFilesResponse, error) {
			got = req
			return &visionpb.BatchAnnotateFilesResponse{Responses: []*visionpb.AnnotateFileResponse{{
				Responses: []*visionpb.AnnotateImageResponse{
					{FullTextAnnotation: &visionpb.TextAnnotation{Text: "page one", Pages: []*visionpb.Page{{Confidence: 0.9}}}},
					{FullTextAnnotation: &visionpb.TextAnnotation{Text: "page two", Pages: []*visionpb.Page{{Confidence: 0.7}}}},
				},
			}}}, nil
		})

	pages, err := r.Recognize(context.Background(), pdfHeader, MimePDF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %+v", pages)
	}
	req := got.GetRequests()[0]
	if len(req.GetPages()) != MaxPDFPages || req.GetPages()[0] != 1 {
		t.Errorf("requested pages = %v", req.GetPages())
	}
	if req.GetInputConfig().GetMimeType() != MimePDF {
		t.Errorf("mime = %q", req.GetInputConfig().GetMimeType())
	}
}

func TestVisionRecognizer_AnnotateError(t *testing.T) {
	r := newVisionRecognizer(logger.Nop(), 0,
		func(context.Context, *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return nil, errors.New("permission denied")
		}, nil)

	if _, err := r.Recognize(context.Background(), pngHeader, MimePNG); err == nil {
		t.Fatal("expected annotate error")
	}
}
