package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/sertugser/assessai/internal/logger"
)

// VisionOptions configures the Cloud Vision recognizer.
type VisionOptions struct {
	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string
	Timeout         time.Duration
}

type (
	annotateImagesFunc func(context.Context, *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
	annotateFilesFunc  func(context.Context, *visionpb.BatchAnnotateFilesRequest) (*visionpb.BatchAnnotateFilesResponse, error)
)

// VisionRecognizer runs document text detection through Cloud Vision.
type VisionRecognizer struct {
	log     *logger.Logger
	timeout time.Duration

	client         *vision.ImageAnnotatorClient
	annotateImages annotateImagesFunc
	annotateFiles  annotateFilesFunc
}

// NewVision dials Cloud Vision.
func NewVision(ctx context.Context, opts VisionOptions, log *logger.Logger) (*VisionRecognizer, error) {
	if log == nil {
		log = logger.Nop()
	}
	var clientOpts []option.ClientOption
	if f := strings.TrimSpace(opts.CredentialsFile); f != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(f))
	}

	c, err := vision.NewImageAnnotatorClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	r := newVisionRecognizer(log, opts.Timeout,
		func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return c.BatchAnnotateImages(ctx, req)
		},
		func(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest) (*visionpb.BatchAnnotateFilesResponse, error) {
			return c.BatchAnnotateFiles(ctx, req)
		})
	r.client = c
	return r, nil
}

func newVisionRecognizer(log *logger.Logger, timeout time.Duration, images annotateImagesFunc, files annotateFilesFunc) *VisionRecognizer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VisionRecognizer{
		log:            log.With("component", "ocr-vision"),
		timeout:        timeout,
		annotateImages: images,
		annotateFiles:  files,
	}
}

// Recognize sends images through BatchAnnotateImages and PDFs inline
// through BatchAnnotateFiles, limited to the first MaxPDFPages pages.
func (r *VisionRecognizer) Recognize(ctx context.Context, data []byte, mimeType string) ([]Page, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	var (
		pages []Page
		err   error
	)
	if mimeType == MimePDF {
		pages, err = r.recognizeFile(ctx, data, mimeType)
	} else {
		pages, err = r.recognizeImage(ctx, data)
	}
	if err != nil {
		return nil, err
	}
	r.log.Debug("vision ocr", "mime", mimeType, "bytes", len(data), "pages", len(pages), "latency", time.Since(start))
	return pages, nil
}

func (r *VisionRecognizer) recognizeImage(ctx context.Context, data []byte) ([]Page, error) {
	resp, err := r.annotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: data},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	return pagesFromResponses(resp.GetResponses())
}

func (r *VisionRecognizer) recognizeFile(ctx context.Context, data []byte, mimeType string) ([]Page, error) {
	pageNums := make([]int32, MaxPDFPages)
	for i := range pageNums {
		pageNums[i] = int32(i + 1)
	}

	resp, err := r.annotateFiles(ctx, &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{{
			InputConfig: &visionpb.InputConfig{Content: data, MimeType: mimeType},
			Features:    []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			Pages:       pageNums,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateFiles: %w", err)
	}

	var pages []Page
	for _, fr := range resp.GetResponses() {
		if e := fr.GetError(); e != nil && e.GetMessage() != "" {
			return nil, fmt.Errorf("vision annotate error: %s", e.GetMessage())
		}
		p, err := pagesFromResponses(fr.GetResponses())
		if err != nil {
			return nil, err
		}
		pages = append(pages, p...)
	}
	return pages, nil
}

func pagesFromResponses(responses []*visionpb.AnnotateImageResponse) ([]Page, error) {
	pages := make([]Page, 0, len(responses))
	for _, ir := range responses {
		if ir == nil {
			continue
		}
		if e := ir.GetError(); e != nil && e.GetMessage() != "" {
			return nil, fmt.Errorf("vision annotate error: %s", e.GetMessage())
		}
		fta := ir.GetFullTextAnnotation()
		if fta == nil {
			pages = append(pages, Page{})
			continue
		}
		pages = append(pages, Page{Text: fta.GetText(), Confidence: annotationConfidence(fta)})
	}
	return pages, nil
}

// annotationConfidence averages page confidence, falling back to block
// confidence when pages report none.
func annotationConfidence(fta *visionpb.TextAnnotation) float64 {
	var sum float64
	n := 0
	for _, pg := range fta.GetPages() {
		c := float64(pg.GetConfidence())
		if c <= 0 {
			c = avgBlockConfidence(pg.GetBlocks())
		}
		if c > 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func avgBlockConfidence(blocks []*visionpb.Block) float64 {
	var sum float64
	n := 0
	for _, b := range blocks {
		if b != nil && b.GetConfidence() > 0 {
			sum += float64(b.GetConfidence())
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Close closes the Vision client.
func (r *VisionRecognizer) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
