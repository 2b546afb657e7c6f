package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sertugser/assessai/internal/ocr"
)

// ocrFail writes the OCR error shape, which carries an empty text field.
func ocrFail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "text": ""})
}

func (s *Server) ocrUpload(c *gin.Context) {
	svc := s.deps.OCR
	if !svc.Configured() {
		s.deps.Metrics.OCRRequest("not_configured")
		ocrFail(c, http.StatusServiceUnavailable, "OCR service is not configured")
		return
	}

	// Leave headroom for the other multipart fields.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, svc.MaxBytes()+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.deps.Metrics.OCRRequest("too_large")
			ocrFail(c, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 10MB.")
			return
		}
		s.deps.Metrics.OCRRequest("missing_file")
		ocrFail(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	if header.Size > svc.MaxBytes() {
		s.deps.Metrics.OCRRequest("too_large")
		ocrFail(c, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 10MB.")
		return
	}

	f, err := header.Open()
	if err != nil {
		s.deps.Metrics.OCRRequest("error")
		ocrFail(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, svc.MaxBytes()+1))
	if err != nil {
		s.deps.Metrics.OCRRequest("error")
		ocrFail(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	res, err := svc.Extract(c.Request.Context(), data, header.Header.Get("Content-Type"), c.PostForm("source"))
	switch {
	case err == nil:
		s.deps.Metrics.OCRRequest("ok")
		c.JSON(http.StatusOK, res)
	case errors.Is(err, ocr.ErrUnsupportedType):
		s.deps.Metrics.OCRRequest("unsupported_type")
		ocrFail(c, http.StatusBadRequest, "Unsupported file type. Upload a PNG, JPEG or PDF.")
	case errors.Is(err, ocr.ErrEmptyFile):
		s.deps.Metrics.OCRRequest("missing_file")
		ocrFail(c, http.StatusBadRequest, "Uploaded file is empty")
	case errors.Is(err, ocr.ErrTooLarge):
		s.deps.Metrics.OCRRequest("too_large")
		ocrFail(c, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 10MB.")
	case errors.Is(err, ocr.ErrNotConfigured):
		s.deps.Metrics.OCRRequest("not_configured")
		ocrFail(c, http.StatusServiceUnavailable, "OCR service is not configured")
	default:
		s.deps.Metrics.OCRRequest("error")
		s.log.Error("ocr failed", "error", err, "request_id", c.GetString(ctxRequestID))
		ocrFail(c, http.StatusInternalServerError, "Failed to extract text from file")
	}
}
