package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Baaaki/pet-adoption/internal/apperror"
	"github.com/Baaaki/pet-adoption/internal/service"
	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for the non-file form fields.
const multipartOverhead = 1 << 20

var errNoImage = apperror.Validation("no image file uploaded")

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// limitBody caps the whole request so an oversized upload fails while parsing.
func limitBody(c *gin.Context, maxImageBytes int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+multipartOverhead)
}

// readImage loads the named multipart file. The content type is sniffed from
// the bytes; the client supplied header is ignored.
func readImage(c *gin.Context, field string, maxBytes int64) (*service.ImageUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoImage
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.Validation(fmt.Sprintf("image must be at most %d bytes", maxBytes))
		}
		return nil, apperror.Wrap(apperror.KindValidation, "invalid multipart form", err)
	}
	if fh.Size > maxBytes {
		return nil, apperror.Validation(fmt.Sprintf("image must be at most %d bytes", maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if int64(len(data)) > maxBytes {
		return nil, apperror.Validation(fmt.Sprintf("image must be at most %d bytes", maxBytes))
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.Validation("only image uploads are allowed")
	}

	return &service.ImageUpload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: contentType,
	}, nil
}
