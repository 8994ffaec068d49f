// Upload HTTP handler: POST /upload (multipart projectLogo, projectBanner).
package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-curation-gateway/internal/gateway"
	"github.com/tbourn/go-curation-gateway/internal/http/middleware"
	"github.com/tbourn/go-curation-gateway/internal/services"
	"github.com/tbourn/go-curation-gateway/internal/validation"
)

// readPart loads one optional file field. Reads stop one byte past the
// slot's limit so oversized files are reported without buffering them.
func readPart(c *gin.Context, field string, kind validation.MediaKind) (*services.MediaFile, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return openPart(fh, kind)
}

func openPart(fh *multipart.FileHeader, kind validation.MediaKind) (*services.MediaFile, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, int64(validation.MaxBytes(kind))+1))
	if err != nil {
		return nil, err
	}
	return &services.MediaFile{Filename: fh.Filename, Data: data}, nil
}

// Upload godoc
// @ID          upload
// @Summary     Upload project images
// @Description Logo (≤1MB) and optional banner (≤2MB), PNG/JPEG/WebP/GIF. Both are forwarded in one request.
// @Tags        Projects
// @Accept      multipart/form-data
// @Produce     json
// @Param       projectLogo    formData  file  true   "Logo"
// @Param       projectBanner  formData  file  false  "Banner"
// @Success     200  {object} domain.UploadResult
// @Failure     400  {object} handlers.ErrorResponse "Missing or wrong-type file"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     413  {object} handlers.ErrorResponse "File too large"
// @Failure     500  {object} handlers.ErrorResponse "Upload failed"
// @Router      /upload [post]
func (h *Handlers) Upload(c *gin.Context) {
	tok := middleware.SessionToken(c)
	if !requireToken(c, tok) {
		return
	}
	logo, err := readPart(c, gateway.FieldLogo, validation.Logo)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart body")
		return
	}
	banner, err := readPart(c, gateway.FieldBanner, validation.Banner)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart body")
		return
	}
	res, err := h.uploads.Upload(c.Request.Context(), tok, logo, banner)
	if err != nil {
		respond(c, err, "Upload failed")
		return
	}
	ok(c, http.StatusOK, res)
}
