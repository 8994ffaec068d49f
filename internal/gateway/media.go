package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/tbourn/go-curation-gateway/internal/domain"
)

// Multipart field names expected by the upload endpoint.
const (
	FieldLogo   = "projectLogo"
	FieldBanner = "projectBanner"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// FilePart is one file of an upload.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Upload sends every part in a single multipart request.
func (c *Client) Upload(ctx context.Context, token string, parts []FilePart) (*domain.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(p.Field), quoteEscaper.Replace(p.Filename)))
		ct := p.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, transportErr("upload", err)
		}
		if _, err := w.Write(p.Data); err != nil {
			return nil, transportErr("upload", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, transportErr("upload", err)
	}

	var out domain.UploadResult
	err := c.call(ctx, Request{
		Route: "upload", Method: http.MethodPost, Path: "/upload",
		Token: token, Body: &buf, ContentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
