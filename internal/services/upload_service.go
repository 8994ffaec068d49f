// Package services – UploadService
//
// UploadService checks the project images locally and forwards them to the
// backend in a single multipart request, so the logo and banner are stored
// together or not at all from the caller's point of view.
package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/tbourn/go-curation-gateway/internal/auth"
	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/gateway"
	"github.com/tbourn/go-curation-gateway/internal/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MediaBackend is the upload endpoint of the Backend Gateway.
type MediaBackend interface {
	Upload(ctx context.Context, token string, parts []gateway.FilePart) (*domain.UploadResult, error)
}

// MediaFile is one received file.
type MediaFile struct {
	Filename string
	Data     []byte
}

// UploadService validates and forwards project images.
type UploadService struct {
	Backend MediaBackend
	Auth    *auth.Inspector

	// RequireLogo rejects uploads without a logo.
	RequireLogo bool

	Now func() time.Time
}

// NewUploadService returns an UploadService.
func NewUploadService(b MediaBackend, in *auth.Inspector, requireLogo bool) *UploadService {
	return &UploadService{Backend: b, Auth: in, RequireLogo: requireLogo, Now: time.Now}
}

// Upload checks and forwards logo and banner. Either may be nil; a nil banner
// is omitted from the outbound request entirely.
func (s *UploadService) Upload(ctx context.Context, token string, logo, banner *MediaFile) (*domain.UploadResult, error) {
	tr := otel.Tracer("services/UploadService")
	ctx, span := tr.Start(ctx, "Upload",
		trace.WithAttributes(
			attribute.Bool("upload.logo", logo != nil),
			attribute.Bool("upload.banner", banner != nil),
		),
	)
	defer span.End()

	if err := authorize(s.Auth, token); err != nil {
		return nil, err
	}
	if logo == nil && (s.RequireLogo || banner == nil) {
		return nil, ErrMissingLogo
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	stamp := now().UnixMilli()

	parts := make([]gateway.FilePart, 0, 2)
	if logo != nil {
		p, err := part(validation.Logo, gateway.FieldLogo, "logo", stamp, logo)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	if banner != nil {
		p, err := part(validation.Banner, gateway.FieldBanner, "banner", stamp, banner)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return s.Backend.Upload(ctx, token, parts)
}

func part(kind validation.MediaKind, field, prefix string, stamp int64, f *MediaFile) (gateway.FilePart, error) {
	ct, err := validation.CheckMedia(kind, f.Data)
	if err != nil {
		return gateway.FilePart{}, err
	}
	return gateway.FilePart{
		Field:       field,
		Filename:    StampedName(prefix, stamp, f.Filename),
		ContentType: ct,
		Data:        f.Data,
	}, nil
}

// StampedName builds "<prefix>-<epoch ms>-<base name>". Directory components
// of the original name are dropped.
func StampedName(prefix string, stamp int64, original string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(original), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s-%d-%s", prefix, stamp, name)
}
