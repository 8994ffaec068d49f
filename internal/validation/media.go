package validation

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// MediaKind identifies which image slot a file is for.
type MediaKind string

const (
	Logo   MediaKind = "logo"
	Banner MediaKind = "banner"
)

// Size limits per slot.
const (
	MaxLogoBytes   = 1 << 20
	MaxBannerBytes = 2 << 20
)

// AllowedImageTypes are the accepted raster formats.
var AllowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// MediaReason says why a file was rejected.
type MediaReason string

const (
	ReasonTooLarge  MediaReason = "too_large"
	ReasonWrongType MediaReason = "wrong_type"
	ReasonMissing   MediaReason = "missing"
)

// MediaError is a rejected file.
type MediaError struct {
	Kind     MediaKind
	Reason   MediaReason
	Detected string // sniffed MIME type for ReasonWrongType
}

func (e *MediaError) Error() string {
	name := "Logo"
	limit := "1MB"
	if e.Kind == Banner {
		name, limit = "Banner", "2MB"
	}
	switch e.Reason {
	case ReasonTooLarge:
		return fmt.Sprintf("%s must be less than %s", name, limit)
	case ReasonWrongType:
		return fmt.Sprintf("%s must be a PNG, JPEG, WebP or GIF image (got %s)", name, e.Detected)
	default:
		return fmt.Sprintf("%s is required", name)
	}
}

// MaxBytes returns the size limit for kind.
func MaxBytes(kind MediaKind) int {
	if kind == Banner {
		return MaxBannerBytes
	}
	return MaxLogoBytes
}

// CheckMedia validates one file's size and sniffed content type. Size is
// checked first so an oversized file of the wrong type reports too large.
// It returns the detected MIME type on success.
func CheckMedia(kind MediaKind, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &MediaError{Kind: kind, Reason: ReasonMissing}
	}
	if len(data) > MaxBytes(kind) {
		return "", &MediaError{Kind: kind, Reason: ReasonTooLarge}
	}
	mt := mimetype.Detect(data)
	for _, allowed := range AllowedImageTypes {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", &MediaError{Kind: kind, Reason: ReasonWrongType, Detected: mt.String()}
}
