// Package validation pre-checks project submissions before they reach the
// Backend Gateway: the text form, the category selection and the media files.
// The backend re-validates everything; these checks only save a round trip and
// give field-specific messages.
package validation

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Fixed prefixes for social links.
const (
	TwitterPrefix = "https://x.com/"
	DiscordPrefix = "https://discord.gg/"

	MaxDescriptionRunes = 140
)

// ProjectForm is the text part of a project submission.
type ProjectForm struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required,max=140"`
	Website     string   `json:"website" validate:"omitempty,url"`
	Twitter     string   `json:"twitter" validate:"required,url,startswith=https://x.com/"`
	Discord     string   `json:"discord" validate:"omitempty,url,startswith=https://discord.gg/"`
	Categories  []string `json:"categories" validate:"min=1,max=3"`
}

// FieldErrors maps a JSON field name to a human-readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks f after trimming surrounding whitespace from text fields.
// It returns nil or a FieldErrors.
func Validate(f ProjectForm) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Website = strings.TrimSpace(f.Website)
	f.Twitter = strings.TrimSpace(f.Twitter)
	f.Discord = strings.TrimSpace(f.Discord)

	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		return "Name is required"
	case "description":
		if fe.Tag() == "max" {
			return "Description must be less than 140 characters"
		}
		return "Description is required"
	case "website":
		return "Website must start with https://"
	case "twitter":
		if fe.Tag() == "startswith" {
			return "Twitter must start with " + TwitterPrefix
		}
		return "Invalid URL, it must start with https://"
	case "discord":
		if fe.Tag() == "startswith" {
			return "Discord must start with " + DiscordPrefix
		}
		return "Invalid URL, it must start with https://"
	case "categories":
		if fe.Tag() == "max" {
			return "You can select up to 3 categories"
		}
		return "At least one category is required"
	}
	return fe.Error()
}

// WalletAddress reports whether addr is a well-formed EVM address.
func WalletAddress(addr string) bool {
	return validate.Var(strings.TrimSpace(addr), "required,eth_addr") == nil
}
