package validation

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() ProjectForm {
	return ProjectForm{
		Name:        "Nad Swap",
		Description: "An AMM for nads",
		Website:     "https://nadswap.xyz",
		Twitter:     "https://x.com/nadswap",
		Discord:     "https://discord.gg/nadswap",
		Categories:  []string{"defi"},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, Validate(validForm()))

	f := validForm()
	f.Website, f.Discord = "", ""
	require.NoError(t, Validate(f), "optional links may be empty")
}

func TestValidate_FieldMessages(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*ProjectForm)
		field string
		msg   string
	}{
		{"blank name", func(f *ProjectForm) { f.Name = "   " }, "name", "Name is required"},
		{"empty description", func(f *ProjectForm) { f.Description = "" }, "description", "Description is required"},
		{"long description", func(f *ProjectForm) { f.Description = strings.Repeat("é", 141) }, "description", "Description must be less than 140 characters"},
		{"twitter wrong domain", func(f *ProjectForm) { f.Twitter = "https://twitter.com/nad" }, "twitter", "Twitter must start with https://x.com/"},
		{"twitter missing", func(f *ProjectForm) { f.Twitter = "" }, "twitter", "Invalid URL, it must start with https://"},
		{"bad website", func(f *ProjectForm) { f.Website = "not a url" }, "website", "Website must start with https://"},
		{"discord wrong domain", func(f *ProjectForm) { f.Discord = "https://discord.com/invite/x" }, "discord", "Discord must start with https://discord.gg/"},
		{"no categories", func(f *ProjectForm) { f.Categories = nil }, "categories", "At least one category is required"},
		{"four categories", func(f *ProjectForm) { f.Categories = []string{"a", "b", "c", "d"} }, "categories", "You can select up to 3 categories"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm()
			tc.mut(&f)
			err := Validate(f)
			require.Error(t, err)
			var fe FieldErrors
			require.True(t, errors.As(err, &fe), "expected FieldErrors, got %T", err)
			assert.Equal(t, tc.msg, fe[tc.field])
			assert.Len(t, fe, 1)
		})
	}
}

func TestValidate_DescriptionExactly140(t *testing.T) {
	f := validForm()
	f.Description = strings.Repeat("a", MaxDescriptionRunes)
	assert.NoError(t, Validate(f))
}

func TestWalletAddress(t *testing.T) {
	assert.True(t, WalletAddress("0x52908400098527886E0F7030069857D2E4169EE7"))
	assert.True(t, WalletAddress("0xde709f2102306220921060314715629080e2fb77"))
	assert.False(t, WalletAddress(""))
	assert.False(t, WalletAddress("0x123"))
	assert.False(t, WalletAddress("52908400098527886E0F7030069857D2E4169EE7"))
}

func TestSelection_CapAtThree(t *testing.T) {
	s := NewSelection()
	for _, id := range []string{"defi", "nft", "gaming"} {
		require.True(t, s.Toggle(id))
	}
	before := s.IDs()

	assert.True(t, s.Disabled("infra"), "4th option must be disabled")
	assert.False(t, s.Toggle("infra"), "4th selection must be rejected")
	assert.Equal(t, before, s.IDs(), "selection unchanged after rejected toggle")
	assert.False(t, s.Disabled("nft"), "selected options stay enabled")

	require.True(t, s.Toggle("nft"))
	assert.Equal(t, []string{"defi", "gaming"}, s.IDs())
	assert.False(t, s.Disabled("infra"))
	assert.True(t, s.Toggle("infra"))
	assert.Equal(t, 3, s.Len())
}

func TestNewSelection_DedupesAndCaps(t *testing.T) {
	s := NewSelection("a", "b", "a", "c", "d", "")
	assert.Equal(t, []string{"a", "b", "c"}, s.IDs())
	assert.True(t, s.Disabled("d"))
}

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	gifMagic  = []byte("GIF89a\x01\x00\x01\x00")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

func TestCheckMedia(t *testing.T) {
	mt, err := CheckMedia(Logo, pngMagic)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)

	mt, err = CheckMedia(Banner, gifMagic)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", mt)

	mt, err = CheckMedia(Logo, jpegMagic)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mt)

	_, err = CheckMedia(Logo, []byte("%PDF-1.7\n"))
	var me *MediaError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, ReasonWrongType, me.Reason)

	big := append(append([]byte{}, pngMagic...), bytes.Repeat([]byte{0}, MaxLogoBytes)...)
	_, err = CheckMedia(Logo, big)
	require.True(t, errors.As(err, &me))
	assert.Equal(t, ReasonTooLarge, me.Reason)
	assert.Equal(t, "Logo must be less than 1MB", me.Error())

	// The same bytes fit in the banner slot.
	_, err = CheckMedia(Banner, big)
	assert.NoError(t, err)

	_, err = CheckMedia(Banner, nil)
	require.True(t, errors.As(err, &me))
	assert.Equal(t, ReasonMissing, me.Reason)
}
