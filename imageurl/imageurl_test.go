package imageurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	cases := map[string]bool{
		"https://x.com/a.png":                      true,
		"http://www.example.org/img/photo.JPEG":    true,
		"https://cdn.example.com/p/pic.webp?w=200": true,
		"https://example.com/anim.gif":             true,
		"https://example.com/old.bmp":              true,
		"https://example.com/a.jpg#frag":           true,
		"https://example.com/doc.pdf":              false,
		"https://example.com/image":                false,
		"ftp://example.com/a.png":                  false,
		"not-a-url":                                false,
		"":                                         false,
		"   ":                                      false,
		"https://example.com/a.png.txt":            false,
		"https://example.com/a.txt?f=b.png":        false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValid(in), "%q", in)
	}
}

func TestValidate(t *testing.T) {
	ok, invalid := Validate([]string{"https://x.com/a.png", "not-a-url"})
	assert.False(t, ok)
	assert.Equal(t, []string{"not-a-url"}, invalid)

	ok, invalid = Validate([]string{"b", "https://x.com/a.png", "a"})
	assert.False(t, ok)
	assert.Equal(t, []string{"b", "a"}, invalid)

	ok, invalid = Validate([]string{"https://x.com/a.png", "https://x.com/b.gif"})
	assert.True(t, ok)
	assert.Empty(t, invalid)

	ok, _ = Validate(nil)
	assert.True(t, ok)
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"https://x.com/a.png", "https://x.com/b.png", "https://x.com/a.png"})
	assert.Equal(t, []string{"https://x.com/a.png", "https://x.com/b.png"}, got)
}
