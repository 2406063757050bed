package helper

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	s := strings.Repeat("é", 10) // 2 bytes per rune

	// an odd byte limit would land mid-rune
	got := Truncate(s, 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "éé...", got)
}
