package notify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSMS(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantRunes int
	}{
		{"short message untouched", "pay your rent", 13},
		{"exactly at limit untouched", strings.Repeat("a", 160), 160},
		{"long ascii clipped", strings.Repeat("a", 200), 160},
		{"multi-byte clipped on rune boundary", strings.Repeat("€", 200), 160},
		{"mixed text clipped", "Dear Zoë, " + strings.Repeat("é", 180), 160},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateSMS(tt.message)
			assert.Equal(t, tt.wantRunes, utf8.RuneCountInString(got))
			assert.True(t, utf8.ValidString(got), "truncation must never split a rune")
			assert.True(t, strings.HasPrefix(tt.message, got))
		})
	}
}
