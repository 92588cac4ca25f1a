package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"empty", "", 0},
		{"below ratio", "abc", 0},
		{"exact ratio", "abcd", 1},
		{"rounds down", "abcdefg", 1},
		{"longer text", strings.Repeat("x", 400), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateTokens(tt.input))
		})
	}
}

func TestEstimateTokens_MatchesFloorLaw(t *testing.T) {
	for n := 0; n < 50; n++ {
		text := strings.Repeat("a", n)
		assert.Equal(t, n/4, EstimateTokens(text), "len=%d", n)
	}
}
