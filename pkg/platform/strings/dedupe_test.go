package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil passes through",
			input:    nil,
			expected: nil,
		},
		{
			name:     "comma-split env list with padding and repeats",
			input:    []string{" broker-1:9092 ", "broker-2:9092", "broker-1:9092", "", "  "},
			expected: []string{"broker-1:9092", "broker-2:9092"},
		},
		{
			name:     "first occurrence wins the order",
			input:    []string{"cashu", "fedimint", "cashu", "native"},
			expected: []string{"cashu", "fedimint", "native"},
		},
		{
			name:     "case is preserved",
			input:    []string{"Fedimint", "fedimint"},
			expected: []string{"Fedimint", "fedimint"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil passes through",
			input:    nil,
			expected: nil,
		},
		{
			name:     "case variants collapse to one entry",
			input:    []string{"Lightning", "lightning", "LIGHTNING"},
			expected: []string{"lightning"},
		},
		{
			name:     "trims before comparing",
			input:    []string{"  FEDIMINT ", "cashu", "Fedimint", "CASHU"},
			expected: []string{"fedimint", "cashu"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}
