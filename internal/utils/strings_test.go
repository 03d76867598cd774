package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAssetID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  BTC ", "btc"},
		{"eth", "eth"},
		{" ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeAssetID(tt.input), "input %q", tt.input)
	}
}
