package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoleTokens(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "mentions",
			raw:  "<@&123> <@&456>",
			want: []string{"123", "456"},
		},
		{
			name: "raw ids",
			raw:  "123 456",
			want: []string{"123", "456"},
		},
		{
			name: "mixed with junk",
			raw:  "<@&123> everyone 456 @here",
			want: []string{"123", "456"},
		},
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, parseRoleTokens(tt.raw))
		})
	}
}
