package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTicket_ChannelName(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     string
	}{
		{
			name:     "lowercased",
			username: "Alice",
			want:     "ticket-alice",
		},
		{
			name:     "already lowercase",
			username: "bob",
			want:     "ticket-bob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &Ticket{Username: tt.username}
			require.Equal(t, tt.want, ticket.ChannelName())
		})
	}
}
