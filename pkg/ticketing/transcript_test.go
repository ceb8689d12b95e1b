package ticketing

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"
)

// pagedHistory serves a fixed message list in afterID pages, like the platform API does.
type pagedHistory struct {
	messages []*discordgo.Message
	fetches  int
}

func (h *pagedHistory) MessagesAfter(_ context.Context, _, afterID string, limit int) ([]*discordgo.Message, error) {
	h.fetches++
	start := 0
	if afterID != "" {
		for i, m := range h.messages {
			if m.ID == afterID {
				start = i + 1
				break
			}
		}
	}
	if start >= len(h.messages) {
		return nil, nil
	}
	end := start + limit
	if end > len(h.messages) {
		end = len(h.messages)
	}
	return h.messages[start:end], nil
}

func historyOf(n int) *pagedHistory {
	h := new(pagedHistory)
	for i := 0; i < n; i++ {
		h.messages = append(h.messages, &discordgo.Message{
			ID:        fmt.Sprintf("m%04d", i+1),
			Content:   fmt.Sprintf("message %d", i+1),
			Timestamp: time.Date(2024, 5, 1, 10, 0, i, 0, time.UTC),
			Author:    &discordgo.User{Username: "alice"},
		})
	}
	return h
}

func transcriptLines(t *testing.T, b []byte) []string {
	t.Helper()
	s := string(b)
	require.True(t, strings.HasSuffix(s, "\n"), "transcript must end with a newline")
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestTranscriptContainsEveryMessageInOrder(t *testing.T) {
	h := historyOf(5)
	b, err := NewTranscriptBuilder(h).Build(context.Background(), "c1")
	require.NoError(t, err)

	lines := transcriptLines(t, b)
	require.Len(t, lines, 5)
	for i, line := range lines {
		require.Equal(t, fmt.Sprintf("[01/05 10:00] alice: message %d", i+1), line)
	}
}

func TestTranscriptFlattensNewlines(t *testing.T) {
	h := new(pagedHistory)
	h.messages = append(h.messages, &discordgo.Message{
		ID:        "m1",
		Content:   "first line\nsecond line\r\nthird",
		Timestamp: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Author:    &discordgo.User{Username: "bob"},
	})

	b, err := NewTranscriptBuilder(h).Build(context.Background(), "c1")
	require.NoError(t, err)

	lines := transcriptLines(t, b)
	require.Len(t, lines, 1, "a multi-line message must occupy exactly one record")
	require.Equal(t, "[01/05 09:30] bob: first line second line third", lines[0])
}

func TestTranscriptEmptyChannelGetsPlaceholder(t *testing.T) {
	b, err := NewTranscriptBuilder(new(pagedHistory)).Build(context.Background(), "c1")
	require.NoError(t, err)

	lines := transcriptLines(t, b)
	require.Equal(t, []string{EmptyTranscript}, lines)
}

func TestTranscriptPagesThroughLongHistory(t *testing.T) {
	h := historyOf(250)
	b, err := NewTranscriptBuilder(h).Build(context.Background(), "c1")
	require.NoError(t, err)

	lines := transcriptLines(t, b)
	require.Len(t, lines, 250, "no truncation, regardless of depth")
	require.Contains(t, lines[0], "message 1")
	require.Contains(t, lines[249], "message 250")

	// Three full-ish pages plus the empty fetch that ends the loop.
	require.Equal(t, 4, h.fetches)
}

func TestTranscriptMissingAuthorDoesNotPanic(t *testing.T) {
	h := new(pagedHistory)
	h.messages = append(h.messages, &discordgo.Message{
		ID:        "m1",
		Content:   "system notice",
		Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	})

	b, err := NewTranscriptBuilder(h).Build(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "[01/05 09:00] unknown: system notice\n", string(b))
}
